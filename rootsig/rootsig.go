// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rootsig

import "github.com/coregpu/corevk/gputypes"

// RootSignature is the compiled result of merging a set of shader
// stages' reflected bindings: a classified, table-assigned binding list
// plus the lookup maps and backend artifacts built from it.
type RootSignature struct {
	Bindings []MergedBinding
	Artifact Artifact

	byName        map[string]int
	bySetIndex    map[setBindingKey]int
	pushConstants map[gputypes.ShaderStage]*MergedBinding
}

// Compile runs the full §4.C algorithm: merge, classify, assign table
// slots, emit backend artifacts, and build the index maps.
func Compile(stages []StageReflection) (*RootSignature, error) {
	merged, err := Merge(stages)
	if err != nil {
		return nil, err
	}

	counts, err := classify(merged)
	if err != nil {
		return nil, err
	}

	rs := &RootSignature{
		Bindings:      merged,
		Artifact:      emit(merged, counts),
		byName:        make(map[string]int, len(merged)),
		bySetIndex:    make(map[setBindingKey]int, len(merged)),
		pushConstants: make(map[gputypes.ShaderStage]*MergedBinding),
	}
	for i := range rs.Bindings {
		b := &rs.Bindings[i]
		if b.Name != "" {
			rs.byName[b.Name] = i
		}
		if b.Class == ClassRootConstant {
			for _, stage := range splitStages(b.Visibility) {
				if existing, ok := rs.pushConstants[stage]; ok && *existing != *b {
					return nil, ErrAmbiguousPushConstant
				}
				rs.pushConstants[stage] = b
			}
			continue
		}
		rs.bySetIndex[setBindingKey{b.Set, b.Index}] = i
	}

	return rs, nil
}

// DescriptorIndex returns the index in rs.Bindings of the binding named
// name and true, or false if no binding with that name exists.
func (rs *RootSignature) DescriptorIndex(name string) (int, bool) {
	i, ok := rs.byName[name]
	return i, ok
}

// DescriptorIndexAt returns the index in rs.Bindings of the binding at
// (set, index) and true, or false if no such binding exists in the
// compiled signature.
func (rs *RootSignature) DescriptorIndexAt(set, index uint32) (int, bool) {
	i, ok := rs.bySetIndex[setBindingKey{set, index}]
	return i, ok
}

// FindPushConstantDescriptor returns the single push-constant binding
// visible to stage and true, or false if no push-constant binding is
// visible to stage. Disagreeing push-constant bindings make Compile fail
// with ErrAmbiguousPushConstant, so a compiled signature holds no
// ambiguous entry.
func (rs *RootSignature) FindPushConstantDescriptor(stage gputypes.ShaderStage) (MergedBinding, bool) {
	b, ok := rs.pushConstants[stage]
	if !ok {
		return MergedBinding{}, false
	}
	return *b, true
}

func splitStages(stages gputypes.ShaderStages) []gputypes.ShaderStage {
	var out []gputypes.ShaderStage
	for _, s := range []gputypes.ShaderStage{
		gputypes.ShaderStageVertex,
		gputypes.ShaderStageFragment,
		gputypes.ShaderStageCompute,
	} {
		if stages&s != 0 {
			out = append(out, s)
		}
	}
	return out
}
