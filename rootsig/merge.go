// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rootsig

import "sort"

type setBindingKey struct {
	set   uint32
	index uint32
}

// Merge walks every stage's bindings and produces one MergedBinding per
// distinct (set, binding), unioning visibility across stages that share
// it. Bindings disagreeing on type, count, immutable-sampler count, or
// internal buffer size fail with IncompatibleShaderBindings.
//
// Push-constant bindings (Kind == DescriptorKindPushConstant) are merged
// by stage instead of by (set, binding), since push constants have no
// descriptor-table home; Set/Index are ignored for them.
func Merge(stages []StageReflection) ([]MergedBinding, error) {
	merged := make(map[setBindingKey]*MergedBinding)
	var pushConstants []MergedBinding
	var order []setBindingKey

	for _, stage := range stages {
		for _, b := range stage.Bindings {
			if b.Kind == DescriptorKindPushConstant {
				pushConstants = append(pushConstants, MergedBinding{
					Binding:    b,
					Visibility: stage.Stage,
				})
				continue
			}
			if b.Set >= maxDescriptorSets {
				return nil, maxDescriptorSetsExceeded(b.Set)
			}

			key := setBindingKey{b.Set, b.Index}
			existing, ok := merged[key]
			if !ok {
				merged[key] = &MergedBinding{
					Binding:    b,
					Visibility: stage.Stage,
				}
				order = append(order, key)
				continue
			}

			if err := reconcile(existing, b); err != nil {
				return nil, err
			}
			existing.Visibility |= stage.Stage
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].set != order[j].set {
			return order[i].set < order[j].set
		}
		return order[i].index < order[j].index
	})

	result := make([]MergedBinding, 0, len(order)+len(pushConstants))
	for _, key := range order {
		result = append(result, *merged[key])
	}
	result = append(result, pushConstants...)
	return result, nil
}

// reconcile checks that a second stage's view of an already-recorded
// binding agrees with the first, per the merge algorithm's "require
// agreement" rule.
func reconcile(existing *MergedBinding, next Binding) error {
	if existing.Kind != next.Kind {
		return incompatibleBindings(next.Set, next.Index, "descriptor type disagreement across stages")
	}
	if existing.Count != next.Count {
		return incompatibleBindings(next.Set, next.Index, "element count disagreement across stages")
	}
	if existing.ImmutableSamplerCount != next.ImmutableSamplerCount {
		return incompatibleBindings(next.Set, next.Index, "immutable sampler count disagreement across stages")
	}
	if existing.InternalBufferSize != next.InternalBufferSize {
		return incompatibleBindings(next.Set, next.Index, "internal buffer size disagreement across stages")
	}
	return nil
}
