// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rootsig

import "github.com/coregpu/corevk/gputypes"

// D3D12RootParameterKind distinguishes the three root-parameter shapes
// §4.C's D3D12 emission step produces.
type D3D12RootParameterKind uint8

const (
	D3D12RootConstants D3D12RootParameterKind = iota
	D3D12DescriptorTable
	D3D12StaticSampler
)

// D3D12RootParameter is one entry of the emitted root-parameter list.
type D3D12RootParameter struct {
	Kind       D3D12RootParameterKind
	Visibility gputypes.ShaderStages
	// Set is the descriptor set this parameter originated from (tables
	// and static samplers only).
	Set uint32
	// IsSamplerTable distinguishes the Sampler table from the
	// CBV/SRV/UAV table when Kind is D3D12DescriptorTable.
	IsSamplerTable bool
	// DescriptorCount is the table's size, or the push-constant range's
	// length in 32-bit values when Kind is D3D12RootConstants.
	DescriptorCount uint32
}

// VulkanDescriptorSetLayout is one emitted Vulkan descriptor-set layout.
type VulkanDescriptorSetLayout struct {
	Set      uint32
	Bindings []MergedBinding
}

// VulkanArtifact is §4.C's Vulkan emission: one descriptor-set-layout
// per set plus the pipeline layout's push-constant ranges.
type VulkanArtifact struct {
	SetLayouts         []VulkanDescriptorSetLayout
	PushConstantRanges []gputypes.PushConstantRange
}

// GLUniform is one entry of the GL uniform-location table.
type GLUniform struct {
	Name     string
	Location uint32
	// UBOBinding is the binding index used for uniform buffer objects;
	// set only when the binding's Kind is DescriptorKindUniformBuffer.
	UBOBinding uint32
}

// GLArtifact is §4.C's GL emission: a uniform name → location table
// plus the UBO binding indices.
type GLArtifact struct {
	Uniforms []GLUniform
}

// Artifact bundles every backend-specific emission for a compiled root
// signature, so callers can pick the one matching the active backend
// variant without recompiling.
type Artifact struct {
	D3D12  []D3D12RootParameter
	Vulkan VulkanArtifact
	GL     GLArtifact
}

func emit(bindings []MergedBinding, counts [maxDescriptorSets]tableCounts) Artifact {
	return Artifact{
		D3D12:  emitD3D12(bindings, counts),
		Vulkan: emitVulkan(bindings),
		GL:     emitGL(bindings),
	}
}

func emitD3D12(bindings []MergedBinding, counts [maxDescriptorSets]tableCounts) []D3D12RootParameter {
	var params []D3D12RootParameter

	for _, b := range bindings {
		if b.Class == ClassRootConstant {
			params = append(params, D3D12RootParameter{
				Kind:            D3D12RootConstants,
				Visibility:      b.Visibility,
				DescriptorCount: (b.PushConstantRange.End - b.PushConstantRange.Start) / 4,
			})
		}
	}

	for set := uint32(0); set < maxDescriptorSets; set++ {
		c := counts[set]
		if c.cbvSrvUavDescriptors > 0 {
			params = append(params, D3D12RootParameter{
				Kind:            D3D12DescriptorTable,
				Set:             set,
				DescriptorCount: c.cbvSrvUavDescriptors,
				Visibility:      visibilityForSet(bindings, set, false),
			})
		}
		if c.samplerDescriptors > 0 {
			params = append(params, D3D12RootParameter{
				Kind:            D3D12DescriptorTable,
				Set:             set,
				IsSamplerTable:  true,
				DescriptorCount: c.samplerDescriptors,
				Visibility:      visibilityForSet(bindings, set, true),
			})
		}
		if c.immutableSamplers > 0 {
			params = append(params, D3D12RootParameter{
				Kind:            D3D12StaticSampler,
				Set:             set,
				DescriptorCount: c.immutableSamplers,
				Visibility:      visibilityForSet(bindings, set, true),
			})
		}
	}

	return params
}

// visibilityForSet unions the visibility of every binding in set whose
// table membership (sampler table vs. CBV/SRV/UAV table) matches
// samplerTable, so the emitted root parameter denies stages that never
// touch the table it covers.
func visibilityForSet(bindings []MergedBinding, set uint32, samplerTable bool) gputypes.ShaderStages {
	var vis gputypes.ShaderStages
	for _, b := range bindings {
		if b.Set != set {
			continue
		}
		isSamplerBinding := b.Kind == DescriptorKindSampler || b.Class == ClassImmutableSampler
		if isSamplerBinding != samplerTable {
			continue
		}
		vis |= b.Visibility
	}
	return vis
}

func emitVulkan(bindings []MergedBinding) VulkanArtifact {
	bySet := make(map[uint32][]MergedBinding)
	var pushConstants []gputypes.PushConstantRange
	var setOrder []uint32
	seen := make(map[uint32]bool)

	for _, b := range bindings {
		if b.Class == ClassRootConstant {
			pushConstants = append(pushConstants, b.PushConstantRange)
			continue
		}
		if !seen[b.Set] {
			seen[b.Set] = true
			setOrder = append(setOrder, b.Set)
		}
		bySet[b.Set] = append(bySet[b.Set], b)
	}

	layouts := make([]VulkanDescriptorSetLayout, 0, len(setOrder))
	for _, set := range setOrder {
		layouts = append(layouts, VulkanDescriptorSetLayout{Set: set, Bindings: bySet[set]})
	}

	return VulkanArtifact{SetLayouts: layouts, PushConstantRanges: pushConstants}
}

func emitGL(bindings []MergedBinding) GLArtifact {
	var location uint32
	artifact := GLArtifact{}
	for _, b := range bindings {
		if b.Class == ClassRootConstant {
			continue
		}
		u := GLUniform{Name: b.Name, Location: location}
		if b.Kind == DescriptorKindUniformBuffer {
			u.UBOBinding = b.Index
		}
		artifact.Uniforms = append(artifact.Uniforms, u)
		location += b.Count
	}
	return artifact
}
