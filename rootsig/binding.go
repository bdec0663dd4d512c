// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package rootsig merges per-stage shader reflection into a single
// binding table and emits a backend-specific root signature / pipeline
// layout artifact (D3D12 root parameters, a Vulkan descriptor-set-layout
// list plus push-constant ranges, or a GL uniform-location table).
package rootsig

import "github.com/coregpu/corevk/gputypes"

// DescriptorKind is the shape of a single reflected binding, independent
// of any backend's native descriptor type enum.
type DescriptorKind uint8

const (
	DescriptorKindUniformBuffer DescriptorKind = iota
	DescriptorKindStorageBuffer
	DescriptorKindReadOnlyStorageBuffer
	DescriptorKindSampledTexture
	DescriptorKindStorageTexture
	DescriptorKindSampler
	DescriptorKindCombinedImageSampler
	DescriptorKindPushConstant
)

// Binding is one reflected binding from a single shader stage.
type Binding struct {
	// Set is the descriptor set index (0..3).
	Set uint32
	// Index is the binding number within Set.
	Index uint32
	// Name is the binding's identifier in shader source, used to build
	// the name lookup table and for GL uniform-location resolution.
	Name string
	Kind DescriptorKind
	// Count is the element count; array-sized bindings count as N.
	Count uint32
	// InternalBufferSize is the reflected size, in bytes, of the backing
	// buffer for buffer-kind bindings; stages disagreeing on this value
	// fail the merge.
	InternalBufferSize uint64
	// ImmutableSamplerCount is non-zero only for DescriptorKindSampler or
	// DescriptorKindCombinedImageSampler bindings the caller has supplied
	// static samplers for.
	ImmutableSamplerCount uint32
	// PushConstantRange is valid only when Kind is DescriptorKindPushConstant.
	PushConstantRange gputypes.PushConstantRange
}

// StageReflection is one shader stage's reflected bindings, the input
// unit the merge algorithm walks.
type StageReflection struct {
	Stage    gputypes.ShaderStage
	Bindings []Binding
}

// MergedBinding is a Binding after cross-stage merge, carrying the union
// of every stage that references it.
type MergedBinding struct {
	Binding
	Visibility gputypes.ShaderStages
	Class      BindingClass
	// TableIndex is this binding's slot within its descriptor table
	// (meaningful only when Class is ClassDescriptorTableEntry or
	// ClassImmutableSampler).
	TableIndex uint32
}

// BindingClass is the result of classifying a MergedBinding.
type BindingClass uint8

const (
	ClassRootConstant BindingClass = iota
	ClassRootDescriptor
	ClassDescriptorTableEntry
	ClassImmutableSampler
)

func (k DescriptorKind) isSampler() bool {
	return k == DescriptorKindSampler || k == DescriptorKindCombinedImageSampler
}
