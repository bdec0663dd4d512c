// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package descset manages descriptor-set arrays: per-frame allocation,
// staged updates type-checked against a compiled rootsig.RootSignature,
// and flush-before-bind semantics.
package descset

import (
	"fmt"

	"github.com/coregpu/corevk"
	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/rootsig"
)

// TextureBindType selects which view of a texture a binding resolves
// to; it exists so a combined depth/stencil resource can be bound as
// either aspect without two separate handle types.
type TextureBindType uint8

const (
	TextureBindColor TextureBindType = iota
	TextureBindDepthOnly
	TextureBindStencilOnly
)

func (t TextureBindType) String() string {
	switch t {
	case TextureBindColor:
		return "Color"
	case TextureBindDepthOnly:
		return "DepthOnly"
	case TextureBindStencilOnly:
		return "StencilOnly"
	default:
		return fmt.Sprintf("TextureBindType(%d)", int(t))
	}
}

// DescriptorKey names a binding to update, either by its reflected name
// or by its (set, binding) slot, matching §4.D's "resolves via the name
// or (set, binding) map".
type DescriptorKey struct {
	name      string
	hasSlot   bool
	set       uint32
	index     uint32
}

// ByName builds a DescriptorKey that resolves through the name map.
func ByName(name string) DescriptorKey { return DescriptorKey{name: name} }

// BySetBinding builds a DescriptorKey that resolves through the
// (set, binding) map.
func BySetBinding(set, index uint32) DescriptorKey {
	return DescriptorKey{hasSlot: true, set: set, index: index}
}

func (k DescriptorKey) String() string {
	if k.hasSlot {
		return fmt.Sprintf("(set=%d, binding=%d)", k.set, k.index)
	}
	return k.name
}

func (k DescriptorKey) resolve(rs *rootsig.RootSignature) (int, bool) {
	if k.hasSlot {
		return rs.DescriptorIndexAt(k.set, k.index)
	}
	return rs.DescriptorIndex(k.name)
}

// Update is a single staged descriptor write.
type Update struct {
	ArrayIndex      uint32
	Key             DescriptorKey
	Elements        []gputypes.BindingResource
	DstElementOffset uint32
	TextureBindType  TextureBindType
}

type pendingWrite struct {
	bindingIdx int
	elements   []gputypes.BindingResource
	offset     uint32
}

// Array is a handle to `length` descriptor sets allocated from a
// per-frame heap, all sharing the same layout.
type Array struct {
	layout  *rootsig.RootSignature
	length  uint32
	pending map[uint32][]pendingWrite // arrayIndex -> staged writes
	bound   map[uint32]map[int][]gputypes.BindingResource
}

// CreateDescriptorSetArray allocates length descriptor sets against
// layout, per §4.D.
func CreateDescriptorSetArray(layout *rootsig.RootSignature, length uint32) *Array {
	return &Array{
		layout:  layout,
		length:  length,
		pending: make(map[uint32][]pendingWrite),
		bound:   make(map[uint32]map[int][]gputypes.BindingResource),
	}
}

// Len returns the number of descriptor sets in the array.
func (a *Array) Len() uint32 { return a.length }

// Update stages u into the array's per-array-index write buffer. It is
// type-checked immediately so a caller gets an error at the call site
// rather than at the next Flush.
func (a *Array) Update(u Update) error {
	if u.ArrayIndex >= a.length {
		return gpucore.InvalidParameter(fmt.Sprintf("array index %d >= length %d", u.ArrayIndex, a.length))
	}

	idx, ok := u.Key.resolve(a.layout)
	if !ok {
		return gpucore.DescriptorNotFound(u.Key.String())
	}
	binding := a.layout.Bindings[idx]

	if binding.Class == rootsig.ClassImmutableSampler {
		return immutableSamplerCannotBeWritten(u.Key.String())
	}

	if err := typeCheck(binding, u); err != nil {
		return err
	}

	a.pending[u.ArrayIndex] = append(a.pending[u.ArrayIndex], pendingWrite{
		bindingIdx: idx,
		elements:   u.Elements,
		offset:     u.DstElementOffset,
	})
	return nil
}

// Flush applies every staged write to the array's bound state and
// clears the pending buffer. Bind implicitly flushes if the caller
// hasn't already.
func (a *Array) Flush() {
	for arrayIndex, writes := range a.pending {
		slots, ok := a.bound[arrayIndex]
		if !ok {
			slots = make(map[int][]gputypes.BindingResource)
			a.bound[arrayIndex] = slots
		}
		for _, w := range writes {
			existing := slots[w.bindingIdx]
			needed := int(w.offset) + len(w.elements)
			if needed > len(existing) {
				grown := make([]gputypes.BindingResource, needed)
				copy(grown, existing)
				existing = grown
			}
			copy(existing[w.offset:], w.elements)
			slots[w.bindingIdx] = existing
		}
	}
	a.pending = make(map[uint32][]pendingWrite)
}

// Bind flushes any pending writes and returns the resolved bindings for
// arrayIndex, ready to be translated into the active backend's native
// bind call by the caller.
func (a *Array) Bind(arrayIndex uint32) (map[int][]gputypes.BindingResource, error) {
	if arrayIndex >= a.length {
		return nil, gpucore.InvalidParameter(fmt.Sprintf("array index %d >= length %d", arrayIndex, a.length))
	}
	a.Flush()
	return a.bound[arrayIndex], nil
}

func typeCheck(b rootsig.MergedBinding, u Update) error {
	for _, el := range u.Elements {
		switch el.(type) {
		case gputypes.BufferBinding:
			if b.Kind != rootsig.DescriptorKindUniformBuffer &&
				b.Kind != rootsig.DescriptorKindStorageBuffer &&
				b.Kind != rootsig.DescriptorKindReadOnlyStorageBuffer {
				return gpucore.DescriptorTypeMismatch(u.Key.String())
			}
		case gputypes.SamplerBinding:
			if b.Kind != rootsig.DescriptorKindSampler {
				return gpucore.DescriptorTypeMismatch(u.Key.String())
			}
		case gputypes.TextureViewBinding:
			if b.Kind != rootsig.DescriptorKindSampledTexture &&
				b.Kind != rootsig.DescriptorKindStorageTexture &&
				b.Kind != rootsig.DescriptorKindCombinedImageSampler {
				return gpucore.DescriptorTypeMismatch(u.Key.String())
			}
			if u.TextureBindType != TextureBindColor && b.Kind != rootsig.DescriptorKindSampledTexture {
				return textureBindTypeMismatch(u.Key.String(), u.TextureBindType)
			}
		default:
			return gpucore.DescriptorTypeMismatch(u.Key.String())
		}
	}
	return nil
}
