// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rootsig

// classify assigns each MergedBinding its BindingClass and, for
// descriptor-table entries, reserves a slot in the appropriate per-set
// table. Immutable samplers are omitted from the writable tables (they
// become static samplers instead) and are counted separately. It
// mutates bindings in place and returns the resulting table sizes per
// set.
func classify(bindings []MergedBinding) ([maxDescriptorSets]tableCounts, error) {
	var counts [maxDescriptorSets]tableCounts

	for i := range bindings {
		b := &bindings[i]

		if b.Kind == DescriptorKindPushConstant {
			b.Class = ClassRootConstant
			continue
		}

		if b.Kind == DescriptorKindCombinedImageSampler && b.ImmutableSamplerCount == 0 {
			return counts, combinedImageSamplerRequiresImmutableSampler(b.Set, b.Index)
		}

		if b.ImmutableSamplerCount > 0 {
			if b.ImmutableSamplerCount != b.Count {
				return counts, incompatibleBindings(b.Set, b.Index,
					"immutable sampler count must equal the binding's element count")
			}
			b.Class = ClassImmutableSampler
			b.TableIndex = counts[b.Set].immutableSamplers
			counts[b.Set].immutableSamplers += b.Count
			continue
		}

		b.Class = ClassDescriptorTableEntry
		if b.Kind == DescriptorKindSampler {
			b.TableIndex = counts[b.Set].samplerDescriptors
			counts[b.Set].samplerDescriptors += b.Count
		} else {
			b.TableIndex = counts[b.Set].cbvSrvUavDescriptors
			counts[b.Set].cbvSrvUavDescriptors += b.Count
		}
	}

	return counts, nil
}

// tableCounts holds the per-set descriptor-table sizes §4.C names: a
// CBV/SRV/UAV table, a Sampler table, and (D3D12-only) the count of
// static samplers emitted for immutable-sampler bindings.
type tableCounts struct {
	cbvSrvUavDescriptors uint32
	samplerDescriptors   uint32
	immutableSamplers    uint32
}
