// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rootsig

import (
	"errors"
	"testing"

	"github.com/coregpu/corevk"
	"github.com/coregpu/corevk/gputypes"
)

func TestCompile_MergesAgreeingBindingsAcrossStages(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageVertex,
			Bindings: []Binding{
				{Set: 0, Index: 0, Name: "ViewUniforms", Kind: DescriptorKindUniformBuffer, Count: 1, InternalBufferSize: 64},
			},
		},
		{
			Stage: gputypes.ShaderStageFragment,
			Bindings: []Binding{
				{Set: 0, Index: 0, Name: "ViewUniforms", Kind: DescriptorKindUniformBuffer, Count: 1, InternalBufferSize: 64},
			},
		},
	}

	rs, err := Compile(stages)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(rs.Bindings) != 1 {
		t.Fatalf("len(Bindings) = %d, want 1", len(rs.Bindings))
	}
	got := rs.Bindings[0].Visibility
	want := gputypes.ShaderStageVertex | gputypes.ShaderStageFragment
	if got != want {
		t.Errorf("Visibility = %v, want %v", got, want)
	}
}

func TestCompile_DisagreeingBindingsFailMerge(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageVertex,
			Bindings: []Binding{
				{Set: 0, Index: 0, Kind: DescriptorKindUniformBuffer, Count: 1, InternalBufferSize: 64},
			},
		},
		{
			Stage: gputypes.ShaderStageFragment,
			Bindings: []Binding{
				{Set: 0, Index: 0, Kind: DescriptorKindStorageBuffer, Count: 1, InternalBufferSize: 64},
			},
		},
	}

	_, err := Compile(stages)
	gerr, ok := gpucore.As(err)
	if !ok || gerr.Kind != gpucore.KindIncompatibleShaderBindings {
		t.Fatalf("err = %v, want KindIncompatibleShaderBindings", err)
	}
}

func TestCompile_CombinedImageSamplerRequiresImmutableSampler(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageFragment,
			Bindings: []Binding{
				{Set: 0, Index: 0, Kind: DescriptorKindCombinedImageSampler, Count: 1},
			},
		},
	}

	_, err := Compile(stages)
	gerr, ok := gpucore.As(err)
	if !ok || gerr.Kind != gpucore.KindCombinedImageSamplerRequiresImmutableSampler {
		t.Fatalf("err = %v, want KindCombinedImageSamplerRequiresImmutableSampler", err)
	}
}

func TestCompile_CombinedImageSamplerWithImmutableSamplerSucceeds(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageFragment,
			Bindings: []Binding{
				{Set: 0, Index: 0, Kind: DescriptorKindCombinedImageSampler, Count: 2, ImmutableSamplerCount: 2},
			},
		},
	}

	rs, err := Compile(stages)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if rs.Bindings[0].Class != ClassImmutableSampler {
		t.Errorf("Class = %v, want ClassImmutableSampler", rs.Bindings[0].Class)
	}
}

func TestCompile_ImmutableSamplerCountMismatch(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageFragment,
			Bindings: []Binding{
				{Set: 0, Index: 0, Kind: DescriptorKindCombinedImageSampler, Count: 3, ImmutableSamplerCount: 2},
			},
		},
	}

	_, err := Compile(stages)
	gerr, ok := gpucore.As(err)
	if !ok || gerr.Kind != gpucore.KindIncompatibleShaderBindings {
		t.Fatalf("err = %v, want KindIncompatibleShaderBindings", err)
	}
}

func TestCompile_MaxFourDescriptorSets(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageVertex,
			Bindings: []Binding{
				{Set: 4, Index: 0, Kind: DescriptorKindUniformBuffer, Count: 1},
			},
		},
	}

	_, err := Compile(stages)
	gerr, ok := gpucore.As(err)
	if !ok || gerr.Kind != gpucore.KindInvalidParameter {
		t.Fatalf("err = %v, want KindInvalidParameter", err)
	}
}

func TestRootSignature_DescriptorIndexLookups(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageVertex,
			Bindings: []Binding{
				{Set: 1, Index: 3, Name: "AlbedoMap", Kind: DescriptorKindSampledTexture, Count: 1},
			},
		},
	}

	rs, err := Compile(stages)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if i, ok := rs.DescriptorIndex("AlbedoMap"); !ok || rs.Bindings[i].Name != "AlbedoMap" {
		t.Errorf("DescriptorIndex(AlbedoMap) = %d, %v", i, ok)
	}
	if i, ok := rs.DescriptorIndexAt(1, 3); !ok || rs.Bindings[i].Set != 1 {
		t.Errorf("DescriptorIndexAt(1, 3) = %d, %v", i, ok)
	}
	if _, ok := rs.DescriptorIndex("DoesNotExist"); ok {
		t.Error("DescriptorIndex should report ok=false for an unknown name")
	}
}

func TestRootSignature_FindPushConstantDescriptor(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageVertex,
			Bindings: []Binding{
				{Kind: DescriptorKindPushConstant, PushConstantRange: gputypes.PushConstantRange{
					Stages: gputypes.ShaderStageVertex, Start: 0, End: 16,
				}},
			},
		},
	}

	rs, err := Compile(stages)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	b, ok := rs.FindPushConstantDescriptor(gputypes.ShaderStageVertex)
	if !ok {
		t.Fatal("FindPushConstantDescriptor should find the vertex push constant")
	}
	if b.PushConstantRange.End != 16 {
		t.Errorf("End = %d, want 16", b.PushConstantRange.End)
	}

	if _, ok := rs.FindPushConstantDescriptor(gputypes.ShaderStageCompute); ok {
		t.Error("FindPushConstantDescriptor should report false for a stage with no push constants")
	}
}

func TestCompile_DescriptorTableSlotAssignment(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageFragment,
			Bindings: []Binding{
				{Set: 0, Index: 0, Kind: DescriptorKindUniformBuffer, Count: 1},
				{Set: 0, Index: 1, Kind: DescriptorKindSampledTexture, Count: 4},
				{Set: 0, Index: 2, Kind: DescriptorKindSampledTexture, Count: 1},
			},
		},
	}

	rs, err := Compile(stages)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if got := rs.Bindings[1].TableIndex; got != 1 {
		t.Errorf("second binding TableIndex = %d, want 1 (after the 1-slot uniform buffer)", got)
	}
	if got := rs.Bindings[2].TableIndex; got != 5 {
		t.Errorf("third binding TableIndex = %d, want 5 (after a 1 + 4 slot run)", got)
	}
}

func TestCompile_EmitsArtifactsForAllThreeBackends(t *testing.T) {
	stages := []StageReflection{
		{
			Stage: gputypes.ShaderStageFragment,
			Bindings: []Binding{
				{Set: 0, Index: 0, Name: "Albedo", Kind: DescriptorKindUniformBuffer, Count: 1},
			},
		},
	}

	rs, err := Compile(stages)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(rs.Artifact.Vulkan.SetLayouts) != 1 {
		t.Errorf("Vulkan SetLayouts = %d, want 1", len(rs.Artifact.Vulkan.SetLayouts))
	}
	if len(rs.Artifact.D3D12) != 1 {
		t.Errorf("D3D12 root parameters = %d, want 1", len(rs.Artifact.D3D12))
	}
	if len(rs.Artifact.GL.Uniforms) != 1 || rs.Artifact.GL.Uniforms[0].Name != "Albedo" {
		t.Errorf("GL uniforms = %+v", rs.Artifact.GL.Uniforms)
	}
}

func TestErrAmbiguousPushConstant_IsAnError(t *testing.T) {
	if !errors.Is(ErrAmbiguousPushConstant, ErrAmbiguousPushConstant) {
		t.Fatal("sentinel must satisfy errors.Is against itself")
	}
}
