// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package shaderreflect

import (
	"testing"

	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/rootsig"
)

const testFragmentShader = `
struct ViewUniforms {
	viewProj: mat4x4<f32>,
}

@group(0) @binding(0) var<uniform> view: ViewUniforms;
@group(1) @binding(0) var baseColor: texture_2d<f32>;
@group(1) @binding(1) var baseColorSampler: sampler;
@group(2) @binding(0) var<storage, read> lights: array<vec4<f32>>;

@fragment
fn main() -> @location(0) vec4<f32> {
	return textureSample(baseColor, baseColorSampler, vec2<f32>(0.0, 0.0));
}
`

func TestReflect_ClassifiesFourBindingKinds(t *testing.T) {
	refl, err := Reflect(testFragmentShader, gputypes.ShaderStageFragment, map[string]uint64{"view": 64})
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if refl.Stage != gputypes.ShaderStageFragment {
		t.Errorf("Stage = %v, want Fragment", refl.Stage)
	}
	if len(refl.Bindings) != 4 {
		t.Fatalf("len(Bindings) = %d, want 4", len(refl.Bindings))
	}

	byName := make(map[string]rootsig.Binding, len(refl.Bindings))
	for _, b := range refl.Bindings {
		byName[b.Name] = b
	}

	view, ok := byName["view"]
	if !ok {
		t.Fatal("missing binding \"view\"")
	}
	if view.Kind != rootsig.DescriptorKindUniformBuffer || view.Set != 0 || view.Index != 0 {
		t.Errorf("view binding = %+v, want uniform buffer at (0,0)", view)
	}
	if view.InternalBufferSize != 64 {
		t.Errorf("view.InternalBufferSize = %d, want 64", view.InternalBufferSize)
	}

	tex, ok := byName["baseColor"]
	if !ok {
		t.Fatal("missing binding \"baseColor\"")
	}
	if tex.Kind != rootsig.DescriptorKindSampledTexture || tex.Set != 1 || tex.Index != 0 {
		t.Errorf("baseColor binding = %+v, want sampled texture at (1,0)", tex)
	}

	sampler, ok := byName["baseColorSampler"]
	if !ok {
		t.Fatal("missing binding \"baseColorSampler\"")
	}
	if sampler.Kind != rootsig.DescriptorKindSampler || sampler.Set != 1 || sampler.Index != 1 {
		t.Errorf("baseColorSampler binding = %+v, want sampler at (1,1)", sampler)
	}

	lights, ok := byName["lights"]
	if !ok {
		t.Fatal("missing binding \"lights\"")
	}
	if lights.Kind != rootsig.DescriptorKindReadOnlyStorageBuffer || lights.Set != 2 {
		t.Errorf("lights binding = %+v, want read-only storage buffer at set 2", lights)
	}
}

func TestReflect_RejectsUnrecognizedResourceType(t *testing.T) {
	src := `@group(0) @binding(0) var weird: some_unknown_type;`
	if _, err := Reflect(src, gputypes.ShaderStageFragment, nil); err == nil {
		t.Fatal("expected an error for an unrecognized resource type")
	}
}

func TestReflect_NoBindingsIsNotAnError(t *testing.T) {
	src := `
@vertex
fn main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
	return vec4<f32>(pos, 1.0);
}
`
	refl, err := Reflect(src, gputypes.ShaderStageVertex, nil)
	if err != nil {
		t.Fatalf("Reflect: %v", err)
	}
	if len(refl.Bindings) != 0 {
		t.Fatalf("len(Bindings) = %d, want 0", len(refl.Bindings))
	}
}
