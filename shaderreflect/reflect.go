// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package shaderreflect derives a rootsig.StageReflection from WGSL
// source text, standing in for a caller-provided shader-compilation
// pipeline. It validates the source with naga (naga.Parse, then
// naga.Lower), then scans the module-scope
// resource declarations (`@group(N) @binding(M) var<...>`) to build
// the binding table rootsig.Merge and rootsig.Compile expect.
package shaderreflect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/gogpu/naga"

	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/rootsig"
)

// Reflect parses source as WGSL, validates it with naga, and returns
// the StageReflection for stage. Only module-scope resource bindings
// are reflected; uniform/storage buffer sizes are not computed from
// the struct layout and must be supplied by the caller through
// sizeHints, keyed by binding name, when a binding's Kind requires
// InternalBufferSize (uniform and storage buffers).
func Reflect(source string, stage gputypes.ShaderStage, sizeHints map[string]uint64) (rootsig.StageReflection, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return rootsig.StageReflection{}, fmt.Errorf("shaderreflect: WGSL parse error: %w", err)
	}
	if _, err := naga.Lower(ast); err != nil {
		return rootsig.StageReflection{}, fmt.Errorf("shaderreflect: WGSL lower error: %w", err)
	}

	decls, err := scanResourceDecls(source)
	if err != nil {
		return rootsig.StageReflection{}, err
	}

	bindings := make([]rootsig.Binding, 0, len(decls))
	for _, d := range decls {
		kind, err := classifyDecl(d)
		if err != nil {
			return rootsig.StageReflection{}, fmt.Errorf("shaderreflect: binding %q: %w", d.name, err)
		}
		b := rootsig.Binding{
			Set:   d.group,
			Index: d.binding,
			Name:  d.name,
			Kind:  kind,
			Count: 1,
		}
		if kind == rootsig.DescriptorKindUniformBuffer || kind == rootsig.DescriptorKindStorageBuffer || kind == rootsig.DescriptorKindReadOnlyStorageBuffer {
			b.InternalBufferSize = sizeHints[d.name]
		}
		bindings = append(bindings, b)
	}

	return rootsig.StageReflection{Stage: stage, Bindings: bindings}, nil
}

type resourceDecl struct {
	group, binding uint32
	addressSpace   string // "uniform", "storage", "" (textures/samplers have none)
	accessMode     string // "read", "read_write", "" for non-storage
	typeExpr       string // the part after the colon, e.g. "texture_2d<f32>", "sampler", "array<Light>"
	name           string
}

var varDeclRe = regexp.MustCompile(
	`@group\s*\(\s*(\d+)\s*\)\s*@binding\s*\(\s*(\d+)\s*\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;=]+)`)

// scanResourceDecls extracts every module-scope `@group/@binding var`
// declaration from src with a single regex pass over the raw source.
// The regex matches `@group(N)` directly followed by `@binding(M)` and
// `var`; a declaration that lists `@binding` first, or puts another
// attribute between the two, is not reflected.
func scanResourceDecls(src string) ([]resourceDecl, error) {
	matches := varDeclRe.FindAllStringSubmatch(src, -1)
	decls := make([]resourceDecl, 0, len(matches))
	for _, m := range matches {
		group, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("shaderreflect: invalid @group value %q", m[1])
		}
		binding, err := strconv.ParseUint(m[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("shaderreflect: invalid @binding value %q", m[2])
		}

		addressSpace, accessMode := "", ""
		if qualifiers := strings.Split(m[3], ","); len(qualifiers) > 0 && qualifiers[0] != "" {
			addressSpace = strings.TrimSpace(qualifiers[0])
			if len(qualifiers) > 1 {
				accessMode = strings.TrimSpace(qualifiers[1])
			}
		}

		decls = append(decls, resourceDecl{
			group:        uint32(group),
			binding:      uint32(binding),
			addressSpace: addressSpace,
			accessMode:   accessMode,
			typeExpr:     strings.TrimSpace(m[5]),
			name:         m[4],
		})
	}
	return decls, nil
}

// classifyDecl maps a WGSL resource declaration's address space and
// type expression onto rootsig's backend-neutral DescriptorKind.
func classifyDecl(d resourceDecl) (rootsig.DescriptorKind, error) {
	switch d.addressSpace {
	case "uniform":
		return rootsig.DescriptorKindUniformBuffer, nil
	case "storage":
		if d.accessMode == "read" {
			return rootsig.DescriptorKindReadOnlyStorageBuffer, nil
		}
		return rootsig.DescriptorKindStorageBuffer, nil
	}

	switch {
	case strings.HasPrefix(d.typeExpr, "sampler_comparison"), strings.HasPrefix(d.typeExpr, "sampler"):
		return rootsig.DescriptorKindSampler, nil
	case strings.HasPrefix(d.typeExpr, "texture_storage"):
		return rootsig.DescriptorKindStorageTexture, nil
	case strings.HasPrefix(d.typeExpr, "texture_"):
		return rootsig.DescriptorKindSampledTexture, nil
	}
	return 0, fmt.Errorf("unrecognized resource declaration %q", d.typeExpr)
}
