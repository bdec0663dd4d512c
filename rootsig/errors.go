// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rootsig

import (
	"errors"
	"fmt"

	"github.com/coregpu/corevk"
)

// ErrAmbiguousPushConstant is returned by Compile when two push-constant
// bindings visible to the same stage disagree.
var ErrAmbiguousPushConstant = errors.New("rootsig: ambiguous push constant descriptor")

const maxDescriptorSets = 4

func incompatibleBindings(set, index uint32, reason string) error {
	return gpucore.IncompatibleShaderBindings(fmt.Sprintf("(set=%d, binding=%d): %s", set, index, reason))
}

func combinedImageSamplerRequiresImmutableSampler(set, index uint32) error {
	return gpucore.CombinedImageSamplerRequiresImmutableSampler(fmt.Sprintf("(set=%d, binding=%d)", set, index))
}

func maxDescriptorSetsExceeded(set uint32) error {
	return gpucore.InvalidParameter(fmt.Sprintf("descriptor set index %d >= %d", set, maxDescriptorSets))
}
