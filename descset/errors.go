// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package descset

import (
	"errors"
	"fmt"
)

// ErrImmutableSamplerCannotBeWritten and ErrTextureBindTypeMismatch are
// named in spec.md's §4.D error list but not in the central §7 error
// taxonomy table, so (like rootsig.ErrAmbiguousPushConstant) they are
// local package sentinels rather than gpucore.Error kinds.
var (
	ErrImmutableSamplerCannotBeWritten = errors.New("descset: immutable sampler binding cannot be written")
	ErrTextureBindTypeMismatch         = errors.New("descset: texture bind type has no matching view")
)

func immutableSamplerCannotBeWritten(key string) error {
	return fmt.Errorf("%w: %s", ErrImmutableSamplerCannotBeWritten, key)
}

func textureBindTypeMismatch(key string, bindType TextureBindType) error {
	return fmt.Errorf("%w: %s requested on %s", ErrTextureBindTypeMismatch, bindType, key)
}
