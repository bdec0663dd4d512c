// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pool

import "errors"

var (
	errPipelineCacheBadMagic  = errors.New("pool: pipeline cache blob has an unrecognized header")
	errPipelineCacheTruncated = errors.New("pool: pipeline cache blob is truncated or corrupt")
)
