// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package allbackends registers the simulated Vulkan, D3D12 and GL backends
// with hal for side effects:
//
//	import (
//		_ "github.com/coregpu/corevk/hal/allbackends"
//	)
//
// After importing, use hal.GetBackend or hal.AvailableBackends to access
// them.
package allbackends
