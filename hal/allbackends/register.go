// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package allbackends

import "github.com/coregpu/corevk/hal/sim"

// init registers the simulated Vulkan, D3D12 and GL backends with the hal
// registry. There is no platform split to make here: none of these bodies
// touch a native driver, so the same set registers on every OS.
func init() {
	sim.Register()
}
