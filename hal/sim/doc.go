// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package sim provides three pure-Go hal.Backend bodies, one per variant
// the core dispatches on (Vulkan, D3D12, GL). None of them talk to a real
// GPU: they hold the same in-process bookkeeping regardless of variant and
// exist so that rootsig, descset, rendergraph and upload can be exercised
// against every tag without a native driver or cgo.
//
// Register installs all three with the hal registry; call it once from
// test or application setup, the way allbackends does for native builds.
package sim

import "github.com/coregpu/corevk/hal"

// Register installs the Vulkan, D3D12 and GL simulated backends with the
// hal package-level registry.
func Register() {
	for _, v := range SupportedVariants {
		hal.RegisterBackend(&API{variant: v})
	}
}

// init registers all three simulated backends automatically so that
// blank-importing this package (as allbackends does) is enough to make
// them available, mirroring how each native backend package used to
// self-register from its own init().
func init() {
	Register()
}
