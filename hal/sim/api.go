// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
)

// SupportedVariants lists the backend tags this package implements.
// Metal's ordinal is reserved in gputypes.Backend but has no body here:
// an out-of-tree package can add one without renumbering the enum.
var SupportedVariants = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// API implements hal.Backend. One instance exists per variant; all three
// share this type and differ only in the tag they report and the adapter
// name/driver string they expose.
type API struct {
	variant gputypes.Backend
}

// Variant returns the backend type identifier this instance simulates.
func (a *API) Variant() gputypes.Backend {
	return a.variant
}

// CreateInstance creates a simulated instance for this variant. Always
// succeeds: there is no driver to fail to load.
func (a *API) CreateInstance(_ *hal.InstanceDescriptor) (hal.Instance, error) {
	return &Instance{variant: a.variant}, nil
}

// Instance implements hal.Instance for the simulated backends.
type Instance struct {
	variant gputypes.Backend
}

// CreateSurface creates a simulated surface. The display/window handles
// are accepted but ignored, since nothing is actually presented.
func (i *Instance) CreateSurface(_, _ uintptr) (hal.Surface, error) {
	return &Surface{}, nil
}

// EnumerateAdapters returns a single adapter tagged with this instance's
// variant. The surface hint is ignored.
func (i *Instance) EnumerateAdapters(_ hal.Surface) []hal.ExposedAdapter {
	name, driver := variantLabels(i.variant)
	return []hal.ExposedAdapter{
		{
			Adapter: &Adapter{variant: i.variant},
			Info: gputypes.AdapterInfo{
				Name:       name,
				Vendor:     "corevk",
				VendorID:   0,
				DeviceID:   uint32(i.variant),
				DeviceType: gputypes.DeviceTypeCPU,
				Driver:     driver,
				DriverInfo: "simulated backend, no native GPU access",
				Backend:    i.variant,
			},
			Features: 0,
			Capabilities: hal.Capabilities{
				Limits: gputypes.DefaultLimits(),
				AlignmentsMask: hal.Alignments{
					BufferCopyOffset: 4,
					BufferCopyPitch:  256,
				},
				DownlevelCapabilities: hal.DownlevelCapabilities{
					ShaderModel: 0,
					Flags:       0,
				},
			},
		},
	}
}

// Destroy is a no-op: there is no native instance handle to release.
func (i *Instance) Destroy() {}

func variantLabels(v gputypes.Backend) (name, driver string) {
	switch v {
	case gputypes.BackendVulkan:
		return "Simulated Vulkan Adapter", "sim-vulkan-1.0"
	case gputypes.BackendDX12:
		return "Simulated D3D12 Adapter", "sim-d3d12-1.0"
	case gputypes.BackendGL:
		return "Simulated GL Adapter", "sim-gl-1.0"
	default:
		return "Simulated Adapter", "sim-1.0"
	}
}

// Adapter implements hal.Adapter for the simulated backends.
type Adapter struct {
	variant gputypes.Backend
}

// Open creates a simulated device/queue pair. Always succeeds regardless
// of requested features and limits.
func (a *Adapter) Open(_ gputypes.Features, _ gputypes.Limits) (hal.OpenDevice, error) {
	return hal.OpenDevice{
		Device: &Device{variant: a.variant},
		Queue:  &Queue{},
	}, nil
}

// TextureFormatCapabilities reports every capability flag set for every
// format, since the simulated backend never actually samples or renders.
func (a *Adapter) TextureFormatCapabilities(_ gputypes.TextureFormat) hal.TextureFormatCapabilities {
	return hal.TextureFormatCapabilities{
		Flags: hal.TextureFormatCapabilitySampled |
			hal.TextureFormatCapabilityStorage |
			hal.TextureFormatCapabilityStorageReadWrite |
			hal.TextureFormatCapabilityRenderAttachment |
			hal.TextureFormatCapabilityBlendable |
			hal.TextureFormatCapabilityMultisample |
			hal.TextureFormatCapabilityMultisampleResolve,
	}
}

// SurfaceCapabilities returns a fixed set of formats and present modes
// common to all three variants.
func (a *Adapter) SurfaceCapabilities(_ hal.Surface) *hal.SurfaceCapabilities {
	return &hal.SurfaceCapabilities{
		Formats: []gputypes.TextureFormat{
			gputypes.TextureFormatBGRA8Unorm,
			gputypes.TextureFormatRGBA8Unorm,
		},
		PresentModes: []hal.PresentMode{
			hal.PresentModeImmediate,
			hal.PresentModeMailbox,
			hal.PresentModeFifo,
			hal.PresentModeFifoRelaxed,
		},
		AlphaModes: []hal.CompositeAlphaMode{
			hal.CompositeAlphaModeOpaque,
			hal.CompositeAlphaModePremultiplied,
			hal.CompositeAlphaModeUnpremultiplied,
			hal.CompositeAlphaModeInherit,
		},
	}
}

// Destroy is a no-op: there is no native adapter handle to release.
func (a *Adapter) Destroy() {}
