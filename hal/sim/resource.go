// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"sync/atomic"
	"time"

	"github.com/coregpu/corevk/hal"
)

// Resource is the placeholder body for every simulated GPU resource kind
// that carries no state of its own (textures, views, samplers, layouts,
// bind groups, pipelines). It satisfies hal.Resource with a no-op Destroy.
type Resource struct{}

// Destroy releases nothing: the simulated resource has no backing memory.
func (r *Resource) Destroy() {}

// Buffer implements hal.Buffer. When created with MappedAtCreation it
// keeps a backing byte slice so WriteBuffer has somewhere to land data;
// otherwise it behaves exactly like Resource.
type Buffer struct {
	Resource
	data []byte
}

// Texture implements hal.Texture. The blank field gives it a non-zero
// size, so each created Texture has its own address and two textures
// compare equal only when they are the same object.
type Texture struct {
	Resource
	_ byte
}

// Surface implements hal.Surface. It tracks only whether Configure has
// been called, enough to let tests assert the configure/acquire/present
// ordering without a real swapchain.
type Surface struct {
	Resource
	configured bool
}

// Configure marks the surface as configured for the given device. It
// rejects zero-area configurations the same way every real backend must,
// since a 0x0 swapchain is never valid.
func (s *Surface) Configure(_ hal.Device, config *hal.SurfaceConfiguration) error {
	if config.Width == 0 || config.Height == 0 {
		return hal.ErrZeroArea
	}
	s.configured = true
	return nil
}

// Unconfigure marks the surface as unconfigured.
func (s *Surface) Unconfigure(_ hal.Device) {
	s.configured = false
}

// AcquireTexture returns a placeholder surface texture. The fence
// parameter is accepted but never signaled, since nothing blocks.
func (s *Surface) AcquireTexture(_ hal.Fence) (*hal.AcquiredSurfaceTexture, error) {
	if !s.configured {
		return nil, hal.ErrSurfaceOutdated
	}
	return &hal.AcquiredSurfaceTexture{
		Texture:    &SurfaceTexture{},
		Suboptimal: false,
	}, nil
}

// DiscardTexture is a no-op: the acquired texture has no resources tied
// to a present that needs unwinding.
func (s *Surface) DiscardTexture(_ hal.SurfaceTexture) {}

// SurfaceTexture implements hal.SurfaceTexture.
type SurfaceTexture struct {
	Texture
}

// Fence implements hal.Fence with an atomic counter, so Wait/GetValue
// observe Signal from any goroutine without extra locking.
type Fence struct {
	Resource
	value atomic.Uint64
}

// Wait reports whether the fence has already reached value. The timeout
// is accepted but unused: the simulated fence never blocks.
func (f *Fence) Wait(value uint64, _ time.Duration) bool {
	return f.value.Load() >= value
}

// Signal sets the fence to value.
func (f *Fence) Signal(value uint64) {
	f.value.Store(value)
}

// GetValue returns the fence's current value.
func (f *Fence) GetValue() uint64 {
	return f.value.Load()
}
