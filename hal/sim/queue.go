// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"github.com/coregpu/corevk/hal"
)

// Queue implements hal.Queue for the simulated backends.
type Queue struct{}

// Submit signals fence with fenceValue if one is provided. There is no
// GPU timeline to actually execute commandBuffers against.
func (q *Queue) Submit(_ []hal.CommandBuffer, fence hal.Fence, fenceValue uint64) error {
	if fence != nil {
		if f, ok := fence.(*Fence); ok {
			f.Signal(fenceValue)
		}
	}
	return nil
}

// WriteBuffer copies data into buffer's backing storage, if it has any.
func (q *Queue) WriteBuffer(buffer hal.Buffer, offset uint64, data []byte) {
	if b, ok := buffer.(*Buffer); ok && b.data != nil {
		copy(b.data[offset:], data)
	}
}

// WriteTexture is a no-op: simulated textures store no pixel data.
func (q *Queue) WriteTexture(_ *hal.ImageCopyTexture, _ []byte, _ *hal.ImageDataLayout, _ *hal.Extent3D) {
}

// Present always succeeds: nothing is actually displayed.
func (q *Queue) Present(_ hal.Surface, _ hal.SurfaceTexture) error {
	return nil
}

// GetTimestampPeriod returns 1.0, a nanosecond-resolution timestamp period.
func (q *Queue) GetTimestampPeriod() float32 {
	return 1.0
}
