// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package upload

import (
	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
	"github.com/coregpu/corevk/internal/thread"
)

// PinnedEngine wraps an Engine so every call that touches the device
// (Update, and the Submit* family since they size-check requests
// against the engine's config) runs on a single locked OS thread.
// Use it when the underlying hal backend requires its device and
// queue objects to be driven from the thread that created them.
type PinnedEngine struct {
	engine *Engine
	thread *thread.Thread
}

// NewPinnedEngine creates the Engine on a dedicated OS thread and
// returns a PinnedEngine bound to it. device/transferQueue/graphicsQueue
// must themselves have been created on that same thread if the backend
// requires it; callers that already own such a thread should prefer
// NewEngine directly and drive Update from it themselves.
func NewPinnedEngine(newDevice func() (hal.Device, hal.Queue, hal.Queue), config QueueConfig) *PinnedEngine {
	th := thread.New()
	var engine *Engine
	th.CallVoid(func() {
		device, transferQueue, graphicsQueue := newDevice()
		engine = NewEngine(device, transferQueue, graphicsQueue, config)
	})
	return &PinnedEngine{engine: engine, thread: th}
}

// SubmitBuffer runs Engine.SubmitBuffer on the pinned thread.
func (p *PinnedEngine) SubmitBuffer(data []byte, usage gputypes.BufferUsage) *Handle {
	var h *Handle
	p.thread.CallVoid(func() {
		h = p.engine.SubmitBuffer(data, usage)
	})
	return h
}

// SubmitImage runs Engine.SubmitImage on the pinned thread.
func (p *PinnedEngine) SubmitImage(layout ImageLayout, data []byte, usage gputypes.TextureUsage, generateMips bool) *Handle {
	var h *Handle
	p.thread.CallVoid(func() {
		h = p.engine.SubmitImage(layout, data, usage, generateMips)
	})
	return h
}

// Update runs Engine.Update on the pinned thread and blocks until it
// returns, so callers observe each tick's deliveries synchronously.
func (p *PinnedEngine) Update() {
	p.thread.CallVoid(p.engine.Update)
}

// Close stops the pinned thread. The underlying Engine and any
// in-flight batches are abandoned; callers should let all outstanding
// Handles resolve (or accept that they will never resolve) before
// calling Close.
func (p *PinnedEngine) Close() {
	p.thread.Stop()
}
