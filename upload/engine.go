// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package upload implements the asynchronous upload engine: batched
// staging-buffer transfers of buffers and images from host memory to
// device-local memory, crossing a transfer queue and a destination
// (graphics) queue. Callers submit requests from any goroutine; Update
// must be called periodically (typically once per frame) from the
// thread that owns the device to advance in-flight batches and start
// new ones.
package upload

import (
	"fmt"
	"sync"

	"github.com/coregpu/corevk"
	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
)

// QueueConfig bounds how the engine batches and paces uploads.
type QueueConfig struct {
	// MaxBytesPerUpload is the byte budget of a single batch's staging
	// buffer. A request larger than this can never be enqueued and is
	// rejected immediately with ErrUploadBufferFull.
	MaxBytesPerUpload uint64

	// MaxConcurrentUploads caps how many batches may be in flight
	// (submitted but not yet complete) at once.
	MaxConcurrentUploads int

	// MaxNewUploadsInSingleFrame caps how many new batches Update may
	// open in one call, bounding per-tick submission cost.
	MaxNewUploadsInSingleFrame int
}

// Result is delivered on a Handle's channel exactly once, whether the
// request succeeded or failed. Exactly one of Buffer/Texture is set on
// success.
type Result struct {
	Buffer  hal.Buffer
	Texture hal.Texture
	Err     error
}

// Handle is returned by every Submit* call. The caller owns it: reading
// from Done (or dropping the Handle) are both fine, per the engine's
// cancellation rules — a dropped Handle does not stop the in-flight
// batch from completing, it just discards the result.
type Handle struct {
	done chan Result
}

// Done returns the channel the request's terminal Result is sent on.
// Exactly one value is ever sent, after which the channel is closed.
func (h *Handle) Done() <-chan Result {
	return h.done
}

func newHandle() *Handle {
	return &Handle{done: make(chan Result, 1)}
}

func (h *Handle) deliver(r Result) {
	h.done <- r
	close(h.done)
}

type requestKind int

const (
	requestBuffer requestKind = iota
	requestExistingBuffer
	requestImage
)

// pendingRequest is one caller-submitted upload, queued until it is
// packed into a batch.
type pendingRequest struct {
	kind requestKind
	size uint64
	data []byte

	// requestBuffer
	bufferUsage gputypes.BufferUsage

	// requestExistingBuffer
	dstBuffer hal.Buffer
	dstOffset uint64

	// requestImage
	layout       ImageLayout
	textureUsage gputypes.TextureUsage
	generateMips bool

	handle *Handle
}

// Engine is one upload queue bound to a device and its transfer and
// destination (graphics) queues. One Engine is usually shared by every
// caller that uploads to the same device.
type Engine struct {
	device        hal.Device
	transferQueue hal.Queue
	graphicsQueue hal.Queue
	config        QueueConfig

	pending []*pendingRequest // unbounded: guarded by mu, not a Go channel
	mu      sync.Mutex

	inProgress []*batch
}

// NewEngine returns an Engine bound to device, submitting transfer work
// on transferQueue and destination-side work on graphicsQueue. Passing
// the same hal.Queue for both is valid on backends without a dedicated
// transfer queue.
func NewEngine(device hal.Device, transferQueue, graphicsQueue hal.Queue, config QueueConfig) *Engine {
	return &Engine{
		device:        device,
		transferQueue: transferQueue,
		graphicsQueue: graphicsQueue,
		config:        config,
	}
}

// SubmitBuffer queues data to be copied into a freshly created buffer
// with usage | BufferUsageCopyDst. The destination buffer is not created
// until the request is packed into a batch.
func (e *Engine) SubmitBuffer(data []byte, usage gputypes.BufferUsage) *Handle {
	req := &pendingRequest{
		kind:        requestBuffer,
		size:        uint64(len(data)),
		data:        data,
		bufferUsage: usage | gputypes.BufferUsageCopyDst,
	}
	return e.enqueue(req)
}

// SubmitExistingBuffer queues data to be written into dst at offset. dst
// must already carry BufferUsageCopyDst.
func (e *Engine) SubmitExistingBuffer(dst hal.Buffer, offset uint64, data []byte) *Handle {
	req := &pendingRequest{
		kind:      requestExistingBuffer,
		size:      uint64(len(data)),
		data:      data,
		dstBuffer: dst,
		dstOffset: offset,
	}
	return e.enqueue(req)
}

// SubmitImage queues data (a densely packed mip chain matching layout,
// see ImageLayout.MipChainSize) to be copied into a freshly created
// texture with usage | TextureUsageCopyDst. If generateMips is set and
// layout.MipLevelCount > 1 and layout.Format is not block compressed,
// mip 0 is copied from data and mips 1..N are generated on the host by
// box-filter downsampling before upload; block-compressed formats never
// generate mips and data must already contain the full chain.
func (e *Engine) SubmitImage(layout ImageLayout, data []byte, usage gputypes.TextureUsage, generateMips bool) *Handle {
	req := &pendingRequest{
		kind:         requestImage,
		size:         uint64(len(data)),
		data:         data,
		layout:       layout,
		textureUsage: usage | gputypes.TextureUsageCopyDst,
		generateMips: generateMips && !layout.BlockCompressed() && layout.MipLevelCount > 1,
	}
	return e.enqueue(req)
}

func (e *Engine) enqueue(req *pendingRequest) *Handle {
	req.handle = newHandle()

	if req.size > e.config.MaxBytesPerUpload {
		hal.Logger().Error("upload request exceeds upload buffer size",
			"requestBytes", req.size, "maxBytesPerUpload", e.config.MaxBytesPerUpload)
		req.handle.deliver(Result{Err: gpucore.UploadBufferFull(
			fmt.Sprintf("request of %d bytes exceeds max_bytes_per_upload of %d bytes", req.size, e.config.MaxBytesPerUpload))})
		return req.handle
	}

	e.mu.Lock()
	e.pending = append(e.pending, req)
	e.mu.Unlock()
	return req.handle
}

// Update drains queued requests into new batches (bounded by
// MaxNewUploadsInSingleFrame and MaxConcurrentUploads) and polls every
// in-flight batch once, advancing its state machine as far as it can go
// without waiting on a fence. Call it once per frame from the
// device-owning thread.
func (e *Engine) Update() {
	e.mu.Lock()
	drained := e.pending
	e.pending = nil
	e.mu.Unlock()

	leftover := e.startNewBatches(drained)
	if len(leftover) > 0 {
		e.mu.Lock()
		e.pending = append(leftover, e.pending...)
		e.mu.Unlock()
	}

	e.updateInProgress()
}

// startNewBatches first-fit-packs requests into new batches: each
// request is offered to every batch opened so far (in open order)
// before a new one is opened, so a small request behind a large one can
// still land in an earlier, partially-filled batch. This keeps the
// number of batches proportional to bytes queued rather than to
// submission order. Requests that fit nowhere because the batch budget
// for this tick is exhausted are returned as leftover, to be retried on
// the next Update.
func (e *Engine) startNewBatches(requests []*pendingRequest) (leftover []*pendingRequest) {
	var opening []*batch
	budget := e.config.MaxNewUploadsInSingleFrame
	if available := e.config.MaxConcurrentUploads - len(e.inProgress); available < budget {
		budget = available
	}
	if budget < 0 {
		budget = 0
	}

	for _, req := range requests {
		placed := false
		for _, b := range opening {
			if b.bytesUsed+req.size <= e.config.MaxBytesPerUpload {
				b.append(req)
				placed = true
				break
			}
		}
		if placed {
			continue
		}
		if len(opening) >= budget {
			leftover = append(leftover, req)
			continue
		}
		b := newBatch()
		b.append(req)
		opening = append(opening, b)
	}

	for _, b := range opening {
		if err := b.writeData(e.device, e.transferQueue); err != nil {
			for _, req := range b.requests {
				req.handle.deliver(Result{Err: err})
			}
			continue
		}
		hal.Logger().Debug("starting upload batch", "requests", len(b.requests), "bytes", b.bytesUsed)
		e.inProgress = append(e.inProgress, b)
	}
	return leftover
}

// updateInProgress polls every in-flight batch once and removes batches
// that finished (complete or errored) this tick.
func (e *Engine) updateInProgress() {
	kept := e.inProgress[:0]
	for _, b := range e.inProgress {
		result := b.poll(e.device, e.transferQueue, e.graphicsQueue)
		switch result {
		case batchPollPending:
			kept = append(kept, b)
		case batchPollComplete:
			for _, req := range b.requests {
				req.handle.deliver(Result{Buffer: b.dstBuffer(req), Texture: b.dstTexture(req)})
			}
		case batchPollError:
			for _, req := range b.requests {
				req.handle.deliver(Result{Err: b.err})
			}
		}
	}
	e.inProgress = kept
}
