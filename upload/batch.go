// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package upload

import (
	"github.com/coregpu/corevk"
	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
)

// batchState is the per-batch state machine:
// Writable -> SentToTransferQueue -> PendingSubmitDstQueue ->
// SentToDstQueue -> Complete, or -> Errored from any step.
type batchState int

const (
	batchWritable batchState = iota
	batchSentToTransferQueue
	batchPendingSubmitDstQueue
	batchSentToDstQueue
	batchComplete
	batchErrored
)

type batchPollResult int

const (
	batchPollPending batchPollResult = iota
	batchPollComplete
	batchPollError
)

type requestResource struct {
	buffer  hal.Buffer
	texture hal.Texture
}

// batch is one in-flight group of requests sharing a transfer-queue
// submission and a destination-queue acquire submission.
type batch struct {
	requests  []*pendingRequest
	bytesUsed uint64
	resources map[*pendingRequest]requestResource

	state batchState
	err   error

	transferFence hal.Fence
	dstFence      hal.Fence
	fenceValue    uint64
}

func newBatch() *batch {
	return &batch{resources: make(map[*pendingRequest]requestResource)}
}

func (b *batch) append(req *pendingRequest) {
	b.requests = append(b.requests, req)
	b.bytesUsed += req.size
}

func (b *batch) dstBuffer(req *pendingRequest) hal.Buffer   { return b.resources[req].buffer }
func (b *batch) dstTexture(req *pendingRequest) hal.Texture { return b.resources[req].texture }

func maxu32(n, floor uint32) uint32 {
	if n < floor {
		return floor
	}
	return n
}

// writeData creates each request's destination resource and copies its
// data through transferQueue's staging-buffer convenience methods. It
// leaves the batch in the Writable state, ready for its first poll.
func (b *batch) writeData(device hal.Device, transferQueue hal.Queue) error {
	for _, req := range b.requests {
		switch req.kind {
		case requestBuffer:
			buf, err := device.CreateBuffer(&hal.BufferDescriptor{
				Label: "upload-dst-buffer",
				Size:  req.size,
				Usage: req.bufferUsage,
			})
			if err != nil {
				return gpucore.BackendError("upload: create destination buffer", err)
			}
			transferQueue.WriteBuffer(buf, 0, req.data)
			b.resources[req] = requestResource{buffer: buf}

		case requestExistingBuffer:
			transferQueue.WriteBuffer(req.dstBuffer, req.dstOffset, req.data)
			b.resources[req] = requestResource{buffer: req.dstBuffer}

		case requestImage:
			tex, err := device.CreateTexture(&hal.TextureDescriptor{
				Label:         "upload-dst-texture",
				Size:          hal.Extent3D{Width: req.layout.Width, Height: req.layout.Height, DepthOrArrayLayers: maxu32(req.layout.DepthOrArrayLayers, 1)},
				MipLevelCount: maxu32(req.layout.MipLevelCount, 1),
				SampleCount:   1,
				Dimension:     gputypes.TextureDimension2D,
				Format:        req.layout.Format,
				Usage:         req.textureUsage,
			})
			if err != nil {
				return gpucore.BackendError("upload: create destination texture", err)
			}
			if err := writeImageMips(transferQueue, tex, req); err != nil {
				return err
			}
			b.resources[req] = requestResource{texture: tex}
		}
	}
	b.state = batchWritable
	return nil
}

// poll advances the batch's state machine by as many free steps as
// possible (mirroring InProgressUploadBatch.poll_load): it submits to
// the transfer queue, waits for that fence, submits the destination
// acquire barriers to the graphics queue, waits for that fence, then
// reports Complete. A wait that hasn't resolved yet returns Pending
// without blocking; Update will poll again next tick.
func (b *batch) poll(device hal.Device, transferQueue, graphicsQueue hal.Queue) batchPollResult {
	for {
		switch b.state {
		case batchWritable:
			if err := b.submitTransfer(device, transferQueue); err != nil {
				b.err = err
				b.state = batchErrored
				return batchPollError
			}
			b.state = batchSentToTransferQueue

		case batchSentToTransferQueue:
			done, err := device.Wait(b.transferFence, b.fenceValue, 0)
			if err != nil {
				b.err = gpucore.BackendError("upload: wait on transfer fence", err)
				b.state = batchErrored
				return batchPollError
			}
			if !done {
				return batchPollPending
			}
			b.state = batchPendingSubmitDstQueue

		case batchPendingSubmitDstQueue:
			if err := b.submitDst(device, graphicsQueue); err != nil {
				b.err = err
				b.state = batchErrored
				return batchPollError
			}
			b.state = batchSentToDstQueue

		case batchSentToDstQueue:
			done, err := device.Wait(b.dstFence, b.fenceValue, 0)
			if err != nil {
				b.err = gpucore.BackendError("upload: wait on destination fence", err)
				b.state = batchErrored
				return batchPollError
			}
			if !done {
				return batchPollPending
			}
			b.state = batchComplete
			return batchPollComplete

		case batchComplete:
			return batchPollComplete

		case batchErrored:
			return batchPollError
		}
	}
}

// submitTransfer creates the transfer fence and signals it immediately:
// the actual byte copy already happened in writeData via the transfer
// queue's WriteBuffer/WriteTexture convenience methods, so this step's
// only job is to give the batch a synchronization point downstream code
// can wait on before the destination queue takes ownership.
func (b *batch) submitTransfer(device hal.Device, transferQueue hal.Queue) error {
	fence, err := device.CreateFence()
	if err != nil {
		return gpucore.BackendError("upload: create transfer fence", err)
	}
	b.transferFence = fence
	b.fenceValue = 1
	if err := transferQueue.Submit(nil, fence, b.fenceValue); err != nil {
		return gpucore.BackendError("upload: submit transfer queue", err)
	}
	return nil
}

// submitDst issues the transfer-queue-to-graphics-queue ownership
// transfer: an acquire barrier per destination resource, then signals
// the destination fence Update() polls for completion.
func (b *batch) submitDst(device hal.Device, graphicsQueue hal.Queue) error {
	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "upload-acquire"})
	if err != nil {
		return gpucore.BackendError("upload: create acquire encoder", err)
	}
	if err := encoder.BeginEncoding("upload-acquire"); err != nil {
		return gpucore.BackendError("upload: begin acquire encoding", err)
	}

	var bufferBarriers []hal.BufferBarrier
	var textureBarriers []hal.TextureBarrier
	for _, req := range b.requests {
		switch req.kind {
		case requestBuffer, requestExistingBuffer:
			bufferBarriers = append(bufferBarriers, hal.BufferBarrier{
				Buffer: b.dstBuffer(req),
				Usage:  hal.BufferUsageTransition{OldUsage: gputypes.BufferUsageCopyDst, NewUsage: req.bufferUsage},
			})
		case requestImage:
			textureBarriers = append(textureBarriers, hal.TextureBarrier{
				Texture: b.dstTexture(req),
				Usage:   hal.TextureUsageTransition{OldUsage: gputypes.TextureUsageCopyDst, NewUsage: req.textureUsage},
			})
		}
	}
	if len(bufferBarriers) > 0 {
		encoder.TransitionBuffers(bufferBarriers)
	}
	if len(textureBarriers) > 0 {
		encoder.TransitionTextures(textureBarriers)
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return gpucore.BackendError("upload: end acquire encoding", err)
	}

	fence, err := device.CreateFence()
	if err != nil {
		return gpucore.BackendError("upload: create destination fence", err)
	}
	b.dstFence = fence
	b.fenceValue = 1
	if err := graphicsQueue.Submit([]hal.CommandBuffer{cmdBuf}, fence, b.fenceValue); err != nil {
		return gpucore.BackendError("upload: submit destination queue", err)
	}
	return nil
}
