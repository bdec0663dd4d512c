// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package upload

import (
	"testing"
	"time"

	"github.com/coregpu/corevk"
	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
	_ "github.com/coregpu/corevk/hal/sim"
)

func newSimDeviceAndQueue(t *testing.T) (hal.Device, hal.Queue) {
	t.Helper()
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		t.Fatal("sim Vulkan backend not registered")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{})
	if err != nil {
		t.Fatalf("CreateInstance: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		t.Fatal("no simulated adapters")
	}
	open, err := adapters[0].Adapter.Open(gputypes.Features(0), gputypes.Limits{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return open.Device, open.Queue
}

func waitResult(t *testing.T, h *Handle) Result {
	t.Helper()
	select {
	case r := <-h.Done():
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for upload result")
		return Result{}
	}
}

// runUntilSettled calls Update maxTicks times; it does not check
// whether any request has settled in between.
func runUntilSettled(e *Engine, maxTicks int) {
	for i := 0; i < maxTicks; i++ {
		e.Update()
	}
}

func TestEngine_SingleBufferUploadCompletes(t *testing.T) {
	device, queue := newSimDeviceAndQueue(t)
	e := NewEngine(device, queue, queue, QueueConfig{
		MaxBytesPerUpload:          4 << 20,
		MaxConcurrentUploads:       2,
		MaxNewUploadsInSingleFrame: 2,
	})

	data := make([]byte, 1024)
	for i := range data {
		data[i] = byte(i)
	}
	h := e.SubmitBuffer(data, gputypes.BufferUsageStorage)

	runUntilSettled(e, 8)

	r := waitResult(t, h)
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if r.Buffer == nil {
		t.Fatal("expected a destination buffer")
	}
}

// Boundary scenario 5: max_bytes_per_upload = 4 MiB, three requests of
// 2/3/1 MiB. Expected packing: batch 1 = {2 MiB, 1 MiB}, batch 2 = {3
// MiB}; all three complete.
func TestEngine_UploadBatching(t *testing.T) {
	device, queue := newSimDeviceAndQueue(t)
	e := NewEngine(device, queue, queue, QueueConfig{
		MaxBytesPerUpload:          4 << 20,
		MaxConcurrentUploads:       4,
		MaxNewUploadsInSingleFrame: 4,
	})

	mib := 1 << 20
	h1 := e.SubmitBuffer(make([]byte, 2*mib), gputypes.BufferUsageStorage)
	h2 := e.SubmitBuffer(make([]byte, 3*mib), gputypes.BufferUsageStorage)
	h3 := e.SubmitBuffer(make([]byte, 1*mib), gputypes.BufferUsageStorage)

	leftover := e.startNewBatches(e.pending)
	e.pending = nil
	if len(leftover) != 0 {
		t.Fatalf("expected no leftover requests, got %d", len(leftover))
	}
	if len(e.inProgress) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(e.inProgress))
	}
	if got := len(e.inProgress[0].requests); got != 2 {
		t.Fatalf("expected batch 1 to hold 2 requests (2 MiB + 1 MiB), got %d", got)
	}
	if got := len(e.inProgress[1].requests); got != 1 {
		t.Fatalf("expected batch 2 to hold 1 request (3 MiB), got %d", got)
	}
	if e.inProgress[0].bytesUsed != uint64(3*mib) {
		t.Fatalf("expected batch 1 to total 3 MiB, got %d bytes", e.inProgress[0].bytesUsed)
	}
	if e.inProgress[1].bytesUsed != uint64(3*mib) {
		t.Fatalf("expected batch 2 to total 3 MiB, got %d bytes", e.inProgress[1].bytesUsed)
	}

	runUntilSettled(e, 8)

	for i, h := range []*Handle{h1, h2, h3} {
		r := waitResult(t, h)
		if r.Err != nil {
			t.Fatalf("request %d: unexpected error: %v", i, r.Err)
		}
	}
}

// Boundary scenario 6: max_bytes_per_upload = 1 MiB, submit a 2 MiB
// request. Expected: UploadBufferFull, subsequent smaller requests
// still succeed.
func TestEngine_UploadBufferTooSmall(t *testing.T) {
	device, queue := newSimDeviceAndQueue(t)
	e := NewEngine(device, queue, queue, QueueConfig{
		MaxBytesPerUpload:          1 << 20,
		MaxConcurrentUploads:       2,
		MaxNewUploadsInSingleFrame: 2,
	})

	mib := 1 << 20
	tooBig := e.SubmitBuffer(make([]byte, 2*mib), gputypes.BufferUsageStorage)

	r := waitResult(t, tooBig)
	if r.Err == nil {
		t.Fatal("expected UploadBufferFull error")
	}
	if gerr, ok := gpucore.As(r.Err); !ok || gerr.Kind != gpucore.KindUploadBufferFull {
		t.Fatalf("expected KindUploadBufferFull, got %v", r.Err)
	}

	fine := e.SubmitBuffer(make([]byte, 512*1024), gputypes.BufferUsageStorage)
	runUntilSettled(e, 8)
	fr := waitResult(t, fine)
	if fr.Err != nil {
		t.Fatalf("expected smaller request to succeed, got %v", fr.Err)
	}
}

func TestEngine_MaxConcurrentUploadsLimitsNewBatches(t *testing.T) {
	device, queue := newSimDeviceAndQueue(t)
	e := NewEngine(device, queue, queue, QueueConfig{
		MaxBytesPerUpload:          1 << 20,
		MaxConcurrentUploads:       1,
		MaxNewUploadsInSingleFrame: 4,
	})

	h1 := e.SubmitBuffer(make([]byte, 600*1024), gputypes.BufferUsageStorage)
	h2 := e.SubmitBuffer(make([]byte, 600*1024), gputypes.BufferUsageStorage)

	_ = h1
	_ = h2

	leftover := e.startNewBatches(e.pending)
	e.pending = leftover

	if len(e.inProgress) != 1 {
		t.Fatalf("expected exactly 1 batch opened (MaxConcurrentUploads=1), got %d", len(e.inProgress))
	}
	if len(leftover) != 1 {
		t.Fatalf("expected 1 request parked as leftover, got %d", len(leftover))
	}
}

func TestEngine_ImageUploadWithRuntimeMips(t *testing.T) {
	device, queue := newSimDeviceAndQueue(t)
	e := NewEngine(device, queue, queue, QueueConfig{
		MaxBytesPerUpload:          16 << 20,
		MaxConcurrentUploads:       2,
		MaxNewUploadsInSingleFrame: 2,
	})

	layout := ImageLayout{
		Width:         8,
		Height:        8,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		MipLevelCount: DefaultMipLevelCount(8, 8),
	}
	mip0 := layout.MipLayout(0)
	data := make([]byte, mip0.SizeBytes)
	for i := range data {
		data[i] = byte(i)
	}

	h := e.SubmitImage(layout, data, gputypes.TextureUsageTextureBinding, true)
	runUntilSettled(e, 8)

	r := waitResult(t, h)
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
	if r.Texture == nil {
		t.Fatal("expected a destination texture")
	}
}

func TestEngine_ImageUploadSkipsMipGenerationForBlockCompressed(t *testing.T) {
	device, queue := newSimDeviceAndQueue(t)
	e := NewEngine(device, queue, queue, QueueConfig{
		MaxBytesPerUpload:          16 << 20,
		MaxConcurrentUploads:       2,
		MaxNewUploadsInSingleFrame: 2,
	})

	layout := ImageLayout{
		Width:         8,
		Height:        8,
		Format:        gputypes.TextureFormatBC1RGBAUnorm,
		MipLevelCount: DefaultMipLevelCount(8, 8),
	}
	data := make([]byte, layout.MipChainSize())

	h := e.SubmitImage(layout, data, gputypes.TextureUsageTextureBinding, true)
	runUntilSettled(e, 8)

	r := waitResult(t, h)
	if r.Err != nil {
		t.Fatalf("unexpected error: %v", r.Err)
	}
}

func TestImageLayout_MipChainSizeMatchesSumOfLevels(t *testing.T) {
	layout := ImageLayout{
		Width:         257,
		Height:        129,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		MipLevelCount: DefaultMipLevelCount(257, 129),
	}

	var want uint64
	for level := uint32(0); level < layout.MipLevelCount; level++ {
		want += layout.MipLayout(level).SizeBytes
	}
	if got := layout.MipChainSize(); got != want {
		t.Fatalf("MipChainSize() = %d, want %d", got, want)
	}
}

func TestImageLayout_BlockCompressedDetection(t *testing.T) {
	if !(ImageLayout{Format: gputypes.TextureFormatBC7RGBAUnorm}).BlockCompressed() {
		t.Error("expected BC7 to be block compressed")
	}
	if (ImageLayout{Format: gputypes.TextureFormatRGBA8Unorm}).BlockCompressed() {
		t.Error("expected RGBA8Unorm not to be block compressed")
	}
}
