// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"sync"

	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
)

// SwapchainSurfaceInfo describes the swapchain a graph is planned
// against, per spec.md §4.F's "(spec, swapchain_surface_info)" cache
// key.
type SwapchainSurfaceInfo struct {
	Extent gputypes.Extent3D
	Format gputypes.TextureFormat
}

type cacheKey struct {
	spec    ImageSpec
	surface SwapchainSurfaceInfo
}

type cacheEntry struct {
	texture      hal.Texture
	view         hal.TextureView
	lastUseFrame uint64
	inUse        bool
}

// ResourceCache persists transient images across frames so repeated
// graphs with identical specs reuse backing GPU memory instead of
// allocating fresh images every frame. One ResourceCache is shared by
// every graph compiled against the same device, living for the
// program's lifetime.
type ResourceCache struct {
	mu           sync.Mutex
	device       hal.Device
	entries      map[cacheKey][]*cacheEntry
	currentFrame uint64
}

// NewResourceCache returns an empty cache that allocates through device.
func NewResourceCache(device hal.Device) *ResourceCache {
	return &ResourceCache{device: device, entries: make(map[cacheKey][]*cacheEntry)}
}

// BeginFrame advances the cache's notion of "now" and releases the
// in-use marks taken by the previous frame's Acquire calls.
func (c *ResourceCache) BeginFrame(frame uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentFrame = frame
	for _, bucket := range c.entries {
		for _, e := range bucket {
			e.inUse = false
		}
	}
}

// acquire returns the oldest cached image matching (spec, surface)
// whose last use is older than currentFrame-framesToPersist, allocating
// a new one if none qualifies.
func (c *ResourceCache) acquire(spec ImageSpec, surface SwapchainSurfaceInfo, framesToPersist uint64) (hal.Texture, hal.TextureView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{spec: spec, surface: surface}
	bucket := c.entries[key]

	var oldest *cacheEntry
	for _, e := range bucket {
		if e.inUse {
			continue
		}
		if framesToPersist > c.currentFrame {
			continue
		}
		if e.lastUseFrame >= c.currentFrame-framesToPersist {
			continue
		}
		if oldest == nil || e.lastUseFrame < oldest.lastUseFrame {
			oldest = e
		}
	}

	if oldest != nil {
		oldest.inUse = true
		oldest.lastUseFrame = c.currentFrame
		return oldest.texture, oldest.view, nil
	}

	tex, err := c.device.CreateTexture(&hal.TextureDescriptor{
		Size:          hal.Extent3D{Width: spec.Extent.Width, Height: spec.Extent.Height, DepthOrArrayLayers: spec.Extent.DepthOrArrayLayers},
		MipLevelCount: max1(spec.MipLevelCount),
		SampleCount:   max1(spec.SampleCount),
		Dimension:     gputypes.TextureDimension2D,
		Format:        spec.Format,
		Usage:         spec.Usage,
	})
	if err != nil {
		return nil, nil, err
	}
	view, err := c.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Format: spec.Format})
	if err != nil {
		c.device.DestroyTexture(tex)
		return nil, nil, err
	}

	entry := &cacheEntry{texture: tex, view: view, lastUseFrame: c.currentFrame, inUse: true}
	c.entries[key] = append(bucket, entry)
	return tex, view, nil
}

func max1(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	return n
}
