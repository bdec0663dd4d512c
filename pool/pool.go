// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package pool implements the resource pool described by the core's
// caching rules: hash-keyed, reference-counted lookup with deferred
// destruction, one Cache per resource kind, sharded to spread lock
// contention across goroutines.
package pool

import (
	"runtime"

	"github.com/coregpu/corevk/hal"
)

// Stats reports per-kind live counts and the number of bodies still
// waiting in the deferred destruction ring.
type Stats struct {
	ShaderModules      int
	Samplers           int
	BindGroupLayouts   int
	PipelineLayouts    int
	TextureViews       int
	RenderPipelines    int
	ComputePipelines   int
	PendingDestruction int
}

// Pool owns one Cache per cacheable resource kind plus the shared
// deferred-destruction ring all of them retire into. A Pool is bound to
// one hal.Device's lifetime.
type Pool struct {
	ring *destructionRing

	ShaderModules    *Cache[hal.ShaderModule]
	Samplers         *Cache[hal.Sampler]
	BindGroupLayouts *Cache[hal.BindGroupLayout]
	PipelineLayouts  *Cache[hal.PipelineLayout]
	TextureViews     *Cache[hal.TextureView]
	RenderPipelines  *Cache[hal.RenderPipeline]
	ComputePipelines *Cache[hal.ComputePipeline]

	PipelineCache *PipelineCache
}

// New builds a Pool. framesInFlight sizes the deferred destruction ring
// (framesInFlight+1 buckets); shardCount, if 0, defaults to the next
// power of two at or above runtime.GOMAXPROCS(0) so shard selection can
// use a bitmask instead of a modulo.
func New(framesInFlight int, shardCount int) *Pool {
	if shardCount <= 0 {
		shardCount = nextPowerOfTwo(runtime.GOMAXPROCS(0))
	}
	ring := newDestructionRing(framesInFlight)
	return &Pool{
		ring:             ring,
		ShaderModules:    newCache[hal.ShaderModule](ring, shardCount),
		Samplers:         newCache[hal.Sampler](ring, shardCount),
		BindGroupLayouts: newCache[hal.BindGroupLayout](ring, shardCount),
		PipelineLayouts:  newCache[hal.PipelineLayout](ring, shardCount),
		TextureViews:     newCache[hal.TextureView](ring, shardCount),
		RenderPipelines:  newCache[hal.RenderPipeline](ring, shardCount),
		ComputePipelines: newCache[hal.ComputePipeline](ring, shardCount),
		PipelineCache:    newPipelineCache(),
	}
}

// OnFrameComplete rotates the deferred destruction ring by one bucket,
// running the destroy closures of every handle whose refcount hit zero
// framesInFlight+1 frames ago. Call this exactly once per completed
// frame, after the GPU has signaled it will no longer reference that
// frame's resources.
func (p *Pool) OnFrameComplete() int {
	return p.ring.rotate()
}

// Stats reports the current live counts for each resource kind and the
// number of destroy closures still queued in the ring.
func (p *Pool) Stats() Stats {
	return Stats{
		ShaderModules:      p.ShaderModules.Len(),
		Samplers:           p.Samplers.Len(),
		BindGroupLayouts:   p.BindGroupLayouts.Len(),
		PipelineLayouts:    p.PipelineLayouts.Len(),
		TextureViews:       p.TextureViews.Len(),
		RenderPipelines:    p.RenderPipelines.Len(),
		ComputePipelines:   p.ComputePipelines.Len(),
		PendingDestruction: p.ring.pendingCount(),
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
