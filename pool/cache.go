// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pool

import (
	"sync"
	"weak"

	"golang.org/x/sys/cpu"
)

// Cache is a hash-keyed, reference-counted lookup for one resource kind
// (shader modules, samplers, descriptor-set layouts, pipeline layouts,
// image views, graphics/compute pipelines, …). Keys are the structural
// hash of the resource's descriptor, computed by HashDescriptor.
//
// The cache holds only a weak.Pointer to each live Handle: it never
// extends a resource's lifetime, matching spec §4.B's "the cache only
// holds weak references" invariant. Concurrent GetOrCreate calls for the
// same key are serialized per shard so exactly one body is constructed.
type Cache[V any] struct {
	ring   *destructionRing
	shards []cacheShard[V]
	mask   uint64
}

type cacheShard[V any] struct {
	mu      sync.Mutex
	entries map[uint64]weak.Pointer[Handle[V]]
	_       cpu.CacheLinePad // keeps neighboring shards' mutexes on separate cache lines
}

func newCache[V any](ring *destructionRing, shardCount int) *Cache[V] {
	c := &Cache[V]{
		ring:   ring,
		shards: make([]cacheShard[V], shardCount),
		mask:   uint64(shardCount - 1),
	}
	for i := range c.shards {
		c.shards[i].entries = make(map[uint64]weak.Pointer[Handle[V]])
	}
	return c
}

func (c *Cache[V]) shardFor(key uint64) *cacheShard[V] {
	return &c.shards[key&c.mask]
}

// GetOrCreate returns the live handle for key if one exists and still
// has at least one reference, AddRef'ing it first; otherwise it calls
// create, wraps the result with destroy as its deferred-destruction
// callback, and stores it. Two calls with equal key return the same
// *Handle by identity, per spec §8's interleaving invariant.
func (c *Cache[V]) GetOrCreate(key uint64, create func() V, destroy func(V)) *Handle[V] {
	shard := c.shardFor(key)

	shard.mu.Lock()
	defer shard.mu.Unlock()

	if wp, ok := shard.entries[key]; ok {
		if h := wp.Value(); h != nil && h.tryAddRef() {
			return h
		}
	}

	h := &Handle[V]{destroy: destroy, ring: c.ring}
	h.body = create()
	h.refs.Store(1)
	shard.entries[key] = weak.Make(h)
	return h
}

// Len reports the number of cache slots whose weak pointer is still
// resolvable, i.e. the handle has not yet been garbage collected.
func (c *Cache[V]) Len() int {
	n := 0
	for i := range c.shards {
		c.shards[i].mu.Lock()
		for _, wp := range c.shards[i].entries {
			if wp.Value() != nil {
				n++
			}
		}
		c.shards[i].mu.Unlock()
	}
	return n
}
