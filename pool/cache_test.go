// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pool

import (
	"sync"
	"sync/atomic"
	"testing"
)

func newTestCache() (*Cache[int], *destructionRing) {
	ring := newDestructionRing(2)
	return newCache[int](ring, 4), ring
}

func TestCacheGetOrCreate_SameKeySameIdentity(t *testing.T) {
	c, _ := newTestCache()
	var creates int32

	create := func() int { atomic.AddInt32(&creates, 1); return 42 }
	destroy := func(int) {}

	h1 := c.GetOrCreate(7, create, destroy)
	h2 := c.GetOrCreate(7, create, destroy)

	if h1 != h2 {
		t.Fatal("GetOrCreate with the same key must return the same handle by identity")
	}
	if creates != 1 {
		t.Errorf("create ran %d times, want 1", creates)
	}
	h1.Release()
	h2.Release()
}

func TestCacheGetOrCreate_ConcurrentIdenticalRequests(t *testing.T) {
	c, _ := newTestCache()
	var creates int32

	create := func() int { atomic.AddInt32(&creates, 1); return 1 }
	destroy := func(int) {}

	const n = 64
	handles := make([]*Handle[int], n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range handles {
		i := i
		go func() {
			defer wg.Done()
			handles[i] = c.GetOrCreate(99, create, destroy)
		}()
	}
	wg.Wait()

	first := handles[0]
	for i, h := range handles {
		if h != first {
			t.Fatalf("handle %d differs from handle 0; concurrent GetOrCreate must serialize creation", i)
		}
	}
	if creates != 1 {
		t.Errorf("create ran %d times under concurrent access, want exactly 1", creates)
	}
	for _, h := range handles {
		h.Release()
	}
}

func TestCacheGetOrCreate_DifferentKeysDifferentBodies(t *testing.T) {
	c, _ := newTestCache()
	create := func() int { return 1 }
	destroy := func(int) {}

	h1 := c.GetOrCreate(1, create, destroy)
	h2 := c.GetOrCreate(2, create, destroy)
	if h1 == h2 {
		t.Fatal("different keys must not share a handle")
	}
	h1.Release()
	h2.Release()
}

func TestHandleRelease_DeferredDestruction(t *testing.T) {
	c, ring := newTestCache()
	var destroyed int32

	create := func() int { return 5 }
	destroy := func(int) { atomic.AddInt32(&destroyed, 1) }

	h := c.GetOrCreate(3, create, destroy)
	h.Release()

	if destroyed != 0 {
		t.Fatal("destroy must not run synchronously on Release; it belongs in the destruction ring")
	}

	// The ring has 3 buckets (framesInFlight=2). Rotating twice should not
	// yet reach the bucket the retire landed in.
	ring.rotate()
	ring.rotate()
	if destroyed != 0 {
		t.Fatal("destroy ran before its frame delay elapsed")
	}
	ring.rotate()
	if destroyed != 1 {
		t.Errorf("destroyed = %d after the retiring frame's delay elapsed, want 1", destroyed)
	}
}

func TestHandleTryAddRef_RejectsZeroedHandle(t *testing.T) {
	c, _ := newTestCache()
	create := func() int { return 1 }
	destroy := func(int) {}

	h := c.GetOrCreate(10, create, destroy)
	h.Release() // drops to 0

	if h.tryAddRef() {
		t.Fatal("tryAddRef must refuse to resurrect a handle whose refcount already hit zero")
	}
}
