// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pool

import (
	"bytes"
	"encoding/binary"
	"sync"
)

// pipelineCacheMagic tags the blob format so Load can reject data that
// was never produced by Save, the same way a native pipeline cache
// rejects a blob whose header doesn't match the driver/device UUID.
const pipelineCacheMagic = uint32(0x50434b31) // "PCK1"

// PipelineCache holds backend-defined opaque blobs (e.g. VkPipelineCache
// data, a D3D12 cached PSO blob) keyed by the same descriptor hash used
// to look up the compiled pipeline, so a process can skip shader
// recompilation on a later run by feeding the loaded blob back into
// pipeline creation. The blobs themselves are never interpreted here;
// this type only persists and retrieves them.
type PipelineCache struct {
	mu    sync.RWMutex
	blobs map[uint64][]byte
}

func newPipelineCache() *PipelineCache {
	return &PipelineCache{blobs: make(map[uint64][]byte)}
}

// Put stores the backend-defined blob produced while creating the
// pipeline identified by descHash.
func (c *PipelineCache) Put(descHash uint64, blob []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := make([]byte, len(blob))
	copy(stored, blob)
	c.blobs[descHash] = stored
}

// Get returns the blob previously stored for descHash, if any.
func (c *PipelineCache) Get(descHash uint64) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blob, ok := c.blobs[descHash]
	return blob, ok
}

// Save serializes every stored blob into a single opaque byte stream
// suitable for writing to disk and feeding back into Load on a later
// run of the same process.
func (c *PipelineCache) Save() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var buf bytes.Buffer
	var header [8]byte
	binary.LittleEndian.PutUint32(header[0:4], pipelineCacheMagic)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(c.blobs)))
	buf.Write(header[:])

	for key, blob := range c.blobs {
		var entry [16]byte
		binary.LittleEndian.PutUint64(entry[0:8], key)
		binary.LittleEndian.PutUint64(entry[8:16], uint64(len(blob)))
		buf.Write(entry[:])
		buf.Write(blob)
	}
	return buf.Bytes()
}

// Load replaces the cache's contents with the blobs encoded in data, as
// previously produced by Save. A malformed or foreign blob (wrong magic,
// truncated entry) is rejected with an error and leaves the cache
// untouched, the same way a native driver silently discards a pipeline
// cache blob it doesn't recognize rather than crashing.
func (c *PipelineCache) Load(data []byte) error {
	if len(data) < 8 {
		return errPipelineCacheTruncated
	}
	if binary.LittleEndian.Uint32(data[0:4]) != pipelineCacheMagic {
		return errPipelineCacheBadMagic
	}
	count := binary.LittleEndian.Uint32(data[4:8])

	blobs := make(map[uint64][]byte, count)
	offset := 8
	for i := uint32(0); i < count; i++ {
		if offset+16 > len(data) {
			return errPipelineCacheTruncated
		}
		key := binary.LittleEndian.Uint64(data[offset : offset+8])
		size := binary.LittleEndian.Uint64(data[offset+8 : offset+16])
		offset += 16
		end := offset + int(size)
		if end < offset || end > len(data) {
			return errPipelineCacheTruncated
		}
		blob := make([]byte, size)
		copy(blob, data[offset:end])
		blobs[key] = blob
		offset = end
	}

	c.mu.Lock()
	c.blobs = blobs
	c.mu.Unlock()
	return nil
}

// Len reports the number of blobs currently stored.
func (c *PipelineCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blobs)
}
