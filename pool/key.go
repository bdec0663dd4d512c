// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package pool

import (
	"bytes"
	"encoding/gob"
	"hash/fnv"
)

// HashDescriptor computes the structural hash key spec §4.B calls for:
// "the structural definition of the resource (a hashable value record)".
// Descriptors here contain slices (bind group entries, push constant
// ranges, …) that aren't Go-comparable, so rather than require every
// caller to hand-roll a comparable key type, the cache hashes a
// deterministic gob encoding of the descriptor. No struct-hashing library
// appears anywhere in the retrieval pack, so this uses gob (stdlib,
// already a dependency-free deterministic encoder for exported fields)
// plus fnv for the actual digest.
func HashDescriptor(desc any) uint64 {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(desc); err != nil {
		// Descriptors are plain value structs; a gob failure here means a
		// caller passed something pathological (unexported-only fields,
		// channels, funcs). Fall back to hashing the encoder's error text,
		// which names the offending type, so descriptors that fail the same
		// way share one key.
		buf.Reset()
		buf.WriteString(err.Error())
	}
	h := fnv.New64a()
	h.Write(buf.Bytes())
	return h.Sum64()
}
