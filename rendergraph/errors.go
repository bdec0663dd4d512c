// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"errors"
	"fmt"
)

// These conditions are named in spec.md's render-graph sections but do
// not appear in the central §7 error taxonomy table, so — like
// rootsig.ErrAmbiguousPushConstant and descset's local sentinels — they
// are package sentinels rather than gpucore.Error kinds.
var (
	ErrMultipleWriters   = errors.New("rendergraph: resource written by more than one node without Accumulate")
	ErrUnknownResource   = errors.New("rendergraph: resource id was not declared on this builder")
	ErrOutputImageNotSet = errors.New("rendergraph: builder has no output image; call SetOutputImage before Compile")
)

func multipleWriters(name string, writers []NodeID) error {
	return fmt.Errorf("%w: %q written by nodes %v", ErrMultipleWriters, name, writers)
}

func unknownImage(id RgImage) error {
	return fmt.Errorf("%w: image %d", ErrUnknownResource, id)
}
