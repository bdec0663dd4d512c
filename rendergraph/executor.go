// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"fmt"

	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
)

// GraphContext gives a pass callback read access to the physical
// resources the planner assigned to the graph's virtual ids.
type GraphContext struct {
	graph *PlannedGraph
}

// Texture returns the physical texture backing image, if any.
func (g GraphContext) Texture(image RgImage) (hal.Texture, bool) {
	t, ok := g.graph.ImagePhysical[image]
	return t, ok
}

// TextureView returns the physical view backing image, if any. Imported
// images that were never given a view through the planner (see
// assignImages) are not present here.
func (g GraphContext) TextureView(image RgImage) (hal.TextureView, bool) {
	v, ok := g.graph.ImageViews[image]
	return v, ok
}

// Buffer returns the physical buffer backing buffer, if any.
func (g GraphContext) Buffer(buffer RgBuffer) (hal.Buffer, bool) {
	b, ok := g.graph.BufferPhysical[buffer]
	return b, ok
}

// BeginExecuteArgs is passed to the OnBeginExecute callback, before any
// pass barrier or pass has been recorded.
type BeginExecuteArgs struct {
	Encoder hal.CommandEncoder
	Graph   GraphContext
}

// RenderPassArgs is passed to a node's RenderPassCallback once its
// pre-pass barriers have been recorded and BeginRenderPass has returned.
type RenderPassArgs struct {
	Encoder     hal.CommandEncoder
	RenderPass  hal.RenderPassEncoder
	CallbackRef any
	Graph       GraphContext
}

// ComputePassArgs is the compute-node equivalent of RenderPassArgs.
type ComputePassArgs struct {
	Encoder     hal.CommandEncoder
	ComputePass hal.ComputePassEncoder
	CallbackRef any
	Graph       GraphContext
}

// OnBeginExecute is invoked once, before the first pass, so callers can
// record graph-wide setup (e.g. binding a global descriptor set).
type OnBeginExecute func(BeginExecuteArgs) error

// RenderPassCallback records one render-pass node's draw commands.
type RenderPassCallback func(RenderPassArgs) error

// ComputePassCallback records one compute-pass node's dispatch commands.
type ComputePassCallback func(ComputePassArgs) error

// Callbacks binds pass implementations to the node ids a Builder
// declared. One Callbacks is built once per distinct graph shape and
// reused across frames; CallbackRef (set at AddRenderPass/AddComputePass
// time) carries whatever per-frame state a callback needs.
type Callbacks struct {
	onBegin     OnBeginExecute
	renderPass  map[NodeID]RenderPassCallback
	computePass map[NodeID]ComputePassCallback
}

// NewCallbacks returns an empty Callbacks.
func NewCallbacks() *Callbacks {
	return &Callbacks{
		renderPass:  make(map[NodeID]RenderPassCallback),
		computePass: make(map[NodeID]ComputePassCallback),
	}
}

// OnBegin registers the graph-wide setup callback.
func (c *Callbacks) OnBegin(fn OnBeginExecute) { c.onBegin = fn }

// SetRenderPass binds fn to node, which must have been declared with
// AddRenderPass.
func (c *Callbacks) SetRenderPass(node NodeID, fn RenderPassCallback) {
	c.renderPass[node] = fn
}

// SetComputePass binds fn to node, which must have been declared with
// AddComputePass.
func (c *Callbacks) SetComputePass(node NodeID, fn ComputePassCallback) {
	c.computePass[node] = fn
}

// Execute dispatches graph's passes against encoder in planned order:
// pre-pass barriers, the pass body (via the matching registered
// callback), then post-pass barriers. A callback error aborts the whole
// graph; no partial command buffer is returned — encoder is discarded
// and the caller must start a fresh one.
func Execute(encoder hal.CommandEncoder, graph *PlannedGraph, callbacks *Callbacks) (hal.CommandBuffer, error) {
	ctx := GraphContext{graph: graph}

	if callbacks.onBegin != nil {
		if err := callbacks.onBegin(BeginExecuteArgs{Encoder: encoder, Graph: ctx}); err != nil {
			encoder.DiscardEncoding()
			return nil, fmt.Errorf("rendergraph: begin-execute callback: %w", err)
		}
	}

	for _, pass := range graph.Passes {
		recordBarriers(encoder, graph, pass.PrePass)

		switch pass.Kind {
		case NodeKindRenderPass:
			cb, ok := callbacks.renderPass[pass.Node]
			if !ok {
				encoder.DiscardEncoding()
				return nil, fmt.Errorf("rendergraph: no render-pass callback registered for node %d (%q)", pass.Node, pass.Name)
			}
			desc := renderPassDescriptor(graph, pass)
			rp := encoder.BeginRenderPass(desc)
			err := cb(RenderPassArgs{Encoder: encoder, RenderPass: rp, CallbackRef: pass.CallbackRef, Graph: ctx})
			rp.End()
			if err != nil {
				encoder.DiscardEncoding()
				return nil, fmt.Errorf("rendergraph: render pass %q: %w", pass.Name, err)
			}

		case NodeKindCompute:
			cb, ok := callbacks.computePass[pass.Node]
			if !ok {
				encoder.DiscardEncoding()
				return nil, fmt.Errorf("rendergraph: no compute-pass callback registered for node %d (%q)", pass.Node, pass.Name)
			}
			cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: pass.Name})
			err := cb(ComputePassArgs{Encoder: encoder, ComputePass: cp, CallbackRef: pass.CallbackRef, Graph: ctx})
			cp.End()
			if err != nil {
				encoder.DiscardEncoding()
				return nil, fmt.Errorf("rendergraph: compute pass %q: %w", pass.Name, err)
			}
		}

		recordBarriers(encoder, graph, pass.PostPass)
	}

	return encoder.EndEncoding()
}

// recordBarriers resolves a pass's planned barriers to physical
// resources and issues them as two batches, one per resource kind,
// matching hal.CommandEncoder's TransitionBuffers/TransitionTextures
// split.
func recordBarriers(encoder hal.CommandEncoder, graph *PlannedGraph, b PassBarriers) {
	if b.empty() {
		return
	}
	if len(b.Buffers) > 0 {
		barriers := make([]hal.BufferBarrier, 0, len(b.Buffers))
		for _, bar := range b.Buffers {
			buf, ok := graph.BufferPhysical[bar.Buffer]
			if !ok {
				continue
			}
			barriers = append(barriers, hal.BufferBarrier{
				Buffer: buf,
				Usage:  hal.BufferUsageTransition{OldUsage: bar.OldUsage, NewUsage: bar.NewUsage},
			})
		}
		encoder.TransitionBuffers(barriers)
	}
	if len(b.Images) > 0 {
		barriers := make([]hal.TextureBarrier, 0, len(b.Images))
		for _, bar := range b.Images {
			tex, ok := graph.ImagePhysical[bar.Image]
			if !ok {
				continue
			}
			barriers = append(barriers, hal.TextureBarrier{
				Texture: tex,
				Usage:   hal.TextureUsageTransition{OldUsage: bar.OldUsage, NewUsage: bar.NewUsage},
			})
		}
		encoder.TransitionTextures(barriers)
	}
}

func renderPassDescriptor(graph *PlannedGraph, pass Pass) *hal.RenderPassDescriptor {
	desc := &hal.RenderPassDescriptor{Label: pass.Name}
	for _, ct := range pass.ColorTargets {
		view := graph.ImageViews[ct.image]
		var resolve hal.TextureView
		if ct.args.ResolveTarget != nil {
			resolve = graph.ImageViews[*ct.args.ResolveTarget]
		}
		desc.ColorAttachments = append(desc.ColorAttachments, hal.RenderPassColorAttachment{
			View:          view,
			ResolveTarget: resolve,
			LoadOp:        ct.args.LoadOp,
			StoreOp:       gputypes.StoreOpStore,
			ClearValue:    ct.args.Clear,
		})
	}
	if pass.DepthTarget != nil {
		dt := pass.DepthTarget
		desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
			View:              graph.ImageViews[dt.image],
			DepthLoadOp:       dt.args.DepthLoadOp,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   dt.args.DepthClear,
			StencilLoadOp:     dt.args.StencilLoadOp,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: dt.args.StencilClear,
		}
	}
	return desc
}
