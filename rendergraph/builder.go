// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package rendergraph assembles, plans and executes a frame's graphics
// and compute work as a directed graph of passes over virtual image and
// buffer resources, deferring physical allocation, aliasing and barrier
// placement to a planning step so pass authors never touch raw state
// transitions.
package rendergraph

import (
	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
)

// RgImage is a virtual image resource id assigned by a Builder. It is
// only meaningful against the Builder that produced it.
type RgImage uint32

// RgBuffer is a virtual buffer resource id assigned by a Builder.
type RgBuffer uint32

// NodeID identifies a declared pass within a Builder.
type NodeID uint32

// ImageSpec describes a transient image a Builder allocates and the
// planner assigns physical storage to.
type ImageSpec struct {
	Extent        gputypes.Extent3D
	Format        gputypes.TextureFormat
	MipLevelCount uint32
	SampleCount   uint32
	Usage         gputypes.TextureUsage
}

// BufferSpec describes a transient buffer.
type BufferSpec struct {
	Size  uint64
	Usage gputypes.BufferUsage
}

type imageResource struct {
	name         string
	spec         ImageSpec
	accumulated  bool
	imported     bool
	physical     hal.Texture
	initialUsage gputypes.TextureUsage
	finalUsage   gputypes.TextureUsage
}

type bufferResource struct {
	name        string
	spec        BufferSpec
	accumulated bool
}

type imageUsage struct {
	node  NodeID
	image RgImage
	usage gputypes.TextureUsage
	write bool
}

type bufferUsage struct {
	node   NodeID
	buffer RgBuffer
	usage  gputypes.BufferUsage
}

// ColorAttachmentArgs describes how a node's color_attachment call binds
// an image, per spec.md §4.E.
type ColorAttachmentArgs struct {
	LoadOp        gputypes.LoadOp
	Clear         gputypes.Color
	MipSlice      uint32
	ArraySlice    uint32
	ResolveTarget *RgImage
}

// DepthStencilAttachmentArgs describes a node's depth_stencil_attachment
// call.
type DepthStencilAttachmentArgs struct {
	DepthLoadOp   gputypes.LoadOp
	StencilLoadOp gputypes.LoadOp
	DepthClear    float32
	StencilClear  uint32
}

type colorAttachment struct {
	image RgImage
	args  ColorAttachmentArgs
}

type depthStencilAttachment struct {
	image RgImage
	args  DepthStencilAttachmentArgs
}

// NodeKind distinguishes a render pass node from a compute node.
type NodeKind uint8

const (
	// NodeKindRenderPass wraps BeginRenderPass/EndRenderPass.
	NodeKindRenderPass NodeKind = iota
	// NodeKindCompute wraps BeginComputePass/EndComputePass.
	NodeKindCompute
)

type node struct {
	id           NodeID
	name         string
	kind         NodeKind
	callbackRef  any
	imageReads   []imageUsage
	imageWrites  []imageUsage
	bufferUses   []bufferUsage
	colorTargets []colorAttachment
	depthTarget  *depthStencilAttachment
}

// Builder is a mutable record assembled by caller code describing one
// frame's graph, per spec.md §4.E. It is not safe for concurrent use; a
// single goroutine builds a graph, then hands it to Compile.
type Builder struct {
	images        []*imageResource
	buffers       []*bufferResource
	nodes         []*node
	imageWriters  map[RgImage][]NodeID
	bufferWriters map[RgBuffer][]NodeID
	output        *RgImage
	outputDest    hal.Texture
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		imageWriters:  make(map[RgImage][]NodeID),
		bufferWriters: make(map[RgBuffer][]NodeID),
	}
}

// AddImage declares a transient image the planner will assign physical
// storage to.
func (b *Builder) AddImage(name string, spec ImageSpec) RgImage {
	id := RgImage(len(b.images))
	b.images = append(b.images, &imageResource{name: name, spec: spec})
	return id
}

// AddBuffer declares a transient buffer.
func (b *Builder) AddBuffer(name string, spec BufferSpec) RgBuffer {
	id := RgBuffer(len(b.buffers))
	b.buffers = append(b.buffers, &bufferResource{name: name, spec: spec})
	return id
}

// ImportImage registers an externally owned image (e.g. the swapchain
// back-buffer) with its state on entry to and exit from the graph.
func (b *Builder) ImportImage(name string, physical hal.Texture, initialUsage, finalUsage gputypes.TextureUsage) RgImage {
	id := RgImage(len(b.images))
	b.images = append(b.images, &imageResource{
		name:         name,
		imported:     true,
		physical:     physical,
		initialUsage: initialUsage,
		finalUsage:   finalUsage,
	})
	return id
}

// Accumulate marks image as deliberately written by more than one node
// in the same frame (e.g. a progressive accumulation buffer), opting it
// out of the single-writer invariant.
func (b *Builder) Accumulate(image RgImage) {
	b.images[image].accumulated = true
}

// AccumulateBuffer is Accumulate for a buffer resource.
func (b *Builder) AccumulateBuffer(buffer RgBuffer) {
	b.buffers[buffer].accumulated = true
}

// SetOutputImage terminates the graph at image, whose final physical
// assignment must be physicalDestination (e.g. the acquired swapchain
// texture).
func (b *Builder) SetOutputImage(image RgImage, physicalDestination hal.Texture) {
	out := image
	b.output = &out
	b.outputDest = physicalDestination
}

// AddRenderPass declares a render-pass node. callbackRef is an opaque
// value the executor hands back to the caller's registered callback so
// it can recover pipeline/material state without a closure per node.
func (b *Builder) AddRenderPass(name string, callbackRef any) Node {
	return b.addNode(name, NodeKindRenderPass, callbackRef)
}

// AddComputePass declares a compute node.
func (b *Builder) AddComputePass(name string, callbackRef any) Node {
	return b.addNode(name, NodeKindCompute, callbackRef)
}

func (b *Builder) addNode(name string, kind NodeKind, callbackRef any) Node {
	id := NodeID(len(b.nodes))
	b.nodes = append(b.nodes, &node{id: id, name: name, kind: kind, callbackRef: callbackRef})
	return Node{id: id, b: b}
}

// Node is a handle to a declared pass used to chain resource-usage
// declarations. Methods return the same Node so calls can be chained.
type Node struct {
	id NodeID
	b  *Builder
}

// ID returns the node's id, stable for the lifetime of the Builder.
func (n Node) ID() NodeID { return n.id }

// Read declares that this node reads image in the given usage state.
func (n Node) Read(image RgImage, usage gputypes.TextureUsage) Node {
	nd := n.b.nodes[n.id]
	nd.imageReads = append(nd.imageReads, imageUsage{node: n.id, image: image, usage: usage})
	return n
}

// Write declares that this node writes image in the given usage state.
func (n Node) Write(image RgImage, usage gputypes.TextureUsage) Node {
	nd := n.b.nodes[n.id]
	nd.imageWrites = append(nd.imageWrites, imageUsage{node: n.id, image: image, usage: usage, write: true})
	n.b.recordImageWriter(image, n.id)
	return n
}

// ReadWrite declares that this node both reads and writes buffer in the
// given combined usage state.
func (n Node) ReadWrite(buffer RgBuffer, usage gputypes.BufferUsage) Node {
	nd := n.b.nodes[n.id]
	nd.bufferUses = append(nd.bufferUses, bufferUsage{node: n.id, buffer: buffer, usage: usage})
	n.b.recordBufferWriter(buffer, n.id)
	return n
}

// ColorAttachment declares image as one of this render-pass node's color
// targets.
func (n Node) ColorAttachment(image RgImage, args ColorAttachmentArgs) Node {
	nd := n.b.nodes[n.id]
	nd.colorTargets = append(nd.colorTargets, colorAttachment{image: image, args: args})
	nd.imageWrites = append(nd.imageWrites, imageUsage{node: n.id, image: image, usage: gputypes.TextureUsageRenderAttachment, write: true})
	n.b.recordImageWriter(image, n.id)
	if args.ResolveTarget != nil {
		nd.imageWrites = append(nd.imageWrites, imageUsage{node: n.id, image: *args.ResolveTarget, usage: gputypes.TextureUsageRenderAttachment, write: true})
		n.b.recordImageWriter(*args.ResolveTarget, n.id)
	}
	return n
}

// DepthStencilAttachment declares image as this render-pass node's
// depth/stencil target.
func (n Node) DepthStencilAttachment(image RgImage, args DepthStencilAttachmentArgs) Node {
	nd := n.b.nodes[n.id]
	nd.depthTarget = &depthStencilAttachment{image: image, args: args}
	nd.imageWrites = append(nd.imageWrites, imageUsage{node: n.id, image: image, usage: gputypes.TextureUsageRenderAttachment, write: true})
	n.b.recordImageWriter(image, n.id)
	return n
}

func (b *Builder) recordImageWriter(image RgImage, id NodeID) {
	writers := b.imageWriters[image]
	if len(writers) == 0 || writers[len(writers)-1] != id {
		b.imageWriters[image] = append(writers, id)
	}
}

func (b *Builder) recordBufferWriter(buffer RgBuffer, id NodeID) {
	writers := b.bufferWriters[buffer]
	if len(writers) == 0 || writers[len(writers)-1] != id {
		b.bufferWriters[buffer] = append(writers, id)
	}
}
