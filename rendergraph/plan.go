// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package rendergraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coregpu/corevk/gputypes"
	"github.com/coregpu/corevk/hal"
)

// QueueTransition marks whether a barrier also crosses a queue boundary,
// per spec.md §4.F step 5 ("insert a release on the source queue and an
// acquire on the destination queue").
type QueueTransition uint8

const (
	// QueueTransitionNone is an ordinary same-queue barrier.
	QueueTransitionNone QueueTransition = iota
	// QueueTransitionAcquire is the destination-queue half of a
	// cross-queue transition (emitted when a resource enters the graph
	// from outside it, e.g. an imported image).
	QueueTransitionAcquire
	// QueueTransitionRelease is the source-queue half of a cross-queue
	// transition (emitted at the graph boundary for an imported image's
	// final state).
	QueueTransitionRelease
)

// ImageBarrier is one planned image state transition.
type ImageBarrier struct {
	Image    RgImage
	OldUsage gputypes.TextureUsage
	NewUsage gputypes.TextureUsage
	Queue    QueueTransition
	// Discard marks the first write of an aliased reincarnation: the
	// prior contents of the shared physical storage are not preserved.
	Discard bool
}

// BufferBarrier is one planned buffer state transition.
type BufferBarrier struct {
	Buffer   RgBuffer
	OldUsage gputypes.BufferUsage
	NewUsage gputypes.BufferUsage
	Queue    QueueTransition
}

// PassBarriers groups the barriers a pass issues as a single batch.
type PassBarriers struct {
	Images  []ImageBarrier
	Buffers []BufferBarrier
}

func (p PassBarriers) empty() bool { return len(p.Images) == 0 && len(p.Buffers) == 0 }

// Pass is one entry of a PlannedGraph's ordered pass list.
type Pass struct {
	Node         NodeID
	Name         string
	Kind         NodeKind
	CallbackRef  any
	ColorTargets []colorAttachment
	DepthTarget  *depthStencilAttachment
	PrePass      PassBarriers
	PostPass     PassBarriers
}

// PlannedGraph is the planner's deterministic output: an ordered list of
// passes plus the physical resources assigned to every virtual id.
type PlannedGraph struct {
	Passes         []Pass
	ImagePhysical  map[RgImage]hal.Texture
	ImageViews     map[RgImage]hal.TextureView
	BufferPhysical map[RgBuffer]hal.Buffer

	imageNames  map[RgImage]string
	bufferNames map[RgBuffer]string
}

// PlanOptions configures a single Compile call.
type PlanOptions struct {
	// CurrentFrame is this graph's frame counter. Compile does not read
	// it; the resource cache's persistence window uses the frame passed
	// to ResourceCache.BeginFrame.
	CurrentFrame uint64
	// FramesToPersist is how many frames a cached image's last use must
	// predate the cache's current frame before it is eligible for reuse.
	FramesToPersist uint64
	// DisableAliasing skips step 4 entirely; every transient image gets
	// its own cache slot. Aliasing is always a planner choice per
	// spec.md §4.F ("aliasing is optional"); this option pins that
	// choice to "never" for callers that want simpler, easier-to-debug
	// barrier sequences.
	DisableAliasing bool
}

// Compile runs the five-step planning algorithm of spec.md §4.F against
// b and returns a PlannedGraph. Given identical builder contents,
// surface and options, Compile is deterministic.
func Compile(b *Builder, surface SwapchainSurfaceInfo, cache *ResourceCache, opts PlanOptions) (*PlannedGraph, error) {
	if err := validateWriters(b); err != nil {
		return nil, err
	}

	order := topologicalOrder(b)
	order = cull(b, order)

	imagePhys, imageViews, _, discardOnFirstWrite, err := assignImages(b, order, surface, cache, opts)
	if err != nil {
		return nil, err
	}

	bufferPhys, err := assignBuffers(b, cache)
	if err != nil {
		return nil, err
	}

	passes := insertBarriers(b, order, discardOnFirstWrite)

	imageNames := make(map[RgImage]string, len(b.images))
	for i, r := range b.images {
		imageNames[RgImage(i)] = r.name
	}
	bufferNames := make(map[RgBuffer]string, len(b.buffers))
	for i, r := range b.buffers {
		bufferNames[RgBuffer(i)] = r.name
	}

	return &PlannedGraph{
		Passes:         passes,
		ImagePhysical:  imagePhys,
		ImageViews:     imageViews,
		BufferPhysical: bufferPhys,
		imageNames:     imageNames,
		bufferNames:    bufferNames,
	}, nil
}

func validateWriters(b *Builder) error {
	for id, writers := range b.imageWriters {
		if len(writers) <= 1 {
			continue
		}
		if b.images[id].accumulated {
			continue
		}
		sorted := append([]NodeID(nil), writers...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		return multipleWriters(b.images[id].name, sorted)
	}
	for id, writers := range b.bufferWriters {
		if len(writers) <= 1 {
			continue
		}
		if b.buffers[id].accumulated {
			continue
		}
		sorted := append([]NodeID(nil), writers...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		return multipleWriters(b.buffers[id].name, sorted)
	}
	return nil
}

// topologicalOrder produces a node order where every writer precedes
// every reader of the same resource, breaking ties by insertion order
// (spec.md §4.F step 1).
func topologicalOrder(b *Builder) []NodeID {
	n := len(b.nodes)
	adj := make([][]NodeID, n)
	indegree := make([]int, n)
	seen := make(map[[2]NodeID]bool)

	addEdge := func(from, to NodeID) {
		if from == to {
			return
		}
		key := [2]NodeID{from, to}
		if seen[key] {
			return
		}
		seen[key] = true
		adj[from] = append(adj[from], to)
		indegree[to]++
	}

	lastImageWriter := make(map[RgImage]NodeID)
	lastBufferWriter := make(map[RgBuffer]NodeID)

	for _, nd := range b.nodes {
		for _, r := range nd.imageReads {
			if w, ok := lastImageWriter[r.image]; ok {
				addEdge(w, nd.id)
			}
		}
		for _, u := range nd.bufferUses {
			if w, ok := lastBufferWriter[u.buffer]; ok {
				addEdge(w, nd.id)
			}
		}
		for _, w := range nd.imageWrites {
			if prev, ok := lastImageWriter[w.image]; ok {
				addEdge(prev, nd.id)
			}
			lastImageWriter[w.image] = nd.id
		}
		for _, u := range nd.bufferUses {
			lastBufferWriter[u.buffer] = nd.id
		}
	}

	ready := make([]NodeID, 0, n)
	for id := 0; id < n; id++ {
		if indegree[id] == 0 {
			ready = append(ready, NodeID(id))
		}
	}

	order := make([]NodeID, 0, n)
	for len(order) < n {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, to := range adj[next] {
			indegree[to]--
			if indegree[to] == 0 {
				ready = append(ready, to)
			}
		}
	}
	return order
}

// cull removes nodes whose outputs are not transitively used by the
// output image or by a side-effect node (one declaring no writes at
// all), per spec.md §4.F step 2.
func cull(b *Builder, order []NodeID) []NodeID {
	keep := make(map[NodeID]bool)

	var mark func(NodeID)
	mark = func(id NodeID) {
		if keep[id] {
			return
		}
		keep[id] = true
		nd := b.nodes[id]
		for _, r := range nd.imageReads {
			for _, w := range b.imageWriters[r.image] {
				mark(w)
			}
		}
		for _, u := range nd.bufferUses {
			for _, w := range b.bufferWriters[u.buffer] {
				if w != id {
					mark(w)
				}
			}
		}
	}

	if b.output != nil {
		for _, w := range b.imageWriters[*b.output] {
			mark(w)
		}
	}
	for _, nd := range b.nodes {
		if len(nd.imageWrites) == 0 && len(nd.bufferUses) == 0 {
			mark(nd.id)
		}
	}
	if b.output == nil && len(keep) == 0 {
		// No declared output and no side-effect nodes: nothing to cull
		// against, so keep the whole graph rather than emit an empty one.
		for _, nd := range b.nodes {
			keep[nd.id] = true
		}
	}

	culled := make([]NodeID, 0, len(order))
	for _, id := range order {
		if keep[id] {
			culled = append(culled, id)
		}
	}
	return culled
}

type lifetime struct {
	image      RgImage
	firstWrite int
	lastUse    int
}

// assignImages performs resource assignment (step 3) and, unless
// disabled, alias analysis (step 4). It returns the physical texture and
// view per virtual image, the slot index of each allocated image, and
// the set of images whose first-write pre-pass barrier must carry
// Discard because the image reincarnates aliased storage.
func assignImages(b *Builder, order []NodeID, surface SwapchainSurfaceInfo, cache *ResourceCache, opts PlanOptions) (map[RgImage]hal.Texture, map[RgImage]hal.TextureView, map[RgImage]int, map[RgImage]bool, error) {
	phys := make(map[RgImage]hal.Texture, len(b.images))
	views := make(map[RgImage]hal.TextureView, len(b.images))
	slotOf := make(map[RgImage]int)
	// discardOnFirstWrite marks images whose first write reincarnates
	// another image's aliased physical storage.
	discardOnFirstWrite := make(map[RgImage]bool)

	posInOrder := make(map[NodeID]int, len(order))
	for i, id := range order {
		posInOrder[id] = i
	}

	transientIDs := make([]RgImage, 0)
	for i, r := range b.images {
		if r.imported {
			phys[RgImage(i)] = r.physical
			continue
		}
		transientIDs = append(transientIDs, RgImage(i))
	}

	if b.output != nil && !b.images[*b.output].imported {
		phys[*b.output] = b.outputDest
	}

	lifetimes := make(map[RgImage]*lifetime, len(transientIDs))
	for _, img := range transientIDs {
		if _, isOutput := phys[img]; isOutput {
			continue
		}
		lt := &lifetime{image: img, firstWrite: -1, lastUse: -1}
		for _, id := range order {
			nd := b.nodes[id]
			p := posInOrder[id]
			for _, w := range nd.imageWrites {
				if w.image == img {
					if lt.firstWrite == -1 {
						lt.firstWrite = p
					}
					if p > lt.lastUse {
						lt.lastUse = p
					}
				}
			}
			for _, r := range nd.imageReads {
				if r.image == img && p > lt.lastUse {
					lt.lastUse = p
				}
			}
		}
		lifetimes[img] = lt
	}

	// Group images needing real allocation by spec, so aliasing only
	// considers compatible candidates, then walk each group in
	// first-write order assigning to the first slot whose prior
	// occupant's lifetime does not overlap.
	type slot struct {
		lastUse  int
		occupant RgImage
		has      bool
	}
	groups := make(map[ImageSpec][]*lifetime)
	var needsAlloc []RgImage
	for _, img := range transientIDs {
		if _, done := phys[img]; done {
			continue
		}
		needsAlloc = append(needsAlloc, img)
		groups[b.images[img].spec] = append(groups[b.images[img].spec], lifetimes[img])
	}
	sort.Slice(needsAlloc, func(i, j int) bool { return needsAlloc[i] < needsAlloc[j] })

	for spec, group := range groups {
		sort.Slice(group, func(i, j int) bool { return group[i].firstWrite < group[j].firstWrite })

		var slots []*slot
		// assignedSlot[i] is the slot index group[i] (by position) landed on.
		assignedSlot := make([]int, len(group))
		for i, lt := range group {
			assigned := -1
			if !opts.DisableAliasing {
				for si, s := range slots {
					if s.has && s.lastUse < lt.firstWrite {
						assigned = si
						break
					}
				}
			}
			if assigned == -1 {
				slots = append(slots, &slot{})
				assigned = len(slots) - 1
			}
			s := slots[assigned]
			if s.has {
				discardOnFirstWrite[lt.image] = true
			}
			s.lastUse = lt.lastUse
			s.has = true
			s.occupant = lt.image
			slotOf[lt.image] = assigned
			assignedSlot[i] = assigned
		}

		// Allocate one physical texture per slot and assign every image
		// that used that slot to it.
		texPerSlot := make([]hal.Texture, len(slots))
		viewPerSlot := make([]hal.TextureView, len(slots))
		for i, lt := range group {
			si := assignedSlot[i]
			if texPerSlot[si] == nil {
				tex, view, err := cache.acquire(spec, surface, opts.FramesToPersist)
				if err != nil {
					return nil, nil, nil, nil, err
				}
				texPerSlot[si] = tex
				viewPerSlot[si] = view
			}
			phys[lt.image] = texPerSlot[si]
			views[lt.image] = viewPerSlot[si]
		}
	}

	// Imported images still need a view for attachment use.
	for i, r := range b.images {
		img := RgImage(i)
		if !r.imported {
			continue
		}
		if _, ok := views[img]; ok {
			continue
		}
		// Views for imported images are the caller's responsibility to
		// create ahead of time via the device; ImportImage only carries
		// the physical texture. Executors that need a view for an
		// imported image should resolve it externally and look up the
		// texture via GraphContext.Texture.
	}

	return phys, views, slotOf, discardOnFirstWrite, nil
}

func assignBuffers(b *Builder, cache *ResourceCache) (map[RgBuffer]hal.Buffer, error) {
	phys := make(map[RgBuffer]hal.Buffer, len(b.buffers))
	for i, r := range b.buffers {
		buf, err := cache.device.CreateBuffer(&hal.BufferDescriptor{
			Label: r.name,
			Size:  r.spec.Size,
			Usage: r.spec.Usage,
		})
		if err != nil {
			return nil, err
		}
		phys[RgBuffer(i)] = buf
	}
	return phys, nil
}

// insertBarriers is step 5: for each node, for each resource it uses,
// compare the tracked current state to the required state and insert a
// pre-pass barrier when they differ, plus a graph-boundary barrier to
// every imported image's declared final state.
func insertBarriers(b *Builder, order []NodeID, discardOnFirstWrite map[RgImage]bool) []Pass {
	imageState := make(map[RgImage]gputypes.TextureUsage)
	bufferState := make(map[RgBuffer]gputypes.BufferUsage)
	imageAcquired := make(map[RgImage]bool)
	lastUser := make(map[RgImage]NodeID)

	for i, r := range b.images {
		if r.imported {
			imageState[RgImage(i)] = r.initialUsage
		}
	}

	passes := make([]Pass, 0, len(order))

	for _, id := range order {
		nd := b.nodes[id]
		pass := Pass{Node: id, Name: nd.name, Kind: nd.kind, CallbackRef: nd.callbackRef, ColorTargets: nd.colorTargets, DepthTarget: nd.depthTarget}

		allImageUses := make([]imageUsage, 0, len(nd.imageReads)+len(nd.imageWrites))
		allImageUses = append(allImageUses, nd.imageReads...)
		allImageUses = append(allImageUses, nd.imageWrites...)

		for _, u := range allImageUses {
			cur, tracked := imageState[u.image]
			discard := discardOnFirstWrite[u.image] && u.write && !tracked
			if !tracked {
				imageState[u.image] = u.usage
				lastUser[u.image] = id
				if !discard {
					continue
				}
			}
			if cur == u.usage && !discard {
				lastUser[u.image] = id
				continue
			}

			queue := QueueTransitionNone
			if b.images[u.image].imported && !imageAcquired[u.image] {
				queue = QueueTransitionAcquire
				imageAcquired[u.image] = true
			}

			pass.PrePass.Images = append(pass.PrePass.Images, ImageBarrier{
				Image:    u.image,
				OldUsage: cur,
				NewUsage: u.usage,
				Queue:    queue,
				Discard:  discard,
			})
			imageState[u.image] = u.usage
			lastUser[u.image] = id
		}

		for _, u := range nd.bufferUses {
			cur, tracked := bufferState[u.buffer]
			if tracked && cur == u.usage {
				continue
			}
			pass.PrePass.Buffers = append(pass.PrePass.Buffers, BufferBarrier{
				Buffer:   u.buffer,
				OldUsage: cur,
				NewUsage: u.usage,
			})
			bufferState[u.buffer] = u.usage
		}

		passes = append(passes, pass)
	}

	// Graph boundary: transition every imported image to its declared
	// final state on the pass that last used it.
	for i, r := range b.images {
		img := RgImage(i)
		if !r.imported {
			continue
		}
		cur := imageState[img]
		if cur == r.finalUsage {
			continue
		}
		lu, ok := lastUser[img]
		if !ok {
			continue
		}
		for pi := range passes {
			if passes[pi].Node == lu {
				passes[pi].PostPass.Images = append(passes[pi].PostPass.Images, ImageBarrier{
					Image:    img,
					OldUsage: cur,
					NewUsage: r.finalUsage,
					Queue:    QueueTransitionRelease,
				})
				break
			}
		}
	}

	return passes
}

// Explain renders a human-readable dump of the planned graph's passes,
// barriers and physical-resource assignment — diagnostic only, and
// never consulted by Compile or Execute.
func (g *PlannedGraph) Explain() string {
	var sb strings.Builder
	for i, p := range g.Passes {
		kind := "renderpass"
		if p.Kind == NodeKindCompute {
			kind = "compute"
		}
		fmt.Fprintf(&sb, "[%d] %s %q (node %d)\n", i, kind, p.Name, p.Node)
		for _, bar := range p.PrePass.Images {
			fmt.Fprintf(&sb, "    pre  image %s: %v -> %v%s%s\n", g.imageNames[bar.Image], bar.OldUsage, bar.NewUsage, queueSuffix(bar.Queue), discardSuffix(bar.Discard))
		}
		for _, bar := range p.PrePass.Buffers {
			fmt.Fprintf(&sb, "    pre  buffer %s: %v -> %v\n", g.bufferNames[bar.Buffer], bar.OldUsage, bar.NewUsage)
		}
		for _, bar := range p.PostPass.Images {
			fmt.Fprintf(&sb, "    post image %s: %v -> %v%s\n", g.imageNames[bar.Image], bar.OldUsage, bar.NewUsage, queueSuffix(bar.Queue))
		}
	}
	return sb.String()
}

func queueSuffix(q QueueTransition) string {
	switch q {
	case QueueTransitionAcquire:
		return " [acquire]"
	case QueueTransitionRelease:
		return " [release]"
	default:
		return ""
	}
}

func discardSuffix(d bool) string {
	if d {
		return " [discard]"
	}
	return ""
}
