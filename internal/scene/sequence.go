package scene

// Sequence runs one frame: the previous render list is recycled to the
// free list, then the tree is walked DFS left-to-right from the root,
// advancing animations and invoking each live node's sequence function,
// which may append render entries. This is the Go analogue of
// scene_sequence() in the original firmware.
func (a *Arena) Sequence() {
	a.tick++
	a.recycleRenderList()
	a.sequenceNode(a.root, Point{})
}

// recycleRenderList splices the prior frame's render list back onto the
// free list before the next frame is sequenced, per spec.md §3: "A
// render-entry is ephemeral."
func (a *Arena) recycleRenderList() {
	idx := a.renderHead
	for idx >= 0 {
		next := a.nodes[idx].next
		a.release(idx)
		idx = next
	}
	a.renderHead = -1
	a.renderTail = -1
}

func (a *Arena) sequenceNode(idx int32, parentPos Point) {
	n := &a.nodes[idx]
	a.updateAnimations(idx)
	if n.seqFn != nil {
		n.seqFn(a, parentPos, idx)
	}
}

func sequenceGroup(a *Arena, parentPos Point, idx int32) {
	n := &a.nodes[idx]
	worldPos := Point{X: parentPos.X + n.x, Y: parentPos.Y + n.y}

	child := n.a.Ref
	var prev int32 = -1
	for child >= 0 {
		c := &a.nodes[child]
		next := c.next
		if c.pendingFree {
			a.unlinkChild(idx, prev, child, next)
			a.freeSubtree(child)
			child = next
			continue
		}
		a.sequenceNode(child, worldPos)
		prev = child
		child = next
	}
}

// unlinkChild removes child (whose predecessor is prev, or none if -1)
// from parent's child list, fixing up the group's first/last pointers.
func (a *Arena) unlinkChild(parentIdx, prev, child, next int32) {
	p := &a.nodes[parentIdx]
	if prev < 0 {
		p.a.Ref = next
	} else {
		a.nodes[prev].next = next
	}
	if p.b.Ref == child {
		p.b.Ref = prev
	}
}

// freeSubtree releases a node (and, if it is a group, its children) back
// to the free list. Any still-running animations on the node are also
// released without firing their completion callback, matching the
// original's shallow teardown (`@TODO: Free animationHead`), which this
// implementation actually carries out rather than leaving as a TODO.
func (a *Arena) freeSubtree(idx int32) {
	n := a.nodes[idx]
	if n.kind == KindGroup {
		child := n.a.Ref
		for child >= 0 {
			next := a.nodes[child].next
			a.freeSubtree(child)
			child = next
		}
	}
	anim := n.animHead
	for anim >= 0 {
		animNode := a.nodes[anim]
		prop := animNode.next
		next := a.nodes[prop].next
		a.release(anim)
		a.release(prop)
		anim = next
	}
	a.release(idx)
}

func sequenceFill(a *Arena, parentPos Point, idx int32) {
	n := &a.nodes[idx]
	a.addRenderNode(idx, parentPos, n.renderFn)
}

func sequenceBox(a *Arena, parentPos Point, idx int32) {
	n := &a.nodes[idx]
	a.addRenderNode(idx, parentPos, n.renderFn)
}

func sequenceImage(a *Arena, parentPos Point, idx int32) {
	n := &a.nodes[idx]
	a.addRenderNode(idx, parentPos, n.renderFn)
}

func sequenceText(a *Arena, parentPos Point, idx int32) {
	n := &a.nodes[idx]
	a.addRenderNode(idx, parentPos, n.renderFn)
}

// addRenderNode allocates an ephemeral render entry with world-space
// position and a copy of the source node's a/b properties, and appends
// it to the current render list.
func (a *Arena) addRenderNode(srcIdx int32, parentPos Point, renderFn func(Point, Property, Property, []byte, int32, int32, int32)) (int32, bool) {
	src := &a.nodes[srcIdx]
	pos := Point{X: parentPos.X + src.x, Y: parentPos.Y + src.y}

	idx, ok := a.alloc(pos)
	if !ok {
		return -1, false
	}
	n := &a.nodes[idx]
	n.kind = kindRenderEntry
	n.renderFn = renderFn
	n.a = src.a
	n.b = src.b

	if a.renderHead < 0 {
		a.renderHead = idx
		a.renderTail = idx
	} else {
		a.nodes[a.renderTail].next = idx
		a.renderTail = idx
	}
	return idx, true
}
