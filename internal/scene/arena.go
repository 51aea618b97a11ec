package scene

// node is the single physical slot shape every arena entry uses,
// regardless of which role (live scene node, ephemeral render entry,
// animate entry, property entry) it is currently playing — mirroring the
// original firmware's single _Node struct reused across all four roles.
type node struct {
	kind Kind
	gen  uint32

	// next generalizes the original's nextNode: sibling link for a live
	// scene node, render-list link for a render entry, animation-list
	// link for an animate/property pair.
	next int32

	// animHead is this scene node's private animation list head (the
	// original's overloaded `animate.node` field when kind is a live
	// scene node); animate and property entries leave it at -1 and pair
	// up through next instead.
	animHead int32

	pendingFree bool

	x, y int16
	a, b Property

	// Role-specific callables. The original unions these behind a single
	// NodeFunc/AnimateProp; splitting them into named fields keeps each
	// one type safe without the possibility of misinterpreting which
	// union arm is live, per the REDESIGN FLAGS in spec.md §9.
	seqFn      func(ar *Arena, pos Point, idx int32)
	renderFn   func(pos Point, a, b Property, frag []byte, stride, y0, height int32)
	animateFn  AnimateFunc
	curve      CurveFunc
	onComplete CompletionFunc

	duration int32
	endTick  int32
	stop     StopKind
}

// Arena is a fixed-capacity pool of nodes. Every slot is, at any time, in
// exactly one of: the free list, the live scene tree, the current render
// list, or some node's animation list — the universal invariant spec.md
// §8 requires property tests for.
type Arena struct {
	nodes    []node
	freeHead int32
	root     int32

	tick int32

	renderHead int32
	renderTail int32
}

// NewArena allocates an arena of the given node capacity and creates the
// root group node (created once, never freed, per spec.md §3).
func NewArena(capacity int) *Arena {
	if capacity < 1 {
		capacity = 1
	}
	a := &Arena{
		nodes:      make([]node, capacity),
		renderHead: -1,
		renderTail: -1,
	}
	for i := range a.nodes {
		a.nodes[i].kind = kindFree
		a.nodes[i].next = int32(i) + 1
		a.nodes[i].animHead = -1
	}
	a.nodes[capacity-1].next = -1
	a.freeHead = 0

	rootIdx, ok := a.alloc(Point{})
	if !ok {
		// Capacity >= 1 is guaranteed above, so this cannot happen.
		panic("scene: failed to allocate root node")
	}
	a.nodes[rootIdx].kind = KindGroup
	a.nodes[rootIdx].a.Ref = -1
	a.nodes[rootIdx].b.Ref = -1
	a.nodes[rootIdx].seqFn = sequenceGroup
	a.root = rootIdx
	return a
}

// Root returns a handle to the scene root, a group node.
func (a *Arena) Root() Handle { return a.handleFor(a.root) }

// Tick returns the arena's current frame tick.
func (a *Arena) Tick() int32 { return a.tick }

func (a *Arena) handleFor(idx int32) Handle {
	if idx < 0 {
		return NullHandle
	}
	return Handle{index: idx, gen: a.nodes[idx].gen}
}

// resolve validates a handle and returns its slot index.
func (a *Arena) resolve(h Handle) (int32, error) {
	if h.index < 0 || int(h.index) >= len(a.nodes) {
		return -1, ErrInvalidHandle
	}
	n := &a.nodes[h.index]
	if n.kind == kindFree || n.gen != h.gen {
		return -1, ErrInvalidHandle
	}
	return h.index, nil
}

// alloc pops the free list. The caller must set a.nodes[idx].kind.
func (a *Arena) alloc(pos Point) (int32, bool) {
	if a.freeHead < 0 {
		return -1, false
	}
	idx := a.freeHead
	n := &a.nodes[idx]
	a.freeHead = n.next

	gen := n.gen + 1
	*n = node{}
	n.gen = gen
	n.x, n.y = pos.X, pos.Y
	n.animHead = -1
	n.a.Ref = -1
	n.b.Ref = -1
	return idx, true
}

// release returns a slot to the free list. It does not recursively free
// anything the slot references (children, animations) — callers are
// responsible for that, matching the original's shallow _freeNode.
func (a *Arena) release(idx int32) {
	n := &a.nodes[idx]
	n.kind = kindFree
	n.next = a.freeHead
	a.freeHead = idx
}

// AppendChild appends child as the last child of parent, both of which
// must be (or resolve to) group nodes.
func (a *Arena) AppendChild(parent, child Handle) error {
	pIdx, err := a.resolve(parent)
	if err != nil {
		return err
	}
	cIdx, err := a.resolve(child)
	if err != nil {
		return err
	}
	if a.nodes[pIdx].kind != KindGroup {
		return ErrWrongKind
	}
	a.appendChildIdx(pIdx, cIdx)
	return nil
}

func (a *Arena) appendChildIdx(parentIdx, childIdx int32) {
	p := &a.nodes[parentIdx]
	c := &a.nodes[childIdx]
	c.next = -1
	if p.a.Ref < 0 {
		p.a.Ref = childIdx
		p.b.Ref = childIdx
	} else {
		last := &a.nodes[p.b.Ref]
		last.next = childIdx
		p.b.Ref = childIdx
	}
}

// Remove schedules node for removal: it is tagged pending-free and
// unlinked from its parent's child list the next time that parent is
// sequenced, per spec.md §4.1.
func (a *Arena) Remove(h Handle) error {
	idx, err := a.resolve(h)
	if err != nil {
		return err
	}
	a.nodes[idx].pendingFree = true
	return nil
}

// CreateGroup allocates a new group node.
func (a *Arena) CreateGroup() (Handle, error) {
	idx, ok := a.alloc(Point{})
	if !ok {
		return NullHandle, ErrNoNode
	}
	n := &a.nodes[idx]
	n.kind = KindGroup
	n.seqFn = sequenceGroup
	return a.handleFor(idx), nil
}

// CreateFill allocates a full-screen fill node of the given color.
func (a *Arena) CreateFill(color Color) (Handle, error) {
	idx, ok := a.alloc(Point{})
	if !ok {
		return NullHandle, ErrNoNode
	}
	n := &a.nodes[idx]
	n.kind = KindFill
	n.a.Color = color
	n.seqFn = sequenceFill
	n.renderFn = renderFill
	return a.handleFor(idx), nil
}

// CreateBox allocates a box node with the given size and color.
func (a *Arena) CreateBox(size Size, color Color) (Handle, error) {
	idx, ok := a.alloc(Point{})
	if !ok {
		return NullHandle, ErrNoNode
	}
	n := &a.nodes[idx]
	n.kind = KindBox
	n.a.Size = size
	n.b.Color = color
	n.seqFn = sequenceBox
	n.renderFn = renderBox
	return a.handleFor(idx), nil
}

// CreateImage registers an immutable image payload and allocates an
// image node referencing it. The image header (width-1, height-1) plus
// raw pixels described in spec.md §4.1 is the caller's concern when
// decoding into an Image; the node itself just holds a reference to it.
func (a *Arena) CreateImage(img Image) (Handle, error) {
	idx, ok := a.alloc(Point{})
	if !ok {
		return NullHandle, ErrNoNode
	}
	stored := img
	n := &a.nodes[idx]
	n.kind = KindImage
	n.a.Image = &stored
	n.b.Size = Size{Width: img.Width, Height: img.Height}
	n.seqFn = sequenceImage
	n.renderFn = renderImage
	return a.handleFor(idx), nil
}

// CreateText allocates a text node with the given initial contents,
// color, and mutability flag (const storage vs. a caller-owned buffer
// that may be updated later with SetText).
func (a *Arena) CreateText(data []byte, color Color, mutable bool) (Handle, error) {
	idx, ok := a.alloc(Point{})
	if !ok {
		return NullHandle, ErrNoNode
	}
	buf := append([]byte(nil), data...)

	n := &a.nodes[idx]
	n.kind = KindText
	n.a.Data = &buf
	n.b.Text = TextInfo{Length: uint16(len(buf)), Mutable: mutable}
	n.b.Color = color
	n.seqFn = sequenceText
	n.renderFn = renderText
	return a.handleFor(idx), nil
}

// SetText replaces a mutable text node's contents.
func (a *Arena) SetText(h Handle, data []byte) error {
	idx, err := a.resolve(h)
	if err != nil {
		return err
	}
	n := &a.nodes[idx]
	if n.kind != KindText {
		return ErrWrongKind
	}
	if !n.b.Text.Mutable {
		return ErrWrongKind
	}
	*n.a.Data = append((*n.a.Data)[:0], data...)
	n.b.Text.Length = uint16(len(data))
	return nil
}

// SetPosition moves a node within its parent's coordinate space.
func (a *Arena) SetPosition(h Handle, pos Point) error {
	idx, err := a.resolve(h)
	if err != nil {
		return err
	}
	a.nodes[idx].x, a.nodes[idx].y = pos.X, pos.Y
	return nil
}

// Position returns a node's current local position.
func (a *Arena) Position(h Handle) (Point, error) {
	idx, err := a.resolve(h)
	if err != nil {
		return Point{}, err
	}
	return Point{X: a.nodes[idx].x, Y: a.nodes[idx].y}, nil
}

// SetFillColor updates a fill node's color.
func (a *Arena) SetFillColor(h Handle, color Color) error {
	idx, err := a.resolve(h)
	if err != nil {
		return err
	}
	if a.nodes[idx].kind != KindFill {
		return ErrWrongKind
	}
	a.nodes[idx].a.Color = color
	return nil
}

// SetBoxColor updates a box node's color.
func (a *Arena) SetBoxColor(h Handle, color Color) error {
	idx, err := a.resolve(h)
	if err != nil {
		return err
	}
	if a.nodes[idx].kind != KindBox {
		return ErrWrongKind
	}
	a.nodes[idx].b.Color = color
	return nil
}
