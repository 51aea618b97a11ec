package scene

// Built-in AnimateFunc implementations, grounded on the original
// firmware's _nodeAnimatePosition/_nodeAnimatePositionHoriz/
// _nodeAnimatePositionVert family (scene.c): position animation picks a
// cheaper single-axis interpolator when one axis never moves.

// InterpolatePosition lerps both x and y between from.Point and to.Point.
func InterpolatePosition(a *Arena, idx int32, t float64, from, to Property) {
	n := &a.nodes[idx]
	n.x = int16(round(lerp(float64(from.Point.X), float64(to.Point.X), t)))
	n.y = int16(round(lerp(float64(from.Point.Y), float64(to.Point.Y), t)))
}

// InterpolatePositionHoriz lerps only x, leaving y untouched. Used when
// the target's y already equals the node's current y.
func InterpolatePositionHoriz(a *Arena, idx int32, t float64, from, to Property) {
	a.nodes[idx].x = int16(round(lerp(float64(from.Point.X), float64(to.Point.X), t)))
}

// InterpolatePositionVert lerps only y, leaving x untouched. Used when
// the target's x already equals the node's current x.
func InterpolatePositionVert(a *Arena, idx int32, t float64, from, to Property) {
	a.nodes[idx].y = int16(round(lerp(float64(from.Point.Y), float64(to.Point.Y), t)))
}

// AnimatePosition starts a position animation to target, choosing the
// single-axis interpolator whenever one axis is already at rest, per
// spec.md §4.1's "1-D motion" special case.
func (a *Arena) AnimatePosition(node Handle, target Point, duration int32, curve CurveFunc, onComplete CompletionFunc) error {
	idx, err := a.resolve(node)
	if err != nil {
		return err
	}
	cur := Point{X: a.nodes[idx].x, Y: a.nodes[idx].y}

	interp := InterpolatePosition
	switch {
	case cur.X == target.X:
		interp = InterpolatePositionVert
	case cur.Y == target.Y:
		interp = InterpolatePositionHoriz
	}

	from := Property{Point: cur}
	to := Property{Point: target}
	return a.Animate(node, interp, curve, from, to, duration, onComplete)
}

// InterpolateFillColor lerps a fill node's color channel-wise between
// from.Color and to.Color.
func InterpolateFillColor(a *Arena, idx int32, t float64, from, to Property) {
	a.nodes[idx].a.Color = lerpColor(from.Color, to.Color, t)
}

// InterpolateBoxColor lerps a box node's color channel-wise.
func InterpolateBoxColor(a *Arena, idx int32, t float64, from, to Property) {
	a.nodes[idx].b.Color = lerpColor(from.Color, to.Color, t)
}

func lerpColor(from, to Color, t float64) Color {
	fr, fg, fb := unpack565(from)
	tr, tg, tb := unpack565(to)
	r := clampChannel(round(lerp(float64(fr), float64(tr), t)), 5)
	g := clampChannel(round(lerp(float64(fg), float64(tg), t)), 6)
	b := clampChannel(round(lerp(float64(fb), float64(tb), t)), 5)
	return pack565(r, g, b)
}

func unpack565(c Color) (r, g, b int32) {
	return int32(c>>11) & 0x1f, int32(c>>5) & 0x3f, int32(c) & 0x1f
}

func pack565(r, g, b int32) Color {
	return Color(uint16(r&0x1f)<<11 | uint16(g&0x3f)<<5 | uint16(b&0x1f))
}

func clampChannel(v int32, bits uint) int32 {
	max := int32(1<<bits) - 1
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// InterpolateBoxSize lerps a box node's (width, height).
func InterpolateBoxSize(a *Arena, idx int32, t float64, from, to Property) {
	w := round(lerp(float64(from.Size.Width), float64(to.Size.Width), t))
	h := round(lerp(float64(from.Size.Height), float64(to.Size.Height), t))
	a.nodes[idx].a.Size = Size{Width: uint16(w), Height: uint16(h)}
}
