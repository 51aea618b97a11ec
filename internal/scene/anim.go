package scene

// Animation lists are threaded through pairs of arena slots exactly like
// the original firmware's scene.c: each node's private animation list
// (node.animHead) links animate-entry slots, and each animate-entry's
// `next` field points at its paired property-entry slot, whose own
// `next` field chains to the next animate-entry. Two roles, one pairing,
// per _addAnimationNode/_updateAnimations in the original.

// Animate starts a new animation on node: interpolate is invoked once per
// sequence pass with the curve-adjusted progress and the from/to
// property pair, until the animation completes or is cancelled, per
// spec.md §4.1.
func (a *Arena) Animate(node Handle, interpolate AnimateFunc, curve CurveFunc, from, to Property, duration int32, onComplete CompletionFunc) error {
	idx, err := a.resolve(node)
	if err != nil {
		return err
	}
	if duration < 0 {
		duration = 0
	}

	animIdx, ok := a.alloc(Point{})
	if !ok {
		return ErrNoNode
	}
	propIdx, ok := a.alloc(Point{})
	if !ok {
		a.release(animIdx)
		return ErrNoNode
	}

	anim := &a.nodes[animIdx]
	anim.kind = kindAnimateEntry
	anim.animateFn = interpolate
	anim.duration = duration
	anim.endTick = a.tick + duration
	anim.next = propIdx

	prop := &a.nodes[propIdx]
	prop.kind = kindPropertyEntry
	prop.curve = curve
	prop.onComplete = onComplete
	prop.a = from
	prop.b = to

	owner := &a.nodes[idx]
	prop.next = owner.animHead
	owner.animHead = animIdx
	return nil
}

// IsRunningAnimation reports whether node has any animation in flight.
func (a *Arena) IsRunningAnimation(node Handle) (bool, error) {
	idx, err := a.resolve(node)
	if err != nil {
		return false, err
	}
	return a.nodes[idx].animHead >= 0, nil
}

// StopAnimations tags the first animation in node's list with a stop
// request. updateAnimations propagates that request to every later
// animation of the same node within the same sequence pass, per
// spec.md §4.1.
func (a *Arena) StopAnimations(node Handle, kind StopKind) error {
	idx, err := a.resolve(node)
	if err != nil {
		return err
	}
	headIdx := a.nodes[idx].animHead
	if headIdx < 0 {
		return nil
	}
	a.nodes[headIdx].stop = kind
	return nil
}

// updateAnimations drives every animation attached directly to ownerIdx,
// one sequence-pass step each, removing and completing the ones that are
// done (normally or via a propagated stop request).
func (a *Arena) updateAnimations(ownerIdx int32) {
	owner := &a.nodes[ownerIdx]
	if owner.animHead < 0 {
		return
	}

	stop := StopNormal
	var prevPropIdx int32 = -1
	animIdx := owner.animHead

	for animIdx >= 0 {
		anim := &a.nodes[animIdx]
		propIdx := anim.next
		prop := &a.nodes[propIdx]
		nextAnim := prop.next

		endTick := anim.endTick
		if stop == StopNormal {
			stop = anim.stop
		}
		if stop != StopNormal {
			endTick = a.tick
		}

		if stop != StopAtCurrent {
			t := 1.0
			if anim.duration > 0 {
				t = clamp01(1 - float64(endTick-a.tick)/float64(anim.duration))
			}
			if prop.curve != nil {
				t = prop.curve(t)
			}
			if anim.animateFn != nil {
				anim.animateFn(a, ownerIdx, t, prop.a, prop.b)
			}
		}

		if a.tick >= endTick {
			if prevPropIdx < 0 {
				owner.animHead = nextAnim
			} else {
				a.nodes[prevPropIdx].next = nextAnim
			}

			handle := a.handleFor(ownerIdx)
			onComplete := prop.onComplete
			a.release(animIdx)
			a.release(propIdx)

			if onComplete != nil {
				switch stop {
				case StopAtCurrent:
					onComplete(handle, CompletedAtCurrent)
				case StopAtFinal:
					onComplete(handle, CompletedAtFinal)
				default:
					onComplete(handle, CompletedNormal)
				}
			}
		} else {
			prevPropIdx = propIdx
		}

		animIdx = nextAnim
	}
}
