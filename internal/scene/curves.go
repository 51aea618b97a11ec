package scene

import "math"

// Curve functions are pure [0,1] -> [0,1] maps applied to an animation's
// normalized progress, per spec.md §4.1 and the GLOSSARY.

// Linear is the identity curve.
func Linear(t float64) float64 { return t }

// EaseOutQuad decelerates towards the end, used for panel transitions
// per spec.md §4.2.
func EaseOutQuad(t float64) float64 { return t * (2 - t) }

// EaseInBack overshoots slightly before accelerating in, the classic
// "back" easing with a fixed overshoot constant.
func EaseInBack(t float64) float64 {
	const c1 = 1.70158
	const c3 = c1 + 1
	return c3*t*t*t - c1*t*t
}

// Bounce simulates a ball dropping and bouncing to rest at t=1.
func Bounce(t float64) float64 {
	const n1 = 7.5625
	const d1 = 2.75
	if t < 1/d1 {
		return n1 * t * t
	} else if t < 2/d1 {
		t -= 1.5 / d1
		return n1*t*t + 0.75
	} else if t < 2.5/d1 {
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	}
	t -= 2.625 / d1
	return n1*t*t + 0.984375
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func round(f float64) int32 { return int32(math.Round(f)) }
