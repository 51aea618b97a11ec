package ecc

import "math/big"

// Point is an affine curve point. The zero value with both coordinates
// nil represents the point at infinity (the additive identity).
type Point struct {
	X, Y *big.Int
}

// Infinity reports whether p is the point at infinity.
func (p Point) Infinity() bool {
	return p.X == nil || p.Y == nil
}

func inf() Point { return Point{} }

// IsOnCurve reports whether p satisfies y^2 = x^3 + A*x + B (mod P).
func (c *Curve) IsOnCurve(p Point) bool {
	if p.Infinity() {
		return false
	}
	if p.X.Sign() < 0 || p.X.Cmp(c.P) >= 0 || p.Y.Sign() < 0 || p.Y.Cmp(c.P) >= 0 {
		return false
	}
	y2 := new(big.Int).Mul(p.Y, p.Y)
	y2.Mod(y2, c.P)

	x3 := new(big.Int).Mul(p.X, p.X)
	x3.Mul(x3, p.X)
	ax := new(big.Int).Mul(c.A, p.X)
	rhs := new(big.Int).Add(x3, ax)
	rhs.Add(rhs, c.B)
	rhs.Mod(rhs, c.P)

	return y2.Cmp(rhs) == 0
}

func (c *Curve) mod(v *big.Int) *big.Int {
	return new(big.Int).Mod(v, c.P)
}

func (c *Curve) inv(v *big.Int) *big.Int {
	return new(big.Int).ModInverse(v, c.P)
}

// Add returns p + q per the short Weierstrass addition law, handling
// the identity, point-doubling, and vertical-line (result at infinity)
// special cases.
func (c *Curve) Add(p, q Point) Point {
	if p.Infinity() {
		return q
	}
	if q.Infinity() {
		return p
	}
	if p.X.Cmp(q.X) == 0 {
		if p.Y.Cmp(q.Y) != 0 || p.Y.Sign() == 0 {
			return inf()
		}
		return c.Double(p)
	}

	// slope = (qy - py) / (qx - px)
	num := c.mod(new(big.Int).Sub(q.Y, p.Y))
	den := c.mod(new(big.Int).Sub(q.X, p.X))
	slope := new(big.Int).Mul(num, c.inv(den))
	slope.Mod(slope, c.P)

	x3 := new(big.Int).Mul(slope, slope)
	x3.Sub(x3, p.X)
	x3.Sub(x3, q.X)
	x3.Mod(x3, c.P)

	y3 := new(big.Int).Sub(p.X, x3)
	y3.Mul(y3, slope)
	y3.Sub(y3, p.Y)
	y3.Mod(y3, c.P)

	return Point{X: fixSign(x3, c.P), Y: fixSign(y3, c.P)}
}

// Double returns p + p.
func (c *Curve) Double(p Point) Point {
	if p.Infinity() || p.Y.Sign() == 0 {
		return inf()
	}

	// slope = (3*px^2 + A) / (2*py)
	num := new(big.Int).Mul(p.X, p.X)
	num.Mul(num, big.NewInt(3))
	num.Add(num, c.A)
	num.Mod(num, c.P)

	den := new(big.Int).Lsh(p.Y, 1)
	den.Mod(den, c.P)

	slope := new(big.Int).Mul(num, c.inv(den))
	slope.Mod(slope, c.P)

	x3 := new(big.Int).Mul(slope, slope)
	x3.Sub(x3, new(big.Int).Lsh(p.X, 1))
	x3.Mod(x3, c.P)

	y3 := new(big.Int).Sub(p.X, x3)
	y3.Mul(y3, slope)
	y3.Sub(y3, p.Y)
	y3.Mod(y3, c.P)

	return Point{X: fixSign(x3, c.P), Y: fixSign(y3, c.P)}
}

func fixSign(v, p *big.Int) *big.Int {
	if v.Sign() < 0 {
		v.Add(v, p)
	}
	return v
}

// ScalarMult returns k*p using a straightforward double-and-add walk
// over k's bits, most-significant bit first.
func (c *Curve) ScalarMult(p Point, k *big.Int) Point {
	result := inf()
	addend := p
	for i := k.BitLen() - 1; i >= 0; i-- {
		result = c.Double(result)
		if k.Bit(i) == 1 {
			result = c.Add(result, addend)
		}
	}
	return result
}

// ScalarBaseMult returns k*G.
func (c *Curve) ScalarBaseMult(k *big.Int) Point {
	return c.ScalarMult(c.Generator(), k)
}
