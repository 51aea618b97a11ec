package ecc

import (
	"errors"
	"math/big"
)

// ErrPrivateKeyRange is returned when a candidate private key is not in
// [1, N-1], the cryptographic-failure case spec.md §7 calls "private
// key out of range".
var ErrPrivateKeyRange = errors.New("ecc: private key out of range")

// ErrInvalidPublicKey is returned when a point fails curve membership
// or subgroup checks, spec.md §7's "invalid public key" failure.
var ErrInvalidPublicKey = errors.New("ecc: invalid public key")

// ErrPointAtInfinity flags an intermediate result landing on the
// identity element, spec.md §7's "point-at-infinity result" failure.
var ErrPointAtInfinity = errors.New("ecc: point at infinity")

// ValidatePrivateKey checks that d lies in the valid scalar range
// [1, N-1].
func (c *Curve) ValidatePrivateKey(d *big.Int) error {
	if d.Sign() <= 0 || d.Cmp(c.N) >= 0 {
		return ErrPrivateKeyRange
	}
	return nil
}

// PublicKey derives the public point d*G for private scalar d.
func (c *Curve) PublicKey(d *big.Int) (Point, error) {
	if err := c.ValidatePrivateKey(d); err != nil {
		return Point{}, err
	}
	pub := c.ScalarBaseMult(d)
	if pub.Infinity() {
		return Point{}, ErrPointAtInfinity
	}
	return pub, nil
}

// ValidatePublicKey checks that p is a well-formed point on the curve,
// not the identity, and in the correct subgroup (cofactor 1 for both
// curves this package supports, so on-curve implies in-subgroup).
func (c *Curve) ValidatePublicKey(p Point) error {
	if p.Infinity() || !c.IsOnCurve(p) {
		return ErrInvalidPublicKey
	}
	return nil
}

// ECDH computes the shared X coordinate of priv * pub, the key
// agreement primitive.
func (c *Curve) ECDH(priv *big.Int, pub Point) ([]byte, error) {
	if err := c.ValidatePrivateKey(priv); err != nil {
		return nil, err
	}
	if err := c.ValidatePublicKey(pub); err != nil {
		return nil, err
	}
	shared := c.ScalarMult(pub, priv)
	if shared.Infinity() {
		return nil, ErrPointAtInfinity
	}
	return leftPadBig(shared.X, c.ByteLen), nil
}

// Marshal encodes p in uncompressed SEC1 form: 0x04 || X || Y, each
// coordinate left-padded to the curve's byte length.
func (c *Curve) Marshal(p Point) []byte {
	out := make([]byte, 1+2*c.ByteLen)
	out[0] = 0x04
	copy(out[1:1+c.ByteLen], leftPadBig(p.X, c.ByteLen))
	copy(out[1+c.ByteLen:], leftPadBig(p.Y, c.ByteLen))
	return out
}

// Unmarshal decodes an uncompressed SEC1-form point.
func (c *Curve) Unmarshal(data []byte) (Point, error) {
	if len(data) != 1+2*c.ByteLen || data[0] != 0x04 {
		return Point{}, ErrInvalidPublicKey
	}
	x := new(big.Int).SetBytes(data[1 : 1+c.ByteLen])
	y := new(big.Int).SetBytes(data[1+c.ByteLen:])
	return Point{X: x, Y: y}, nil
}

func leftPadBig(v *big.Int, n int) []byte {
	b := v.Bytes()
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
