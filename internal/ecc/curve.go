// Package ecc implements short Weierstrass curve arithmetic for the two
// curves the signing pipeline supports (spec.md §4.4): secp256k1, used
// for transaction signing, and secp256r1/P-256, used for device
// attestation (spec.md §6.2).
//
// The embedded original represents field elements as fixed arrays of
// eight 32-bit words and hand-rolls constant-time modular reduction
// tuned to that representation (spec.md §9 Open Questions). Neither
// example pack carries a curve-arithmetic library whose API matches
// that word-level design, and reproducing it faithfully is out of
// proportion to this module's budget, so this package instead builds
// on math/big: the standard library's arbitrary-precision integer type,
// used here as the bignum primitive a hardware-security implementation
// would otherwise hand-roll. Point validation, canonical low-S
// normalization, and the RFC 6979 k-retry loop preserve the original's
// algorithmic structure; only the field-element representation
// changes. This substitution is intentionally NOT constant-time and
// must not be mistaken for a side-channel-hardened implementation.
package ecc

import "math/big"

// Curve holds the parameters of a short Weierstrass curve
// y^2 = x^3 + A*x + B over the prime field GF(P), with base point
// (Gx, Gy) generating a subgroup of order N.
type Curve struct {
	Name   string
	P      *big.Int
	N      *big.Int
	A, B   *big.Int
	Gx, Gy *big.Int
	// ByteLen is the fixed-width encoding length of a field element or
	// scalar, matching the device's wire representation.
	ByteLen int
}

func hex(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		panic("ecc: invalid curve constant " + s)
	}
	return v
}

// Secp256k1 returns the curve used for transaction signing.
func Secp256k1() *Curve {
	return &Curve{
		Name:    "secp256k1",
		P:       hex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F"),
		N:       hex("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141"),
		A:       big.NewInt(0),
		B:       big.NewInt(7),
		Gx:      hex("79BE667EF9DCBBAC55A06295CE870B07029BFCDB2DCE28D959F2815B16F81798"),
		Gy:      hex("483ADA7726A3C4655DA4FBFC0E1108A8FD17B448A68554199C47D08FFB10D4B8"),
		ByteLen: 32,
	}
}

// P256 returns secp256r1 (NIST P-256), used for attestation key pairs.
func P256() *Curve {
	return &Curve{
		Name:    "secp256r1",
		P:       hex("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFF"),
		N:       hex("FFFFFFFF00000000FFFFFFFFFFFFFFFFBCE6FAADA7179E84F3B9CAC2FC632551"),
		A:       hex("FFFFFFFF00000001000000000000000000000000FFFFFFFFFFFFFFFFFFFFFFFC"),
		B:       hex("5AC635D8AA3A93E7B3EBBD55769886BC651D06B0CC53B0F63BCE3C3E27D2604B"),
		Gx:      hex("6B17D1F2E12C4247F8BCE6E563A440F277037D812DEB33A0F4A13945D898C296"),
		Gy:      hex("4FE342E2FE1A7F9B8EE7EB4A7C0F9E162BCE33576B315ECECBB6406837BF51F5"),
		ByteLen: 32,
	}
}

// Generator returns the curve's base point.
func (c *Curve) Generator() Point {
	return Point{X: new(big.Int).Set(c.Gx), Y: new(big.Int).Set(c.Gy)}
}
