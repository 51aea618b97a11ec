package ecc

import (
	"math/big"

	"github.com/firefly/pixie-firmware-sub000/internal/rfc6979"
)

// Signature is a deterministic ECDSA signature over one of this
// package's curves, plus the recovery id needed to recover the signer
// public key from (r, s) alone (spec.md §4.4 step 6).
type Signature struct {
	R, S     *big.Int
	Recovery byte
}

var one = big.NewInt(1)

// Sign produces a deterministic ECDSA signature over digest using
// private key priv, per spec.md §4.4: k is derived with RFC 6979 so
// the same (priv, digest) pair always yields the same signature, s is
// normalized to the curve's lower half (canonical low-S, spec.md
// §4.4 step 5), and a recovery id is computed against that canonical
// s. Returns rfc6979.ErrExhausted if no usable k turns up within the
// retry budget — spec.md §7's "k generation exceeded retries".
func (c *Curve) Sign(priv *big.Int, digest []byte) (Signature, error) {
	if err := c.ValidatePrivateKey(priv); err != nil {
		return Signature{}, err
	}

	halfN := new(big.Int).Rsh(c.N, 1)
	e := hashToScalar(digest, c.N)

	var sig Signature
	err := rfc6979.Derive(c.N, priv.Bytes(), digest, func(k *big.Int) bool {
		r, recovery, ok := c.rFromK(k)
		if !ok {
			return false
		}

		kInv := new(big.Int).ModInverse(k, c.N)
		if kInv == nil {
			return false
		}
		s := new(big.Int).Mul(r, priv)
		s.Add(s, e)
		s.Mod(s, c.N)
		s.Mul(s, kInv)
		s.Mod(s, c.N)
		if s.Sign() == 0 {
			return false
		}

		if s.Cmp(halfN) > 0 {
			s.Sub(c.N, s)
			recovery ^= 1
		}

		sig = Signature{R: r, S: s, Recovery: recovery}
		return true
	})
	if err != nil {
		return Signature{}, err
	}
	return sig, nil
}

// rFromK computes r = (k*G).X mod N and the recovery id: bit 0 is the
// parity of Y, bit 1 is set when (k*G).X required reduction mod N.
func (c *Curve) rFromK(k *big.Int) (r *big.Int, recovery byte, ok bool) {
	if k.Sign() <= 0 || k.Cmp(c.N) >= 0 {
		return nil, 0, false
	}
	R := c.ScalarBaseMult(k)
	if R.Infinity() {
		return nil, 0, false
	}

	recovery = byte(R.Y.Bit(0))
	r = new(big.Int).Mod(R.X, c.N)
	if r.Sign() == 0 {
		return nil, 0, false
	}
	if R.X.Cmp(c.N) >= 0 {
		recovery |= 2
	}
	return r, recovery, true
}

// Verify reports whether sig is a valid signature over digest for
// public key pub.
func (c *Curve) Verify(pub Point, digest []byte, sig Signature) bool {
	if err := c.ValidatePublicKey(pub); err != nil {
		return false
	}
	if sig.R.Sign() <= 0 || sig.R.Cmp(c.N) >= 0 || sig.S.Sign() <= 0 || sig.S.Cmp(c.N) >= 0 {
		return false
	}

	e := hashToScalar(digest, c.N)
	sInv := new(big.Int).ModInverse(sig.S, c.N)
	if sInv == nil {
		return false
	}

	u1 := new(big.Int).Mul(e, sInv)
	u1.Mod(u1, c.N)
	u2 := new(big.Int).Mul(sig.R, sInv)
	u2.Mod(u2, c.N)

	p1 := c.ScalarBaseMult(u1)
	p2 := c.ScalarMult(pub, u2)
	sum := c.Add(p1, p2)
	if sum.Infinity() {
		return false
	}

	x := new(big.Int).Mod(sum.X, c.N)
	return x.Cmp(sig.R) == 0
}

// Recover reconstructs the public key that produced sig over digest,
// given the recovery id carried alongside it.
func (c *Curve) Recover(digest []byte, sig Signature) (Point, error) {
	x := new(big.Int).Set(sig.R)
	if sig.Recovery&2 != 0 {
		x.Add(x, c.N)
	}
	if x.Cmp(c.P) >= 0 {
		return Point{}, ErrInvalidPublicKey
	}

	R, err := decompressPoint(c, x, sig.Recovery&1)
	if err != nil {
		return Point{}, err
	}

	e := hashToScalar(digest, c.N)
	rInv := new(big.Int).ModInverse(sig.R, c.N)
	if rInv == nil {
		return Point{}, ErrInvalidPublicKey
	}

	// Q = r^-1 * (s*R - e*G)
	sR := c.ScalarMult(R, sig.S)
	eG := c.ScalarBaseMult(new(big.Int).Mod(e, c.N))
	eG.Y.Sub(c.P, eG.Y)
	eG.Y.Mod(eG.Y, c.P)

	sum := c.Add(sR, eG)
	q := c.ScalarMult(sum, rInv)
	if err := c.ValidatePublicKey(q); err != nil {
		return Point{}, err
	}
	return q, nil
}

func decompressPoint(c *Curve, x *big.Int, yParity byte) (Point, error) {
	x3 := new(big.Int).Mul(x, x)
	x3.Mul(x3, x)
	ax := new(big.Int).Mul(c.A, x)
	rhs := new(big.Int).Add(x3, ax)
	rhs.Add(rhs, c.B)
	rhs.Mod(rhs, c.P)

	y := new(big.Int).ModSqrt(rhs, c.P)
	if y == nil {
		return Point{}, ErrInvalidPublicKey
	}
	if byte(y.Bit(0)) != yParity {
		y.Sub(c.P, y)
	}
	return Point{X: x, Y: y}, nil
}

// hashToScalar reduces a digest to an integer mod N, truncating to N's
// bit length first per FIPS 186-4 / RFC 6979 §2.3.2's convention for
// the message-digest input to ECDSA itself (not the k derivation).
func hashToScalar(digest []byte, n *big.Int) *big.Int {
	e := new(big.Int).SetBytes(digest)
	nBits := n.BitLen()
	eBits := len(digest) * 8
	if eBits > nBits {
		e.Rsh(e, uint(eBits-nBits))
	}
	return e
}
