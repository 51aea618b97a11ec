// Package rfc6979 derives the deterministic per-signature nonce k used
// by the signing pipeline (spec.md §4.4), so that signing the same
// (private key, digest) pair twice yields byte-identical signatures —
// required by spec.md §8's "Deterministic k" property.
//
// The HMAC construction itself is an external cryptographic primitive
// (crypto/hmac + crypto/sha256 from the standard library), consistent
// with spec.md §1 treating hash/HMAC primitives as out-of-scope
// collaborators rather than something this module reimplements.
package rfc6979

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"math/big"
)

// ErrExhausted is returned when no candidate k in [1, n) was found
// within the retry budget.
var ErrExhausted = errors.New("rfc6979: exhausted candidate k search")

const maxRetries = 64

// Generator yields successive deterministic k candidates for a fixed
// (priv, hash, n), per RFC 6979 §3.2 steps a-g, generalized so the
// signing loop can retry on R==0 / s==0 without starting the whole
// derivation over.
type Generator struct {
	n     *big.Int
	v, k  []byte
}

// New begins an RFC 6979 derivation for private key priv and message
// digest hash, reduced modulo the group order n.
func New(n *big.Int, priv, hash []byte) *Generator {
	hp := bitsToInt(hash, n)
	privBytes := leftPad(priv, len(hash))
	hpBytes := leftPad(hp.Bytes(), len(hash))

	v := bytesOf(0x01, len(hash))
	k := bytesOf(0x00, len(hash))

	k = hmacSHA256(k, v, []byte{0x00}, privBytes, hpBytes)
	v = hmacSHA256(k, v)
	k = hmacSHA256(k, v, []byte{0x01}, privBytes, hpBytes)
	v = hmacSHA256(k, v)

	return &Generator{n: n, v: v, k: k}
}

// Next returns the next candidate k. The caller retries Next after a
// failed signing attempt (R at infinity, r == 0, or s == 0); RFC 6979
// step h's inner loop is exactly this retry.
func (g *Generator) Next() *big.Int {
	g.v = hmacSHA256(g.k, g.v)
	cand := new(big.Int).SetBytes(g.v)

	for cand.Sign() == 0 || cand.Cmp(g.n) >= 0 {
		g.k = hmacSHA256(g.k, g.v, []byte{0x00})
		g.v = hmacSHA256(g.k, g.v)
		cand.SetBytes(g.v)
	}
	return cand
}

// Derive is a convenience wrapper for the common case: derive a valid k
// and hand it to try, retrying until try returns true (accepted) or the
// retry budget (spec.md §4.4's 64 attempts) is exhausted.
func Derive(n *big.Int, priv, hash []byte, try func(k *big.Int) bool) error {
	gen := New(n, priv, hash)
	for i := 0; i < maxRetries; i++ {
		if try(gen.Next()) {
			return nil
		}
	}
	return ErrExhausted
}

func hmacSHA256(key []byte, parts ...[]byte) []byte {
	h := hmac.New(sha256.New, key)
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)
}

func bytesOf(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b[len(b)-n:]
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}

// bitsToInt reduces a hash to an integer mod n per RFC 6979 §2.3.2,
// truncating to n's bit length before the final reduction.
func bitsToInt(hash []byte, n *big.Int) *big.Int {
	v := new(big.Int).SetBytes(hash)
	nBits := n.BitLen()
	hBits := len(hash) * 8
	if hBits > nBits {
		v.Rsh(v, uint(hBits-nBits))
	}
	return v.Mod(v, n)
}
