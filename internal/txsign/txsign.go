// Package txsign implements the transaction signing flow of spec.md
// §4.4: extract an EIP-1559-shaped transaction from a decoded request's
// params map, canonically RLP-encode it behind the 0x02 envelope byte,
// hash it with Keccak-256, and sign the digest deterministically with
// secp256k1, returning the {r, s, v} reply map described in spec.md
// §6.4.
package txsign

import (
	"errors"
	"math/big"

	"github.com/firefly/pixie-firmware-sub000/internal/codec"
	"github.com/firefly/pixie-firmware-sub000/internal/ecc"
	"github.com/firefly/pixie-firmware-sub000/internal/rlp"
	"golang.org/x/crypto/sha3"
)

// ErrBadData flags a params map missing a required field or carrying
// one of the wrong wire type — spec.md §4.4's "bad-data" failure mode.
var ErrBadData = errors.New("txsign: malformed transaction params")

// ErrOverflow flags a field whose value cannot be represented in the
// transaction's wire encoding — spec.md §4.4's "overflow" failure mode.
var ErrOverflow = errors.New("txsign: field exceeds encodable range")

// envelopeEIP1559 is the EIP-2718 transaction-type byte this device
// signs (spec.md §4.4 step 2).
const envelopeEIP1559 = 0x02

// Transaction is the decoded field set of an EIP-1559 transaction, per
// spec.md §6.4.
type Transaction struct {
	ChainID              []byte
	Nonce                []byte
	MaxPriorityFeePerGas []byte
	MaxFeePerGas         []byte
	GasLimit             []byte
	To                   []byte // 0 or 20 bytes
	Value                []byte
	Data                 []byte
}

// Extract reads a Transaction out of a params map cursor, per spec.md
// §6.4: every field is a byte string, big-endian and leading-zero-
// stripped except to and data.
func Extract(params codec.Cursor) (Transaction, error) {
	get := func(key string) ([]byte, error) {
		c, err := params.FollowKey(key)
		if err != nil {
			return nil, ErrBadData
		}
		data, err := c.Data()
		if err != nil {
			return nil, ErrBadData
		}
		return data, nil
	}

	var tx Transaction
	var err error
	if tx.ChainID, err = get("chainId"); err != nil {
		return Transaction{}, err
	}
	if tx.Nonce, err = get("nonce"); err != nil {
		return Transaction{}, err
	}
	if tx.MaxPriorityFeePerGas, err = get("maxPriorityFeePerGas"); err != nil {
		return Transaction{}, err
	}
	if tx.MaxFeePerGas, err = get("maxFeePerGas"); err != nil {
		return Transaction{}, err
	}
	if tx.GasLimit, err = get("gasLimit"); err != nil {
		return Transaction{}, err
	}
	if tx.To, err = get("to"); err != nil {
		return Transaction{}, err
	}
	if len(tx.To) != 0 && len(tx.To) != 20 {
		return Transaction{}, ErrBadData
	}
	if tx.Value, err = get("value"); err != nil {
		return Transaction{}, err
	}
	if tx.Data, err = get("data"); err != nil {
		return Transaction{}, err
	}

	return tx, nil
}

// Encode canonically RLP-encodes tx as the EIP-1559 "access list" body
// (with an always-empty access list, which this device does not
// expose), prefixed with the envelope byte, per spec.md §4.4 step 2.
func Encode(tx Transaction) ([]byte, error) {
	b := rlp.NewBuilder()
	mark := b.OpenArray()
	b.AppendData(rlp.TrimLeadingZeros(tx.ChainID))
	b.AppendData(rlp.TrimLeadingZeros(tx.Nonce))
	b.AppendData(rlp.TrimLeadingZeros(tx.MaxPriorityFeePerGas))
	b.AppendData(rlp.TrimLeadingZeros(tx.MaxFeePerGas))
	b.AppendData(rlp.TrimLeadingZeros(tx.GasLimit))
	b.AppendData(tx.To)
	b.AppendData(rlp.TrimLeadingZeros(tx.Value))
	b.AppendData(tx.Data)
	accessList := b.OpenArray()
	b.CloseArray(accessList, 0) // access lists are out of scope; always empty.
	b.CloseArray(mark, 9)

	body, err := b.Finalize()
	if err != nil {
		if errors.Is(err, rlp.ErrOverflow) {
			return nil, ErrOverflow
		}
		return nil, err
	}

	out := make([]byte, 0, 1+len(body))
	out = append(out, envelopeEIP1559)
	out = append(out, body...)
	return out, nil
}

// Digest returns the Keccak-256 hash of the envelope-prefixed RLP
// encoding, the value this device actually signs (spec.md §4.4 step 3).
func Digest(encoded []byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(encoded)
	h.Sum(out[:0])
	return out
}

// Sign runs the full transaction signing flow and returns the
// signature reply fields of spec.md §6.4: 32-byte r, 32-byte s, and a
// single-byte v in {0, 1} (the low bit of the recovery id after
// canonical low-S normalization, spec.md §4.4 step 4).
func Sign(priv *big.Int, tx Transaction) (r, s [32]byte, v byte, err error) {
	encoded, err := Encode(tx)
	if err != nil {
		return r, s, 0, err
	}
	digest := Digest(encoded)

	curve := ecc.Secp256k1()
	sig, err := curve.Sign(priv, digest[:])
	if err != nil {
		return r, s, 0, err
	}

	sig.R.FillBytes(r[:])
	sig.S.FillBytes(s[:])
	return r, s, sig.Recovery & 1, nil
}

// BuildReply encodes the {r, s, v} signature as a codec map value,
// ready to embed as a reply's "result" field (spec.md §6.3/§6.4).
func BuildReply(r, s [32]byte, v byte) *codec.Builder {
	b := codec.NewBuilder()
	b.AppendMap(3)
	b.AppendString("r")
	b.AppendData(r[:])
	b.AppendString("s")
	b.AppendData(s[:])
	b.AppendString("v")
	b.AppendNumber(uint64(v))
	return b
}
