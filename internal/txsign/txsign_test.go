package txsign

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/firefly/pixie-firmware-sub000/internal/codec"
)

func u64be(v uint64) []byte {
	b := big.NewInt(0).SetUint64(v).Bytes()
	return b
}

func wellKnownTx() Transaction {
	to, _ := new(big.Int).SetString("0000000000000000000000000000000000000001", 16)
	toBytes := make([]byte, 20)
	to.FillBytes(toBytes)

	return Transaction{
		ChainID:              u64be(1),
		Nonce:                u64be(0),
		MaxPriorityFeePerGas: u64be(1_000_000_000),
		MaxFeePerGas:         u64be(30_000_000_000),
		GasLimit:             u64be(21_000),
		To:                   toBytes,
		Value:                u64be(1_000_000_000_000_000_000),
		Data:                 nil,
	}
}

func wellKnownPriv() *big.Int {
	priv, _ := new(big.Int).SetString("0ffe4a126b095e206d57943c23fb6d5f336295c4040d2a1293b2a528804e4363", 16)
	return priv
}

func TestSignWellKnownTransaction(t *testing.T) {
	tx := wellKnownTx()
	priv := wellKnownPriv()

	r, s, v, err := Sign(priv, tx)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	n, _ := new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)
	halfN := new(big.Int).Rsh(n, 1)
	sVal := new(big.Int).SetBytes(s[:])
	if sVal.Cmp(halfN) > 0 {
		t.Fatalf("s = %x exceeds N/2, not canonical low-S", sVal)
	}
	if v != 0 && v != 1 {
		t.Fatalf("v = %d, want 0 or 1", v)
	}

	r2, s2, v2, err := Sign(priv, tx)
	if err != nil {
		t.Fatalf("Sign (second pass): %v", err)
	}
	if r != r2 || s != s2 || v != v2 {
		t.Fatalf("signing the same transaction twice produced different signatures")
	}
}

func TestEncodeProducesEnvelopeByte(t *testing.T) {
	encoded, err := Encode(wellKnownTx())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if encoded[0] != 0x02 {
		t.Fatalf("envelope byte = %#x, want 0x02", encoded[0])
	}
}

func TestExtractReadsAllFields(t *testing.T) {
	b := codec.NewBuilder()
	b.AppendMap(8)
	b.AppendString("chainId")
	b.AppendData(u64be(1))
	b.AppendString("nonce")
	b.AppendData(u64be(5))
	b.AppendString("maxPriorityFeePerGas")
	b.AppendData(u64be(1_000_000_000))
	b.AppendString("maxFeePerGas")
	b.AppendData(u64be(30_000_000_000))
	b.AppendString("gasLimit")
	b.AppendData(u64be(21_000))
	b.AppendString("to")
	b.AppendData(make([]byte, 20))
	b.AppendString("value")
	b.AppendData(u64be(42))
	b.AppendString("data")
	b.AppendData([]byte{0xde, 0xad})

	tx, err := Extract(codec.NewCursor(b.Bytes()))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !bytes.Equal(tx.Nonce, u64be(5)) {
		t.Fatalf("Nonce = % x, want % x", tx.Nonce, u64be(5))
	}
	if !bytes.Equal(tx.Data, []byte{0xde, 0xad}) {
		t.Fatalf("Data = % x, want de ad", tx.Data)
	}
	if len(tx.To) != 20 {
		t.Fatalf("To length = %d, want 20", len(tx.To))
	}
}

func TestExtractRejectsMissingField(t *testing.T) {
	b := codec.NewBuilder()
	b.AppendMap(1)
	b.AppendString("chainId")
	b.AppendData(u64be(1))

	_, err := Extract(codec.NewCursor(b.Bytes()))
	if err != ErrBadData {
		t.Fatalf("expected ErrBadData, got %v", err)
	}
}

func TestExtractRejectsBadToLength(t *testing.T) {
	b := codec.NewBuilder()
	b.AppendMap(8)
	b.AppendString("chainId")
	b.AppendData(u64be(1))
	b.AppendString("nonce")
	b.AppendData(u64be(0))
	b.AppendString("maxPriorityFeePerGas")
	b.AppendData(u64be(1))
	b.AppendString("maxFeePerGas")
	b.AppendData(u64be(1))
	b.AppendString("gasLimit")
	b.AppendData(u64be(1))
	b.AppendString("to")
	b.AppendData([]byte{0x01, 0x02, 0x03}) // wrong length
	b.AppendString("value")
	b.AppendData(u64be(0))
	b.AppendString("data")
	b.AppendData(nil)

	_, err := Extract(codec.NewCursor(b.Bytes()))
	if err != ErrBadData {
		t.Fatalf("expected ErrBadData for malformed to, got %v", err)
	}
}

func TestBuildReplyRoundTrips(t *testing.T) {
	var r, s [32]byte
	r[31] = 0x07
	s[31] = 0x09

	built := BuildReply(r, s, 1)
	c := codec.NewCursor(built.Bytes())

	rVal, err := c.FollowKey("r")
	if err != nil {
		t.Fatalf("FollowKey(r): %v", err)
	}
	rData, err := rVal.Data()
	if err != nil || !bytes.Equal(rData, r[:]) {
		t.Fatalf("r = % x, %v; want % x, nil", rData, err, r[:])
	}

	vVal, err := c.FollowKey("v")
	if err != nil {
		t.Fatalf("FollowKey(v): %v", err)
	}
	vNum, err := vVal.Value()
	if err != nil || vNum != 1 {
		t.Fatalf("v = %d, %v; want 1, nil", vNum, err)
	}
}
