package attest

import (
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/firefly/pixie-firmware-sub000/internal/ecc"
)

func readyStore() MemStore {
	return MemStore{
		Words: EfuseWords{Version: 1, Model: 0x0103, Serial: 42},
		Key:   big.NewInt(778899),
		Proof: [64]byte{1, 2, 3},
	}
}

func TestLoadRejectsBadEfuseVersion(t *testing.T) {
	store := readyStore()
	store.Words.Version = 2
	_, status := Load(store)
	if status != StatusMissingEfuse {
		t.Fatalf("status = %v, want StatusMissingEfuse", status)
	}
}

func TestLoadRejectsZeroModelOrSerial(t *testing.T) {
	store := readyStore()
	store.Words.Model = 0
	_, status := Load(store)
	if status != StatusMissingEfuse {
		t.Fatalf("status = %v, want StatusMissingEfuse", status)
	}
}

func TestLoadRejectsMissingKey(t *testing.T) {
	store := readyStore()
	store.Key = nil
	_, status := Load(store)
	if status != StatusMissingProvisioning {
		t.Fatalf("status = %v, want StatusMissingProvisioning", status)
	}
}

func TestLoadSucceeds(t *testing.T) {
	id, status := Load(readyStore())
	if status != StatusOK {
		t.Fatalf("status = %v, want StatusOK", status)
	}
	if id.Model != 0x0103 || id.Serial != 42 {
		t.Fatalf("identity = %+v, unexpected model/serial", id)
	}
	if id.ModelName() != "Firefly Pixie (DevKit rev.3)" {
		t.Fatalf("ModelName = %q", id.ModelName())
	}
}

func TestAttestProducesVerifiableSignature(t *testing.T) {
	id, status := Load(readyStore())
	if status != StatusOK {
		t.Fatalf("Load status = %v", status)
	}

	var nonce [16]byte
	var challenge [32]byte
	copy(nonce[:], "0123456789abcdef")
	copy(challenge[:], "0123456789abcdef0123456789abcdef")

	a, err := Attest(id, nonce, challenge)
	if err != nil {
		t.Fatalf("Attest: %v", err)
	}
	if a.ModelNumber != 0x0103 || a.SerialNumber != 42 {
		t.Fatalf("attestation identity fields wrong: %+v", a)
	}
	if len(a.Signature) != 64 {
		t.Fatalf("signature length = %d, want 64", len(a.Signature))
	}

	curve := ecc.P256()
	pub, err := curve.Unmarshal(a.PublicKey)
	if err != nil {
		t.Fatalf("Unmarshal pubkey: %v", err)
	}

	digest := attestationDigest(t, a)
	sig := ecc.Signature{
		R: new(big.Int).SetBytes(a.Signature[:32]),
		S: new(big.Int).SetBytes(a.Signature[32:]),
	}
	if !curve.Verify(pub, digest, sig) {
		t.Fatalf("attestation signature failed to verify")
	}
}

func TestAttestRequiresLoadedIdentity(t *testing.T) {
	var nonce [16]byte
	var challenge [32]byte
	_, err := Attest(Identity{}, nonce, challenge)
	if err != ErrNotReady {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func attestationDigest(t *testing.T, a Attestation) []byte {
	t.Helper()
	h := sha256.New()
	h.Write([]byte{a.Version})
	h.Write(a.Nonce[:])
	h.Write(a.Challenge[:])
	h.Write(be32(a.ModelNumber))
	h.Write(be32(a.SerialNumber))
	h.Write(a.PublicKey)
	h.Write(a.Proof[:])
	return h.Sum(nil)
}
