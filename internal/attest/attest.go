// Package attest implements device identity and attestation signing,
// grounded on the original firmware's device-info.c: an eFuse-backed
// model/serial identity plus a signed attestation blob proving this
// device holds a manufacturer-provisioned key.
//
// The original signs the attestation hash with an RSA key held in the
// ESP32's Digital Signature peripheral (esp_ds_sign against a 384-byte
// modulus). This module's signing pipeline is ECC-only (spec.md §4.4
// names exactly secp256k1 and secp256r1), so attestation here is
// signed with the device's P-256 key instead of RSA — same hash field
// order and manufacturer-proof shape, different asymmetric primitive.
package attest

import (
	"crypto/sha256"
	"errors"
	"math/big"

	"github.com/firefly/pixie-firmware-sub000/internal/ecc"
)

// Status mirrors device_canAttest()'s small state machine: identity
// loading either hasn't happened, succeeded, or failed for a specific
// reason.
type Status int

const (
	StatusNotInitialized Status = iota
	StatusOK
	StatusMissingEfuse
	StatusMissingProvisioning
	StatusFailed
)

// ErrNotReady is returned by Attest when the store has not reached
// StatusOK.
var ErrNotReady = errors.New("attest: device identity not ready")

// EfuseWords is the three-word EFUSE_BLK3 layout device-info.c reads:
// word 0 is a format version (must be 1), word 1 is the model number,
// word 2 is the serial number.
type EfuseWords struct {
	Version uint32
	Model   uint32
	Serial  uint32
}

// Validate reports whether the eFuse block holds a recognized,
// populated identity.
func (w EfuseWords) Validate() Status {
	if w.Version != 1 || w.Model == 0 || w.Serial == 0 {
		return StatusMissingEfuse
	}
	return StatusOK
}

// ProvisioningStore is the narrow surface the attestation flow needs
// from secure storage: the eFuse identity words, the device's P-256
// attestation private key, and a 64-byte manufacturer proof over that
// key's public half (the analogue of device-info.c's NVS-backed
// attestProof/pubkey-n blobs).
type ProvisioningStore interface {
	Efuse() EfuseWords
	AttestKey() *big.Int
	ManufacturerProof() [64]byte
}

// Identity is the loaded, validated device identity (device_init()'s
// successful outcome).
type Identity struct {
	Model  uint32
	Serial uint32

	privKey *big.Int
	pubkey  []byte // uncompressed SEC1 form
	proof   [64]byte
}

// Load reads and validates identity out of store, mirroring
// device_init(): eFuse mismatch or an incomplete provisioning blob
// yields a non-OK status instead of an error, since absent attestation
// material is an expected device state, not a programming fault.
func Load(store ProvisioningStore) (Identity, Status) {
	words := store.Efuse()
	if st := words.Validate(); st != StatusOK {
		return Identity{}, st
	}

	priv := store.AttestKey()
	if priv == nil || priv.Sign() == 0 {
		return Identity{}, StatusMissingProvisioning
	}

	curve := ecc.P256()
	pub, err := curve.PublicKey(priv)
	if err != nil {
		return Identity{}, StatusFailed
	}

	return Identity{
		Model:   words.Model,
		Serial:  words.Serial,
		privKey: priv,
		pubkey:  curve.Marshal(pub),
		proof:   store.ManufacturerProof(),
	}, StatusOK
}

// ModelName renders a human-readable model string the way
// device_getModelName does: the high byte of the model number selects
// a known product family, here "1" for the Firefly Pixie DevKit with
// the low byte as its revision.
func (id Identity) ModelName() string {
	if id.Model>>8 == 1 {
		return "Firefly Pixie (DevKit rev." + itoa(id.Model&0xff) + ")"
	}
	return "Unknown model"
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// Attestation is the signed blob returned to an attesting peer,
// mirroring device-info.h's DeviceAttestation layout.
type Attestation struct {
	Version      byte
	Nonce        [16]byte
	Challenge    [32]byte
	ModelNumber  uint32
	SerialNumber uint32
	PublicKey    []byte // uncompressed SEC1 point
	Proof        [64]byte
	Signature    []byte // ECDSA r||s over the hash below
}

// Attest builds and signs a fresh attestation over challenge and a
// caller-supplied nonce, per device_attest()'s exact field order:
// version, nonce, challenge, model (big-endian), serial (big-endian),
// public key, manufacturer proof — hashed with SHA-256 and signed with
// the device's attestation private key.
func Attest(id Identity, nonce [16]byte, challenge [32]byte) (Attestation, error) {
	if id.privKey == nil {
		return Attestation{}, ErrNotReady
	}

	a := Attestation{
		Version:      1,
		Nonce:        nonce,
		Challenge:    challenge,
		ModelNumber:  id.Model,
		SerialNumber: id.Serial,
		PublicKey:    id.pubkey,
		Proof:        id.proof,
	}

	h := sha256.New()
	h.Write([]byte{a.Version})
	h.Write(a.Nonce[:])
	h.Write(a.Challenge[:])
	h.Write(be32(a.ModelNumber))
	h.Write(be32(a.SerialNumber))
	h.Write(a.PublicKey)
	h.Write(a.Proof[:])
	digest := h.Sum(nil)

	curve := ecc.P256()
	sig, err := curve.Sign(id.privKey, digest)
	if err != nil {
		return Attestation{}, err
	}

	out := make([]byte, 64)
	sig.R.FillBytes(out[:32])
	sig.S.FillBytes(out[32:])
	a.Signature = out

	return a, nil
}

func be32(v uint32) []byte {
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}
