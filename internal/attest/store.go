package attest

import "math/big"

// MemStore is an in-memory ProvisioningStore, standing in for the real
// eFuse registers and NVS "attest" partition in tests and in
// cmd/pixied's simulated-hardware mode.
type MemStore struct {
	Words EfuseWords
	Key   *big.Int
	Proof [64]byte
}

func (m MemStore) Efuse() EfuseWords           { return m.Words }
func (m MemStore) AttestKey() *big.Int         { return m.Key }
func (m MemStore) ManufacturerProof() [64]byte { return m.Proof }
