package crypto

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"
)

const (
	// CREATE2 input layout: 0xff (1) + deployer (20) + salt (32) + initCodeHash (32) = 85
	Create2PrefixLen = 1 + 20
	Create2SaltLen   = 32
	Create2SuffixLen = 32
	Create2InputLen  = Create2PrefixLen + Create2SaltLen + Create2SuffixLen

	// Storage-key input layout: pad32(address) + pad32(slot) = 64
	StorageKeyInputLen = 64
)

// Keccak256 calculates the keccak256 hash of the input bytes
func Keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}

// Keccak256Into hashes data into a 32-byte digest without allocating.
// The hasher is reused across calls.
func Keccak256Into(hasher hash.Hash, data []byte, out *[32]byte) {
	hasher.Reset()
	hasher.Write(data)
	hasher.Sum(out[:0])
}

// NewKeccak returns a fresh legacy keccak256 hasher for reuse in hot loops.
func NewKeccak() hash.Hash {
	return sha3.NewLegacyKeccak256()
}

// StorageKey derives the storage slot key for an address in a Solidity
// mapping(address => uint256) held at baseSlot: keccak256(pad32(addr) || pad32(slot)).
func StorageKey(addr [20]byte, baseSlot uint64) [32]byte {
	d := NewStorageKeyDeriver(baseSlot)
	var key [32]byte
	d.Derive(&addr, &key)
	return key
}

// AccountHash derives the account trie key for an address: keccak256(addr).
func AccountHash(addr [20]byte) [32]byte {
	var out [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(addr[:])
	h.Sum(out[:0])
	return out
}

// Create2Address derives the CREATE2 contract address:
// last20(keccak256(0xff || deployer || salt || initCodeHash)).
func Create2Address(deployer [20]byte, salt [32]byte, initCodeHash [32]byte) [20]byte {
	var buf [Create2InputLen]byte
	buf[0] = 0xff
	copy(buf[1:21], deployer[:])
	copy(buf[21:53], salt[:])
	copy(buf[53:85], initCodeHash[:])

	var digest [32]byte
	h := sha3.NewLegacyKeccak256()
	h.Write(buf[:])
	h.Sum(digest[:0])

	var addr [20]byte
	copy(addr[:], digest[12:32])
	return addr
}

// StorageKeyDeriver computes storage keys with a reusable hasher and input
// buffer. The slot half of the buffer is primed once; only the address bytes
// change per call. Not safe for concurrent use; each worker owns one.
type StorageKeyDeriver struct {
	hasher hash.Hash
	buf    [StorageKeyInputLen]byte
}

// NewStorageKeyDeriver creates a deriver for the given mapping base slot.
func NewStorageKeyDeriver(baseSlot uint64) *StorageKeyDeriver {
	d := &StorageKeyDeriver{hasher: sha3.NewLegacyKeccak256()}
	// slot occupies bytes 32..64, big-endian, zero-extended on the left
	binary.BigEndian.PutUint64(d.buf[56:64], baseSlot)
	return d
}

// Derive writes keccak256(pad32(addr) || pad32(slot)) into out.
func (d *StorageKeyDeriver) Derive(addr *[20]byte, out *[32]byte) {
	copy(d.buf[12:32], addr[:])
	d.hasher.Reset()
	d.hasher.Write(d.buf[:])
	d.hasher.Sum(out[:0])
}

// AccountHashDeriver computes account trie keys with a reusable hasher.
// Not safe for concurrent use; each worker owns one.
type AccountHashDeriver struct {
	hasher hash.Hash
}

// NewAccountHashDeriver creates a deriver for account hashes.
func NewAccountHashDeriver() *AccountHashDeriver {
	return &AccountHashDeriver{hasher: sha3.NewLegacyKeccak256()}
}

// Derive writes keccak256(addr) into out.
func (d *AccountHashDeriver) Derive(addr *[20]byte, out *[32]byte) {
	d.hasher.Reset()
	d.hasher.Write(addr[:])
	d.hasher.Sum(out[:0])
}
