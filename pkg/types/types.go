// Package types holds the result shapes shared by the coordinators and the
// CLI, including their JSON serialization.
package types

import (
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Salt is a 32-byte CREATE2 salt. It serializes as a decimal integer when it
// fits in 64 bits and as 0x-prefixed 64-hex otherwise.
type Salt struct {
	uint256.Int
}

// SaltFromUint64 builds a salt with the value in the low 8 bytes, big-endian.
func SaltFromUint64(v uint64) Salt {
	var s Salt
	s.SetUint64(v)
	return s
}

// Bytes32 returns the salt expanded to 32 bytes big-endian, as passed to the
// CREATE2 derivation.
func (s Salt) Bytes32() [32]byte {
	return s.Int.Bytes32()
}

// MarshalJSON implements json.Marshaler.
func (s Salt) MarshalJSON() ([]byte, error) {
	if s.IsUint64() {
		return []byte(strconv.FormatUint(s.Uint64(), 10)), nil
	}
	b32 := s.Int.Bytes32()
	return json.Marshal("0x" + hex.EncodeToString(b32[:]))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Salt) UnmarshalJSON(data []byte) error {
	var v uint64
	if err := json.Unmarshal(data, &v); err == nil {
		s.SetUint64(v)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	// SetFromHex rejects leading zero digits, which the 64-hex form carries.
	if len(str) > 2 && (str[:2] == "0x" || str[:2] == "0X") {
		digits := strings.TrimLeft(str[2:], "0")
		if digits == "" {
			digits = "0"
		}
		str = "0x" + digits
	}
	return s.SetFromHex(str)
}

// StorageEntry is one mined (address, storage key) pair.
type StorageEntry struct {
	Address     common.Address `json:"address"`
	StorageSlot common.Hash    `json:"storage_slot"`

	// Seconds to mine this level; informational only.
	Seconds float64 `json:"seconds,omitempty"`
}

// StorageReport is the output of a storage-mining run. All entries share the
// first Depth nibbles of their storage keys.
type StorageReport struct {
	Depth        uint32         `json:"depth"`
	BaseSlot     uint64         `json:"base_slot"`
	Entries      []StorageEntry `json:"entries"`
	TotalSeconds float64        `json:"total_seconds"`
}

// ContractResult is one CREATE2 contract with its auxiliary accounts. Each
// auxiliary account's keccak256 shares the target depth's nibble prefix with
// keccak256(contract_address).
type ContractResult struct {
	Salt              Salt             `json:"salt"`
	ContractAddress   common.Address   `json:"contract_address"`
	AuxiliaryAccounts []common.Address `json:"auxiliary_accounts"`
}

// AccountReport is the output of a CREATE2 account-mining run.
type AccountReport struct {
	Deployer     common.Address   `json:"deployer"`
	InitCodeHash common.Hash      `json:"init_code_hash"`
	TargetDepth  uint32           `json:"target_depth"`
	NumContracts int              `json:"num_contracts"`
	TotalSeconds float64          `json:"total_seconds"`
	Contracts    []ContractResult `json:"contracts"`
}
