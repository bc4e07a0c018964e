// Package engine implements the prefix-matching search contract consumed by
// the mining coordinators. Two implementations exist: a CPU worker pool and
// an optional CUDA engine behind the cuda build tag. Both enumerate the same
// deterministic candidate stream and must produce byte-identical digests for
// identical inputs.
package engine

import (
	"errors"

	"github.com/screa/deepbranch-miner/internal/crypto"
)

// Errors reported by the engines.
var (
	ErrInvalidDepth   = errors.New("depth must be between 1 and 64 nibbles")
	ErrInvalidSeed    = errors.New("seed base must be nonzero")
	ErrInvalidBudget  = errors.New("attempts budget must be nonzero")
	ErrExhausted      = errors.New("attempts budget exhausted without a match")
	ErrCancelled      = errors.New("search cancelled")
	ErrGPUUnavailable = errors.New("cuda support not enabled; rebuild with -tags cuda")
	ErrGPULaunch      = errors.New("cuda kernel launch failed")
	ErrHashMismatch   = errors.New("device and host keccak256 disagree")
)

// Derivation selects how a candidate address is turned into the digest that
// is prefix-compared against the reference.
type Derivation uint8

const (
	// DeriveStorageKey hashes keccak256(pad32(addr) || pad32(slot)).
	DeriveStorageKey Derivation = iota
	// DeriveAccountHash hashes keccak256(addr).
	DeriveAccountHash
)

func (d Derivation) String() string {
	switch d {
	case DeriveStorageKey:
		return "storage-key"
	case DeriveAccountHash:
		return "account-hash"
	default:
		return "unknown"
	}
}

// Request describes one prefix search.
type Request struct {
	// Reference is the digest whose leading nibbles must be matched.
	Reference [32]byte

	// Depth is the required shared prefix length in nibbles, 1..64.
	Depth uint32

	// Derivation selects the candidate digest function.
	Derivation Derivation

	// BaseSlot is the mapping slot for DeriveStorageKey; ignored otherwise.
	BaseSlot uint64

	// SeedBase is the first attempt index. Must be nonzero so no worker ever
	// initializes the sampler from state zero.
	SeedBase uint64

	// AttemptsBudget is the number of attempts per worker. Worker k examines
	// [SeedBase + k*AttemptsBudget, SeedBase + (k+1)*AttemptsBudget).
	AttemptsBudget uint64

	// Parallelism is the worker count; 0 means the engine default.
	Parallelism uint32
}

// Validate checks the request bounds.
func (r *Request) Validate() error {
	if r.Depth < 1 || r.Depth > 64 {
		return ErrInvalidDepth
	}
	if r.SeedBase == 0 {
		return ErrInvalidSeed
	}
	if r.AttemptsBudget == 0 {
		return ErrInvalidBudget
	}
	return nil
}

// TotalAttempts returns the attempt count across all workers.
func (r *Request) TotalAttempts(workers int) uint64 {
	return r.AttemptsBudget * uint64(workers)
}

// deriver returns a worker-local derivation closure. Each worker owns its
// hasher and buffers; nothing is shared.
func (r *Request) deriver() func(addr *[20]byte, out *[32]byte) {
	switch r.Derivation {
	case DeriveAccountHash:
		d := crypto.NewAccountHashDeriver()
		return d.Derive
	default:
		d := crypto.NewStorageKeyDeriver(r.BaseSlot)
		return d.Derive
	}
}

// Result is a successful search outcome: an address whose derived digest
// shares the requested nibble prefix with the reference.
type Result struct {
	Address [20]byte
	Digest  [32]byte
}

// Engine is the search contract shared by the CPU and CUDA implementations.
// Results within a request are some match, with tie-breaking between workers
// left undefined; successive requests complete in submission order.
type Engine interface {
	// Search runs one request to completion. It returns the first published
	// match, ErrExhausted when every worker burns its budget, or ErrCancelled.
	Search(req Request) (*Result, error)

	// Cancel makes in-flight and subsequent searches stop at the next attempt
	// boundary. The CUDA engine cannot interrupt a running kernel; it refuses
	// further launches instead.
	Cancel()

	// Attempts reports the attempts consumed so far, for progress logging.
	Attempts() uint64

	// Name identifies the implementation.
	Name() string
}
