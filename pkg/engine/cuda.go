//go:build cuda && linux
// +build cuda,linux

/*
 * CUDA search engine for Linux with NVIDIA GPU support.
 * Requires CUDA Toolkit 11.0+ and a GPU with Compute Capability 5.0+.
 *
 * Build:
 *   1. Compile the kernel into kernel/libdeepbranch_cuda.a (nvcc -lib)
 *   2. go build -tags cuda
 *
 * The kernel enumerates the same xorshift64* candidate stream as the host
 * sampler and shares its keccak round constants with kernel/keccak_constants.h,
 * so host and device digests are byte-for-byte interchangeable.
 */

package engine

/*
#cgo LDFLAGS: -L${SRCDIR}/kernel -ldeepbranch_cuda -L/usr/local/cuda/lib64 -lcudart -lstdc++ -lm
#cgo CFLAGS: -I/usr/local/cuda/include

#include <stdlib.h>

// External functions from libdeepbranch_cuda.a
extern int cuda_device_count();
extern int cuda_mine_prefix(
    const unsigned char* target_prefix,
    int required_nibbles,
    int derivation,
    unsigned long long base_slot,
    unsigned long long start_nonce,
    unsigned long long attempts_per_thread,
    int blocks,
    int threads_per_block,
    unsigned char* result_address,
    unsigned char* result_digest,
    int* found
);
extern int cuda_verify_keccak(
    const unsigned char* address,
    unsigned long long base_slot,
    unsigned char* result_storage_key
);
extern int cuda_debug_prng(
    unsigned long long nonce,
    unsigned long long base_slot,
    unsigned char* result_address,
    unsigned char* result_storage_key
);
*/
import "C"

import (
	"sync/atomic"
	"unsafe"

	"github.com/screa/deepbranch-miner/internal/crypto"
)

// Launch geometry. 256 blocks is empirically optimal for this kernel;
// scaling with SM count causes heavy contention on the found flag.
const (
	cudaBlocks          = 256
	cudaThreadsPerBlock = 256
)

// CUDA is the device-backed search engine. Each launch is an indivisible
// unit of work with a bounded attempt count; cancellation takes effect
// between launches.
type CUDA struct {
	cancelled atomic.Uint32
	attempts  atomic.Uint64
}

// CUDAAvailable reports whether a CUDA device is present.
func CUDAAvailable() bool {
	return int(C.cuda_device_count()) > 0
}

// NewCUDA creates a CUDA engine, failing when no device is present.
func NewCUDA() (*CUDA, error) {
	if !CUDAAvailable() {
		return nil, ErrGPUUnavailable
	}
	return &CUDA{}, nil
}

// Close releases the engine. Device allocations are per-launch and already
// freed by the kernel wrapper.
func (e *CUDA) Close() {}

// Name implements Engine.
func (e *CUDA) Name() string { return "cuda" }

// Attempts implements Engine.
func (e *CUDA) Attempts() uint64 { return e.attempts.Load() }

// Cancel implements Engine. A running kernel cannot be interrupted; the
// engine refuses further launches instead.
func (e *CUDA) Cancel() {
	e.cancelled.Store(1)
}

// attemptsPerThread scales the per-launch work with the required depth.
// Each nibble multiplies the expected search space by 16.
func attemptsPerThread(depth uint32) uint64 {
	switch {
	case depth <= 3:
		return 1_000
	case depth <= 5:
		return 10_000
	case depth == 6:
		return 100_000
	case depth == 7:
		return 1_000_000
	case depth == 8:
		return 10_000_000
	case depth == 9:
		return 50_000_000
	case depth == 10:
		return 100_000_000
	case depth == 11:
		return 200_000_000
	case depth == 12:
		return 500_000_000
	default:
		return 1_000_000_000
	}
}

// maxLaunches bounds how many kernel launches a single request may consume.
func maxLaunches(depth uint32) int {
	switch {
	case depth <= 7:
		return 1
	case depth == 8:
		return 5
	case depth == 9:
		return 20
	case depth == 10:
		return 50
	case depth == 11:
		return 100
	case depth == 12:
		return 500
	default:
		return 2000
	}
}

// Search implements Engine. Launches run until a verified match, the attempts
// budget burns out, or the launch cap for the requested depth is reached.
func (e *CUDA) Search(req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	perThread := attemptsPerThread(req.Depth)
	perLaunch := uint64(cudaBlocks) * uint64(cudaThreadsPerBlock) * perThread
	budget := req.AttemptsBudget * uint64(max(int(req.Parallelism), 1))

	derive := req.deriver()

	var consumed uint64
	for launch := 0; launch < maxLaunches(req.Depth); launch++ {
		if e.cancelled.Load() != 0 {
			return nil, ErrCancelled
		}
		if consumed >= budget {
			break
		}

		var addr [20]byte
		var digest [32]byte
		var found C.int

		startNonce := req.SeedBase + consumed
		rc := C.cuda_mine_prefix(
			(*C.uchar)(unsafe.Pointer(&req.Reference[0])),
			C.int(req.Depth),
			C.int(req.Derivation),
			C.ulonglong(req.BaseSlot),
			C.ulonglong(startNonce),
			C.ulonglong(perThread),
			C.int(cudaBlocks),
			C.int(cudaThreadsPerBlock),
			(*C.uchar)(unsafe.Pointer(&addr[0])),
			(*C.uchar)(unsafe.Pointer(&digest[0])),
			&found,
		)
		if rc != 0 {
			return nil, ErrGPULaunch
		}

		consumed += perLaunch
		e.attempts.Add(perLaunch)

		if found == 0 {
			continue
		}

		// Re-derive on the host to reject device false positives.
		var hostDigest [32]byte
		derive(&addr, &hostDigest)
		if hostDigest != digest {
			return nil, ErrHashMismatch
		}
		if !crypto.ShareNibbles(&hostDigest, &req.Reference, req.Depth) {
			continue
		}
		return &Result{Address: addr, Digest: hostDigest}, nil
	}

	return nil, ErrExhausted
}

// VerifyKeccak computes a storage key for addr on the device with a
// single-thread kernel. Tests compare it against the host implementation.
func (e *CUDA) VerifyKeccak(addr [20]byte, baseSlot uint64) ([32]byte, error) {
	var key [32]byte
	rc := C.cuda_verify_keccak(
		(*C.uchar)(unsafe.Pointer(&addr[0])),
		C.ulonglong(baseSlot),
		(*C.uchar)(unsafe.Pointer(&key[0])),
	)
	if rc != 0 {
		return key, ErrGPULaunch
	}
	return key, nil
}

// SampleAt runs the device sampler for one attempt index and returns the
// candidate address plus its storage key, for cross-checking the PRNG.
func (e *CUDA) SampleAt(index uint64, baseSlot uint64) ([20]byte, [32]byte, error) {
	var addr [20]byte
	var key [32]byte
	rc := C.cuda_debug_prng(
		C.ulonglong(index),
		C.ulonglong(baseSlot),
		(*C.uchar)(unsafe.Pointer(&addr[0])),
		(*C.uchar)(unsafe.Pointer(&key[0])),
	)
	if rc != 0 {
		return addr, key, ErrGPULaunch
	}
	return addr, key, nil
}
