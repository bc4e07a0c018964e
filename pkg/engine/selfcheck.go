package engine

import (
	"fmt"

	"github.com/screa/deepbranch-miner/internal/crypto"
	"github.com/screa/deepbranch-miner/pkg/sampler"
)

// selfCheckAddr is the fixed address hashed on both host and device before
// any device result is trusted.
var selfCheckAddr = [20]byte{
	0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x11, 0x22,
	0x33, 0x44, 0x55, 0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc,
}

const selfCheckNonce = 12345

// SelfCheck cross-checks the device keccak and sampler against the host.
// A mismatch means the two implementations have diverged and no device
// result can be trusted.
func SelfCheck(e *CUDA) error {
	deviceKey, err := e.VerifyKeccak(selfCheckAddr, 0)
	if err != nil {
		return err
	}
	hostKey := crypto.StorageKey(selfCheckAddr, 0)
	if deviceKey != hostKey {
		return fmt.Errorf("%w: storage key device=%x host=%x", ErrHashMismatch, deviceKey, hostKey)
	}

	deviceAddr, deviceSampleKey, err := e.SampleAt(selfCheckNonce, 0)
	if err != nil {
		return err
	}
	hostAddr := sampler.Address(selfCheckNonce)
	if deviceAddr != hostAddr {
		return fmt.Errorf("%w: sampler address device=%x host=%x", ErrHashMismatch, deviceAddr, hostAddr)
	}
	hostSampleKey := crypto.StorageKey(deviceAddr, 0)
	if deviceSampleKey != hostSampleKey {
		return fmt.Errorf("%w: sampled key device=%x host=%x", ErrHashMismatch, deviceSampleKey, hostSampleKey)
	}
	return nil
}
