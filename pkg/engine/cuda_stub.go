//go:build !cuda
// +build !cuda

package engine

// CUDA engine stub for builds without CUDA support. The real implementation
// lives in cuda.go behind the cuda build tag.
type CUDA struct{}

// CUDAAvailable reports whether this binary carries the CUDA engine and a
// device is present.
func CUDAAvailable() bool { return false }

// NewCUDA returns ErrGPUUnavailable when CUDA is not compiled in.
func NewCUDA() (*CUDA, error) {
	return nil, ErrGPUUnavailable
}

// Close is a no-op without CUDA.
func (e *CUDA) Close() {}

// Name implements Engine.
func (e *CUDA) Name() string { return "cuda" }

// Attempts implements Engine.
func (e *CUDA) Attempts() uint64 { return 0 }

// Cancel implements Engine.
func (e *CUDA) Cancel() {}

// Search implements Engine.
func (e *CUDA) Search(req Request) (*Result, error) {
	return nil, ErrGPUUnavailable
}

// VerifyKeccak is the device verification entry point; unavailable here.
func (e *CUDA) VerifyKeccak(addr [20]byte, baseSlot uint64) ([32]byte, error) {
	return [32]byte{}, ErrGPUUnavailable
}

// SampleAt is the device sampler verification entry point; unavailable here.
func (e *CUDA) SampleAt(index uint64, baseSlot uint64) ([20]byte, [32]byte, error) {
	return [20]byte{}, [32]byte{}, ErrGPUUnavailable
}
