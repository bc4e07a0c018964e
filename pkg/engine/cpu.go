package engine

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/screa/deepbranch-miner/internal/crypto"
	"github.com/screa/deepbranch-miner/pkg/sampler"
)

// checkInterval is how many attempts a worker runs between found-flag polls.
// Polling every attempt would put an atomic load in the hot loop for nothing.
const checkInterval = 1024

// CPU is the worker-pool search engine.
type CPU struct {
	workers   int
	cancelled atomic.Uint32
	attempts  atomic.Uint64
}

// NewCPU creates a CPU engine. workers <= 0 selects hardware parallelism.
func NewCPU(workers int) *CPU {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPU{workers: workers}
}

// Name implements Engine.
func (e *CPU) Name() string { return "cpu" }

// Attempts implements Engine.
func (e *CPU) Attempts() uint64 { return e.attempts.Load() }

// Cancel implements Engine. Workers observe the flag at the next batch
// boundary; the current Search and any later ones return ErrCancelled.
func (e *CPU) Cancel() {
	e.cancelled.Store(1)
}

// searchState is the shared slot of the first-winner protocol. The flag
// moves 0 -> 1 exactly once via compare-and-swap; only the worker that wins
// the swap writes the result. Losers never read the slot, and the caller
// reads it only after every worker has exited.
type searchState struct {
	found  atomic.Uint32
	result Result
}

// Search implements Engine.
func (e *CPU) Search(req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if e.cancelled.Load() != 0 {
		return nil, ErrCancelled
	}

	workers := int(req.Parallelism)
	if workers <= 0 {
		workers = e.workers
	}

	st := &searchState{}
	var wg sync.WaitGroup
	for k := 0; k < workers; k++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			e.runWorker(&req, st, worker)
		}(k)
	}
	wg.Wait()

	if st.found.Load() == 1 {
		res := st.result
		return &res, nil
	}
	if e.cancelled.Load() != 0 {
		return nil, ErrCancelled
	}
	return nil, ErrExhausted
}

// runWorker enumerates the worker's attempt range. Each attempt seeds the
// sampler from the attempt index, derives the digest and compares prefixes.
func (e *CPU) runWorker(req *Request, st *searchState, worker int) {
	derive := req.deriver()
	depth := req.Depth
	reference := req.Reference

	lo := req.SeedBase + uint64(worker)*req.AttemptsBudget
	hi := lo + req.AttemptsBudget

	var addr [20]byte
	var digest [32]byte
	sinceCheck := 0

	for index := lo; index != hi; index++ {
		if sinceCheck >= checkInterval {
			e.attempts.Add(uint64(sinceCheck))
			sinceCheck = 0
			if st.found.Load() != 0 || e.cancelled.Load() != 0 {
				return
			}
		}
		sinceCheck++

		sampler.AddressAt(index, &addr)
		derive(&addr, &digest)

		if crypto.ShareNibbles(&digest, &reference, depth) {
			if st.found.CompareAndSwap(0, 1) {
				st.result = Result{Address: addr, Digest: digest}
			}
			e.attempts.Add(uint64(sinceCheck))
			return
		}
	}
	e.attempts.Add(uint64(sinceCheck))
}
