// Package miner contains the storage and CREATE2 mining coordinators. They
// drive the search engines level by level, own the seed-space partitioning,
// and assemble the reports.
package miner

import (
	"errors"
	"fmt"
	"time"

	"github.com/screa/deepbranch-miner/internal/config"
	"github.com/screa/deepbranch-miner/internal/logger"
	"github.com/screa/deepbranch-miner/pkg/engine"
)

const (
	// safetyFactor scales the expected 16^depth attempts so exhaustion is
	// vanishingly unlikely at the requested depth.
	safetyFactor = 16

	// minBudget keeps shallow searches from launching with trivial budgets.
	minBudget = 1 << 16

	// maxBudget caps the per-worker budget; deeper targets retry instead.
	maxBudget = 1 << 40

	// maxRetries bounds relaunches after exhaustion before giving up.
	maxRetries = 3

	// cudaMinDepth is the shallowest level worth a kernel launch; below it
	// the launch overhead dominates.
	cudaMinDepth = 8
)

// launchpad owns the engines and the seed cursor shared by both coordinators.
type launchpad struct {
	cpu     *engine.CPU
	cuda    *engine.CUDA
	log     *logger.Logger
	workers int

	// nextSeed is the first unconsumed attempt index. Every launch advances
	// it past the range it handed out, so no two searches overlap.
	nextSeed uint64

	budgetOverride uint64
	logInterval    time.Duration
}

// newLaunchpad builds the engines from the configuration. CUDA failures to
// initialize degrade to CPU; a failed device self-check is fatal.
func newLaunchpad(cfg *config.Config, log *logger.Logger) (*launchpad, error) {
	lp := &launchpad{
		cpu:            engine.NewCPU(cfg.Workers),
		log:            log,
		workers:        cfg.Workers,
		nextSeed:       cfg.GlobalSeed,
		budgetOverride: cfg.AttemptsBudget,
		logInterval:    time.Duration(cfg.LogInterval) * time.Second,
	}
	if lp.nextSeed == 0 {
		lp.nextSeed = 1
	}

	if cfg.UseCUDA {
		cuda, err := engine.NewCUDA()
		if err != nil {
			log.Warnf("CUDA requested but not available, falling back to CPU: %v", err)
			return lp, nil
		}
		if err := engine.SelfCheck(cuda); err != nil {
			return nil, fmt.Errorf("cuda self-check failed: %w", err)
		}
		log.Printf("CUDA self-check passed")
		lp.cuda = cuda
	}
	return lp, nil
}

// budgetFor returns the per-worker attempts budget for a depth: the expected
// 16^depth attempts times the safety factor, split across workers.
func (lp *launchpad) budgetFor(depth uint32) uint64 {
	if lp.budgetOverride != 0 {
		return lp.budgetOverride
	}
	if depth >= 10 {
		return maxBudget
	}
	total := uint64(safetyFactor)
	for i := uint32(0); i < depth; i++ {
		total *= 16
	}
	per := total / uint64(lp.workers)
	if per < minBudget {
		per = minBudget
	}
	if per > maxBudget {
		per = maxBudget
	}
	return per
}

// pick selects the engine for a depth.
func (lp *launchpad) pick(depth uint32) engine.Engine {
	if lp.cuda != nil && depth >= cudaMinDepth {
		return lp.cuda
	}
	return lp.cpu
}

// search runs one prefix search, retrying exhausted launches with a doubled
// budget and a fresh seed range, and degrading from CUDA to CPU on launch
// errors. The seed cursor advances past every range handed out.
func (lp *launchpad) search(reference [32]byte, depth uint32, derivation engine.Derivation, baseSlot uint64) (*engine.Result, error) {
	eng := lp.pick(depth)
	budget := lp.budgetFor(depth)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if lp.nextSeed == 0 {
			lp.nextSeed = 1
		}
		req := engine.Request{
			Reference:      reference,
			Depth:          depth,
			Derivation:     derivation,
			BaseSlot:       baseSlot,
			SeedBase:       lp.nextSeed,
			AttemptsBudget: budget,
			Parallelism:    uint32(lp.workers),
		}
		lp.nextSeed += req.TotalAttempts(lp.workers)

		res, err := lp.run(eng, req)
		switch {
		case err == nil:
			return res, nil
		case errors.Is(err, engine.ErrExhausted):
			lp.log.Warnf("search exhausted at depth %d (budget %d/worker), retrying", depth, budget)
			if budget < maxBudget {
				budget *= 2
			}
		case errors.Is(err, engine.ErrGPULaunch), errors.Is(err, engine.ErrGPUUnavailable):
			if eng != lp.cpu {
				lp.log.Warnf("CUDA launch failed, falling back to CPU: %v", err)
				eng = lp.cpu
				continue
			}
			return nil, err
		default:
			return nil, err
		}
	}
	return nil, fmt.Errorf("depth %d: %w", depth, engine.ErrExhausted)
}

// run executes one request with periodic progress logging.
func (lp *launchpad) run(eng engine.Engine, req engine.Request) (*engine.Result, error) {
	start := time.Now()
	startAttempts := eng.Attempts()

	done := make(chan struct{})
	if lp.logInterval > 0 {
		go func() {
			ticker := time.NewTicker(lp.logInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					attempts := eng.Attempts() - startAttempts
					elapsed := time.Since(start)
					lp.log.Printf("Progress: %d attempts, %.2f MH/s",
						attempts, float64(attempts)/elapsed.Seconds()/1e6)
				}
			}
		}()
	}

	res, err := eng.Search(req)
	close(done)
	return res, err
}

// Cancel stops in-flight and future searches.
func (lp *launchpad) Cancel() {
	lp.cpu.Cancel()
	if lp.cuda != nil {
		lp.cuda.Cancel()
	}
}
