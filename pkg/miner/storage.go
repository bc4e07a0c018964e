package miner

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/screa/deepbranch-miner/internal/config"
	"github.com/screa/deepbranch-miner/internal/crypto"
	"github.com/screa/deepbranch-miner/internal/logger"
	"github.com/screa/deepbranch-miner/pkg/engine"
	"github.com/screa/deepbranch-miner/pkg/sampler"
	"github.com/screa/deepbranch-miner/pkg/types"
)

// Storage mines a sequence of addresses whose ERC-20 balance storage keys
// share a common nibble prefix, forcing a deep branch in the contract's
// storage trie.
type Storage struct {
	cfg *config.Config
	log *logger.Logger
	lp  *launchpad
}

// NewStorage creates a storage-mining coordinator.
func NewStorage(cfg *config.Config, log *logger.Logger) (*Storage, error) {
	if err := cfg.ValidateStorage(); err != nil {
		return nil, err
	}
	lp, err := newLaunchpad(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Storage{cfg: cfg, log: log, lp: lp}, nil
}

// Stop cancels the run at the next attempt boundary.
func (m *Storage) Stop() {
	m.lp.Cancel()
}

// Mine produces depth+1 entries whose storage keys pairwise share the first
// depth nibbles. The first entry's key is the reference anchor; every level
// is mined against it at the full target depth, so the guarantee holds for
// every pair, not just neighbors.
func (m *Storage) Mine() (*types.StorageReport, error) {
	depth := uint32(m.cfg.Depth)
	start := time.Now()

	// Bootstrap: the anchor key comes from the first sampled candidate.
	anchorAddr := sampler.Address(m.lp.nextSeed)
	m.lp.nextSeed++
	reference := crypto.StorageKey(anchorAddr, m.cfg.BaseSlot)

	m.log.Printf("Mining storage branch: depth %d, slot %d, %d workers",
		depth, m.cfg.BaseSlot, m.cfg.Workers)

	report := &types.StorageReport{
		Depth:    depth,
		BaseSlot: m.cfg.BaseSlot,
		Entries: []types.StorageEntry{{
			Address:     common.Address(anchorAddr),
			StorageSlot: common.Hash(reference),
		}},
	}

	for level := uint32(1); level <= depth; level++ {
		levelStart := time.Now()
		m.log.Printf("Mining level %d/%d (%d matching nibbles)", level, depth, depth)

		res, err := m.lp.search(reference, depth, engine.DeriveStorageKey, m.cfg.BaseSlot)
		if err != nil {
			return nil, err
		}

		seconds := time.Since(levelStart).Seconds()
		report.Entries = append(report.Entries, types.StorageEntry{
			Address:     common.Address(res.Address),
			StorageSlot: common.Hash(res.Digest),
			Seconds:     seconds,
		})

		m.log.Printf("Level %d found in %.2fs - Address: %s, Key: %s",
			level, seconds,
			common.Address(res.Address).Hex(),
			common.Hash(res.Digest).Hex()[:10]+"...")
	}

	report.TotalSeconds = time.Since(start).Seconds()
	return report, nil
}
