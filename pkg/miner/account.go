package miner

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/screa/deepbranch-miner/internal/config"
	"github.com/screa/deepbranch-miner/internal/crypto"
	"github.com/screa/deepbranch-miner/internal/logger"
	"github.com/screa/deepbranch-miner/pkg/engine"
	"github.com/screa/deepbranch-miner/pkg/types"
)

// Account mines CREATE2 contracts together with auxiliary accounts whose
// keccak256 hashes share the target nibble prefix with the contract's
// account hash, forcing deep branches in the account trie.
//
// Anchor policy: each contract's own account hash is the reference its
// auxiliaries are mined against. The salt is therefore just the contract
// index (big-endian in the low 8 bytes of the 32-byte salt) and the search
// effort goes entirely into the auxiliaries.
type Account struct {
	cfg *config.Config
	log *logger.Logger
	lp  *launchpad

	deployer     [20]byte
	initCodeHash [32]byte
}

// NewAccount creates a CREATE2 account-mining coordinator.
func NewAccount(cfg *config.Config, log *logger.Logger) (*Account, error) {
	if err := cfg.ValidateCreate2(); err != nil {
		return nil, err
	}
	deployer, err := cfg.DeployerBytes()
	if err != nil {
		return nil, err
	}
	initCodeHash, err := cfg.InitCodeHashBytes()
	if err != nil {
		return nil, err
	}
	lp, err := newLaunchpad(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Account{
		cfg:          cfg,
		log:          log,
		lp:           lp,
		deployer:     deployer,
		initCodeHash: initCodeHash,
	}, nil
}

// Stop cancels the run at the next attempt boundary.
func (m *Account) Stop() {
	m.lp.Cancel()
}

// Mine produces one result per contract. Contracts are processed in salt
// order off a single seed cursor, so every search examines a range no other
// search has touched; the cursor is the seed-space partition.
func (m *Account) Mine() (*types.AccountReport, error) {
	depth := uint32(m.cfg.Depth)
	start := time.Now()

	m.log.Printf("Mining CREATE2 accounts: %d contracts, depth %d, deployer %s",
		m.cfg.NumContracts, depth, common.Address(m.deployer).Hex())
	m.log.Printf("Init code hash: %s", common.Hash(m.initCodeHash).Hex())

	report := &types.AccountReport{
		Deployer:     common.Address(m.deployer),
		InitCodeHash: common.Hash(m.initCodeHash),
		TargetDepth:  depth,
		NumContracts: m.cfg.NumContracts,
	}

	for idx := 0; idx < m.cfg.NumContracts; idx++ {
		salt := types.SaltFromUint64(uint64(idx))
		contractAddr := crypto.Create2Address(m.deployer, salt.Bytes32(), m.initCodeHash)
		contractHash := crypto.AccountHash(contractAddr)

		m.log.Printf("Contract %d/%d - Address: %s",
			idx+1, m.cfg.NumContracts, common.Address(contractAddr).Hex())

		auxiliaries := make([]common.Address, 0, depth)
		for k := uint32(0); k < depth; k++ {
			res, err := m.lp.search(contractHash, depth, engine.DeriveAccountHash, 0)
			if err != nil {
				return nil, err
			}
			auxiliaries = append(auxiliaries, common.Address(res.Address))
			m.log.Debugf("  Auxiliary %d/%d: %s (shares %d nibbles)",
				k+1, depth, common.Address(res.Address).Hex(), depth)
		}

		report.Contracts = append(report.Contracts, types.ContractResult{
			Salt:              salt,
			ContractAddress:   common.Address(contractAddr),
			AuxiliaryAccounts: auxiliaries,
		})
		m.log.Printf("  Mined %d auxiliary accounts", len(auxiliaries))
	}

	report.TotalSeconds = time.Since(start).Seconds()
	return report, nil
}
