package miner

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/screa/deepbranch-miner/internal/config"
	"github.com/screa/deepbranch-miner/internal/crypto"
)

// Nick's deterministic deployment proxy
const nicksDeployer = "0x4e59b44847b379578588920ca78fbf26c0b4956c"

func TestAccountMineSingleContractDepthThree(t *testing.T) {
	cfg := testConfig()
	cfg.Depth = 3
	cfg.NumContracts = 1
	cfg.Deployer = nicksDeployer
	cfg.InitCode = "0x" // keccak256 of empty init code

	m, err := NewAccount(cfg, quietLogger())
	require.NoError(t, err)

	report, err := m.Mine()
	require.NoError(t, err)
	require.Len(t, report.Contracts, 1)

	contract := report.Contracts[0]
	require.True(t, contract.Salt.IsUint64())
	require.Equal(t, uint64(0), contract.Salt.Uint64())

	// The contract address must follow the CREATE2 formula.
	want := gethcrypto.CreateAddress2(
		common.HexToAddress(nicksDeployer),
		contract.Salt.Bytes32(),
		gethcrypto.Keccak256(nil),
	)
	require.Equal(t, want, contract.ContractAddress)

	// Each auxiliary's account hash must share the target depth's prefix
	// with the contract's account hash.
	contractHash := crypto.AccountHash([20]byte(contract.ContractAddress))
	require.Len(t, contract.AuxiliaryAccounts, 3)
	for _, aux := range contract.AuxiliaryAccounts {
		auxHash := crypto.AccountHash([20]byte(aux))
		require.True(t, crypto.ShareNibbles(&contractHash, &auxHash, report.TargetDepth),
			"auxiliary %s does not share %d nibbles", aux.Hex(), report.TargetDepth)
	}
}

func TestAccountMineMultipleContracts(t *testing.T) {
	cfg := testConfig()
	cfg.Depth = 1
	cfg.NumContracts = 3
	cfg.InitCodeHash = "0x0000000000000000000000000000000000000000000000000000000000000001"

	m, err := NewAccount(cfg, quietLogger())
	require.NoError(t, err)

	report, err := m.Mine()
	require.NoError(t, err)
	require.Len(t, report.Contracts, 3)

	for i, contract := range report.Contracts {
		require.Equal(t, uint64(i), contract.Salt.Uint64())
		require.Len(t, contract.AuxiliaryAccounts, 1)

		contractHash := crypto.AccountHash([20]byte(contract.ContractAddress))
		auxHash := crypto.AccountHash([20]byte(contract.AuxiliaryAccounts[0]))
		require.True(t, crypto.ShareNibbles(&contractHash, &auxHash, 1))
	}

	// Index salts produce distinct contracts.
	require.NotEqual(t, report.Contracts[0].ContractAddress, report.Contracts[1].ContractAddress)
}

func TestAccountMineValidation(t *testing.T) {
	t.Run("bad deployer", func(t *testing.T) {
		cfg := testConfig()
		cfg.Depth = 1
		cfg.NumContracts = 1
		cfg.Deployer = "0x1234"
		cfg.InitCode = "0x"
		_, err := NewAccount(cfg, quietLogger())
		require.ErrorIs(t, err, config.ErrInvalidDeployer)
	})

	t.Run("missing init code", func(t *testing.T) {
		cfg := testConfig()
		cfg.Depth = 1
		cfg.NumContracts = 1
		_, err := NewAccount(cfg, quietLogger())
		require.ErrorIs(t, err, config.ErrNoInitCode)
	})

	t.Run("bad depth", func(t *testing.T) {
		cfg := testConfig()
		cfg.Depth = 65
		cfg.NumContracts = 1
		cfg.InitCode = "0x"
		_, err := NewAccount(cfg, quietLogger())
		require.ErrorIs(t, err, config.ErrInvalidDepth)
	})
}

func TestAccountReportJSONShape(t *testing.T) {
	cfg := testConfig()
	cfg.Depth = 1
	cfg.NumContracts = 1
	cfg.InitCode = "0x"

	m, err := NewAccount(cfg, quietLogger())
	require.NoError(t, err)
	report, err := m.Mine()
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, key := range []string{"deployer", "init_code_hash", "target_depth", "num_contracts", "contracts"} {
		require.Contains(t, decoded, key)
	}

	contracts := decoded["contracts"].([]any)
	first := contracts[0].(map[string]any)
	require.Contains(t, first, "salt")
	require.Contains(t, first, "contract_address")
	require.Contains(t, first, "auxiliary_accounts")

	// u64-representable salts serialize as a JSON number.
	_, isNumber := first["salt"].(float64)
	require.True(t, isNumber, "salt should serialize as a decimal integer")
}
