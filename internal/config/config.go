package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/screa/deepbranch-miner/internal/crypto"
)

// Errors
var (
	ErrInvalidDepth       = errors.New("depth must be between 1 and 64 nibbles")
	ErrInvalidDeployer    = errors.New("deployer must be a 20-byte hex address")
	ErrNoInitCode         = errors.New("must specify --init-code, --init-code-file, or --init-code-hash")
	ErrInvalidNumContract = errors.New("num-contracts must be at least 1")
)

// Config holds the application configuration
type Config struct {
	Workers     int
	UseCUDA     bool
	Verbose     bool
	LogFile     string
	LogInterval int // Logging interval in seconds

	Depth          int
	GlobalSeed     uint64
	AttemptsBudget uint64 // per worker; 0 selects the automatic budget

	// Storage mining
	BaseSlot    uint64
	Output      string
	ContractDir string

	// CREATE2 mining
	NumContracts   int
	Deployer       string
	InitCode       string
	InitCodeFile   string
	InitCodeHash   string
	AccountsOutput string
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Workers:        runtime.NumCPU(),
		LogInterval:    5,
		GlobalSeed:     1,
		Output:         "storage_branch.json",
		ContractDir:    "contracts",
		AccountsOutput: "create2_accounts.json",
	}
}

// ValidateStorage validates the configuration for storage mining
func (c *Config) ValidateStorage() error {
	if c.Depth < 1 || c.Depth > 64 {
		return ErrInvalidDepth
	}
	return nil
}

// ValidateCreate2 validates the configuration for CREATE2 mining
func (c *Config) ValidateCreate2() error {
	if c.Depth < 1 || c.Depth > 64 {
		return ErrInvalidDepth
	}
	if c.NumContracts < 1 {
		return ErrInvalidNumContract
	}
	if c.Deployer != "" {
		if _, err := c.DeployerBytes(); err != nil {
			return err
		}
	}
	if c.InitCode == "" && c.InitCodeFile == "" && c.InitCodeHash == "" {
		return ErrNoInitCode
	}
	return nil
}

// DeployerBytes parses the deployer address. An empty deployer defaults to
// the zero address.
func (c *Config) DeployerBytes() ([20]byte, error) {
	var addr [20]byte
	if c.Deployer == "" {
		return addr, nil
	}
	h := strings.TrimSpace(c.Deployer)
	if len(h) >= 2 && (h[0:2] == "0x" || h[0:2] == "0X") {
		h = h[2:]
	}
	if len(h) != 40 {
		return addr, fmt.Errorf("%w: got %d hex chars", ErrInvalidDeployer, len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", ErrInvalidDeployer, err)
	}
	copy(addr[:], b)
	return addr, nil
}

// InitCodeHashBytes resolves the CREATE2 init-code hash: either the hash
// given directly, or keccak256 of the init code loaded from the flag or file.
func (c *Config) InitCodeHashBytes() ([32]byte, error) {
	var h [32]byte
	if c.InitCodeHash != "" {
		raw := strings.TrimSpace(c.InitCodeHash)
		if len(raw) >= 2 && (raw[0:2] == "0x" || raw[0:2] == "0X") {
			raw = raw[2:]
		}
		b, err := hex.DecodeString(raw)
		if err != nil {
			return h, fmt.Errorf("invalid init-code-hash hex: %w", err)
		}
		if len(b) != 32 {
			return h, fmt.Errorf("init-code-hash must be 32 bytes, got %d", len(b))
		}
		copy(h[:], b)
		return h, nil
	}

	code, err := c.initCodeBytes()
	if err != nil {
		return h, err
	}
	copy(h[:], crypto.Keccak256(code))
	return h, nil
}

// initCodeBytes returns the init code to hash for address calculation
func (c *Config) initCodeBytes() ([]byte, error) {
	if c.InitCodeFile != "" {
		return readInitCodeFromFile(c.InitCodeFile)
	}
	if c.InitCode != "" {
		code := c.InitCode
		if len(code) >= 2 && code[:2] == "0x" {
			code = code[2:]
		}
		return hex.DecodeString(code)
	}
	return nil, ErrNoInitCode
}

// readInitCodeFromFile reads init code from a file. Files ending in .hex or
// .bin are hex text; anything else is taken as raw bytecode.
func readInitCodeFromFile(filename string) ([]byte, error) {
	if !strings.HasSuffix(filename, ".hex") && !strings.HasSuffix(filename, ".bin") {
		return os.ReadFile(filename)
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	code := strings.TrimSpace(string(content))
	if len(code) > 2 && code[:2] == "0x" {
		code = code[2:]
	}

	// Ensure even length by padding with 0 if necessary
	if len(code)%2 != 0 {
		code = code + "0"
	}

	return hex.DecodeString(code)
}
