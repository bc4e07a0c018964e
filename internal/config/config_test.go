package config

import (
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateStorage(t *testing.T) {
	tests := []struct {
		name    string
		depth   int
		wantErr error
	}{
		{"valid shallow", 1, nil},
		{"valid deep", 64, nil},
		{"zero depth", 0, ErrInvalidDepth},
		{"negative depth", -3, ErrInvalidDepth},
		{"too deep", 65, ErrInvalidDepth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			cfg.Depth = tt.depth
			if err := cfg.ValidateStorage(); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateStorage() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCreate2(t *testing.T) {
	base := func() *Config {
		cfg := NewConfig()
		cfg.Depth = 4
		cfg.NumContracts = 2
		cfg.InitCode = "0x6080"
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		if err := base().ValidateCreate2(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("no init code", func(t *testing.T) {
		cfg := base()
		cfg.InitCode = ""
		if err := cfg.ValidateCreate2(); !errors.Is(err, ErrNoInitCode) {
			t.Errorf("got %v, want ErrNoInitCode", err)
		}
	})

	t.Run("zero contracts", func(t *testing.T) {
		cfg := base()
		cfg.NumContracts = 0
		if err := cfg.ValidateCreate2(); !errors.Is(err, ErrInvalidNumContract) {
			t.Errorf("got %v, want ErrInvalidNumContract", err)
		}
	})

	t.Run("short deployer", func(t *testing.T) {
		cfg := base()
		cfg.Deployer = "0xabcd"
		if err := cfg.ValidateCreate2(); !errors.Is(err, ErrInvalidDeployer) {
			t.Errorf("got %v, want ErrInvalidDeployer", err)
		}
	})
}

func TestDeployerBytes(t *testing.T) {
	cfg := NewConfig()
	cfg.Deployer = "0x4e59b44847b379578588920ca78fbf26c0b4956c"
	addr, err := cfg.DeployerBytes()
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(addr[:]) != "4e59b44847b379578588920ca78fbf26c0b4956c" {
		t.Errorf("parsed deployer %x", addr)
	}

	cfg.Deployer = ""
	addr, err = cfg.DeployerBytes()
	if err != nil {
		t.Fatal(err)
	}
	if addr != [20]byte{} {
		t.Errorf("empty deployer should be the zero address, got %x", addr)
	}
}

func TestInitCodeHashBytes(t *testing.T) {
	// keccak256("") via empty init code
	cfg := NewConfig()
	cfg.InitCode = "0x"
	h, err := cfg.InitCodeHashBytes()
	if err != nil {
		t.Fatal(err)
	}
	want := "c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if hex.EncodeToString(h[:]) != want {
		t.Errorf("hash of empty init code = %x, want %s", h, want)
	}

	// Direct hash bypasses loading
	cfg = NewConfig()
	cfg.InitCodeHash = "0x" + want
	h, err = cfg.InitCodeHashBytes()
	if err != nil {
		t.Fatal(err)
	}
	if hex.EncodeToString(h[:]) != want {
		t.Errorf("direct hash = %x, want %s", h, want)
	}
}

func TestInitCodeFromFile(t *testing.T) {
	dir := t.TempDir()

	hexFile := filepath.Join(dir, "code.hex")
	if err := os.WriteFile(hexFile, []byte("0x6080604052\n"), 0644); err != nil {
		t.Fatal(err)
	}

	rawFile := filepath.Join(dir, "code.raw")
	if err := os.WriteFile(rawFile, []byte{0x60, 0x80, 0x60, 0x40, 0x52}, 0644); err != nil {
		t.Fatal(err)
	}

	for _, file := range []string{hexFile, rawFile} {
		cfg := NewConfig()
		cfg.InitCodeFile = file
		h, err := cfg.InitCodeHashBytes()
		if err != nil {
			t.Fatalf("%s: %v", file, err)
		}
		if h == [32]byte{} {
			t.Errorf("%s: zero hash", file)
		}
	}

	// Both paths carry the same bytes, so the hashes must agree.
	cfgHex := NewConfig()
	cfgHex.InitCodeFile = hexFile
	hashHex, _ := cfgHex.InitCodeHashBytes()

	cfgRaw := NewConfig()
	cfgRaw.InitCodeFile = rawFile
	hashRaw, _ := cfgRaw.InitCodeHashBytes()

	if hashHex != hashRaw {
		t.Errorf("hex and raw readings disagree: %x vs %x", hashHex, hashRaw)
	}
}
