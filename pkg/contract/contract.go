// Package contract renders the mined storage addresses into a deployable
// Solidity source. Compilation is left to the caller's toolchain.
package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/screa/deepbranch-miner/pkg/types"
)

// FileName is the rendered contract source file.
const FileName = "WorstCaseERC20.sol"

var tmpl = template.Must(template.New("worstcase").Parse(`// SPDX-License-Identifier: MIT
pragma solidity ^0.8.20;

// ERC20 with every mined address pre-funded in the balance mapping. The
// balance keys collide on a long nibble prefix, so touching any of them
// walks the deepest branch of the storage trie.
contract WorstCaseERC20 {
    string public constant name = "WorstCaseERC20";
    string public constant symbol = "WORST";
    uint8 public constant decimals = 18;

    mapping(address => uint256) private _balances;
    uint256 private _totalSupply;

    constructor() {
{{- range .Addresses}}
        _balances[{{.}}] = 1;
{{- end}}
        _totalSupply = {{len .Addresses}};
    }

    function totalSupply() external view returns (uint256) {
        return _totalSupply;
    }

    function balanceOf(address account) external view returns (uint256) {
        return _balances[account];
    }

    function transfer(address to, uint256 amount) external returns (bool) {
        uint256 balance = _balances[msg.sender];
        require(balance >= amount, "insufficient balance");
        _balances[msg.sender] = balance - amount;
        _balances[to] += amount;
        return true;
    }
}
`))

type templateData struct {
	Addresses []string
}

// Render produces the contract source for the mined entries.
func Render(entries []types.StorageEntry) (string, error) {
	data := templateData{Addresses: make([]string, 0, len(entries))}
	for _, entry := range entries {
		data.Addresses = append(data.Addresses, entry.Address.Hex())
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render contract template: %w", err)
	}
	return sb.String(), nil
}

// WriteFile renders the contract into dir and returns the written path.
func WriteFile(dir string, entries []types.StorageEntry) (string, error) {
	source, err := Render(entries)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create contract directory: %w", err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(source), 0644); err != nil {
		return "", fmt.Errorf("write contract: %w", err)
	}
	return path, nil
}
