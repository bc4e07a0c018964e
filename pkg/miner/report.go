package miner

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/screa/deepbranch-miner/internal/crypto"
	"github.com/screa/deepbranch-miner/internal/logger"
	"github.com/screa/deepbranch-miner/pkg/types"
)

// WriteReport serializes a report to path as indented JSON.
func WriteReport(path string, report any) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// PrintStorageResults logs the branch structure of a storage run.
func PrintStorageResults(log *logger.Logger, report *types.StorageReport) {
	log.Printf("Total depth achieved: %d", report.Depth)
	log.Printf("Total time taken: %.2f seconds", report.TotalSeconds)
	log.Printf("Balance mapping slot: %d", report.BaseSlot)

	if len(report.Entries) > 1 {
		anchor := [32]byte(report.Entries[0].StorageSlot)
		log.Printf("Common prefix (%d nibbles): 0x%s",
			report.Depth, report.Entries[0].StorageSlot.Hex()[2:2+report.Depth])

		for i, entry := range report.Entries {
			log.Printf("Level %d:", i+1)
			log.Printf("  Address:     %s", entry.Address.Hex())
			log.Printf("  Storage Key: %s", entry.StorageSlot.Hex())
			if i > 0 {
				key := [32]byte(entry.StorageSlot)
				log.Printf("  Shares %d nibbles with the anchor",
					crypto.CountSharedNibbles(&anchor, &key))
				log.Printf("  Mined in %.2f seconds", entry.Seconds)
			}
		}
	}
}

// PrintAccountResults logs the summary of a CREATE2 run.
func PrintAccountResults(log *logger.Logger, report *types.AccountReport) {
	log.Printf("Total contracts: %d", report.NumContracts)
	log.Printf("Target depth: %d", report.TargetDepth)
	log.Printf("Total auxiliary accounts: %d", report.NumContracts*int(report.TargetDepth))
	log.Printf("Total time: %.2f seconds", report.TotalSeconds)
	if report.NumContracts > 0 {
		log.Printf("Average time per contract: %.2f seconds",
			report.TotalSeconds/float64(report.NumContracts))
	}
}
