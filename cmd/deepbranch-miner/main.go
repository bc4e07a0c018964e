package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/screa/deepbranch-miner/internal/config"
	logpkg "github.com/screa/deepbranch-miner/internal/logger"
	"github.com/screa/deepbranch-miner/pkg/contract"
	minerpkg "github.com/screa/deepbranch-miner/pkg/miner"
)

var (
	cfg    = config.NewConfig()
	logger *logpkg.Logger
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "deepbranch-miner",
		Short: "Worst-case Merkle Patricia Trie branch miner",
		Long: `A mining utility that searches for keccak256 prefix collisions to build
worst-case deep branches in EVM storage and account tries. Storage mode mines
ERC-20 balance slot keys sharing a long nibble prefix; create2 mode mines
CREATE2 contracts with auxiliary accounts colliding in the account trie.`,
	}

	rootCmd.PersistentFlags().IntVarP(&cfg.Workers, "threads", "t", runtime.NumCPU(), "Number of worker threads")
	rootCmd.PersistentFlags().BoolVar(&cfg.UseCUDA, "cuda", false, "Use CUDA acceleration if available")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVarP(&cfg.LogFile, "log-file", "l", "", "Log file for progress tracking (default: stdout)")
	rootCmd.PersistentFlags().IntVarP(&cfg.LogInterval, "log-interval", "i", 5, "Logging interval in seconds")
	rootCmd.PersistentFlags().Uint64Var(&cfg.GlobalSeed, "seed", 1, "Global seed for the candidate stream (nonzero)")
	rootCmd.PersistentFlags().Uint64Var(&cfg.AttemptsBudget, "attempts-budget", 0, "Attempts budget per worker (0 = automatic)")

	var storageCmd = &cobra.Command{
		Use:   "storage",
		Short: "Mine a deep branch in ERC-20 contract storage",
		Run:   runStorage,
	}
	storageCmd.Flags().IntVarP(&cfg.Depth, "depth", "d", 0, "Target depth in nibbles (required)")
	storageCmd.Flags().Uint64Var(&cfg.BaseSlot, "slot", 0, "Balance mapping base slot")
	storageCmd.Flags().StringVarP(&cfg.Output, "output", "o", "storage_branch.json", "Output file for the storage report")
	storageCmd.Flags().StringVar(&cfg.ContractDir, "contract-dir", "contracts", "Directory for the generated Solidity contract (empty to skip)")

	var create2Cmd = &cobra.Command{
		Use:   "create2",
		Short: "Mine CREATE2 contracts with colliding auxiliary accounts",
		Run:   runCreate2,
	}
	create2Cmd.Flags().IntVarP(&cfg.Depth, "depth", "d", 0, "Target depth in nibbles (required)")
	create2Cmd.Flags().IntVarP(&cfg.NumContracts, "num-contracts", "n", 1, "Number of contracts to mine")
	create2Cmd.Flags().StringVar(&cfg.Deployer, "deployer", "", "Deployer address (hex, default: zero address)")
	create2Cmd.Flags().StringVar(&cfg.InitCode, "init-code", "", "Contract init code (hex)")
	create2Cmd.Flags().StringVar(&cfg.InitCodeFile, "init-code-file", "", "File containing init code (.hex/.bin for hex text, raw otherwise)")
	create2Cmd.Flags().StringVar(&cfg.InitCodeHash, "init-code-hash", "", "Init code hash (hex32), bypasses init code loading")
	create2Cmd.Flags().StringVar(&cfg.AccountsOutput, "accounts-output", "create2_accounts.json", "Output file for the accounts report")

	rootCmd.AddCommand(storageCmd, create2Cmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStorage(cmd *cobra.Command, args []string) {
	setupLogging()

	miner, err := minerpkg.NewStorage(cfg, logger)
	if err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger.Printf("Starting storage mining with %d workers...", cfg.Workers)
	report, err := mineWithSignals(miner.Mine, miner.Stop)
	if err != nil {
		logger.Errorf("Mining failed: %v", err)
		os.Exit(1)
	}

	minerpkg.PrintStorageResults(logger, report)

	if err := minerpkg.WriteReport(cfg.Output, report); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	logger.Printf("Report saved to: %s", cfg.Output)

	if cfg.ContractDir != "" {
		path, err := contract.WriteFile(cfg.ContractDir, report.Entries)
		if err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		logger.Printf("Generated contract saved to: %s", path)
	}
}

func runCreate2(cmd *cobra.Command, args []string) {
	setupLogging()

	miner, err := minerpkg.NewAccount(cfg, logger)
	if err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger.Printf("Starting CREATE2 mining with %d workers...", cfg.Workers)
	report, err := mineWithSignals(miner.Mine, miner.Stop)
	if err != nil {
		logger.Errorf("Mining failed: %v", err)
		os.Exit(1)
	}

	minerpkg.PrintAccountResults(logger, report)

	if err := minerpkg.WriteReport(cfg.AccountsOutput, report); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
	logger.Printf("Results saved to: %s", cfg.AccountsOutput)
}

// mineWithSignals runs mine in a goroutine and cancels it on SIGINT/SIGTERM.
func mineWithSignals[T any](mine func() (T, error), stop func()) (T, error) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	type outcome struct {
		report T
		err    error
	}
	resultChan := make(chan outcome, 1)
	go func() {
		report, err := mine()
		resultChan <- outcome{report, err}
	}()

	select {
	case res := <-resultChan:
		return res.report, res.err
	case <-sigChan:
		logger.Println("Received interrupt signal (Ctrl+C). Stopping miners...")
		stop()
		res := <-resultChan
		return res.report, res.err
	}
}

func setupLogging() {
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		logger = logpkg.NewWriter(file)
	} else {
		logger = logpkg.New()
	}
	logger.SetVerbose(cfg.Verbose)
}
