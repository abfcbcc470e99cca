package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blockberries/roundberry/config"
)

var (
	initChainID      string
	initDataDir      string
	initParticipants string
	initOverride     bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new node",
	Long: `Initialize a new Roundberry node configuration.

This command creates:
  - config.toml: Node and period configuration

Example:
  roundberry init --chain-id mychain --participants 0xaaaa,0xbbbb,0xcccc,0xdddd`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initChainID, "chain-id", "roundberry-testnet", "chain ID for the ledger")
	initCmd.Flags().StringVar(&initDataDir, "data-dir", ".", "directory for configuration files")
	initCmd.Flags().StringVar(&initParticipants, "participants", "", "comma-separated participant addresses")
	initCmd.Flags().BoolVar(&initOverride, "force", false, "override existing configuration")
}

func runInit(cmd *cobra.Command, args []string) error {
	dataDir := initDataDir
	if dataDir == "" {
		dataDir = "."
	}

	// Check if config already exists
	configPath := filepath.Join(dataDir, "config.toml")
	if _, err := os.Stat(configPath); err == nil && !initOverride {
		return fmt.Errorf("config.toml already exists; use --force to override")
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dataDir, err)
	}

	// Create default config
	cfg := config.DefaultConfig()
	cfg.Node.ChainID = initChainID
	if initParticipants != "" {
		participants := strings.Split(initParticipants, ",")
		for i, p := range participants {
			participants[i] = strings.TrimSpace(p)
		}
		cfg.Period.Participants = participants
		if len(participants) > cfg.Period.MaxParticipants {
			cfg.Period.MaxParticipants = len(participants)
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// Write config file
	if err := config.SaveConfig(cfg, configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Initialized Roundberry node\n")
	fmt.Printf("  Chain ID:     %s\n", initChainID)
	fmt.Printf("  Participants: %d\n", len(cfg.Period.Participants))
	fmt.Printf("  Config:       %s\n", configPath)

	return nil
}
