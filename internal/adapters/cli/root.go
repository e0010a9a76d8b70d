package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/reliefops-go/internal/infrastructure/config"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// NewRootCommand creates the root command for the CLI
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "reliefops",
		Short: "ReliefOps - Disaster response task simulation",
		Long: `ReliefOps runs the disaster response task core: templates fire tasks when
their triggers match the world, the player answers them, and deliveries move
food and people between facilities.

Examples:
  reliefops run --rounds 12 --auto-resolve
  reliefops serve
  reliefops catalog validate configs/catalog.yaml
  reliefops history tasks --status EXPIRED
  reliefops ledger list --counter SATISFACTION
  reliefops journal show journal/<session>.jsonl.zst`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("RELIEF_CONFIG"),
		"Path to config file (default: ./config.yaml or ./configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	// Add command groups
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewCatalogCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewLedgerCommand())
	rootCmd.AddCommand(NewConfigCommand())
	rootCmd.AddCommand(NewJournalCommand())

	return rootCmd
}

// loadConfig reads the configuration selected by --config and applies --verbose
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
