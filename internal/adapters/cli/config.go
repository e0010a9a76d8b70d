package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andrescamacho/reliefops-go/internal/infrastructure/config"
)

// NewConfigCommand creates the config command with subcommands
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage ReliefOps configuration settings.

Configuration is loaded from multiple sources with priority:
1. Environment variables (RELIEF_* prefix, e.g. RELIEF_SIMULATION_SEED)
2. Config file (config.yaml)
3. Default values

User preferences (last session, default scenario) are stored in
~/.reliefops/config.json

Examples:
  reliefops config show
  reliefops config set-scenario configs/scenario.yaml`,
	}

	// Add subcommands
	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetScenarioCommand())

	return cmd
}

// newConfigShowCommand creates the config show subcommand
func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				fmt.Printf("Warning: %v\n", err)
				fmt.Println("Using default configuration.")
				cfg = config.LoadConfigOrDefault("")
			}

			userConfigHandler, err := config.NewUserConfigHandler()
			if err != nil {
				return fmt.Errorf("failed to create user config handler: %w", err)
			}
			userCfg, err := userConfigHandler.Load()
			if err != nil {
				fmt.Printf("Warning: Failed to load user config: %v\n\n", err)
				userCfg = &config.UserConfig{}
			}

			fmt.Println("ReliefOps Configuration")
			fmt.Println("=======================")

			fmt.Println("User Preferences:")
			fmt.Printf("  Config file:       %s\n", userConfigHandler.GetConfigPath())
			fmt.Printf("  Last session:      %s\n", orNone(userCfg.LastSession))
			fmt.Printf("  Default scenario:  %s\n", orNone(userCfg.DefaultScenario))
			fmt.Println()

			fmt.Println("Simulation:")
			fmt.Printf("  Rounds per day:    %d\n", cfg.Simulation.RoundsPerDay)
			fmt.Printf("  Round duration:    %s (auto rounds: %t)\n", cfg.Simulation.RoundDuration, cfg.Simulation.AutoRounds)
			fmt.Printf("  Tick interval:     %s x %d per round\n", cfg.Simulation.TickInterval, cfg.Simulation.TicksPerRound)
			fmt.Printf("  Seed:              %d\n", cfg.Simulation.Seed)
			fmt.Printf("  Delivery queue:    %d (failure penalty %d)\n", cfg.Simulation.DeliveryQueueLimit, *cfg.Simulation.DeliveryFailurePenalty)
			fmt.Println()

			fmt.Println("Catalog:")
			fmt.Printf("  Templates:         %v (watch: %t)\n", cfg.Catalog.Paths, cfg.Catalog.Watch)
			fmt.Printf("  Scenario:          %s\n", cfg.Catalog.ScenarioPath)
			fmt.Println()

			fmt.Println("Database:")
			fmt.Printf("  Archive:           %s\n", cfg.Database.Describe())
			fmt.Println()

			fmt.Println("Adapters:")
			fmt.Printf("  Metrics:           %t (%s)\n", cfg.Metrics.Enabled, cfg.Metrics.URL())
			fmt.Printf("  Event stream:      %t (%s:%d%s)\n", cfg.Stream.Enabled, cfg.Stream.Host, cfg.Stream.Port, cfg.Stream.Path)
			fmt.Printf("  Journal:           %t (%s)\n", cfg.Journal.Enabled, cfg.Journal.Dir)
			fmt.Printf("  Logging:           %s %s to %s\n", cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
			return nil
		},
	}
}

// newConfigSetScenarioCommand creates the config set-scenario subcommand
func newConfigSetScenarioCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-scenario <path>",
		Short: "Remember a default scenario file",
		Long: `Store a scenario path in the user config. run and serve use it instead
of catalog.scenario_path when --scenario is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("scenario file: %w", err)
			}
			handler, err := config.NewUserConfigHandler()
			if err != nil {
				return err
			}
			if err := handler.SetDefaultScenario(path); err != nil {
				return err
			}
			fmt.Printf("✓ Default scenario set to %s\n", path)
			return nil
		},
	}
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
