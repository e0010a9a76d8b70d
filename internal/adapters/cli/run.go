package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/reliefops-go/internal/application/simulation"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/config"
)

// NewRunCommand creates the headless run command
func NewRunCommand() *cobra.Command {
	var (
		rounds       int
		scenarioPath string
		catalogPaths []string
		seed         int64
		autoResolve  bool
		roundRate    float64
		noPersist    bool
		noJournal    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a headless session for a number of rounds",
		Long: `Run a session without a client attached.

Each round the simulation expires overdue tasks and fires matching templates,
then simulates simulation.ticks_per_round ticks of real time so deliveries travel.
With --auto-resolve, waiting tasks are answered automatically using the first
choice that can be carried out.

Finished tasks, deliveries and counter changes are stored in the database
unless --no-persist is given.

Examples:
  reliefops run --rounds 12 --auto-resolve
  reliefops run --rounds 8 --seed 42 --scenario configs/scenario.yaml
  reliefops run --rounds 40 --rate 0 --no-journal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts := sessionOptions{
				scenarioPath: scenarioPath,
				catalogPaths: catalogPaths,
				persist:      !noPersist,
				journal:      !noJournal,
			}
			if cmd.Flags().Changed("seed") {
				opts.seed = &seed
			}
			if cmd.Flags().Changed("auto-resolve") {
				cfg.Simulation.AutoResolve = autoResolve
			}
			if cmd.Flags().Changed("rate") {
				cfg.Simulation.RoundsPerSecond = roundRate
			}
			return runSession(cmd.Context(), cfg, opts, rounds)
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 12, "Number of rounds to play")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario file (overrides config)")
	cmd.Flags().StringSliceVar(&catalogPaths, "catalog", nil, "Catalog files or directories (overrides config)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "Random seed (overrides config)")
	cmd.Flags().BoolVar(&autoResolve, "auto-resolve", false, "Answer waiting tasks automatically")
	cmd.Flags().Float64Var(&roundRate, "rate", 0, "Rounds per second, 0 for unlimited (overrides config)")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "Do not write to the database")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "Do not write an event journal")

	return cmd
}

func runSession(parent context.Context, cfg *config.Config, opts sessionOptions, rounds int) error {
	if rounds <= 0 {
		return fmt.Errorf("--rounds must be positive")
	}
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	limit := rate.Limit(cfg.Simulation.RoundsPerSecond)
	if cfg.Simulation.RoundsPerSecond <= 0 {
		limit = rate.Inf
	}
	limiter := rate.NewLimiter(limit, 1)

	resolver := simulation.NewAutoResolver(s.Sim)
	s.Sim.SetRunning(true)

	fmt.Printf("Session %s\n\n", s.ID)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tDAY\tCREATED\tEXPIRED\tRESOLVED\tSATISFACTION\tBUDGET\tWORKFORCE")

	for i := 0; i < rounds; i++ {
		if err := limiter.Wait(s.Ctx); err != nil {
			break
		}
		report := s.Sim.AdvanceRound(s.Ctx)

		resolved := 0
		if cfg.Simulation.AutoResolve {
			resolved = resolver.ResolveWaiting(s.Ctx)
		}
		for t := 0; t < cfg.Simulation.TicksPerRound; t++ {
			s.Sim.Tick(s.Ctx, cfg.Simulation.TickInterval)
		}

		st := s.Sim.Status()
		fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			report.Round, report.Day, report.Created, report.Expired, resolved,
			st.Satisfaction, st.Budget, st.Workforce)
	}
	w.Flush()

	fmt.Println()
	printStatus(s.Sim.Status())
	if path := s.JournalPath(); path != "" {
		fmt.Printf("\nJournal: %s\n", path)
	}

	if opts.persist {
		if handler, err := config.NewUserConfigHandler(); err == nil {
			if err := handler.SetLastSession(s.ID); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save last session: %v\n", err)
			}
		}
	}
	return nil
}

// printStatus renders the session headline and task/delivery totals
func printStatus(st simulation.Status) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Round:\t%d (day %d)\n", st.Round, st.Day)
	fmt.Fprintf(w, "Weather:\t%s\n", st.Weather)
	fmt.Fprintf(w, "Flooded tiles:\t%d\n", st.FloodedTiles)
	fmt.Fprintf(w, "Satisfaction:\t%d\n", st.Satisfaction)
	fmt.Fprintf(w, "Budget:\t%d\n", st.Budget)
	fmt.Fprintf(w, "Workforce:\t%d\n", st.Workforce)
	fmt.Fprintf(w, "Tasks:\t%d\n", st.Tasks.Total)

	statuses := make([]string, 0, len(st.Tasks.ByStatus))
	for status := range st.Tasks.ByStatus {
		statuses = append(statuses, string(status))
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "  %s\t%d\n", status, st.Tasks.ByStatus[task.Status(status)])
	}

	d := st.Deliveries
	fmt.Fprintf(w, "Deliveries:\tqueued %d, in transit %d, completed %d, failed %d, cancelled %d, units lost %d\n",
		d.Queued, d.InTransit, d.Completed, d.Failed, d.Cancelled, d.LostUnits)
	fmt.Fprintf(w, "Vehicles:\t%d total, %d available, %d busy, %d damaged\n",
		d.TotalVehicles, d.AvailableVehicles, d.BusyVehicles, d.DamagedVehicles)
	w.Flush()
}
