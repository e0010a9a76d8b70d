package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/andrescamacho/reliefops-go/internal/adapters/catalog"
	"github.com/andrescamacho/reliefops-go/internal/adapters/metrics"
	"github.com/andrescamacho/reliefops-go/internal/adapters/stream"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/application/simulation"
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/config"
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/pidfile"
)

// NewServeCommand creates the long-running serve command
func NewServeCommand() *cobra.Command {
	var (
		scenarioPath string
		catalogPaths []string
		force        bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a live session with the event stream",
		Long: `Run a session until interrupted.

The session streams every event to websocket clients and accepts their
commands (select_choice, confirm, ignore, set_numeric_input, set_running,
advance_round, status, list_tasks). Real time advances every
simulation.tick_interval while the session is running. With
simulation.auto_rounds the round also advances every simulation.round_duration.

Optional companions, all from config:
  metrics.enabled  - Prometheus endpoint
  catalog.watch    - reload templates when catalog files change
  journal.enabled  - compressed event journal

Only one serve process may own the PID file; --force stops the current owner.

Examples:
  reliefops serve
  reliefops serve --scenario configs/scenario.yaml --force
  RELIEF_SIMULATION_AUTO_ROUNDS=true reliefops serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, sessionOptions{
				scenarioPath: scenarioPath,
				catalogPaths: catalogPaths,
				persist:      true,
				journal:      true,
			}, force)
		},
	}

	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario file (overrides config)")
	cmd.Flags().StringSliceVar(&catalogPaths, "catalog", nil, "Catalog files or directories (overrides config)")
	cmd.Flags().BoolVar(&force, "force", false, "Stop a running serve process and take over")

	return cmd
}

func serve(parent context.Context, cfg *config.Config, opts sessionOptions, force bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pid := pidfile.New(cfg.Daemon.PIDFile)
	if force {
		if err := pid.TakeOver(cfg.Daemon.ShutdownTimeout); err != nil {
			return err
		}
	} else if err := pid.Acquire(); err != nil {
		var running *pidfile.ErrAlreadyRunning
		if errors.As(err, &running) {
			return fmt.Errorf("%w (use --force to take over)", err)
		}
		return err
	}
	defer pid.Release()

	s, err := openSession(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.persist {
		if handler, err := config.NewUserConfigHandler(); err == nil {
			_ = handler.SetLastSession(s.ID)
		}
	}

	runCtx, cancel := context.WithCancel(s.Ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.Metrics.Enabled {
		server := metrics.NewServer(cfg.Metrics.Addr(), cfg.Metrics.Path)
		g.Go(func() error { return server.Run(gctx) })
	}

	var hub *stream.Hub
	if cfg.Stream.Enabled {
		hub = stream.NewHub(s.ID, cfg.Stream.SendBuffer, cfg.Stream.WriteTimeout)
		s.Sim.Events().Subscribe(hub)
		g.Go(func() error {
			return hub.Serve(gctx, cfg.Stream.Host, cfg.Stream.Port, cfg.Stream.Path)
		})
	}

	var reloaded <-chan int
	if cfg.Catalog.Watch {
		watcher := catalog.NewWatcher(s.Loader, s.Sim.Registry(), s.CatalogFiles, cfg.Catalog.Debounce)
		reloaded = watcher.Reloaded()
		g.Go(func() error { return watcher.Run(gctx) })
	}

	d := &driver{
		sim:      s.Sim,
		cfg:      cfg.Simulation,
		hub:      hub,
		reloaded: reloaded,
		stop:     cancel,
	}
	g.Go(func() error { return d.run(gctx) })

	fmt.Printf("Session %s serving (pid %d)\n", s.ID, os.Getpid())
	err = g.Wait()

	shutdown := s.Sim.Status()
	logging.LoggerFromContext(s.Ctx).Log("INFO", "Session stopped", map[string]interface{}{
		"session":      s.ID,
		"round":        shutdown.Round,
		"satisfaction": shutdown.Satisfaction,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// driver owns the simulation: every tick, round advance and client command
// runs on its goroutine
type driver struct {
	sim      *simulation.Context
	cfg      config.SimulationConfig
	hub      *stream.Hub
	reloaded <-chan int
	stop     context.CancelFunc
}

func (d *driver) run(ctx context.Context) error {
	logger := logging.LoggerFromContext(ctx)

	ticker := time.NewTicker(d.cfg.TickInterval)
	defer ticker.Stop()

	var rounds <-chan time.Time
	if d.cfg.AutoRounds {
		roundTicker := time.NewTicker(d.cfg.RoundDuration)
		defer roundTicker.Stop()
		rounds = roundTicker.C
		d.sim.SetRunning(true)
	}
	limiter := rate.NewLimiter(rate.Limit(d.cfg.RoundsPerSecond), 1)

	var commands <-chan stream.Command
	if d.hub != nil {
		commands = d.hub.Commands()
	}
	resolver := simulation.NewAutoResolver(d.sim)
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			d.sim.Tick(ctx, now.Sub(last))
			last = now

		case <-rounds:
			if !limiter.Allow() {
				logger.Log("WARNING", "Round advance throttled", nil)
				continue
			}
			d.sim.AdvanceRound(ctx)
			if d.cfg.AutoResolve {
				resolver.ResolveWaiting(ctx)
			}
			if d.done() {
				return nil
			}

		case cmd := <-commands:
			if _, ok := cmd.Request.(*simulation.AdvanceRoundCommand); ok && !limiter.Allow() {
				d.hub.Reply(cmd.ClientID, cmd.Ref, nil, fmt.Errorf("round advance rate exceeded"))
				continue
			}
			d.hub.Execute(ctx, d.sim.Mediator(), cmd)
			d.sim.Events().Drain(ctx)
			if d.done() {
				return nil
			}

		case n := <-d.reloaded:
			logger.Log("INFO", "Templates active after reload", map[string]interface{}{"templates": n})
		}
	}
}

// done stops the session once max_rounds is reached
func (d *driver) done() bool {
	if d.cfg.MaxRounds > 0 && d.sim.CurrentRound() >= d.cfg.MaxRounds {
		d.stop()
		return true
	}
	return false
}
