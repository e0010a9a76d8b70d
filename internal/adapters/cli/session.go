package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andrescamacho/reliefops-go/internal/adapters/catalog"
	"github.com/andrescamacho/reliefops-go/internal/adapters/journal"
	"github.com/andrescamacho/reliefops-go/internal/adapters/metrics"
	"github.com/andrescamacho/reliefops-go/internal/adapters/persistence"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/application/simulation"
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/config"
	"github.com/andrescamacho/reliefops-go/internal/infrastructure/database"
)

// sessionOptions overrides config values for one session
type sessionOptions struct {
	scenarioPath string
	catalogPaths []string
	seed         *int64
	persist      bool
	journal      bool
}

// session is a wired simulation with its adapters
type session struct {
	ID           string
	Sim          *simulation.Context
	Loader       *catalog.Loader
	CatalogFiles []string
	Ctx          context.Context

	db      *gorm.DB
	journal *journal.Writer
	logOut  io.Closer
}

// openSession connects the database, loads the catalog and scenario, builds the
// simulation context and subscribes the configured observers to its event queue
func openSession(ctx context.Context, cfg *config.Config, opts sessionOptions) (*session, error) {
	s := &session{ID: uuid.New().String()}

	console, closer, err := consoleLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	s.logOut = closer
	var logger logging.Logger = console

	if opts.persist {
		db, err := database.NewConnection(&cfg.Database)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		if err := database.AutoMigrate(db); err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		if cfg.Logging.Persist {
			logRepo := persistence.NewGormSimulationLogRepository(db, nil, cfg.Logging.DedupWindow)
			logger = logging.Multi{console, persistence.NewSessionLogger(logRepo, s.ID, cfg.Logging.Level)}
		}
	}
	s.Ctx = logging.WithLogger(ctx, logger)

	scenarioPath := opts.scenarioPath
	if scenarioPath == "" {
		scenarioPath = defaultScenario(cfg)
	}
	catalogPaths := cfg.Catalog.Paths
	if len(opts.catalogPaths) > 0 {
		catalogPaths = opts.catalogPaths
	}

	s.Loader, err = catalog.NewLoader()
	if err != nil {
		s.Close()
		return nil, err
	}
	s.CatalogFiles, err = catalog.ExpandPaths(catalogPaths)
	if err != nil {
		s.Close()
		return nil, err
	}
	templates, err := s.Loader.LoadFiles(s.CatalogFiles...)
	if err != nil {
		s.Close()
		return nil, err
	}
	scenario, err := catalog.LoadScenario(scenarioPath)
	if err != nil {
		s.Close()
		return nil, err
	}

	seed := cfg.Simulation.Seed
	if opts.seed != nil {
		seed = *opts.seed
	}
	simOpts := simulation.Options{
		RoundsPerDay:           cfg.Simulation.RoundsPerDay,
		Seed:                   seed,
		DeliveryQueueLimit:     cfg.Simulation.DeliveryQueueLimit,
		DeliveryTimeLimit:      cfg.Simulation.DeliveryTimeLimit,
		DeliveryFailurePenalty: cfg.Simulation.DeliveryFailurePenalty,
		PreferShelters:         cfg.Simulation.PreferShelters,
	}
	if s.db != nil {
		simOpts.Entries = persistence.NewGormEntryRepository(s.db, s.ID)
	}

	s.Sim, err = simulation.NewContext(s.Ctx, scenario, templates, simOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start simulation: %w", err)
	}

	if s.db != nil {
		s.Sim.Events().Subscribe(persistence.NewArchiver(
			persistence.NewGormTaskArchiveRepository(s.db),
			persistence.NewGormDeliveryHistoryRepository(s.db),
			s.ID,
		))
	}
	if opts.journal && cfg.Journal.Enabled {
		s.journal, err = journal.Open(cfg.Journal.Dir, s.ID, cfg.Journal.Level)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Sim.Events().Subscribe(s.journal)
	}
	if cfg.Metrics.Enabled {
		if err := s.enableMetrics(); err != nil {
			s.Close()
			return nil, err
		}
	}

	logger.Log("INFO", "Session opened", map[string]interface{}{
		"session":  s.ID,
		"scenario": scenario.Name,
		"catalogs": len(s.CatalogFiles),
		"seed":     seed,
	})
	return s, nil
}

func (s *session) enableMetrics() error {
	metrics.InitRegistry()

	requests := metrics.NewRequestMetricsCollector()
	if err := requests.Register(); err != nil {
		return fmt.Errorf("failed to register request metrics: %w", err)
	}
	s.Sim.Mediator().RegisterMiddleware(metrics.PrometheusMiddleware(requests))

	sim := metrics.NewSimulationMetricsCollector(s.Sim.Status)
	if err := sim.Register(); err != nil {
		return fmt.Errorf("failed to register simulation metrics: %w", err)
	}
	s.Sim.Events().Subscribe(sim)
	return nil
}

// JournalPath returns the journal file of the session, or "" when journaling is off
func (s *session) JournalPath() string {
	if s.journal == nil {
		return ""
	}
	return s.journal.Path()
}

// Close flushes the journal and releases the database and log file
func (s *session) Close() {
	if s.journal != nil {
		if err := s.journal.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close journal: %v\n", err)
		}
	}
	if s.db != nil {
		_ = database.Close(s.db)
	}
	if s.logOut != nil {
		_ = s.logOut.Close()
	}
}

// defaultScenario prefers the scenario remembered in the user config
func defaultScenario(cfg *config.Config) string {
	if handler, err := config.NewUserConfigHandler(); err == nil {
		if userCfg, err := handler.Load(); err == nil && userCfg.DefaultScenario != "" {
			return userCfg.DefaultScenario
		}
	}
	return cfg.Catalog.ScenarioPath
}

// consoleLogger builds the console logger for the configured output.
// The returned closer is nil unless a log file was opened.
func consoleLogger(cfg config.LoggingConfig) (*logging.ConsoleLogger, io.Closer, error) {
	switch cfg.Output {
	case "stdout":
		return logging.NewConsoleLogger(os.Stdout, cfg.Format, cfg.Level), nil, nil
	case "file":
		f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		return logging.NewConsoleLogger(f, cfg.Format, cfg.Level), f, nil
	default:
		return logging.NewConsoleLogger(os.Stderr, cfg.Format, cfg.Level), nil, nil
	}
}
