package config

import "time"

// SetDefaults sets default values for all configuration fields
func SetDefaults(cfg *Config) {
	// Database defaults
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	if cfg.Database.Path == "" && cfg.Database.Type == "sqlite" {
		cfg.Database.Path = "reliefops.db"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "reliefops"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "reliefops"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Pool.MaxOpen == 0 {
		cfg.Database.Pool.MaxOpen = 25
	}
	if cfg.Database.Pool.MaxIdle == 0 {
		cfg.Database.Pool.MaxIdle = 5
	}
	if cfg.Database.Pool.MaxLifetime == 0 {
		cfg.Database.Pool.MaxLifetime = 5 * time.Minute
	}

	// Simulation defaults
	if cfg.Simulation.RoundDuration == 0 {
		cfg.Simulation.RoundDuration = 30 * time.Second
	}
	if cfg.Simulation.RoundsPerSecond == 0 {
		cfg.Simulation.RoundsPerSecond = 2
	}
	if cfg.Simulation.TickInterval == 0 {
		cfg.Simulation.TickInterval = time.Second
	}
	if cfg.Simulation.TicksPerRound == 0 {
		cfg.Simulation.TicksPerRound = 30
	}
	if cfg.Simulation.RoundsPerDay == 0 {
		cfg.Simulation.RoundsPerDay = 4
	}
	if cfg.Simulation.DeliveryQueueLimit == 0 {
		cfg.Simulation.DeliveryQueueLimit = 50
	}
	if cfg.Simulation.DeliveryFailurePenalty == nil {
		penalty := 10
		cfg.Simulation.DeliveryFailurePenalty = &penalty
	}

	// Catalog defaults
	if len(cfg.Catalog.Paths) == 0 {
		cfg.Catalog.Paths = []string{"configs/catalog.yaml"}
	}
	if cfg.Catalog.ScenarioPath == "" {
		cfg.Catalog.ScenarioPath = "configs/scenario.yaml"
	}
	if cfg.Catalog.Debounce == 0 {
		cfg.Catalog.Debounce = 500 * time.Millisecond
	}

	// Metrics defaults
	if cfg.Metrics.Host == "" {
		cfg.Metrics.Host = "localhost"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	// Stream defaults
	if cfg.Stream.Host == "" {
		cfg.Stream.Host = "localhost"
	}
	if cfg.Stream.Port == 0 {
		cfg.Stream.Port = 8088
	}
	if cfg.Stream.Path == "" {
		cfg.Stream.Path = "/events"
	}
	if cfg.Stream.SendBuffer == 0 {
		cfg.Stream.SendBuffer = 256
	}
	if cfg.Stream.WriteTimeout == 0 {
		cfg.Stream.WriteTimeout = 10 * time.Second
	}

	// Journal defaults
	if cfg.Journal.Dir == "" {
		cfg.Journal.Dir = "journal"
	}
	if cfg.Journal.Level == "" {
		cfg.Journal.Level = "default"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	if cfg.Logging.DedupWindow == 0 {
		cfg.Logging.DedupWindow = 60 * time.Second
	}

	// Daemon defaults
	if cfg.Daemon.PIDFile == "" {
		cfg.Daemon.PIDFile = "/tmp/reliefops.pid"
	}
	if cfg.Daemon.ShutdownTimeout == 0 {
		cfg.Daemon.ShutdownTimeout = 10 * time.Second
	}
}
