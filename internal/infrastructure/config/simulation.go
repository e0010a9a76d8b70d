package config

import "time"

// SimulationConfig holds round pacing and task core tuning
type SimulationConfig struct {
	// Wall-clock length of one round when rounds advance automatically
	RoundDuration time.Duration `mapstructure:"round_duration" validate:"required"`

	// Advance rounds on a timer instead of on request
	AutoRounds bool `mapstructure:"auto_rounds"`

	// Upper bound on round advances per second (token bucket)
	RoundsPerSecond float64 `mapstructure:"rounds_per_second" validate:"gt=0"`

	// Stop after this many rounds (0 = unlimited, serve only)
	MaxRounds int `mapstructure:"max_rounds" validate:"min=0"`

	// Real-time step fed to Tick
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required"`

	// Ticks simulated between two rounds in headless runs
	TicksPerRound int `mapstructure:"ticks_per_round" validate:"min=1"`

	RoundsPerDay int   `mapstructure:"rounds_per_day" validate:"min=1"`
	Seed         int64 `mapstructure:"seed"`

	DeliveryQueueLimit     int           `mapstructure:"delivery_queue_limit" validate:"min=1"`
	DeliveryFailurePenalty *int          `mapstructure:"delivery_failure_penalty" validate:"omitempty,min=0,max=100"`
	DeliveryTimeLimit      time.Duration `mapstructure:"delivery_time_limit"`
	PreferShelters         bool          `mapstructure:"prefer_shelters"`

	// Answer waiting tasks automatically (headless play)
	AutoResolve bool `mapstructure:"auto_resolve"`
}
