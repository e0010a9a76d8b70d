package config

// JournalConfig holds the compressed event journal configuration
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Directory receiving one <session>.jsonl.zst file per session
	Dir string `mapstructure:"dir"`

	// zstd level: fastest, default, better, best
	Level string `mapstructure:"level" validate:"omitempty,oneof=fastest default better best"`
}
