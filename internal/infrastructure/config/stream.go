package config

import "time"

// StreamConfig holds the websocket event stream configuration
type StreamConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`
	Path    string `mapstructure:"path" validate:"http_path"`

	// Events buffered per client before the client is dropped
	SendBuffer int `mapstructure:"send_buffer" validate:"min=1"`

	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}
