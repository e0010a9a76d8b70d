package config

import (
	"fmt"
	"time"
)

// DatabaseConfig selects where the session archive lives: a sqlite file (the
// default, one per working directory) or a shared postgres database
type DatabaseConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=postgres sqlite"`

	// sqlite file; empty or ":memory:" keeps the archive in memory
	Path string `mapstructure:"path"`

	// postgres: URL wins over the discrete fields
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode" validate:"omitempty,oneof=disable require verify-ca verify-full"`

	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig bounds postgres connections; sqlite ignores it
type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=1,ltefield=MaxOpen"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

// InMemory reports whether the archive is discarded with the process
func (d DatabaseConfig) InMemory() bool {
	return d.Type == "sqlite" && (d.Path == "" || d.Path == ":memory:")
}

// DSN returns the driver connection string for the configured type
func (d DatabaseConfig) DSN() string {
	switch d.Type {
	case "sqlite":
		if d.InMemory() {
			return ":memory:"
		}
		return d.Path
	case "postgres":
		if d.URL != "" {
			return d.URL
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
	}
	return ""
}

// Describe names the archive location without credentials, for CLI output
func (d DatabaseConfig) Describe() string {
	if d.Type == "sqlite" {
		if d.InMemory() {
			return "sqlite (in memory)"
		}
		return "sqlite " + d.Path
	}
	if d.URL != "" {
		return "postgres (url)"
	}
	return fmt.Sprintf("postgres %s:%d/%s", d.Host, d.Port, d.Name)
}
