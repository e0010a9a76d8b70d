package config

import (
	"net"
	"strconv"
)

// MetricsConfig controls the Prometheus collectors and the /metrics endpoint.
// Collectors only register when Enabled; the endpoint is served by serve alone.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port" validate:"omitempty,min=1024,max=65535"`
	Path    string `mapstructure:"path" validate:"http_path"`
}

// Addr is the listen address of the metrics endpoint
func (m MetricsConfig) Addr() string {
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// URL is where a scraper finds the metrics
func (m MetricsConfig) URL() string {
	return "http://" + m.Addr() + m.Path
}
