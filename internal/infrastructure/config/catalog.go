package config

import "time"

// CatalogConfig locates task template catalogs and the scenario file
type CatalogConfig struct {
	// Template catalog files or directories (*.yaml, *.yml)
	Paths []string `mapstructure:"paths" validate:"required,min=1"`

	// Scenario (starting world) file
	ScenarioPath string `mapstructure:"scenario_path" validate:"required"`

	// Reload templates when catalog files change (serve only)
	Watch bool `mapstructure:"watch"`

	// Quiet period before a burst of file events triggers a reload
	Debounce time.Duration `mapstructure:"debounce"`
}
