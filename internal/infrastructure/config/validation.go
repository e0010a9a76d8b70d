package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks a loaded Config with struct tags and the cross-field rules below
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator that reports fields by their config file keys
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("http_path", validateHTTPPath)
	v.RegisterStructValidation(validateSimulation, SimulationConfig{})
	v.RegisterStructValidation(validateDatabase, DatabaseConfig{})

	return &Validator{
		validate: v,
	}
}

// Validate validates a struct using validation tags
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return v.formatValidationError(err)
	}
	return nil
}

// formatValidationError lists every failed key as section.key
func (v *Validator) formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		key := e.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		rule := e.Tag()
		if e.Param() != "" {
			rule += "=" + e.Param()
		}
		messages = append(messages, fmt.Sprintf("%s: failed %s (value: '%v')", key, rule, e.Value()))
	}
	return fmt.Errorf("validation failed:\n  %s", strings.Join(messages, "\n  "))
}

// ValidateConfig validates the entire configuration
func ValidateConfig(cfg *Config) error {
	v := NewValidator()
	return v.Validate(cfg)
}

// validateHTTPPath accepts empty values (defaults fill them) and absolute URL paths
func validateHTTPPath(fl validator.FieldLevel) bool {
	path := fl.Field().String()
	return path == "" || (strings.HasPrefix(path, "/") && !strings.ContainsAny(path, " ?#"))
}

// validateSimulation enforces the timing relations between simulation settings:
// a tick never spans more than a round, and a delivery time limit outlasts one tick
func validateSimulation(sl validator.StructLevel) {
	sim := sl.Current().Interface().(SimulationConfig)

	if sim.TickInterval > 0 && sim.RoundDuration > 0 && sim.TickInterval > sim.RoundDuration {
		sl.ReportError(sim.TickInterval, "tick_interval", "TickInterval", "ltefield", "round_duration")
	}
	if sim.DeliveryTimeLimit < 0 {
		sl.ReportError(sim.DeliveryTimeLimit, "delivery_time_limit", "DeliveryTimeLimit", "min", "0")
	} else if sim.DeliveryTimeLimit > 0 && sim.DeliveryTimeLimit < sim.TickInterval {
		sl.ReportError(sim.DeliveryTimeLimit, "delivery_time_limit", "DeliveryTimeLimit", "gtefield", "tick_interval")
	}
}

// validateDatabase requires enough to reach postgres without a URL
func validateDatabase(sl validator.StructLevel) {
	db := sl.Current().Interface().(DatabaseConfig)
	if db.Type != "postgres" || db.URL != "" {
		return
	}
	if db.Host == "" {
		sl.ReportError(db.Host, "host", "Host", "required_without", "url")
	}
	if db.Name == "" {
		sl.ReportError(db.Name, "name", "Name", "required_without", "url")
	}
}
