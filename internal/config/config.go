package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/hashicorp/go-multierror"
)

type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
		IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	// Solver holds the defaults applied to requests that leave a field unset.
	Solver struct {
		MaxIterations  int     `env:"SOLVER_MAX_ITERATIONS" envDefault:"5000"`
		IterationLimit int     `env:"SOLVER_ITERATION_LIMIT" envDefault:"100000"`
		Tolerance      float64 `env:"SOLVER_TOLERANCE" envDefault:"1e-10"`
		Attenuation    float64 `env:"SOLVER_ATTENUATION" envDefault:"1.5"`
		Spread         float64 `env:"SOLVER_SPREAD" envDefault:"1e-6"`
		SecondSpread   float64 `env:"SOLVER_SECOND_SPREAD" envDefault:"1e-3"`
	}
	Metrics struct {
		Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Logging.Level == "" {
		if cfg.Environment == "development" {
			cfg.Logging.Level = "debug"
		} else {
			cfg.Logging.Level = "info"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("HTTP_PORT must be in 1..65535, got %d", c.HTTP.Port))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "console":
	default:
		result = multierror.Append(result, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format))
	}
	if c.Solver.MaxIterations <= 0 {
		result = multierror.Append(result, fmt.Errorf("SOLVER_MAX_ITERATIONS must be positive, got %d", c.Solver.MaxIterations))
	}
	if c.Solver.IterationLimit < c.Solver.MaxIterations {
		result = multierror.Append(result, fmt.Errorf("SOLVER_ITERATION_LIMIT (%d) must not be below SOLVER_MAX_ITERATIONS (%d)",
			c.Solver.IterationLimit, c.Solver.MaxIterations))
	}
	for _, p := range []struct {
		name  string
		value float64
	}{
		{"SOLVER_TOLERANCE", c.Solver.Tolerance},
		{"SOLVER_ATTENUATION", c.Solver.Attenuation},
		{"SOLVER_SPREAD", c.Solver.Spread},
		{"SOLVER_SECOND_SPREAD", c.Solver.SecondSpread},
	} {
		if !(p.value > 0) || math.IsInf(p.value, 0) {
			result = multierror.Append(result, fmt.Errorf("%s must be positive and finite, got %v", p.name, p.value))
		}
	}

	return result.ErrorOrNil()
}
