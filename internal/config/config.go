package config

import (
	"time"

	"github.com/caarlos0/env/v10"
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
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Dream struct {
		// Defaults applied when a request leaves a parameter unset.
		TileSize      int     `env:"DREAM_TILE_SIZE" envDefault:"400"`
		Iterations    int     `env:"DREAM_ITERATIONS" envDefault:"10"`
		StepSize      float64 `env:"DREAM_STEP_SIZE" envDefault:"3.0"`
		Octaves       int     `env:"DREAM_OCTAVES" envDefault:"4"`
		Rescale       float64 `env:"DREAM_RESCALE" envDefault:"0.7"`
		Blend         float64 `env:"DREAM_BLEND" envDefault:"0.2"`
		PreserveColor bool    `env:"DREAM_PRESERVE_COLOR" envDefault:"false"`

		// MaxImageDim caps the longest side of uploaded images; larger
		// uploads are scaled down on ingest. Zero disables the cap.
		MaxImageDim int `env:"DREAM_MAX_IMAGE_DIM" envDefault:"2048"`

		// MaxJobs limits concurrently running dream jobs.
		MaxJobs int `env:"DREAM_MAX_JOBS" envDefault:"4"`

		// Seed fixes the tile jitter for reproducible runs. Zero seeds
		// from the clock.
		Seed int64 `env:"DREAM_SEED" envDefault:"0"`
	}
}

func Load() (*Config, error) {
	cfg := &Config{}

	// Parse environment variables
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Set default logging level based on environment
	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
