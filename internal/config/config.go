package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the process-wide settings. It is loaded exactly once at
// startup and handed to constructors; nothing reads the environment after
// initialization.
type Config struct {
	Addr        string `env:"SCHOOLHUB_ADDR" envDefault:":8080"`
	DatabaseURL string `env:"SCHOOLHUB_PG_DSN"`

	// AuthSecret signs bearer tokens. Rotation is not supported; changing
	// the value invalidates every outstanding token.
	AuthSecret    string        `env:"SCHOOLHUB_AUTH_SECRET,required,notEmpty"`
	TokenValidity time.Duration `env:"SCHOOLHUB_TOKEN_VALIDITY" envDefault:"360h"`

	RateBurst     int   `env:"SCHOOLHUB_RATE_BURST" envDefault:"50"`
	RatePerSecond int   `env:"SCHOOLHUB_RATE_PER_SECOND" envDefault:"25"`
	MaxBodyBytes  int64 `env:"SCHOOLHUB_MAX_BODY_BYTES" envDefault:"1048576"`

	ShutdownTimeout time.Duration `env:"SCHOOLHUB_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	// The .env file is a development convenience; absence is not an error.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
