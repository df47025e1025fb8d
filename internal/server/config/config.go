// Package config handles configuration for the upload sink server,
// including defaults, a JSON/env overlay, command-line flags and validation.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the sink server.
//
// Fields:
//   - HTTPAddr: bind address of the echo HTTP receiver.
//   - GRPCAddr: bind address of the gRPC receiver.
//   - StorageDir: directory uploads are written to.
//   - SecretKey: HMAC secret upload tokens are verified with (HS256).
//   - BodyLimit: maximum request body accepted over HTTP, e.g. "32M".
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - LogLevel / LogFormat: slog level and handler.
type Config struct {
	HTTPAddr        string        `validate:"required"`
	GRPCAddr        string        `validate:"required"`
	StorageDir      string        `validate:"required"`
	SecretKey       string        `validate:"required,min=8"`
	BodyLimit       string        `validate:"required"`
	ShutdownTimeout time.Duration `validate:"gt=0"`
	LogLevel        string        `validate:"oneof=debug info warn error"`
	LogFormat       string        `validate:"oneof=text json"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret key must be overridden outside of development.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.GRPCAddr = ":50051"
	c.StorageDir = "uploads"
	c.SecretKey = "secretKey"
	c.BodyLimit = "32M"
	c.ShutdownTimeout = 5 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and the environment, and finally from
// command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
