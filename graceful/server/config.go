package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/LerianStudio/lib-http-shutdown/graceful"
	"github.com/LerianStudio/lib-http-shutdown/graceful/log"
	"github.com/LerianStudio/lib-http-shutdown/graceful/runtime"
	"github.com/LerianStudio/lib-http-shutdown/graceful/zap"
)

const (
	defaultHTTPAddress     = ":8080"
	defaultShutdownTimeout = 30 * time.Second
	defaultLogLevel        = "info"
	defaultEnvName         = string(zap.EnvironmentProduction)
	otelLibraryName        = "github.com/LerianStudio/lib-http-shutdown"
)

// ErrInvalidConfig indicates a configuration value that cannot be used.
var ErrInvalidConfig = errors.New("invalid server configuration")

// Config holds the environment driven settings of a ServerManager process.
type Config struct {
	HTTPAddress     string        `env:"HTTP_ADDRESS"`
	GRPCAddress     string        `env:"GRPC_ADDRESS"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT"`
	LogLevel        string        `env:"LOG_LEVEL"`
	EnvName         string        `env:"ENV_NAME"`
}

// LoadConfig reads Config from the environment on top of the defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		HTTPAddress:     defaultHTTPAddress,
		ShutdownTimeout: defaultShutdownTimeout,
		LogLevel:        defaultLogLevel,
		EnvName:         defaultEnvName,
	}

	if err := graceful.SetConfigFromEnvVars(cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the timeout is positive and the log level is known.
func (c *Config) Validate() error {
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: SHUTDOWN_TIMEOUT must be positive, got %s", ErrInvalidConfig, c.ShutdownTimeout)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL: %w", ErrInvalidConfig, err)
	}

	return nil
}

// NewLogger builds the zap logger described by the configuration.
func (c *Config) NewLogger() (*zap.Logger, error) {
	return zap.New(zap.Config{
		Environment:     zap.Environment(c.EnvName),
		Level:           c.LogLevel,
		OTelLibraryName: otelLibraryName,
	})
}

// NewServerManager returns a ServerManager using the configured timeout.
// A production EnvName also turns on runtime production mode.
func (c *Config) NewServerManager(logger log.Logger) *ServerManager {
	runtime.SetProductionMode(c.EnvName == string(zap.EnvironmentProduction))

	return NewServerManager(logger).WithShutdownTimeout(c.ShutdownTimeout)
}
