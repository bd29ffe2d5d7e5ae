package zap

import (
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment selects the encoder and the default level.
type Environment string

const (
	EnvironmentProduction  Environment = "production"
	EnvironmentStaging     Environment = "staging"
	EnvironmentDevelopment Environment = "development"
	EnvironmentLocal       Environment = "local"
)

var (
	// ErrMissingLibraryName is returned when Config.OTelLibraryName is empty.
	ErrMissingLibraryName = errors.New("OTelLibraryName is required")
	// ErrInvalidEnvironment is returned for an unknown Config.Environment.
	ErrInvalidEnvironment = errors.New("invalid environment")
)

// Config describes a logger built by New.
type Config struct {
	Environment Environment
	// Level overrides the environment default when set.
	Level string
	// OTelLibraryName is the instrumentation scope of the otelzap bridge.
	OTelLibraryName string
	// Core replaces the stderr encoder core and filters by its own level.
	// Entries are still teed into the OpenTelemetry bridge.
	Core zapcore.Core
}

// New builds a Logger for cfg.
func New(cfg Config) (*Logger, error) {
	switch cfg.Environment {
	case EnvironmentProduction, EnvironmentStaging, EnvironmentDevelopment, EnvironmentLocal:
	default:
		return nil, fmt.Errorf("invalid zap config: %w %q", ErrInvalidEnvironment, cfg.Environment)
	}

	if cfg.OTelLibraryName == "" {
		return nil, fmt.Errorf("invalid zap config: %w", ErrMissingLibraryName)
	}

	level, err := cfg.level()
	if err != nil {
		return nil, err
	}

	bridge := otelzap.NewCore(cfg.OTelLibraryName)

	if cfg.Core != nil {
		return &Logger{logger: zap.New(zapcore.NewTee(cfg.Core, bridge)), atomicLevel: level}, nil
	}

	zc := encoderConfig(cfg.Environment)
	zc.Level = level
	zc.DisableStacktrace = true

	built, err := zc.Build(
		zap.AddCallerSkip(1),
		zap.WrapCore(func(core zapcore.Core) zapcore.Core { return zapcore.NewTee(core, bridge) }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{logger: built, atomicLevel: level}, nil
}

func (cfg Config) level() (zap.AtomicLevel, error) {
	if name := strings.TrimSpace(cfg.Level); name != "" {
		var parsed zapcore.Level
		if err := parsed.Set(name); err != nil {
			return zap.AtomicLevel{}, fmt.Errorf("invalid level %q: %w", cfg.Level, err)
		}

		return zap.NewAtomicLevelAt(parsed), nil
	}

	switch cfg.Environment {
	case EnvironmentDevelopment, EnvironmentLocal:
		return zap.NewAtomicLevelAt(zapcore.DebugLevel), nil
	default:
		return zap.NewAtomicLevelAt(zapcore.InfoLevel), nil
	}
}

func encoderConfig(env Environment) zap.Config {
	switch env {
	case EnvironmentLocal:
		zc := zap.NewDevelopmentConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

		return zc
	case EnvironmentDevelopment:
		zc := zap.NewDevelopmentConfig()
		zc.Encoding = "json"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		return zc
	default:
		zc := zap.NewProductionConfig()
		zc.Encoding = "json"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

		return zc
	}
}
