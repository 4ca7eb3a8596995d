package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Encoding string `envconfig:"ENCODING" default:"console"`
	Level    string `envconfig:"LEVEL" default:"info"`
}

// New builds a zap logger tagged with the application name. JSON goes to stdout for
// log shippers, console output goes to stderr.
func New(app string, cfg Config) (*zap.Logger, error) {
	if cfg.Encoding == "" {
		cfg.Encoding = "console"
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, fmt.Errorf("invalid logger config: level %q is not supported", cfg.Level)
	}

	zc := zap.NewProductionConfig()
	switch cfg.Encoding {
	case "json":
		zc.OutputPaths = []string{"stdout"}
	case "console":
		zc.Encoding = "console"
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zc.OutputPaths = []string{"stderr"}
	default:
		return nil, fmt.Errorf("invalid logger config: encoding %q is not supported", cfg.Encoding)
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Sampling = nil

	log, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log.With(zap.String("app", app)), nil
}

// Must is New for main packages, where a broken logger config is not recoverable.
func Must(app string, cfg Config) *zap.Logger {
	log, err := New(app, cfg)
	if err != nil {
		panic(err)
	}
	return log
}
