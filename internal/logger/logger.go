// Package logger configures the process-wide zap logger. Decode packages
// never log; only the CLI layer reports progress and failures here.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global sugared logger instance.
var Logger *zap.SugaredLogger

// Init builds the global logger. format is "json" for structured output
// or "human" for colored development output.
func Init(debug bool, format string) error {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stderr"}

	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	built, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	Logger = built.Sugar()
	return nil
}

// Sync flushes buffered entries; safe to call on a nil logger.
func Sync() {
	if Logger != nil {
		_ = Logger.Sync()
	}
}
