// Package logger provides process-wide structured logging via zap: an
// Init/Get/Sync triplet, with components still taking a *zap.Logger
// constructor argument rather than reaching for a package-level global.
package logger

import (
	"strings"

	"go.uber.org/zap"
)

var logger *zap.Logger

// Init builds the process logger. debug forces development-mode debug
// logging regardless of level; otherwise level is parsed case-insensitively
// and any value containing "debug" also enables it, matching the CLI's
// LOG_LEVEL precedence rule.
func Init(level string, debug bool) error {
	var cfg zap.Config
	if debug || strings.Contains(strings.ToLower(level), "debug") {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = built
	return nil
}

// Get returns the process logger, lazily building a production logger if
// Init was never called.
func Get() *zap.Logger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}

// Sync flushes any buffered log entries.
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
