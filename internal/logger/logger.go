// Package logger builds the service's zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a console logger at debug level in development and a JSON
// logger at info level otherwise. A non-empty level overrides the default.
func New(development bool, level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
		cfg.Level = lvl
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log, nil
}
