// Package logging builds the zap logger shared by both processes.
//
// Go Learning Note — "go.uber.org/zap":
// zap writes structured, leveled logs without reflection on the hot path.
// Fields are typed (zap.String, zap.Int, zap.Error), so a log line like
// "tierlist creation failed" carries uuid=... status=... as separate JSON keys
// that a log pipeline can filter on, instead of a formatted sentence.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"tiernow/internal/config"
)

// New returns a production JSON logger, or a human-readable console logger
// when cfg.Development is set.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	return zc.Build()
}
