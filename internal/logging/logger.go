package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the service logger. Production environments get the JSON
// production config; anything else gets the development config, still with
// ISO-8601 timestamps so log shippers parse both the same way.
func New(appEnv string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if appEnv == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Encoding = "json"

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// NewNop returns a logger that discards everything. Used by tests and as a
// default when a component is constructed without one.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
