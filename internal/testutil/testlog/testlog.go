package testlog

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/danmuck/nostrkit/internal/logging"
)

// Start returns a debug-level logger that writes through t.Log.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	cfg := logging.DefaultConfig(logging.ProfileTest)
	logging.ApplyEnvOverrides(&cfg)
	logger := logging.NewWithConfig(cfg, zerolog.NewTestWriter(t))
	logger.Info().Msgf("test=%s", t.Name())
	return logger
}
