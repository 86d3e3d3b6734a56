package app

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/harborline/motorsync/pkg/logging"
)

// NewLogger creates the process logger. Level precedence:
//  1. -v/--verbose (debug)
//  2. -q/--quiet (warn)
//  3. MOTORSYNC_LOG_LEVEL / log_level config
//  4. info
func NewLogger(config *Config) zerolog.Logger {
	var logger zerolog.Logger
	if config.LogFormat == "json" {
		logger = logging.New(os.Stderr)
	} else {
		logger = logging.NewConsole()
	}

	logger = logger.Level(determineLogLevel(config))
	logging.SetDefault(logger)
	return logger
}

func determineLogLevel(config *Config) zerolog.Level {
	switch {
	case config.Verbose:
		return zerolog.DebugLevel
	case config.Quiet:
		return zerolog.WarnLevel
	}
	if config.LogLevel != "" {
		if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
			return level
		}
	}
	return zerolog.InfoLevel
}
