// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mrlokans/jelu-importer/internal/config"
)

// Setup applies level and format from cfg to the standard logger and returns it.
func Setup(cfg config.Log, out io.Writer) (*logrus.Logger, error) {
	logger := logrus.StandardLogger()
	if err := Configure(logger, cfg, out); err != nil {
		return nil, err
	}
	return logger, nil
}

// Configure applies cfg to logger. An empty level means info.
func Configure(logger *logrus.Logger, cfg config.Log, out io.Writer) error {
	level := logrus.InfoLevel
	if cfg.Level != "" {
		parsed, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	if out != nil {
		logger.SetOutput(out)
	}
	return nil
}
