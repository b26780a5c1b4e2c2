// Package logging configures the process-wide logrus logger. Diagnostics go
// to stderr so stdout stays reserved for reports.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	errInvalidLogLevel  = errors.New("invalid log level")
	errInvalidLogFormat = errors.New("invalid log format")
)

// Options mirrors the logging related CLI flags.
type Options struct {
	Level   string // panic, fatal, error, warn, info, debug, trace
	Format  string // auto, json, logfmt, pretty
	NoColor bool

	// Verbose raises the level to at least debug.
	Verbose bool

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Setup applies opts to logger, usually logrus.StandardLogger().
func Setup(logger *logrus.Logger, opts Options) error {
	if logger == nil {
		return errors.New("logger is nil")
	}

	formatter, err := newFormatter(opts.Format, opts.NoColor)
	if err != nil {
		return err
	}

	raw := opts.Level
	if strings.TrimSpace(raw) == "" {
		raw = "info"
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}
	if opts.Verbose && level < logrus.DebugLevel {
		level = logrus.DebugLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	logger.SetFormatter(formatter)
	logger.SetLevel(level)
	logger.SetOutput(out)
	return nil
}

func newFormatter(format string, noColor bool) (logrus.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto":
		return &logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	case "logfmt":
		return &logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		}, nil
	case "pretty":
		return &logrus.TextFormatter{
			ForceColors:   !noColor,
			FullTimestamp: false,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", errInvalidLogFormat, format)
	}
}
