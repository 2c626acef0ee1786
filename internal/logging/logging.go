// Package logging builds the root zerolog logger from settings.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/healthmonitor/healthmonitor/internal/config"
)

// Logger names attached to component loggers.
const (
	NameServer        = "server"
	NameHealthMonitor = "healthmonitor"
)

// Options configures New.
type Options struct {
	Config  config.LoggingConfig
	Service string
	Version string

	// Stdout overrides os.Stdout, mostly for tests.
	Stdout io.Writer
}

// New creates the root logger and returns a closer for the optional log file.
// The closer is never nil.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Config.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}

	var out io.Writer = opts.Stdout
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Config.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	var closer io.Closer = nopCloser{}
	if opts.Config.File != "" {
		f, err := os.OpenFile(opts.Config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // path comes from operator config
		if err != nil {
			return zerolog.Nop(), nopCloser{}, fmt.Errorf("open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	ctx := zerolog.New(out).Level(level).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Version != "" {
		ctx = ctx.Str("version", opts.Version)
	}

	return ctx.Logger(), closer, nil
}

// Named returns a child logger tagged with a component name.
func Named(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("logger", name).Logger()
}

// ParseLevel accepts zerolog level names plus the upper-case WARNING and
// CRITICAL spellings used by older deploy manifests. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "critical":
		return zerolog.FatalLevel, nil
	}

	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return l, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
