/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the logger described by cfg, writing to stderr. A
// disabled configuration yields a logger that discards everything.
func NewLogger(cfg Logging) zerolog.Logger {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg Logging, out io.Writer) zerolog.Logger {
	if !cfg.Enabled {
		return zerolog.New(io.Discard).Level(zerolog.Disabled)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("component", "itemstore").
		Logger()
}
