// Copyright (c) 2026 Living Atlas. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package logger builds the process-wide [*slog.Logger].
//
// Production emits JSON on stdout for log shippers. Development uses a
// colourised tint handler on stderr; colour is dropped when stderr is not a
// terminal (CI, docker logs).
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/taibuivan/livingatlas/internal/platform/constants"
)

// Options selects the handler flavour and level.
type Options struct {
	Development bool
	Debug       bool
}

// New returns a logger tagged with the application name.
func New(options Options) *slog.Logger {
	level := slog.LevelInfo
	if options.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if options.Development {
		handler = tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// Discard returns a logger that drops every record. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
