// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// LoggerOptions configures the proxy's own diagnostics.
type LoggerOptions struct {
	// Verbose lowers the level to debug.
	Verbose bool

	// OutputPath appends JSON records to a file instead of writing to
	// Stderr.
	OutputPath string

	// Stderr is the default destination. Nil selects os.Stderr.
	Stderr io.Writer
}

// NewLogger builds the diagnostic logger. Records go to stderr as text
// when stderr is a terminal and as JSON otherwise; editors capture a
// language server's stderr into their own logs, where JSON is easier to
// filter. The returned close function releases the output file, if
// any.
func NewLogger(options LoggerOptions) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if options.Verbose {
		level = slog.LevelDebug
	}
	handlerOptions := &slog.HandlerOptions{Level: level}

	if options.OutputPath != "" {
		file, err := os.OpenFile(options.OutputPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log output: %w", err)
		}
		return slog.New(slog.NewJSONHandler(file, handlerOptions)), file.Close, nil
	}

	stderr := options.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	var handler slog.Handler
	if IsTerminal(stderr) {
		handler = slog.NewTextHandler(stderr, handlerOptions)
	} else {
		handler = slog.NewJSONHandler(stderr, handlerOptions)
	}
	return slog.New(handler), func() error { return nil }, nil
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}
