// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/lsp-proxy/cmd/lsp-proxy/cli"
	"github.com/bureau-foundation/lsp-proxy/lib/process"
)

func main() {
	// Writing to a closed client pipe must fail with EPIPE so the
	// session can shut down and flush its logs. A notified signal is
	// reset to its default in the backend, unlike an ignored one.
	signal.Notify(make(chan os.Signal, 1), syscall.SIGPIPE)

	err := rootCommand(standardStreams()).Execute(os.Args[1:])
	if err == nil {
		return
	}

	// The backend's own non-zero status needs no message.
	var exitError *cli.ExitError
	if errors.As(err, &exitError) {
		os.Exit(exitError.Code)
	}
	process.Fatal("lsp-proxy", err)
}
