// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"log/slog"
	"os"
	"syscall"
)

// ForwardedSignals are relayed from the proxy to the backend. The
// editor addresses the process it spawned, which is the proxy; the
// backend would otherwise never see them.
var ForwardedSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}

// signalTarget is the part of supervisor.Child the forwarder uses.
type signalTarget interface {
	Signal(os.Signal) error
	Done() <-chan struct{}
}

// forwardSignals relays signals to the backend until it exits. A
// second SIGINT or SIGTERM escalates to SIGKILL for a backend that
// ignores polite requests.
func forwardSignals(signals <-chan os.Signal, backend signalTarget, logger *slog.Logger) {
	interrupts := 0
	for {
		select {
		case <-backend.Done():
			return
		case received, ok := <-signals:
			if !ok {
				return
			}
			forwarded := received
			if received == syscall.SIGINT || received == syscall.SIGTERM {
				interrupts++
				if interrupts > 1 {
					forwarded = syscall.SIGKILL
				}
			}
			logger.Info("forwarding signal to backend", "received", received.String(), "sent", forwarded.String())
			if err := backend.Signal(forwarded); err != nil {
				logger.Warn("forwarding signal failed", "signal", forwarded.String(), "error", err)
			}
		}
	}
}
