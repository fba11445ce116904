// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package proxy runs one intercepting session between an editor and a
// language server.
//
// [Run] creates the session's log files, starts the backend through
// lib/supervisor, and wires three relays: the client's stdin to the
// backend's stdin, the backend's stdout to the client's stdout, and
// the backend's stderr to the proxy's own stderr. Each relay tees its
// traffic into the session logs selected by the logging mode. Traffic
// is forwarded unchanged and without waiting for complete messages.
//
// Backend exit and relay completion are tracked separately. When the
// backend exits the client-input relay is torn down at once, because
// a client that keeps its end open would otherwise block shutdown
// forever. The backend's output relays get [Config.DrainTimeout] to
// deliver what the backend wrote before exiting. Only then are the
// logs flushed and the result returned.
//
// The proxy exits with the backend's status. A backend that cannot be
// started yields [SpawnFailureExitCode] and leaves no stream logs; a
// log directory that cannot be used yields [SetupFailureExitCode]
// before the backend is started.
package proxy
