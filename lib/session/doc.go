// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package session fixes the identity of one proxy run and owns the
// files it produces.
//
// A [Session] is created once, before the backend starts. It records a
// single start timestamp, claims a file-name stem in the log directory,
// and creates the log files the logging mode calls for. Every artifact
// of the session shares the stem:
//
//	lsp_stdin_20260301_124500.log
//	lsp_stdout_20260301_124500.jsonl
//	lsp_stderr_20260301_124500.log
//	lsp_session_20260301_124500.cbor
//
// When another session already used the timestamp, the stem gains a
// numeric suffix ("20260301_124500-1", "-2", ...) that every artifact
// of the new session shares. Files are created with O_EXCL, so two
// proxies starting in the same second never write to the same file.
//
// The package also writes the optional end-of-session [Manifest] and
// the optional Prometheus textfile produced from [Metrics].
package session
