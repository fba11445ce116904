// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] and [RequireClosed] wrap the select-with-timeout
// pattern so tests that wait on goroutines fail with a message instead
// of hanging. They are the only place tests use real wall-clock
// timeouts.
//
// [SyncBuffer] is a bytes.Buffer that relay goroutines can write while
// a test reads it.
//
// Helpers call t.Fatalf on failure; test setup failures are not
// recoverable.
package testutil
