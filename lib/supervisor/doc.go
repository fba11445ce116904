// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package supervisor starts and reaps the backend process.
//
// [Start] launches the backend with three independent pipes created by
// the supervisor itself, not by exec.Cmd. The proxy keeps the write
// end of the backend's stdin and the read ends of its stdout and
// stderr; reaping the process never closes a read end a relay is still
// draining, so output written just before exit is not lost.
//
// A single reaper goroutine owns exec.Cmd.Wait. [Child.Done] is closed
// when the backend has exited and [Child.Wait] returns its
// [ExitStatus] to any number of callers.
package supervisor
