// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"fmt"
	"os"
	"syscall"
)

// ExitStatus describes how the backend terminated.
type ExitStatus struct {
	exitCode int
	signal   syscall.Signal
	err      error
}

// Code returns the status the proxy should exit with: the backend's
// exit code, or 128 plus the signal number when a signal killed it (the
// shell convention). A backend that could not be waited for reports 1.
func (status ExitStatus) Code() int {
	switch {
	case status.signal != 0:
		return 128 + int(status.signal)
	case status.err != nil:
		return 1
	default:
		return status.exitCode
	}
}

// Signal returns the signal that terminated the backend, if any.
func (status ExitStatus) Signal() (syscall.Signal, bool) {
	return status.signal, status.signal != 0
}

// Err returns the wait failure, for a backend whose status could not
// be collected.
func (status ExitStatus) Err() error { return status.err }

func (status ExitStatus) String() string {
	switch {
	case status.signal != 0:
		return fmt.Sprintf("killed by signal %d (%s)", int(status.signal), status.signal)
	case status.err != nil:
		return "wait failed: " + status.err.Error()
	default:
		return fmt.Sprintf("exit code %d", status.exitCode)
	}
}

// exitStatusFrom converts the result of exec.Cmd.Wait.
func exitStatusFrom(state *os.ProcessState, waitErr error) ExitStatus {
	if state == nil {
		return ExitStatus{err: waitErr}
	}
	if waitStatus, ok := state.Sys().(syscall.WaitStatus); ok && waitStatus.Signaled() {
		return ExitStatus{signal: waitStatus.Signal()}
	}
	return ExitStatus{exitCode: state.ExitCode()}
}
