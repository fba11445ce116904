// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// DefaultWaitDelay is how long a backend gets after its context is
// cancelled (and it was sent SIGTERM) before it is killed.
const DefaultWaitDelay = 5 * time.Second

// Config describes the backend to launch.
type Config struct {
	// Path is the backend executable. A bare name is resolved through
	// PATH.
	Path string

	// Args are passed to the backend untouched.
	Args []string

	// Env is the backend environment. Nil inherits the proxy's.
	Env []string

	// Directory is the backend working directory. Empty inherits the
	// proxy's.
	Directory string

	// WaitDelay overrides DefaultWaitDelay.
	WaitDelay time.Duration

	Logger *slog.Logger
}

// SpawnError reports a backend that could not be started at all.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting backend %q: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Child is a running backend process.
type Child struct {
	// Stdin is the write end of the backend's standard input. Closing
	// it delivers end of stream to the backend.
	Stdin *os.File

	// Stdout and Stderr are the read ends of the backend's output
	// streams. They reach end of stream once the backend (and any
	// process that inherited them) has exited.
	Stdout *os.File
	Stderr *os.File

	command *exec.Cmd
	done    chan struct{}
	status  ExitStatus
}

// Start launches the backend. Cancelling ctx sends the backend SIGTERM
// and, after the wait delay, SIGKILL. Any failure to launch is returned
// as a *SpawnError and leaves no descriptors open.
func Start(ctx context.Context, config Config) (*Child, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if config.Path == "" {
		return nil, &SpawnError{Path: config.Path, Err: errors.New("no backend executable configured")}
	}

	pipes, err := newPipeSet()
	if err != nil {
		return nil, &SpawnError{Path: config.Path, Err: err}
	}

	command := exec.CommandContext(ctx, config.Path, config.Args...)
	command.Stdin = pipes.stdinRead
	command.Stdout = pipes.stdoutWrite
	command.Stderr = pipes.stderrWrite
	command.Env = config.Env
	command.Dir = config.Directory
	command.Cancel = func() error {
		return command.Process.Signal(syscall.SIGTERM)
	}
	command.WaitDelay = config.WaitDelay
	if command.WaitDelay <= 0 {
		command.WaitDelay = DefaultWaitDelay
	}

	if err := command.Start(); err != nil {
		pipes.closeAll()
		return nil, &SpawnError{Path: config.Path, Err: err}
	}
	// The backend holds its own copies; the proxy must not keep the
	// backend's ends open or it would never see end of stream.
	pipes.closeChildEnds()

	child := &Child{
		Stdin:   pipes.stdinWrite,
		Stdout:  pipes.stdoutRead,
		Stderr:  pipes.stderrRead,
		command: command,
		done:    make(chan struct{}),
	}
	logger.Info("backend started", "path", config.Path, "pid", command.Process.Pid, "args", config.Args)

	go func() {
		waitErr := command.Wait()
		child.status = exitStatusFrom(command.ProcessState, waitErr)
		logger.Info("backend exited", "pid", command.Process.Pid, "status", child.status.String())
		close(child.done)
	}()

	return child, nil
}

// Pid returns the backend's process ID.
func (child *Child) Pid() int {
	return child.command.Process.Pid
}

// Done returns a channel closed once the backend has exited and its
// status is available.
func (child *Child) Done() <-chan struct{} {
	return child.done
}

// Wait blocks until the backend exits and returns its status. It is
// safe to call from multiple goroutines.
func (child *Child) Wait() ExitStatus {
	<-child.done
	return child.status
}

// Signal delivers sig to the backend. Signalling a backend that has
// already exited is not an error.
func (child *Child) Signal(sig os.Signal) error {
	err := child.command.Process.Signal(sig)
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// pipeSet holds the three pipes of a backend before ownership is split
// between the proxy and the child.
type pipeSet struct {
	stdinRead, stdinWrite   *os.File
	stdoutRead, stdoutWrite *os.File
	stderrRead, stderrWrite *os.File
}

func newPipeSet() (*pipeSet, error) {
	pipes := &pipeSet{}
	var err error
	if pipes.stdinRead, pipes.stdinWrite, err = os.Pipe(); err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	if pipes.stdoutRead, pipes.stdoutWrite, err = os.Pipe(); err != nil {
		pipes.closeAll()
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	if pipes.stderrRead, pipes.stderrWrite, err = os.Pipe(); err != nil {
		pipes.closeAll()
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}
	return pipes, nil
}

func (pipes *pipeSet) closeChildEnds() {
	for _, file := range []*os.File{pipes.stdinRead, pipes.stdoutWrite, pipes.stderrWrite} {
		if file != nil {
			file.Close()
		}
	}
}

func (pipes *pipeSet) closeAll() {
	pipes.closeChildEnds()
	for _, file := range []*os.File{pipes.stdinWrite, pipes.stdoutRead, pipes.stderrRead} {
		if file != nil {
			file.Close()
		}
	}
}
