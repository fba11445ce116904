// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// clientInput is the proxy's private handle on the client's standard
// input. A descriptor in blocking mode cannot be interrupted by a read
// deadline, so the proxy duplicates it, switches the open file
// description to non-blocking mode, and wraps the duplicate in a new
// *os.File that the runtime poller manages. Closing the duplicate
// never closes the caller's descriptor.
type clientInput struct {
	file *os.File

	// restoreBlocking is set when the descriptor was blocking before
	// the proxy changed it. The flag lives on the shared open file
	// description, so leaving it set would surprise whatever reads the
	// descriptor after the proxy exits (an interactive shell, say).
	restoreBlocking bool
}

func openClientInput(source *os.File) (*clientInput, error) {
	// SyscallConn leaves the descriptor's mode alone, unlike Fd.
	rawConn, err := source.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("accessing client input: %w", err)
	}
	descriptor := -1
	var dupErr error
	if err := rawConn.Control(func(original uintptr) {
		descriptor, dupErr = unix.FcntlInt(original, unix.F_DUPFD_CLOEXEC, 0)
	}); err != nil {
		return nil, fmt.Errorf("accessing client input: %w", err)
	}
	if dupErr != nil {
		return nil, fmt.Errorf("duplicating client input: %w", dupErr)
	}

	flags, err := unix.FcntlInt(uintptr(descriptor), unix.F_GETFL, 0)
	if err != nil {
		unix.Close(descriptor)
		return nil, fmt.Errorf("reading client input flags: %w", err)
	}
	wasNonblocking := flags&unix.O_NONBLOCK != 0
	if !wasNonblocking {
		if err := unix.SetNonblock(descriptor, true); err != nil {
			unix.Close(descriptor)
			return nil, fmt.Errorf("making client input non-blocking: %w", err)
		}
	}

	return &clientInput{
		file:            os.NewFile(uintptr(descriptor), source.Name()),
		restoreBlocking: !wasNonblocking,
	}, nil
}

// pollable reports whether read deadlines work on the input. Regular
// files and some character devices cannot be registered with epoll;
// reads on those complete on their own.
func (input *clientInput) pollable() bool {
	return input.file.SetReadDeadline(time.Time{}) == nil
}

func (input *clientInput) Close() error {
	if input.restoreBlocking {
		if rawConn, err := input.file.SyscallConn(); err == nil {
			rawConn.Control(func(descriptor uintptr) {
				unix.SetNonblock(int(descriptor), false)
			})
		}
	}
	return input.file.Close()
}
