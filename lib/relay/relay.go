// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// DefaultBufferSize is the read size used when Relay.BufferSize is
// zero. Chunks are forwarded as soon as they arrive, so this only
// bounds the largest single write.
const DefaultBufferSize = 32 * 1024

// ErrTornDown is returned (wrapped) by Run when the relay stopped
// because its context was cancelled rather than at end of stream.
var ErrTornDown = errors.New("relay torn down")

// Tee receives a copy of the traffic a relay forwards.
type Tee interface {
	// Observe is called with each chunk after it was written to the
	// destination. The slice is only valid for the duration of the
	// call.
	Observe(chunk []byte)

	// Finish is called exactly once when the relay stops, whatever
	// the reason.
	Finish()
}

// Relay is a unidirectional copier from Source to Destination.
type Relay struct {
	// Name identifies the relay in log records and errors, e.g.
	// "stdin".
	Name string

	Source      io.Reader
	Destination io.Writer

	// Tee, when set, observes every forwarded chunk.
	Tee Tee

	Logger *slog.Logger

	BufferSize int

	bytes atomic.Int64
}

// Bytes returns the number of bytes forwarded so far.
func (relay *Relay) Bytes() int64 {
	return relay.bytes.Load()
}

// Run copies until the source reaches end of stream, a read or write
// fails, or ctx is cancelled. In every case it then closes the
// destination (when it is an io.Closer) and finishes the tee.
//
// Cancellation unblocks a pending read by setting a read deadline in
// the past when the source supports deadlines, and by closing the
// source otherwise. Run returns nil at end of stream and an error
// wrapping ErrTornDown after cancellation.
func (relay *Relay) Run(ctx context.Context) error {
	logger := relay.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("relay", relay.Name)

	stopInterrupt := context.AfterFunc(ctx, relay.interrupt)
	defer stopInterrupt()

	bufferSize := relay.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	buffer := make([]byte, bufferSize)

	runErr := relay.copy(ctx, buffer, logger)

	if closer, ok := relay.Destination.(io.Closer); ok {
		if err := closer.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Debug("closing relay destination", "error", err)
		}
	}
	if relay.Tee != nil {
		relay.Tee.Finish()
	}

	logger.Debug("relay stopped", "bytes", relay.bytes.Load(), "error", runErr)
	return runErr
}

func (relay *Relay) copy(ctx context.Context, buffer []byte, logger *slog.Logger) error {
	for {
		bytesRead, readErr := relay.Source.Read(buffer)
		if bytesRead > 0 {
			chunk := buffer[:bytesRead]
			written, writeErr := relay.Destination.Write(chunk)
			if writeErr != nil {
				// Whatever reached the destination is still logged.
				written = min(max(written, 0), bytesRead)
				relay.bytes.Add(int64(written))
				if relay.Tee != nil && written > 0 {
					relay.Tee.Observe(chunk[:written])
				}
				logger.Warn("relay destination write failed, stopping relay", "error", writeErr, "written", written)
				return fmt.Errorf("relay %s: write: %w", relay.Name, writeErr)
			}
			relay.bytes.Add(int64(bytesRead))
			if relay.Tee != nil {
				relay.Tee.Observe(chunk)
			}
		}
		if readErr == nil {
			continue
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if ctx.Err() != nil {
			return fmt.Errorf("relay %s: %w", relay.Name, ErrTornDown)
		}
		logger.Warn("relay source read failed, stopping relay", "error", readErr)
		return fmt.Errorf("relay %s: read: %w", relay.Name, readErr)
	}
}

// readDeadliner is implemented by *os.File (for pollable descriptors)
// and net.Conn.
type readDeadliner interface {
	SetReadDeadline(time.Time) error
}

func (relay *Relay) interrupt() {
	if source, ok := relay.Source.(readDeadliner); ok {
		if err := source.SetReadDeadline(time.Unix(1, 0)); err == nil {
			return
		}
	}
	if source, ok := relay.Source.(io.Closer); ok {
		source.Close()
	}
}
