// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/zeebo/blake3"
)

// Options configures a sink.
type Options struct {
	// Compression wraps the file in a streaming encoder. The caller
	// is responsible for naming the file with the matching extension
	// (see [Compression.Extension]).
	Compression Compression

	// Logger receives the one-time broken-sink report and skipped
	// entry warnings. Nil discards them.
	Logger *slog.Logger
}

// Stats is a snapshot of a sink's counters.
type Stats struct {
	Path string

	// Bytes is the number of uncompressed bytes written to the log.
	Bytes int64

	// Entries counts accepted writes (RawSink) or lines (JSONLinesSink).
	Entries int64

	// Dropped counts writes discarded because the sink was broken or
	// already closed.
	Dropped int64

	// Skipped counts frames rejected as invalid JSON.
	Skipped int64

	// Digest covers exactly the Bytes written.
	Digest Digest

	// Err is the *SinkIOError that broke the sink, or nil.
	Err error
}

// fileLog is the file handling shared by both sink types: optional
// compression, the running digest, and the broken-once policy.
type fileLog struct {
	path       string
	file       *os.File
	output     io.Writer
	compressor compressor
	hasher     *blake3.Hasher
	logger     *slog.Logger

	mutex  sync.Mutex
	closed bool
	broken *SinkIOError
	stats  Stats
}

func newFileLog(file *os.File, options Options) (*fileLog, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	compressor, err := newCompressor(options.Compression, file)
	if err != nil {
		return nil, err
	}
	log := &fileLog{
		path:       file.Name(),
		file:       file,
		output:     file,
		compressor: compressor,
		hasher:     newDigestHasher(),
		logger:     logger.With("path", file.Name()),
	}
	if compressor != nil {
		log.output = compressor
	}
	return log, nil
}

// append writes data as one entry. It returns the *SinkIOError that
// breaks the sink, and nil both on success and when the write is
// dropped. The caller must hold log.mutex.
func (log *fileLog) append(data []byte) error {
	if log.closed || log.broken != nil {
		log.stats.Dropped++
		return nil
	}

	if _, err := log.output.Write(data); err != nil {
		return log.markBroken("write", err)
	}
	if log.compressor != nil {
		if err := log.compressor.Flush(); err != nil {
			return log.markBroken("flush", err)
		}
	}

	log.hasher.Write(data)
	log.stats.Bytes += int64(len(data))
	log.stats.Entries++
	return nil
}

func (log *fileLog) markBroken(op string, err error) error {
	log.broken = &SinkIOError{Path: log.path, Op: op, Err: err}
	log.logger.Error("log sink failed, dropping further writes", "op", op, "error", err)
	return log.broken
}

// close finishes the compressed stream, fsyncs, and closes the file.
// Close is idempotent: calls after the first return nil.
func (log *fileLog) close() error {
	log.mutex.Lock()
	defer log.mutex.Unlock()

	if log.closed {
		return nil
	}
	log.closed = true

	var errs []error
	if log.compressor != nil && log.broken == nil {
		if err := log.compressor.Close(); err != nil {
			errs = append(errs, log.markBroken("flush", err))
		}
	}
	if log.broken == nil {
		if err := log.file.Sync(); err != nil {
			errs = append(errs, log.markBroken("sync", err))
		}
	}
	if err := log.file.Close(); err != nil {
		errs = append(errs, &SinkIOError{Path: log.path, Op: "close", Err: err})
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing log %s: %w", log.path, errors.Join(errs...))
	}
	return nil
}

func (log *fileLog) snapshot() Stats {
	log.mutex.Lock()
	defer log.mutex.Unlock()
	stats := log.stats
	stats.Path = log.path
	stats.Digest = sumDigest(log.hasher)
	if log.broken != nil {
		stats.Err = log.broken
	}
	return stats
}
