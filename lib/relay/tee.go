// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bureau-foundation/lsp-proxy/lib/framing"
	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
)

// StreamMetrics are the per-stream counters a LogTee maintains. Nil
// counters are skipped.
type StreamMetrics struct {
	Bytes         prometheus.Counter
	Frames        prometheus.Counter
	FramingErrors prometheus.Counter
	InvalidFrames prometheus.Counter
}

func increment(counter prometheus.Counter, delta float64) {
	if counter != nil {
		counter.Add(delta)
	}
}

// FallbackOpener lazily creates the raw log used when a stream that
// was logged only in structured form can no longer be framed.
type FallbackOpener func() (*logsink.RawSink, error)

// LogTee routes a relay's chunks into log sinks.
//
// Raw receives every chunk unmodified. When Structured is set, chunks
// also go through Framer and each completed frame is written to
// Structured. After a framing error the stream is demoted: the framer
// is abandoned, and if there is no Raw sink the unframed bytes (from
// the start of the offending frame onward) are written to a raw log
// obtained from Fallback. The same happens to a partial frame still
// buffered when the stream ends.
//
// A LogTee is driven by a single relay goroutine and does not close
// its sinks. [LogTee.Detach] may be called from another goroutine
// while that relay is still running.
type LogTee struct {
	Raw        *logsink.RawSink
	Structured *logsink.JSONLinesSink
	Framer     *framing.Framer
	Fallback   FallbackOpener
	Metrics    StreamMetrics
	Logger     *slog.Logger

	mutex          sync.Mutex
	detached       bool
	demoted        bool
	fallback       *logsink.RawSink
	fallbackFailed bool
}

func (tee *LogTee) logger() *slog.Logger {
	if tee.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return tee.Logger
}

// Demoted reports whether structured logging was abandoned.
func (tee *LogTee) Demoted() bool {
	tee.mutex.Lock()
	defer tee.mutex.Unlock()
	return tee.demoted
}

// FallbackSink returns the raw log opened by demotion, or nil.
func (tee *LogTee) FallbackSink() *logsink.RawSink {
	tee.mutex.Lock()
	defer tee.mutex.Unlock()
	return tee.fallback
}

// Detach stops the tee: later Observe and Finish calls record nothing
// and never open a fallback log. It returns the fallback sink, if one
// was opened, so the caller can close it.
func (tee *LogTee) Detach() *logsink.RawSink {
	tee.mutex.Lock()
	defer tee.mutex.Unlock()
	tee.detached = true
	return tee.fallback
}

// Observe implements Tee.
func (tee *LogTee) Observe(chunk []byte) {
	tee.mutex.Lock()
	defer tee.mutex.Unlock()
	if tee.detached {
		return
	}

	increment(tee.Metrics.Bytes, float64(len(chunk)))
	if tee.Raw != nil {
		// Sink failures are reported by the sink itself.
		_, _ = tee.Raw.Write(chunk)
	}
	if tee.Structured == nil {
		return
	}
	if tee.demoted {
		tee.writeFallback(chunk)
		return
	}

	if tee.Framer == nil {
		tee.Framer = framing.NewFramer()
	}
	for frame := range tee.Framer.Feed(chunk) {
		increment(tee.Metrics.Frames, 1)
		if err := tee.Structured.WriteFrame(frame); err != nil {
			var decodeError *logsink.JSONDecodeError
			if errors.As(err, &decodeError) {
				increment(tee.Metrics.InvalidFrames, 1)
			}
		}
	}
	if err := tee.Framer.Err(); err != nil {
		increment(tee.Metrics.FramingErrors, 1)
		tee.demote("framing error, structured logging abandoned for this stream", err)
	}
}

// Finish implements Tee. A partial frame left in the framer is
// recorded verbatim when no raw log already holds it.
func (tee *LogTee) Finish() {
	tee.mutex.Lock()
	defer tee.mutex.Unlock()
	if tee.detached || tee.Structured == nil || tee.demoted || tee.Framer == nil || tee.Framer.Buffered() == 0 {
		return
	}
	tee.demote("stream ended inside a frame", nil)
}

func (tee *LogTee) demote(message string, err error) {
	tee.demoted = true
	pending := tee.Framer.Pending()
	attributes := []any{"unframed_bytes", len(pending)}
	if err != nil {
		attributes = append(attributes, "error", err)
	}
	tee.logger().Warn(message, attributes...)
	tee.writeFallback(pending)
}

func (tee *LogTee) writeFallback(data []byte) {
	if tee.Raw != nil || len(data) == 0 {
		return
	}
	if tee.fallback == nil {
		if tee.fallbackFailed || tee.Fallback == nil {
			return
		}
		sink, err := tee.Fallback()
		if err != nil {
			tee.fallbackFailed = true
			tee.logger().Error("opening raw fallback log failed, unframed bytes will not be recorded", "error", err)
			return
		}
		tee.fallback = sink
		tee.logger().Info("recording unframed bytes in raw fallback log", "path", sink.Path())
	}
	_, _ = tee.fallback.Write(data)
}
