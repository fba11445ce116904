// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"unicode/utf8"

	"github.com/bureau-foundation/lsp-proxy/lib/framing"
)

// errInvalidUTF8 rejects bodies json.Compact would pass through even
// though strict JSON parsers refuse them.
var errInvalidUTF8 = errors.New("body is not valid UTF-8")

// JSONLinesSink writes one compact JSON line per frame.
type JSONLinesSink struct {
	log  *fileLog
	line bytes.Buffer
}

// NewJSONLinesSink returns a sink that takes ownership of file.
func NewJSONLinesSink(file *os.File, options Options) (*JSONLinesSink, error) {
	log, err := newFileLog(file, options)
	if err != nil {
		return nil, err
	}
	return &JSONLinesSink{log: log}, nil
}

// WriteFrame appends the frame body as one line. The body is compacted
// without re-encoding, so key order and number spelling survive.
//
// An invalid body is skipped, reported through the logger, and
// returned as a *JSONDecodeError. The write that breaks the sink
// returns its *SinkIOError; later writes are dropped and return nil.
func (sink *JSONLinesSink) WriteFrame(frame framing.Frame) error {
	sink.log.mutex.Lock()
	defer sink.log.mutex.Unlock()

	sink.line.Reset()
	err := json.Compact(&sink.line, frame.Body)
	if err == nil && !utf8.Valid(frame.Body) {
		err = errInvalidUTF8
	}
	if err != nil {
		sink.log.stats.Skipped++
		decodeError := &JSONDecodeError{Path: sink.log.path, Length: len(frame.Body), Err: err}
		sink.log.logger.Warn("skipping frame with invalid JSON body", "length", len(frame.Body), "error", err)
		return decodeError
	}
	sink.line.WriteByte('\n')
	return sink.log.append(sink.line.Bytes())
}

// Path returns the log file path.
func (sink *JSONLinesSink) Path() string { return sink.log.path }

// Stats returns a snapshot of the sink's counters.
func (sink *JSONLinesSink) Stats() Stats { return sink.log.snapshot() }

// Close flushes and closes the log file. It is idempotent.
func (sink *JSONLinesSink) Close() error { return sink.log.close() }
