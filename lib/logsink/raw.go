// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import "os"

// RawSink appends bytes to a log file exactly as given. It is safe for
// concurrent use, though each relay owns its own sink.
type RawSink struct {
	log *fileLog
}

// NewRawSink returns a sink that takes ownership of file.
func NewRawSink(file *os.File, options Options) (*RawSink, error) {
	log, err := newFileLog(file, options)
	if err != nil {
		return nil, err
	}
	return &RawSink{log: log}, nil
}

// Write appends data unmodified. It implements io.Writer: on the write
// that breaks the sink it returns 0 and the *SinkIOError; writes to a
// broken or closed sink are dropped and report len(data), nil.
func (sink *RawSink) Write(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	sink.log.mutex.Lock()
	defer sink.log.mutex.Unlock()
	if err := sink.log.append(data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Path returns the log file path.
func (sink *RawSink) Path() string { return sink.log.path }

// Stats returns a snapshot of the sink's counters.
func (sink *RawSink) Stats() Stats { return sink.log.snapshot() }

// Close flushes and closes the log file. It is idempotent.
func (sink *RawSink) Close() error { return sink.log.close() }
