// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import "fmt"

// SinkIOError is the failure that broke a sink. Op is the file
// operation that failed ("write", "flush", "sync" or "close").
type SinkIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *SinkIOError) Error() string {
	return fmt.Sprintf("log sink %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *SinkIOError) Unwrap() error { return e.Err }

// JSONDecodeError reports a frame body that is not valid JSON. The
// entry is skipped; the sink stays usable.
type JSONDecodeError struct {
	Path string

	// Length is the size of the rejected body in bytes.
	Length int

	Err error
}

func (e *JSONDecodeError) Error() string {
	return fmt.Sprintf("log sink %s: frame body (%d bytes) is not valid JSON: %v", e.Path, e.Length, e.Err)
}

func (e *JSONDecodeError) Unwrap() error { return e.Err }
