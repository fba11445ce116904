// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ContentLengthHeader is the only header a frame is required to carry.
const ContentLengthHeader = "Content-Length"

const (
	// DefaultMaxHeaderLength bounds the header block of a single frame,
	// including its terminating blank line. Real clients send one or
	// two short headers; anything near this size is garbage.
	DefaultMaxHeaderLength = 8 * 1024

	// DefaultMaxBodyLength bounds the declared body size of a single
	// frame. Large workspaces produce multi-megabyte responses
	// (semantic tokens, workspace symbols), so the limit is generous.
	DefaultMaxBodyLength = 64 * 1024 * 1024
)

// headerTerminator separates the header block from the body.
var headerTerminator = []byte("\r\n\r\n")

// HeaderField is one "Name: Value" line of a frame's header block.
type HeaderField struct {
	Name  string
	Value string
}

// Header is the ordered list of header fields of a frame.
type Header []HeaderField

// Get returns the value of the first field whose name matches name
// case-insensitively.
func (header Header) Get(name string) (string, bool) {
	for _, field := range header {
		if strings.EqualFold(field.Name, name) {
			return field.Value, true
		}
	}
	return "", false
}

// contentLength extracts and validates the declared body length.
func (header Header) contentLength(maxBodyLength int) (int, error) {
	value, ok := header.Get(ContentLengthHeader)
	if !ok {
		return 0, &FramingError{Reason: "missing " + ContentLengthHeader + " header"}
	}
	length, err := strconv.Atoi(value)
	if err != nil {
		return 0, &FramingError{Reason: fmt.Sprintf("non-numeric %s %q", ContentLengthHeader, value), Err: err}
	}
	if length < 0 {
		return 0, &FramingError{Reason: fmt.Sprintf("negative %s %d", ContentLengthHeader, length)}
	}
	if length > maxBodyLength {
		return 0, &FramingError{Reason: fmt.Sprintf("%s %d exceeds maximum %d", ContentLengthHeader, length, maxBodyLength)}
	}
	return length, nil
}

// Frame is one complete protocol message: its header fields and exactly
// the declared number of body bytes.
type Frame struct {
	Header Header
	Body   []byte
}

// Decode unmarshals the frame body as JSON into value.
func (frame Frame) Decode(value any) error {
	return json.Unmarshal(frame.Body, value)
}

// FramingError reports a malformed or absent length header. A framer
// that has returned a FramingError stops parsing for the rest of its
// stream.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	return "framing: " + e.Reason
}

func (e *FramingError) Unwrap() error { return e.Err }

// parseHeaderBlock parses the header lines preceding the blank line.
// block excludes the terminating CRLFCRLF.
func parseHeaderBlock(block []byte) (Header, error) {
	var header Header
	for _, line := range bytes.Split(block, []byte("\r\n")) {
		name, value, ok := bytes.Cut(line, []byte(":"))
		if !ok {
			return nil, &FramingError{Reason: fmt.Sprintf("malformed header line %q", line)}
		}
		trimmedName := bytes.TrimSpace(name)
		if len(trimmedName) == 0 {
			return nil, &FramingError{Reason: fmt.Sprintf("empty header name in line %q", line)}
		}
		header = append(header, HeaderField{
			Name:  string(trimmedName),
			Value: string(bytes.TrimSpace(value)),
		})
	}
	return header, nil
}
