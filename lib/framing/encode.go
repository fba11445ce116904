// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Encode returns body wrapped in a frame with a single Content-Length
// header.
func Encode(body []byte) []byte {
	encoded := make([]byte, 0, len(body)+len(ContentLengthHeader)+16)
	encoded = append(encoded, ContentLengthHeader...)
	encoded = append(encoded, ": "...)
	encoded = strconv.AppendInt(encoded, int64(len(body)), 10)
	encoded = append(encoded, headerTerminator...)
	return append(encoded, body...)
}

// WriteFrame writes body to w as one frame in a single Write call.
func WriteFrame(w io.Writer, body []byte) error {
	if _, err := w.Write(Encode(body)); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// ReadFrame reads exactly one frame from reader. It returns io.EOF
// only when the stream ends cleanly before the first header byte;
// a stream ending inside a frame returns io.ErrUnexpectedEOF. Header
// problems return a *FramingError.
func ReadFrame(reader *bufio.Reader) (Frame, error) {
	var block bytes.Buffer
	for {
		line, err := reader.ReadSlice('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if block.Len() == 0 && len(line) == 0 {
					return Frame{}, io.EOF
				}
				return Frame{}, fmt.Errorf("read frame header: %w", io.ErrUnexpectedEOF)
			}
			if errors.Is(err, bufio.ErrBufferFull) {
				return Frame{}, &FramingError{Reason: "header line exceeds read buffer", Err: err}
			}
			return Frame{}, fmt.Errorf("read frame header: %w", err)
		}
		if !bytes.HasSuffix(line, []byte("\r\n")) {
			return Frame{}, &FramingError{Reason: fmt.Sprintf("header line %q is not CRLF terminated", line)}
		}
		if len(line) == 2 {
			break
		}
		if block.Len()+len(line) > DefaultMaxHeaderLength {
			return Frame{}, &FramingError{Reason: fmt.Sprintf("header block exceeds %d bytes", DefaultMaxHeaderLength)}
		}
		block.Write(line)
	}

	header, err := parseHeaderBlock(bytes.TrimSuffix(block.Bytes(), []byte("\r\n")))
	if err != nil {
		return Frame{}, err
	}
	length, err := header.contentLength(DefaultMaxBodyLength)
	if err != nil {
		return Frame{}, err
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(reader, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, fmt.Errorf("read frame body: %w", err)
	}
	return Frame{Header: header, Body: body}, nil
}
