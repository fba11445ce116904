// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bytes"
	"fmt"
	"iter"
)

// framerState is the parser's position within the current frame.
type framerState int

const (
	// scanningHeaders accumulates header lines until the blank line.
	scanningHeaders framerState = iota

	// awaitingBody has a validated header and waits until the declared
	// number of body bytes is buffered.
	awaitingBody
)

// shrinkThreshold is the buffer capacity above which the framer
// reallocates after emitting a frame, so one very large message does
// not pin its buffer for the rest of the session.
const shrinkThreshold = 1024 * 1024

// Framer extracts frames from an arbitrarily chunked byte stream.
//
// The buffer holds only the bytes of the frame currently being
// assembled (its header block and the body received so far). A
// completed frame's bytes are dropped as soon as it is yielded.
//
// A Framer is not safe for concurrent use; each relay owns its own.
type Framer struct {
	// MaxHeaderLength and MaxBodyLength bound a single frame. Zero
	// selects DefaultMaxHeaderLength and DefaultMaxBodyLength.
	MaxHeaderLength int
	MaxBodyLength   int

	state   framerState
	pending []byte

	// header, bodyStart, and expected describe the frame being
	// assembled while in awaitingBody. bodyStart is the offset of the
	// first body byte in pending.
	header    Header
	bodyStart int
	expected  int

	err error
}

// NewFramer returns a Framer with default limits.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends data to the stream and returns an iterator over the
// frames completed so far. The data is buffered before Feed returns,
// so the caller may reuse its slice immediately. Frames the caller
// does not pull from the iterator stay buffered and are yielded by the
// iterator of a later Feed call.
//
// Once the framer has failed (see [Framer.Err]) Feed discards data and
// the iterator yields nothing.
func (framer *Framer) Feed(data []byte) iter.Seq[Frame] {
	if framer.err == nil {
		framer.pending = append(framer.pending, data...)
	}
	return framer.frames
}

// Err returns the FramingError that stopped parsing, or nil.
func (framer *Framer) Err() error {
	return framer.err
}

// Pending returns the buffered bytes that have not become part of a
// yielded frame: a partial frame, or after a failure the bytes from
// the start of the offending frame onward. The returned slice aliases
// the framer's buffer and is valid until the next call to Feed.
func (framer *Framer) Pending() []byte {
	return framer.pending
}

// Buffered reports how many bytes are currently held.
func (framer *Framer) Buffered() int {
	return len(framer.pending)
}

// frames is the iterator returned by Feed.
func (framer *Framer) frames(yield func(Frame) bool) {
	for {
		frame, ok := framer.next()
		if !ok {
			return
		}
		if !yield(frame) {
			return
		}
	}
}

// next advances the state machine until a frame completes or more
// input is needed.
func (framer *Framer) next() (Frame, bool) {
	for framer.err == nil {
		switch framer.state {
		case scanningHeaders:
			if !framer.scanHeaders() {
				return Frame{}, false
			}
		case awaitingBody:
			received := len(framer.pending) - framer.bodyStart
			if received < framer.expected {
				return Frame{}, false
			}
			return framer.emit(), true
		}
	}
	return Frame{}, false
}

// scanHeaders looks for a complete header block in the buffer. It
// returns true after transitioning to awaitingBody, false when more
// input is needed or the header is invalid.
func (framer *Framer) scanHeaders() bool {
	maxHeaderLength := framer.MaxHeaderLength
	if maxHeaderLength <= 0 {
		maxHeaderLength = DefaultMaxHeaderLength
	}
	maxBodyLength := framer.MaxBodyLength
	if maxBodyLength <= 0 {
		maxBodyLength = DefaultMaxBodyLength
	}

	// Only the first maxHeaderLength bytes can contain a valid
	// terminator, which keeps the search bounded on garbage input.
	window := framer.pending
	if len(window) > maxHeaderLength {
		window = window[:maxHeaderLength]
	}
	end := bytes.Index(window, headerTerminator)
	if end < 0 {
		if len(framer.pending) >= maxHeaderLength {
			framer.fail(&FramingError{Reason: fmt.Sprintf("header block exceeds %d bytes", maxHeaderLength)})
		}
		return false
	}

	header, err := parseHeaderBlock(framer.pending[:end])
	if err != nil {
		framer.fail(err)
		return false
	}
	length, err := header.contentLength(maxBodyLength)
	if err != nil {
		framer.fail(err)
		return false
	}

	framer.header = header
	framer.bodyStart = end + len(headerTerminator)
	framer.expected = length
	framer.state = awaitingBody
	return true
}

// emit cuts the completed frame out of the buffer and resets the
// state machine to scan the next header immediately after the body.
func (framer *Framer) emit() Frame {
	bodyEnd := framer.bodyStart + framer.expected
	frame := Frame{
		Header: framer.header,
		Body:   bytes.Clone(framer.pending[framer.bodyStart:bodyEnd]),
	}
	if frame.Body == nil {
		frame.Body = []byte{}
	}

	remaining := len(framer.pending) - bodyEnd
	if cap(framer.pending) > shrinkThreshold && remaining < cap(framer.pending)/4 {
		framer.pending = bytes.Clone(framer.pending[bodyEnd:])
	} else {
		copy(framer.pending, framer.pending[bodyEnd:])
		framer.pending = framer.pending[:remaining]
	}

	framer.header = nil
	framer.bodyStart = 0
	framer.expected = 0
	framer.state = scanningHeaders
	return frame
}

func (framer *Framer) fail(err error) {
	framer.err = err
	framer.header = nil
	framer.state = scanningHeaders
}
