// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
)

func TestEncode(t *testing.T) {
	got := string(Encode([]byte(testBody)))
	want := "Content-Length: 40\r\n\r\n" + testBody
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestWriteFrameReadFrame(t *testing.T) {
	var buffer bytes.Buffer
	for _, body := range []string{testBody, `{}`, ``} {
		if err := WriteFrame(&buffer, []byte(body)); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	reader := bufio.NewReader(&buffer)
	for _, want := range []string{testBody, `{}`, ``} {
		frame, err := ReadFrame(reader)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		if string(frame.Body) != want {
			t.Errorf("body = %q, want %q", frame.Body, want)
		}
	}
	if _, err := ReadFrame(reader); !errors.Is(err, io.EOF) {
		t.Errorf("ReadFrame at end = %v, want io.EOF", err)
	}
}

func TestReadFrameTruncated(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("Content-Length: 10\r\n\r\n{}"))
	if _, err := ReadFrame(reader); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadFrame on truncated body = %v, want io.ErrUnexpectedEOF", err)
	}

	reader = bufio.NewReader(strings.NewReader("Content-Length: 10\r\n"))
	if _, err := ReadFrame(reader); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadFrame on truncated header = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestReadFrameRejectsBareNewlines(t *testing.T) {
	reader := bufio.NewReader(strings.NewReader("Content-Length: 2\n\n{}"))
	var framingError *FramingError
	if _, err := ReadFrame(reader); !errors.As(err, &framingError) {
		t.Errorf("ReadFrame = %v, want *FramingError", err)
	}
}

func TestCodecRoundTripThroughJSONRPC2Request(t *testing.T) {
	request := &jsonrpc2.Request{Method: "initialize", ID: jsonrpc2.ID{Num: 7}}
	if err := request.SetParams(map[string]any{"rootUri": nil}); err != nil {
		t.Fatalf("SetParams: %v", err)
	}

	var buffer bytes.Buffer
	if err := (Codec{}).WriteObject(&buffer, request); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	if !strings.HasPrefix(buffer.String(), "Content-Length: ") {
		t.Fatalf("encoded frame %q lacks Content-Length header", buffer.String())
	}

	// The same bytes must be accepted by the incremental framer.
	frames := collect(NewFramer(), buffer.Bytes())
	if len(frames) != 1 {
		t.Fatalf("framer found %d frames in codec output, want 1", len(frames))
	}

	var decoded jsonrpc2.Request
	if err := (Codec{}).ReadObject(bufio.NewReader(&buffer), &decoded); err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if decoded.Method != "initialize" || decoded.ID.Num != 7 {
		t.Errorf("decoded request = %+v", decoded)
	}
}

func TestCodecInteroperatesWithVSCodeObjectCodec(t *testing.T) {
	var buffer bytes.Buffer
	object := map[string]any{"jsonrpc": "2.0", "method": "exit"}
	if err := (jsonrpc2.VSCodeObjectCodec{}).WriteObject(&buffer, object); err != nil {
		t.Fatalf("VSCodeObjectCodec.WriteObject: %v", err)
	}

	var decoded map[string]any
	if err := (Codec{}).ReadObject(bufio.NewReader(&buffer), &decoded); err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	if decoded["method"] != "exit" {
		t.Errorf("decoded = %v", decoded)
	}
}
