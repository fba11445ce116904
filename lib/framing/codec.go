// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package framing

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sourcegraph/jsonrpc2"
)

// Codec is a jsonrpc2.ObjectCodec that writes and reads Content-Length
// framed JSON using this package's serializer and header parser. Use
// it with jsonrpc2.NewBufferedStream, or call WriteObject directly to
// emit framed messages on a plain writer.
type Codec struct{}

var _ jsonrpc2.ObjectCodec = Codec{}

// WriteObject marshals object as JSON and writes it as one frame.
func (Codec) WriteObject(stream io.Writer, object interface{}) error {
	body, err := json.Marshal(object)
	if err != nil {
		return fmt.Errorf("marshal frame body: %w", err)
	}
	return WriteFrame(stream, body)
}

// ReadObject reads one frame and unmarshals its body into object.
func (Codec) ReadObject(stream *bufio.Reader, object interface{}) error {
	frame, err := ReadFrame(stream)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(frame.Body, object); err != nil {
		return fmt.Errorf("unmarshal frame body: %w", err)
	}
	return nil
}
