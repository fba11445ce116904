// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testsession

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/bureau-foundation/lsp-proxy/lib/framing"
)

// message is the decoded shape of one generated frame.
type message struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *int             `json:"id"`
	Method  string           `json:"method"`
	Params  *json.RawMessage `json:"params"`
}

func decodeFrames(t *testing.T, output []byte) []message {
	t.Helper()
	framer := framing.NewFramer()
	var messages []message
	for frame := range framer.Feed(output) {
		var decoded message
		if err := frame.Decode(&decoded); err != nil {
			t.Fatalf("frame body %q is not JSON: %v", frame.Body, err)
		}
		messages = append(messages, decoded)
	}
	if framer.Err() != nil {
		t.Fatalf("framing error: %v", framer.Err())
	}
	if framer.Buffered() != 0 {
		t.Fatalf("%d trailing bytes after last frame", framer.Buffered())
	}
	return messages
}

func TestWriteProducesInitializeAndShutdown(t *testing.T) {
	var output bytes.Buffer
	if err := Write(&output, Options{ProcessID: 4242}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	messages := decodeFrames(t, output.Bytes())
	if len(messages) != 2 {
		t.Fatalf("got %d frames, want exactly 2", len(messages))
	}

	initialize := messages[0]
	if initialize.JSONRPC != "2.0" || initialize.Method != "initialize" {
		t.Errorf("first message = %+v, want a 2.0 initialize request", initialize)
	}
	if initialize.ID == nil || *initialize.ID != 1 {
		t.Errorf("initialize id = %v, want 1", initialize.ID)
	}
	if initialize.Params == nil {
		t.Fatal("initialize has no params")
	}

	var params map[string]json.RawMessage
	if err := json.Unmarshal(*initialize.Params, &params); err != nil {
		t.Fatalf("decoding params: %v", err)
	}
	if string(params["processId"]) != "4242" {
		t.Errorf("processId = %s, want 4242", params["processId"])
	}
	if raw, ok := params["rootUri"]; !ok || string(raw) != "null" {
		t.Errorf("rootUri = %s (present %v), want explicit null", raw, ok)
	}
	if string(params["capabilities"]) != "{}" {
		t.Errorf("capabilities = %s, want {}", params["capabilities"])
	}
	var clientInfo ClientInfo
	if err := json.Unmarshal(params["clientInfo"], &clientInfo); err != nil || clientInfo.Name != ClientName {
		t.Errorf("clientInfo = %s, want name %q", params["clientInfo"], ClientName)
	}

	shutdown := messages[1]
	if shutdown.Method != "shutdown" || shutdown.ID == nil || *shutdown.ID != 2 {
		t.Errorf("second message = %+v, want shutdown with id 2", shutdown)
	}
}

func TestWriteWithExitNotification(t *testing.T) {
	var output bytes.Buffer
	if err := Write(&output, Options{Exit: true}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	messages := decodeFrames(t, output.Bytes())
	if len(messages) != 3 {
		t.Fatalf("got %d frames, want 3", len(messages))
	}
	exit := messages[2]
	if exit.Method != "exit" {
		t.Errorf("third message method = %q, want exit", exit.Method)
	}
	if exit.ID != nil {
		t.Errorf("exit notification carries id %d", *exit.ID)
	}
}

func TestRequestsDefaultsToCurrentProcess(t *testing.T) {
	requests, err := Requests(Options{})
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	var params InitializeParams
	if err := json.Unmarshal(*requests[0].Params, &params); err != nil {
		t.Fatalf("decoding params: %v", err)
	}
	if params.ProcessID != os.Getpid() {
		t.Errorf("processId = %d, want %d", params.ProcessID, os.Getpid())
	}
}
