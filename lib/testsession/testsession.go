// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testsession

import (
	"fmt"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bureau-foundation/lsp-proxy/lib/framing"
	"github.com/bureau-foundation/lsp-proxy/lib/version"
)

// ClientName identifies the generator in the initialize request.
const ClientName = "lsp-proxy-test-session"

const (
	initializeID = 1
	shutdownID   = 2
)

// Options controls the generated session.
type Options struct {
	// ProcessID is sent as processId. Zero selects the current
	// process.
	ProcessID int

	// Exit appends the exit notification after shutdown.
	Exit bool
}

// ClientInfo is the clientInfo member of the initialize params.
type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeParams is the subset of the initialize params the
// generator fills in. RootURI is always null.
type InitializeParams struct {
	ProcessID    int            `json:"processId"`
	RootURI      *string        `json:"rootUri"`
	Capabilities map[string]any `json:"capabilities"`
	ClientInfo   ClientInfo     `json:"clientInfo"`
}

// Requests returns the messages of the canned session in send order.
func Requests(options Options) ([]*jsonrpc2.Request, error) {
	processID := options.ProcessID
	if processID == 0 {
		processID = os.Getpid()
	}

	initialize := &jsonrpc2.Request{Method: "initialize", ID: jsonrpc2.ID{Num: initializeID}}
	if err := initialize.SetParams(InitializeParams{
		ProcessID:    processID,
		Capabilities: map[string]any{},
		ClientInfo:   ClientInfo{Name: ClientName, Version: version.Short()},
	}); err != nil {
		return nil, fmt.Errorf("building initialize request: %w", err)
	}

	requests := []*jsonrpc2.Request{
		initialize,
		{Method: "shutdown", ID: jsonrpc2.ID{Num: shutdownID}},
	}
	if options.Exit {
		requests = append(requests, &jsonrpc2.Request{Method: "exit", Notif: true})
	}
	return requests, nil
}

// Write emits the canned session to w, one frame per message.
func Write(w io.Writer, options Options) error {
	requests, err := Requests(options)
	if err != nil {
		return err
	}
	codec := framing.Codec{}
	for _, request := range requests {
		if err := codec.WriteObject(w, request); err != nil {
			return fmt.Errorf("writing %s: %w", request.Method, err)
		}
	}
	return nil
}
