// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"encoding/json"
	"fmt"
)

// envelope is the part of a JSON-RPC message the summary needs.
type envelope struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Result json.RawMessage `json:"result"`
}

// Summarize describes a JSON-RPC message in one line:
//
//	initialize (id 1)        request
//	initialized              notification
//	result (id 1)            response
//	error -32601 (id 1): ... error response
//
// Batches are reported by size. Anything else is "json".
func Summarize(body []byte) string {
	var batch []json.RawMessage
	if json.Unmarshal(body, &batch) == nil {
		return fmt.Sprintf("batch of %d", len(batch))
	}

	var message envelope
	if err := json.Unmarshal(body, &message); err != nil {
		return "json"
	}

	id := ""
	if len(message.ID) > 0 && string(message.ID) != "null" {
		id = " (id " + string(message.ID) + ")"
	}

	switch {
	case message.Method != "":
		return message.Method + id
	case message.Error != nil:
		return fmt.Sprintf("error %d%s: %s", message.Error.Code, id, message.Error.Message)
	case message.Result != nil:
		return "result" + id
	default:
		return "json" + id
	}
}
