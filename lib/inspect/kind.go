// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
	"github.com/bureau-foundation/lsp-proxy/lib/session"
)

// Kind is the content type of a session artifact.
type Kind int

const (
	KindUnknown Kind = iota
	KindRawFrames
	KindJSONLines
	KindText
	KindManifest
)

func (kind Kind) String() string {
	switch kind {
	case KindRawFrames:
		return "raw frames"
	case KindJSONLines:
		return "json lines"
	case KindText:
		return "text"
	case KindManifest:
		return "manifest"
	default:
		return "unknown"
	}
}

// Direction is the flow of the messages in a log.
type Direction string

const (
	ClientToServer   Direction = "-->"
	ServerToClient   Direction = "<--"
	UnknownDirection Direction = "---"
)

// Classify infers the kind and direction of an artifact from its file
// name. Files that do not follow the session naming scheme are treated
// by extension alone with an unknown direction.
func Classify(path string) (Kind, Direction) {
	name := filepath.Base(path)
	if logsink.CompressionForPath(name) != logsink.CompressionNone {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	if strings.HasSuffix(name, ".cbor") {
		return KindManifest, UnknownDirection
	}

	direction := UnknownDirection
	framed := true
	switch {
	case strings.HasPrefix(name, session.Stdin.Identifier()+"_"):
		direction = ClientToServer
	case strings.HasPrefix(name, session.Stdout.Identifier()+"_"):
		direction = ServerToClient
	case strings.HasPrefix(name, session.Stderr.Identifier()+"_"):
		framed = false
	}

	switch filepath.Ext(name) {
	case session.Structured.Extension():
		return KindJSONLines, direction
	case session.Raw.Extension():
		if !framed {
			return KindText, direction
		}
		return KindRawFrames, direction
	}
	return KindUnknown, direction
}
