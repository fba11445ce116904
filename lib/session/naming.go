// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
)

// TimestampLayout formats the session timestamp in artifact names.
const TimestampLayout = "20060102_150405"

// Stream identifies one of the backend's standard streams.
type Stream int

const (
	Stdin Stream = iota
	Stdout
	Stderr
)

// Streams lists every stream in relay order.
var Streams = []Stream{Stdin, Stdout, Stderr}

func (stream Stream) String() string {
	switch stream {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return fmt.Sprintf("stream(%d)", int(stream))
	}
}

// Identifier is the fixed file-name prefix of the stream's logs.
func (stream Stream) Identifier() string {
	return "lsp_" + stream.String()
}

// Framed reports whether the stream carries protocol frames. Stderr is
// free-form diagnostic text and is only ever logged raw.
func (stream Stream) Framed() bool {
	return stream == Stdin || stream == Stdout
}

// Format is the representation of a stream log.
type Format int

const (
	// Raw logs are byte-for-byte copies of the stream.
	Raw Format = iota

	// Structured logs hold one compact JSON line per frame.
	Structured
)

// Extension returns the file extension of the format.
func (format Format) Extension() string {
	if format == Structured {
		return ".jsonl"
	}
	return ".log"
}

func (format Format) String() string {
	if format == Structured {
		return "jsonl"
	}
	return "raw"
}

// Mode selects which formats a session records.
type Mode int

const (
	// ModeRaw records every stream raw.
	ModeRaw Mode = iota

	// ModeStructured records stdin and stdout as JSON lines and stderr
	// raw. A framed stream that can no longer be parsed falls back to
	// a raw log created on demand.
	ModeStructured

	// ModeBoth records stdin and stdout in both formats.
	ModeBoth
)

// ParseMode parses a logging mode name. "structured" is accepted as an
// alias of "jsonl".
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(name) {
	case "", "raw":
		return ModeRaw, nil
	case "jsonl", "structured":
		return ModeStructured, nil
	case "both":
		return ModeBoth, nil
	default:
		return 0, fmt.Errorf("unknown log format %q (valid: raw, jsonl, both)", name)
	}
}

func (mode Mode) String() string {
	switch mode {
	case ModeRaw:
		return "raw"
	case ModeStructured:
		return "jsonl"
	case ModeBoth:
		return "both"
	default:
		return fmt.Sprintf("mode(%d)", int(mode))
	}
}

// Artifact names one stream log.
type Artifact struct {
	Stream Stream
	Format Format
}

// FileName returns the artifact's name for the given stem and
// compression.
func (artifact Artifact) FileName(stem string, compression logsink.Compression) string {
	return artifact.Stream.Identifier() + "_" + stem + artifact.Format.Extension() + compression.Extension()
}

// Artifacts returns the logs a mode creates when the session starts.
func (mode Mode) Artifacts() []Artifact {
	var artifacts []Artifact
	for _, stream := range Streams {
		if !stream.Framed() || mode != ModeStructured {
			artifacts = append(artifacts, Artifact{Stream: stream, Format: Raw})
		}
		if stream.Framed() && mode != ModeRaw {
			artifacts = append(artifacts, Artifact{Stream: stream, Format: Structured})
		}
	}
	return artifacts
}

// Fallbacks returns the raw logs a mode may create later, when a
// structured-only stream is demoted.
func (mode Mode) Fallbacks() []Artifact {
	if mode != ModeStructured {
		return nil
	}
	return []Artifact{{Stream: Stdin, Format: Raw}, {Stream: Stdout, Format: Raw}}
}

// ManifestFileName returns the manifest's name for a stem.
func ManifestFileName(stem string) string {
	return "lsp_session_" + stem + ".cbor"
}
