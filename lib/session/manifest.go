// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/lsp-proxy/lib/codec"
	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
)

// Manifest summarizes a finished session. It is written as CBOR next
// to the logs it describes.
type Manifest struct {
	SessionID   string      `cbor:"session_id"`
	Started     time.Time   `cbor:"started"`
	Finished    time.Time   `cbor:"finished"`
	Backend     string      `cbor:"backend"`
	BackendArgs []string    `cbor:"backend_args,omitempty"`
	Mode        string      `cbor:"mode"`
	Compression string      `cbor:"compression"`
	ExitCode    int         `cbor:"exit_code"`
	ExitSignal  string      `cbor:"exit_signal,omitempty"`
	Logs        []LogRecord `cbor:"logs"`
}

// LogRecord describes one log file of the session.
type LogRecord struct {
	Stream string `cbor:"stream"`
	Format string `cbor:"format"`

	// File is the base name, relative to the manifest's directory.
	File string `cbor:"file"`

	Bytes   int64 `cbor:"bytes"`
	Entries int64 `cbor:"entries"`
	Dropped int64 `cbor:"dropped,omitempty"`
	Skipped int64 `cbor:"skipped,omitempty"`

	// Digest is the BLAKE3 stream digest of the uncompressed content.
	Digest []byte `cbor:"digest"`

	// Fallback marks a raw log created after structured logging of
	// the stream was abandoned.
	Fallback bool `cbor:"fallback,omitempty"`

	Error string `cbor:"error,omitempty"`
}

// NewLogRecord builds the record of one sink from its final stats.
func NewLogRecord(artifact Artifact, stats logsink.Stats) LogRecord {
	record := LogRecord{
		Stream:  artifact.Stream.String(),
		Format:  artifact.Format.String(),
		File:    filepath.Base(stats.Path),
		Bytes:   stats.Bytes,
		Entries: stats.Entries,
		Dropped: stats.Dropped,
		Skipped: stats.Skipped,
		Digest:  stats.Digest[:],
	}
	if stats.Err != nil {
		record.Error = stats.Err.Error()
	}
	return record
}

// WriteManifest fills in the session's identity and writes manifest to
// ManifestPath. An existing file is never overwritten.
func (session *Session) WriteManifest(manifest Manifest) (string, error) {
	manifest.SessionID = session.ID.String()
	manifest.Started = session.Started
	manifest.Mode = session.Mode.String()
	manifest.Compression = session.Compression.String()

	data, err := codec.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("encoding session manifest: %w", err)
	}

	path := session.ManifestPath()
	file, err := createExclusive(path)
	if err != nil {
		return "", fmt.Errorf("creating session manifest: %w", err)
	}
	session.mutex.Lock()
	session.created = append(session.created, path)
	session.mutex.Unlock()

	if _, err := file.Write(data); err != nil {
		file.Close()
		return "", fmt.Errorf("writing session manifest %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing session manifest %s: %w", path, err)
	}
	return path, nil
}

// ReadManifest decodes a manifest file.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := codec.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("decoding session manifest %s: %w", path, err)
	}
	return &manifest, nil
}
