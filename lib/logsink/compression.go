// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the streaming compression applied to a log file.
type Compression uint8

const (
	// CompressionNone writes the log as plain bytes.
	CompressionNone Compression = iota

	// CompressionZstd writes a zstd stream. Protocol traffic is JSON
	// text and typically shrinks 5-10x.
	CompressionZstd

	// CompressionLZ4 writes an LZ4 frame stream. Lower ratio than zstd
	// but cheaper on CPU for very chatty servers.
	CompressionLZ4
)

// String returns the configuration name of a compression mode.
func (compression Compression) String() string {
	switch compression {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(compression))
	}
}

// Extension returns the suffix appended to the artifact file name, or
// the empty string for uncompressed logs.
func (compression Compression) Extension() string {
	switch compression {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// ParseCompression parses a compression mode from its configuration
// name. The empty string selects CompressionNone.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (valid: none, zstd, lz4)", name)
	}
}

// compressor is the streaming encoder shape shared by zstd.Encoder and
// lz4.Writer. Flush forces everything written so far into the file so
// a crashed session still leaves a decodable prefix.
type compressor interface {
	io.WriteCloser
	Flush() error
}

func newCompressor(compression Compression, destination io.Writer) (compressor, error) {
	switch compression {
	case CompressionNone:
		return nil, nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(destination,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderConcurrency(1),
		)
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		return encoder, nil
	case CompressionLZ4:
		return lz4.NewWriter(destination), nil
	default:
		return nil, fmt.Errorf("unsupported compression %s", compression)
	}
}

// CompressionForPath infers the compression of a log file from its
// extension.
func CompressionForPath(path string) Compression {
	switch filepath.Ext(path) {
	case ".zst":
		return CompressionZstd
	case ".lz4":
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// OpenReader opens a session log for reading, transparently
// decompressing .zst and .lz4 files. Closing the reader closes the
// file.
func OpenReader(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch CompressionForPath(path) {
	case CompressionZstd:
		decoder, err := zstd.NewReader(file, zstd.WithDecoderConcurrency(1))
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("opening zstd stream %s: %w", path, err)
		}
		return &decompressingReader{
			Reader: decoder,
			close: func() error {
				decoder.Close()
				return file.Close()
			},
		}, nil
	case CompressionLZ4:
		return &decompressingReader{Reader: lz4.NewReader(file), close: file.Close}, nil
	default:
		return file, nil
	}
}

type decompressingReader struct {
	io.Reader
	close func() error
}

func (reader *decompressingReader) Close() error {
	return reader.close()
}
