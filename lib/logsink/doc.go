// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logsink writes the per-stream session logs of the proxy.
//
// A [RawSink] appends every byte it is given, unmodified, so the file
// reproduces the wire traffic bit for bit. A [JSONLinesSink] receives
// completed frames and writes each body as one line of compact JSON.
// Both sinks own exactly one file, optionally compress it with zstd or
// LZ4, and hash the uncompressed bytes they accept with BLAKE3.
//
// Write failures never propagate past the sink. The first failure
// marks the sink broken, is reported once through the sink's logger,
// and every later write is dropped and counted. [OpenReader] reads a
// log back, decompressing according to its file extension.
package logsink
