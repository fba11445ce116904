// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package relay copies one byte stream to another while handing every
// forwarded chunk to a logging tee.
//
// A proxy session runs three relays: client stdin to backend stdin,
// backend stdout to client stdout, and backend stderr to the proxy's
// own stderr. Each [Relay] forwards a chunk as soon as it is read,
// without waiting for a complete message, and only then passes the
// same bytes to its [Tee]. Byte order within one relay is exact.
//
// [LogTee] is the tee used by the proxy: it writes chunks to a raw
// sink and, for framed streams, feeds them through a framing.Framer
// into a JSON-lines sink. A framing failure demotes the stream to raw
// logging for the rest of the session.
package relay
