// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package framing implements the Content-Length message framing used by
// JSON-RPC over stdio (the Language Server Protocol base protocol).
//
// A frame on the wire is a block of ASCII header lines, each terminated
// by CRLF, followed by a blank CRLF line and exactly Content-Length bytes
// of body:
//
//	Content-Length: 43\r\n
//	\r\n
//	{"jsonrpc":"2.0","id":1,"method":"test"}
//
// There is no delimiter after the body; the next frame's headers begin
// immediately after its last byte.
//
// [Framer] is the incremental parser. It accepts arbitrarily chunked
// input through [Framer.Feed] and yields completed [Frame] values,
// buffering only the unconsumed suffix of the stream between calls. It
// is an explicit two-state machine (scanning headers, awaiting body)
// and never interprets the body.
//
// [Encode] and [WriteFrame] are the serializer. [Codec] combines the
// serializer with a blocking reader into a jsonrpc2.ObjectCodec so the
// same wire code drives both the proxy's logging path and synthetic
// clients.
package framing
