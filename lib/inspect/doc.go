// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package inspect renders session logs for humans.
//
// Raw stream logs are passed back through the framer, structured logs
// are read one line per message, and diagnostic logs are printed as
// text. Each message is printed with its index, a direction arrow
// ("-->" client to server, "<--" server to client), a method/id
// summary and the indented JSON body. Session manifests are printed
// in CBOR diagnostic notation.
//
// Compressed logs (.zst, .lz4) are decompressed transparently.
package inspect
