// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration used for session
// manifests.
//
// Manifests are written once at the end of a session and read back by
// the inspect command, so the encoding favours reproducibility: the
// encoder uses Core Deterministic Encoding (RFC 8949 §4.2), with sorted
// map keys, smallest integer encoding and no indefinite-length items.
// Encoding the same manifest twice produces identical bytes, which
// keeps manifests diffable and hashable.
//
//	data, err := codec.Marshal(manifest)
//	err = codec.Unmarshal(data, &manifest)
//	text, err := codec.Diagnose(data)
//
// Types in this module that are only ever stored as CBOR carry `cbor`
// struct tags. Timestamps encode as RFC 3339 text so that diagnostic
// output stays readable.
package codec
