// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testsession writes a canned client session: an initialize
// request followed by a shutdown request, optionally followed by the
// exit notification. Piping its output into the proxy exercises the
// inbound path end to end without a real editor:
//
//	lsp-proxy test-session --exit | lsp-proxy -s gopls
//
// Messages are built as jsonrpc2.Request values and serialized with
// framing.Codec, the same serializer the proxy's own tests parse back.
package testsession
