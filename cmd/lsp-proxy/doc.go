// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Lsp-proxy sits between an editor and a language server that speaks
// JSON-RPC over stdio. The editor launches lsp-proxy in place of the
// server; lsp-proxy launches the real server, relays all three standard
// streams unchanged, and records the traffic to session logs named by
// stream and start time.
//
// Subcommands generate a canned client session for smoke tests
// (test-session), render recorded logs (inspect) and print build
// information (version).
package main
