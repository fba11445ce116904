// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for lsp-proxy.
//
// Release builds inject [Version], [GitCommit], [GitDirty] and
// [BuildTime] with -ldflags -X:
//
//	go build -ldflags "-X github.com/bureau-foundation/lsp-proxy/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/lsp-proxy
//
// Without injection the commit and time fall back to the VCS stamp the
// Go toolchain records in the binary, when there is one.
package version
