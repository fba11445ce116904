// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config resolves the proxy's settings.
//
// Settings come from four layers, each overriding the one before:
//
//  1. [Default] values
//  2. an optional config file, named by --config or LSP_PROXY_CONFIG,
//     in YAML (.yaml, .yml) or JSON with comments (.json, .jsonc)
//  3. environment variables (LSP_SERVER, LSP_PROXY_LOG_DIR,
//     LSP_PROXY_LOG_FORMAT, LSP_PROXY_COMPRESSION,
//     LSP_PROXY_METRICS_FILE)
//  4. command-line flags, applied by the caller after [Load]
//
// Path fields support ${HOME} and ${VAR:-default} expansion so one
// file can serve several machines. [Config.Validate] checks the
// resolved values and reports every problem at once.
package config
