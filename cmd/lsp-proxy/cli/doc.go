// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command framework for the lsp-proxy binary.
//
// The central type is [Command], a named command with an optional
// [pflag.FlagSet] factory, nested [Command.Subcommands] and a Run
// function. [Command.Execute] parses flags, routes subcommands and
// prints help with examples. Unknown commands and flags get a "did you
// mean" suggestion computed by edit distance (suggest.go).
//
// [ExitError] carries a non-zero exit status that needs no extra error
// message, and [NewLogger] builds the proxy's diagnostic logger.
package cli
