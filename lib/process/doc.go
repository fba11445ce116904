// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds binary entrypoint helpers: turning the error a
// command returned into the process exit status and a final message on
// stderr, for the cases where the structured logger may not exist.
package process
