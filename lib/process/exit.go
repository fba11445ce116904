// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that determine the exit status.
type exitCoder interface {
	ExitCode() int
}

// Code returns the exit status for err: 0 for nil, the ExitCode of the
// first error in the chain that has one, and 1 otherwise.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "name: err" to w.
func Report(w io.Writer, name string, err error) {
	fmt.Fprintf(w, "%s: %v\n", name, err)
}

// Fatal reports err on stderr and exits with Code(err). Use it in main
// for errors the structured logger may never have seen.
func Fatal(name string, err error) {
	Report(os.Stderr, name, err)
	code := Code(err)
	if code == 0 {
		code = 1
	}
	os.Exit(code)
}
