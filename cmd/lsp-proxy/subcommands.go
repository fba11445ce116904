// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/lsp-proxy/cmd/lsp-proxy/cli"
	"github.com/bureau-foundation/lsp-proxy/lib/inspect"
	"github.com/bureau-foundation/lsp-proxy/lib/testsession"
	"github.com/bureau-foundation/lsp-proxy/lib/version"
)

func testSessionCommand(std streams) *cli.Command {
	var exit bool
	return &cli.Command{
		Name:    "test-session",
		Summary: "Write a canned initialize/shutdown session to stdout",
		Description: `Write two framed requests to standard output: initialize (id 1) and
shutdown (id 2). Pipe the output into lsp-proxy to exercise a server
without an editor.`,
		Usage: "lsp-proxy test-session [--exit]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("test-session", pflag.ContinueOnError)
			flagSet.BoolVar(&exit, "exit", false, "also send the exit notification")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("test-session takes no arguments, got %q", args)
			}
			return testsession.Write(std.stdout, testsession.Options{Exit: exit})
		},
	}
}

func inspectCommand(std streams) *cli.Command {
	var plain bool
	return &cli.Command{
		Name:    "inspect",
		Summary: "Render session logs and manifests",
		Description: `Print the messages recorded in session logs, one entry per message
with its direction, method or id, and indented JSON body. Compressed
logs are read transparently; manifests are shown in CBOR diagnostic
notation.`,
		Usage: "lsp-proxy inspect [--plain] FILE...",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
			flagSet.BoolVar(&plain, "plain", false, "disable styling even on a terminal")
			return flagSet
		},
		Examples: []cli.Example{{
			Description: "Show both directions of a session",
			Command:     "lsp-proxy inspect lsp_stdin_20260301_124500.jsonl lsp_stdout_20260301_124500.jsonl",
		}},
		Run: func(args []string) error {
			if len(args) == 0 {
				return errors.New("inspect needs at least one log file")
			}
			printer := &inspect.Printer{
				Out:    std.stdout,
				Styled: !plain && cli.IsTerminal(std.stdout),
			}
			var errs []error
			for _, path := range args {
				if err := printer.File(path); err != nil {
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}
}

func versionCommand(std streams) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(args []string) error {
			fmt.Fprintf(std.stdout, "lsp-proxy %s\n", version.Full())
			return nil
		},
	}
}
