// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/lsp-proxy/cmd/lsp-proxy/cli"
	"github.com/bureau-foundation/lsp-proxy/lib/config"
	"github.com/bureau-foundation/lsp-proxy/proxy"
)

// streams are the process's standard streams, injectable for tests.
type streams struct {
	stdin  *os.File
	stdout io.Writer
	stderr io.Writer
}

func standardStreams() streams {
	return streams{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

// proxyParams holds the root command's flags.
type proxyParams struct {
	configPath   string
	server       string
	logDirectory string
	logFormat    string
	jsonLines    bool
	compression  string
	manifest     bool
	metricsFile  string
	drainTimeout string
	logOutput    string
	verbose      bool
}

func (params *proxyParams) flagSet() *pflag.FlagSet {
	defaults := config.Default()
	flagSet := pflag.NewFlagSet("lsp-proxy", pflag.ContinueOnError)
	// Everything after the first positional argument belongs to the
	// backend.
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&params.configPath, "config", "", "config file (YAML, or JSON with comments); default $"+config.ConfigEnvironmentVariable)
	flagSet.StringVarP(&params.server, "server", "s", "", "language server executable (env LSP_SERVER)")
	flagSet.StringVarP(&params.logDirectory, "log-dir", "l", defaults.LogDirectory, "directory for session logs")
	flagSet.StringVar(&params.logFormat, "log-format", defaults.LogFormat, "log format: raw, jsonl or both")
	flagSet.BoolVarP(&params.jsonLines, "json-lines", "j", false, "log one JSON line per message (same as --log-format=jsonl)")
	flagSet.StringVar(&params.compression, "compress", defaults.Compression, "compress logs: none, zstd or lz4")
	flagSet.BoolVar(&params.manifest, "manifest", false, "write a CBOR session manifest next to the logs")
	flagSet.StringVar(&params.metricsFile, "metrics-file", "", "write Prometheus text-format session metrics to this file")
	flagSet.StringVar(&params.drainTimeout, "drain-timeout", defaults.DrainTimeout, "how long backend output may drain after it exits")
	flagSet.StringVar(&params.logOutput, "log-output", "", "write proxy diagnostics as JSON to this file instead of stderr")
	flagSet.BoolVarP(&params.verbose, "verbose", "v", false, "log debug diagnostics")
	return flagSet
}

// resolve layers the explicitly set flags over the loaded config.
func (params *proxyParams) resolve(flagSet *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(params.configPath)
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("json-lines") && params.jsonLines {
		if flagSet.Changed("log-format") && params.logFormat != "jsonl" {
			return nil, fmt.Errorf("--json-lines conflicts with --log-format=%s", params.logFormat)
		}
		cfg.LogFormat = "jsonl"
	}

	overrides := []struct {
		flag   string
		value  string
		target *string
	}{
		{"server", params.server, &cfg.Server},
		{"log-dir", params.logDirectory, &cfg.LogDirectory},
		{"log-format", params.logFormat, &cfg.LogFormat},
		{"compress", params.compression, &cfg.Compression},
		{"metrics-file", params.metricsFile, &cfg.MetricsFile},
		{"drain-timeout", params.drainTimeout, &cfg.DrainTimeout},
		{"log-output", params.logOutput, &cfg.LogOutput},
	}
	for _, override := range overrides {
		if flagSet.Changed(override.flag) {
			*override.target = override.value
		}
	}
	if flagSet.Changed("manifest") {
		cfg.Manifest = params.manifest
	}
	if flagSet.Changed("verbose") {
		cfg.Verbose = params.verbose
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func rootCommand(std streams) *cli.Command {
	var params proxyParams
	// Execute parses the most recent flag set the factory built; Run
	// reads which flags were set from it.
	var parsed *pflag.FlagSet

	return &cli.Command{
		Name:    "lsp-proxy",
		Summary: "Logging proxy for stdio language servers",
		Description: `Relay a language server's standard streams and record the traffic.

The editor starts lsp-proxy in place of the server. lsp-proxy starts the
server, passes every byte through unchanged in both directions, and
writes session logs named lsp_<stream>_<YYYYMMDD_HHMMSS>.<log|jsonl>.
It exits with the server's exit status.`,
		Usage:      "lsp-proxy [flags] [--] [server-args...]",
		HelpOutput: std.stderr,
		Flags: func() *pflag.FlagSet {
			parsed = params.flagSet()
			return parsed
		},
		Run: func(args []string) error {
			cfg, err := params.resolve(parsed)
			if err != nil {
				return err
			}
			return runProxy(context.Background(), cfg, args, std)
		},
		Subcommands: []*cli.Command{
			testSessionCommand(std),
			inspectCommand(std),
			versionCommand(std),
		},
		Examples: []cli.Example{
			{
				Description: "Log a gopls session in /tmp/lsp as raw bytes",
				Command:     "lsp-proxy -s gopls -l /tmp/lsp",
			},
			{
				Description: "Record structured logs and pass arguments to the server",
				Command:     "lsp-proxy -s clangd -j -- --background-index",
			},
			{
				Description: "Smoke-test a server without an editor",
				Command:     "lsp-proxy test-session --exit | lsp-proxy -s gopls --log-format=both --manifest",
			},
		},
	}
}

// runProxy runs one session and converts the backend's status into the
// command's result.
func runProxy(ctx context.Context, cfg *config.Config, args []string, std streams) error {
	logger, closeLog, err := cli.NewLogger(cli.LoggerOptions{
		Verbose:    cfg.Verbose,
		OutputPath: cfg.LogOutput,
		Stderr:     std.stderr,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	// Validate has already accepted these.
	mode, _ := cfg.Mode()
	compression, _ := cfg.CompressionMode()
	drainTimeout, _ := cfg.DrainTimeoutDuration()

	result, err := proxy.Run(ctx, proxy.Config{
		Backend:      cfg.Server,
		BackendArgs:  append(append([]string(nil), cfg.ServerArgs...), args...),
		LogDirectory: cfg.LogDirectory,
		Mode:         mode,
		Compression:  compression,
		Manifest:     cfg.Manifest,
		MetricsFile:  cfg.MetricsFile,
		DrainTimeout: drainTimeout,
		Stdin:        std.stdin,
		Stdout:       std.stdout,
		Stderr:       std.stderr,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return &cli.ExitError{Code: result.ExitCode}
	}
	return nil
}
