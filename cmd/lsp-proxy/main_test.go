// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/lsp-proxy/cmd/lsp-proxy/cli"
	"github.com/bureau-foundation/lsp-proxy/lib/config"
	"github.com/bureau-foundation/lsp-proxy/lib/testsession"
	"github.com/bureau-foundation/lsp-proxy/lib/testutil"
)

func clearEnvironment(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		config.ConfigEnvironmentVariable,
		"LSP_SERVER",
		"LSP_PROXY_LOG_DIR",
		"LSP_PROXY_LOG_FORMAT",
		"LSP_PROXY_COMPRESSION",
		"LSP_PROXY_METRICS_FILE",
	} {
		t.Setenv(name, "")
	}
}

// testStreams returns streams whose stdin yields input and then ends.
func testStreams(t *testing.T, input []byte) (streams, *testutil.SyncBuffer, *testutil.SyncBuffer) {
	t.Helper()
	reader, writer, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	t.Cleanup(func() { reader.Close() })
	if _, err := writer.Write(input); err != nil {
		t.Fatalf("writing stdin: %v", err)
	}
	writer.Close()

	stdout, stderr := &testutil.SyncBuffer{}, &testutil.SyncBuffer{}
	return streams{stdin: reader, stdout: stdout, stderr: stderr}, stdout, stderr
}

// execute runs the root command with a hang guard.
func execute(t *testing.T, std streams, args ...string) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- rootCommand(std).Execute(args) }()
	return testutil.RequireReceive(t, done, 15*time.Second, "lsp-proxy %v did not finish", args)
}

func parseParams(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var params proxyParams
	flagSet := params.flagSet()
	if err := flagSet.Parse(args); err != nil {
		t.Fatalf("parsing %v: %v", args, err)
	}
	return params.resolve(flagSet)
}

func TestResolvePrecedence(t *testing.T) {
	clearEnvironment(t)
	configPath := filepath.Join(t.TempDir(), "proxy.yaml")
	content := "server: from-file\nlog_dir: /file/logs\ncompression: lz4\nmanifest: true\nserver_args: [serve]\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("LSP_PROXY_LOG_DIR", "/env/logs")
	t.Setenv("LSP_SERVER", "from-env")

	cfg, err := parseParams(t, "--config", configPath, "-s", "from-flag", "--log-format", "both")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if cfg.Server != "from-flag" {
		t.Errorf("server = %q, want the flag to win", cfg.Server)
	}
	if cfg.LogDirectory != "/env/logs" {
		t.Errorf("log dir = %q, want the environment to beat the file", cfg.LogDirectory)
	}
	if cfg.Compression != "lz4" || !cfg.Manifest {
		t.Errorf("file settings lost: compression %q manifest %v", cfg.Compression, cfg.Manifest)
	}
	if cfg.LogFormat != "both" {
		t.Errorf("log format = %q, want both", cfg.LogFormat)
	}
	if len(cfg.ServerArgs) != 1 || cfg.ServerArgs[0] != "serve" {
		t.Errorf("server args = %v, want [serve] from the file", cfg.ServerArgs)
	}
}

func TestResolveUnsetFlagsDoNotOverride(t *testing.T) {
	clearEnvironment(t)
	t.Setenv("LSP_PROXY_LOG_FORMAT", "both")

	cfg, err := parseParams(t, "-s", "gopls")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.LogFormat != "both" {
		t.Errorf("log format = %q, want the environment value to survive flag defaults", cfg.LogFormat)
	}
}

func TestResolveJSONLines(t *testing.T) {
	clearEnvironment(t)

	cfg, err := parseParams(t, "-s", "gopls", "-j")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.LogFormat != "jsonl" {
		t.Errorf("log format = %q, want jsonl", cfg.LogFormat)
	}

	if _, err := parseParams(t, "-s", "gopls", "-j", "--log-format", "both"); err == nil {
		t.Error("expected -j with --log-format=both to conflict")
	}
	if _, err := parseParams(t, "-s", "gopls", "-j", "--log-format", "jsonl"); err != nil {
		t.Errorf("-j with --log-format=jsonl: %v", err)
	}
}

func TestResolveRequiresServer(t *testing.T) {
	clearEnvironment(t)
	_, err := parseParams(t, "-l", t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "no language server") {
		t.Errorf("resolve without server = %v, want missing server error", err)
	}
}

func TestProxyEndToEnd(t *testing.T) {
	clearEnvironment(t)
	var session bytes.Buffer
	if err := testsession.Write(&session, testsession.Options{Exit: true}); err != nil {
		t.Fatalf("testsession.Write: %v", err)
	}
	directory := t.TempDir()
	std, stdout, _ := testStreams(t, session.Bytes())

	err := execute(t, std, "-s", "/bin/cat", "-l", directory, "--log-format", "both", "--manifest", "--compress", "zstd")
	if err != nil {
		t.Fatalf("lsp-proxy: %v", err)
	}
	if stdout.String() != session.String() {
		t.Errorf("client received %q, want the echoed session %q", stdout.String(), session.String())
	}

	for _, pattern := range []string{
		"lsp_stdin_*.log.zst",
		"lsp_stdin_*.jsonl.zst",
		"lsp_stdout_*.log.zst",
		"lsp_stdout_*.jsonl.zst",
		"lsp_stderr_*.log.zst",
		"lsp_session_*.cbor",
	} {
		matches, _ := filepath.Glob(filepath.Join(directory, pattern))
		if len(matches) != 1 {
			t.Errorf("%s: found %v, want exactly one file", pattern, matches)
		}
	}

	// The recorded session renders through inspect.
	matches, _ := filepath.Glob(filepath.Join(directory, "lsp_stdin_*.jsonl.zst"))
	if len(matches) == 1 {
		inspectStd, inspectOut, _ := testStreams(t, nil)
		if err := execute(t, inspectStd, "inspect", matches[0]); err != nil {
			t.Fatalf("inspect: %v", err)
		}
		for _, want := range []string{"#1 --> initialize (id 1)", "#2 --> shutdown (id 2)", "#3 --> exit"} {
			if !strings.Contains(inspectOut.String(), want) {
				t.Errorf("inspect output lacks %q:\n%s", want, inspectOut.String())
			}
		}
	}
}

func TestProxyPassesArgumentsAndExitStatus(t *testing.T) {
	clearEnvironment(t)
	std, _, stderr := testStreams(t, nil)

	err := execute(t, std, "-s", "/bin/sh", "-l", t.TempDir(), "--", "-c", "echo diagnostics >&2; exit 3")

	var exitError *cli.ExitError
	if !errors.As(err, &exitError) || exitError.Code != 3 {
		t.Fatalf("error = %v, want *cli.ExitError with code 3", err)
	}
	if !strings.Contains(stderr.String(), "diagnostics\n") {
		t.Errorf("backend stderr not forwarded: %q", stderr.String())
	}
}

func TestProxyForwardsLeadingPositionalArguments(t *testing.T) {
	clearEnvironment(t)
	t.Setenv("LSP_SERVER", "/bin/echo")
	t.Setenv("LSP_PROXY_LOG_DIR", t.TempDir())
	std, stdout, _ := testStreams(t, nil)

	if err := execute(t, std, "serve", "--stdio"); err != nil {
		t.Fatalf("lsp-proxy serve --stdio: %v", err)
	}
	if stdout.String() != "serve --stdio\n" {
		t.Errorf("backend output = %q, want the arguments echoed untouched", stdout.String())
	}
}

func TestProxyMissingBackend(t *testing.T) {
	clearEnvironment(t)
	std, _, _ := testStreams(t, nil)

	err := execute(t, std, "-s", filepath.Join(t.TempDir(), "no-such-server"), "-l", t.TempDir())
	coder, ok := err.(interface{ ExitCode() int })
	if !ok || coder.ExitCode() != 126 {
		t.Fatalf("error = %v, want exit code 126", err)
	}
}

func TestTestSessionCommand(t *testing.T) {
	std, stdout, _ := testStreams(t, nil)
	if err := execute(t, std, "test-session"); err != nil {
		t.Fatalf("test-session: %v", err)
	}
	if count := strings.Count(stdout.String(), "Content-Length: "); count != 2 {
		t.Errorf("test-session wrote %d frames, want 2:\n%s", count, stdout.String())
	}

	std, stdout, _ = testStreams(t, nil)
	if err := execute(t, std, "test-session", "--exit"); err != nil {
		t.Fatalf("test-session --exit: %v", err)
	}
	if !strings.Contains(stdout.String(), `"method":"exit"`) {
		t.Errorf("exit notification missing:\n%s", stdout.String())
	}
}

func TestInspectRequiresFiles(t *testing.T) {
	std, _, _ := testStreams(t, nil)
	if err := execute(t, std, "inspect"); err == nil {
		t.Error("inspect without files succeeded")
	}
}

func TestVersionCommand(t *testing.T) {
	std, stdout, _ := testStreams(t, nil)
	if err := execute(t, std, "version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "lsp-proxy ") {
		t.Errorf("version output = %q", stdout.String())
	}
}
