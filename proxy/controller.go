// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/bureau-foundation/lsp-proxy/lib/clock"
	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
	"github.com/bureau-foundation/lsp-proxy/lib/relay"
	"github.com/bureau-foundation/lsp-proxy/lib/session"
	"github.com/bureau-foundation/lsp-proxy/lib/supervisor"
)

const (
	// SpawnFailureExitCode is returned when the backend could not be
	// started at all (the shell's "found but not executable" code).
	SpawnFailureExitCode = 126

	// SetupFailureExitCode is returned for problems detected before
	// the backend is started: configuration and the log directory.
	SetupFailureExitCode = 1

	// DefaultDrainTimeout is how long the backend's output streams may
	// keep flowing after the backend exited.
	DefaultDrainTimeout = 2 * time.Second
)

// Config describes one proxy session.
type Config struct {
	// Backend is the language server executable; BackendArgs are
	// passed to it untouched.
	Backend     string
	BackendArgs []string

	// BackendEnv is the backend environment. Nil inherits the proxy's.
	BackendEnv []string

	LogDirectory string
	Mode         session.Mode
	Compression  logsink.Compression

	// Manifest writes a CBOR session manifest next to the logs.
	Manifest bool

	// MetricsFile, when set, receives the session metrics in the
	// Prometheus text format.
	MetricsFile string

	// DrainTimeout bounds how long the outbound and diagnostic relays
	// may run after the backend exited. Zero selects
	// DefaultDrainTimeout.
	DrainTimeout time.Duration

	// Stdin, Stdout and Stderr are the client side. Nil selects the
	// process's standard streams. Stdout is closed when the backend's
	// output ends; Stderr is never closed.
	Stdin  *os.File
	Stdout io.Writer
	Stderr io.Writer

	// Signals delivers signals to forward to the backend. Nil makes
	// Run subscribe to ForwardedSignals itself.
	Signals <-chan os.Signal

	Clock  clock.Clock
	Logger *slog.Logger
}

// Result describes a finished session.
type Result struct {
	// ExitCode is the status the proxy should exit with.
	ExitCode int

	Status supervisor.ExitStatus

	// Stem is the session's artifact name stem.
	Stem string

	// Logs describes every log file the session wrote.
	Logs []session.LogRecord

	// ManifestPath is set when a manifest was written.
	ManifestPath string
}

// ExitError is a session failure that determines the process exit
// status.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the process exit status for the failure.
func (e *ExitError) ExitCode() int { return e.Code }

// streamLogs is the logging state of one relayed stream.
type streamLogs struct {
	stream     session.Stream
	raw        *logsink.RawSink
	structured *logsink.JSONLinesSink
	tee        *relay.LogTee
}

// Run executes one proxy session: it creates the session logs, starts
// the backend, relays all three streams until the backend has exited
// and the relays are done, then flushes the logs.
//
// The returned error is an *ExitError for sessions that failed before
// traffic could flow (exit status 1 for setup problems, 126 when the
// backend could not be started). Otherwise Result.ExitCode carries the
// backend's own status.
func Run(ctx context.Context, config Config) (Result, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sessionClock := config.Clock
	if sessionClock == nil {
		sessionClock = clock.Real()
	}
	drainTimeout := config.DrainTimeout
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}
	stdin := config.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	stdout := config.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stderr := config.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	if config.Backend == "" {
		return Result{ExitCode: SetupFailureExitCode}, &ExitError{Code: SetupFailureExitCode, Err: errors.New("no backend configured")}
	}

	current, err := session.New(session.Config{
		Directory:   config.LogDirectory,
		Mode:        config.Mode,
		Compression: config.Compression,
		Manifest:    config.Manifest,
		Clock:       sessionClock,
		Logger:      logger,
	})
	if err != nil {
		return Result{ExitCode: SetupFailureExitCode}, &ExitError{Code: SetupFailureExitCode, Err: err}
	}
	logger = logger.With("session", current.Stem)
	logger.Info("session started", "directory", current.Directory, "mode", current.Mode.String(),
		"compression", current.Compression.String())

	var metrics *session.Metrics
	if config.MetricsFile != "" {
		metrics = session.NewMetrics()
	}

	logs, err := openStreamLogs(current, metrics, logger)
	if err != nil {
		closeStreamLogs(logs)
		current.Discard()
		return Result{ExitCode: SetupFailureExitCode}, &ExitError{Code: SetupFailureExitCode, Err: err}
	}

	input, err := openClientInput(stdin)
	if err != nil {
		closeStreamLogs(logs)
		current.Discard()
		return Result{ExitCode: SetupFailureExitCode}, &ExitError{Code: SetupFailureExitCode, Err: err}
	}
	defer input.Close()
	if !input.pollable() {
		logger.Debug("client input does not support read deadlines; its relay is abandoned at shutdown if still blocked")
	}

	child, err := supervisor.Start(ctx, supervisor.Config{
		Path:   config.Backend,
		Args:   config.BackendArgs,
		Env:    config.BackendEnv,
		Logger: logger,
	})
	if err != nil {
		closeStreamLogs(logs)
		if discardErr := current.Discard(); discardErr != nil {
			logger.Warn("removing logs of failed session", "error", discardErr)
		}
		logger.Error("backend could not be started", "error", err)
		return Result{ExitCode: SpawnFailureExitCode, Stem: current.Stem}, &ExitError{Code: SpawnFailureExitCode, Err: err}
	}

	signals := config.Signals
	if signals == nil {
		subscription := make(chan os.Signal, 4)
		signal.Notify(subscription, ForwardedSignals...)
		defer signal.Stop(subscription)
		signals = subscription
	}
	go forwardSignals(signals, child, logger)

	inbound := &relay.Relay{
		Name:        "stdin",
		Source:      input.file,
		Destination: child.Stdin,
		Tee:         logs[session.Stdin].tee,
		Logger:      logger,
	}
	outbound := &relay.Relay{
		Name:        "stdout",
		Source:      child.Stdout,
		Destination: stdout,
		Tee:         logs[session.Stdout].tee,
		Logger:      logger,
	}
	diagnostic := &relay.Relay{
		Name:        "stderr",
		Source:      child.Stderr,
		Destination: writerOnly{stderr},
		Tee:         logs[session.Stderr].tee,
		Logger:      logger,
	}

	inboundContext, cancelInbound := context.WithCancel(context.Background())
	defer cancelInbound()
	outputContext, cancelOutput := context.WithCancel(context.Background())
	defer cancelOutput()

	inboundDone := runRelay(inboundContext, inbound)
	outboundDone := runRelay(outputContext, outbound)
	diagnosticDone := runRelay(outputContext, diagnostic)

	// Backend exit and relay completion are independent: the client
	// may keep stdin open after the backend died, and the backend may
	// leave its output open after closing stdin.
	status := child.Wait()
	logger.Info("backend exited", "status", status.String())

	// Nothing can consume client input any more.
	cancelInbound()

	outputDrained := make(chan struct{})
	go func() {
		<-outboundDone
		<-diagnosticDone
		close(outputDrained)
	}()
	select {
	case <-outputDrained:
	case <-sessionClock.After(drainTimeout):
		logger.Warn("backend output still open after exit, tearing down", "drain_timeout", drainTimeout)
		cancelOutput()
		<-outputDrained
	}

	select {
	case <-inboundDone:
	case <-sessionClock.After(drainTimeout):
		// Client input that cannot be interrupted (a blocking
		// descriptor the poller rejected) is abandoned; the process is
		// about to exit anyway.
		logger.Warn("client input relay did not stop, abandoning it")
	}
	child.Stdin.Close()
	child.Stdout.Close()
	child.Stderr.Close()

	result := Result{
		ExitCode: status.Code(),
		Status:   status,
		Stem:     current.Stem,
		Logs:     closeStreamLogs(logs),
	}
	for _, stream := range session.Streams {
		for _, record := range recordsFor(result.Logs, stream) {
			metrics.ObserveDropped(stream, record.Dropped)
		}
	}
	metrics.ObserveExit(result.ExitCode, sessionClock.Now().Sub(current.Started))

	if config.Manifest {
		manifest := session.Manifest{
			Finished:    sessionClock.Now(),
			Backend:     config.Backend,
			BackendArgs: config.BackendArgs,
			ExitCode:    result.ExitCode,
			Logs:        result.Logs,
		}
		if sig, ok := status.Signal(); ok {
			manifest.ExitSignal = sig.String()
		}
		path, err := current.WriteManifest(manifest)
		if err != nil {
			logger.Error("writing session manifest failed", "error", err)
		} else {
			result.ManifestPath = path
		}
	}
	if config.MetricsFile != "" {
		if err := metrics.WriteTextfile(config.MetricsFile); err != nil {
			logger.Error("writing metrics file failed", "path", config.MetricsFile, "error", err)
		}
	}

	logger.Info("session finished", "exit_code", result.ExitCode,
		"stdin_bytes", inbound.Bytes(), "stdout_bytes", outbound.Bytes(), "stderr_bytes", diagnostic.Bytes())
	return result, nil
}

// runRelay runs relay in its own goroutine and returns a channel closed
// when it stops.
func runRelay(ctx context.Context, streamRelay *relay.Relay) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		// Run reports its own failures through the relay's logger;
		// a stopped relay never stops its siblings.
		_ = streamRelay.Run(ctx)
	}()
	return done
}

// openStreamLogs creates the sinks and tees of every stream, indexed
// by session.Stream. On error the sinks opened so far are returned
// for closing.
func openStreamLogs(current *session.Session, metrics *session.Metrics, logger *slog.Logger) ([]*streamLogs, error) {
	logs := make([]*streamLogs, len(session.Streams))
	for _, stream := range session.Streams {
		streamLogger := logger.With("stream", stream.String())
		logs[stream] = &streamLogs{
			stream: stream,
			tee: &relay.LogTee{
				Metrics: metrics.Stream(stream),
				Logger:  streamLogger,
			},
		}
	}

	options := func(stream session.Stream) logsink.Options {
		return logsink.Options{Compression: current.Compression, Logger: logger.With("stream", stream.String())}
	}

	for _, artifact := range current.Mode.Artifacts() {
		entry := logs[artifact.Stream]
		file, err := current.Open(artifact)
		if err != nil {
			return logs, err
		}
		switch artifact.Format {
		case session.Raw:
			entry.raw, err = logsink.NewRawSink(file, options(artifact.Stream))
			entry.tee.Raw = entry.raw
		case session.Structured:
			entry.structured, err = logsink.NewJSONLinesSink(file, options(artifact.Stream))
			entry.tee.Structured = entry.structured
		}
		if err != nil {
			file.Close()
			return logs, fmt.Errorf("opening %s log: %w", artifact.Stream, err)
		}
	}

	for _, artifact := range current.Mode.Fallbacks() {
		fallback := artifact
		logs[fallback.Stream].tee.Fallback = func() (*logsink.RawSink, error) {
			file, err := current.Open(fallback)
			if err != nil {
				return nil, err
			}
			sink, err := logsink.NewRawSink(file, options(fallback.Stream))
			if err != nil {
				file.Close()
				return nil, err
			}
			return sink, nil
		}
	}
	return logs, nil
}

// closeStreamLogs closes every sink and returns their final records in
// stream order.
func closeStreamLogs(logs []*streamLogs) []session.LogRecord {
	var records []session.LogRecord
	for _, entry := range logs {
		if entry == nil {
			continue
		}
		// An abandoned inbound relay may still be running; detaching
		// keeps it from writing or opening a fallback from here on.
		fallback := entry.tee.Detach()
		if entry.raw != nil {
			entry.raw.Close()
			records = append(records, session.NewLogRecord(session.Artifact{Stream: entry.stream, Format: session.Raw}, entry.raw.Stats()))
		}
		if entry.structured != nil {
			entry.structured.Close()
			records = append(records, session.NewLogRecord(session.Artifact{Stream: entry.stream, Format: session.Structured}, entry.structured.Stats()))
		}
		if fallback != nil {
			fallback.Close()
			record := session.NewLogRecord(session.Artifact{Stream: entry.stream, Format: session.Raw}, fallback.Stats())
			record.Fallback = true
			records = append(records, record)
		}
	}
	return records
}

func recordsFor(records []session.LogRecord, stream session.Stream) []session.LogRecord {
	var matching []session.LogRecord
	for _, record := range records {
		if record.Stream == stream.String() {
			matching = append(matching, record)
		}
	}
	return matching
}

// writerOnly hides the Close method of the proxy's own stderr, which
// must stay open for the proxy's log output.
type writerOnly struct {
	io.Writer
}
