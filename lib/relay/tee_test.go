// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/bureau-foundation/lsp-proxy/lib/framing"
	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
)

func newSinkFile(t *testing.T, directory, name string) *os.File {
	t.Helper()
	file, err := os.OpenFile(filepath.Join(directory, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
	return file
}

func newRawSink(t *testing.T, directory, name string) *logsink.RawSink {
	t.Helper()
	sink, err := logsink.NewRawSink(newSinkFile(t, directory, name), logsink.Options{})
	if err != nil {
		t.Fatalf("NewRawSink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func newJSONLinesSink(t *testing.T, directory, name string) *logsink.JSONLinesSink {
	t.Helper()
	sink, err := logsink.NewJSONLinesSink(newSinkFile(t, directory, name), logsink.Options{})
	if err != nil {
		t.Fatalf("NewJSONLinesSink: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	return sink
}

func counterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("reading counter: %v", err)
	}
	return metric.GetCounter().GetValue()
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func lines(data []byte) []string {
	var result []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		result = append(result, scanner.Text())
	}
	return result
}

// runTee drives tee the way a relay does, feeding input in chunkSize
// pieces.
func runTee(t *testing.T, tee *LogTee, input []byte, chunkSize int) {
	t.Helper()
	relay := &Relay{
		Name:        "test",
		Source:      &slowReader{data: bytes.Clone(input), chunkSize: chunkSize},
		Destination: io.Discard,
		Tee:         tee,
	}
	if err := relay.Run(t.Context()); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestLogTeeRawAndStructured(t *testing.T) {
	bodies := []string{
		`{"jsonrpc":"2.0","id":1,"method":"test"}`,
		`{"jsonrpc":"2.0","method":"bad"`,
		`{"jsonrpc":"2.0","id":1,"result":{}}`,
	}
	var input []byte
	for _, body := range bodies {
		input = append(input, framing.Encode([]byte(body))...)
	}

	for _, chunkSize := range []int{1, 5, 64, 4096} {
		directory := t.TempDir()
		frames := prometheus.NewCounter(prometheus.CounterOpts{Name: "frames"})
		invalid := prometheus.NewCounter(prometheus.CounterOpts{Name: "invalid"})
		tee := &LogTee{
			Raw:        newRawSink(t, directory, "raw.log"),
			Structured: newJSONLinesSink(t, directory, "structured.jsonl"),
			Metrics:    StreamMetrics{Frames: frames, InvalidFrames: invalid},
		}
		runTee(t, tee, input, chunkSize)
		tee.Raw.Close()
		tee.Structured.Close()

		if got := readFile(t, tee.Raw.Path()); !bytes.Equal(got, input) {
			t.Errorf("chunk %d: raw log differs from input", chunkSize)
		}
		want := []string{bodies[0], bodies[2]}
		if got := lines(readFile(t, tee.Structured.Path())); strings.Join(got, "\n") != strings.Join(want, "\n") {
			t.Errorf("chunk %d: structured lines = %q, want %q", chunkSize, got, want)
		}
		if counterValue(t, frames) != 3 || counterValue(t, invalid) != 1 {
			t.Errorf("chunk %d: frames=%v invalid=%v, want 3 and 1", chunkSize, counterValue(t, frames), counterValue(t, invalid))
		}
		if tee.Demoted() {
			t.Errorf("chunk %d: stream demoted without a framing error", chunkSize)
		}
	}
}

func TestLogTeeStructuredOnlyDemotesToFallback(t *testing.T) {
	directory := t.TempDir()
	good := framing.Encode([]byte(`{"id":1}`))
	garbage := []byte("Content-Length: nope\r\n\r\n{}")
	trailing := []byte("more bytes after the failure")
	input := append(append(bytes.Clone(good), garbage...), trailing...)

	opened := 0
	tee := &LogTee{
		Structured: newJSONLinesSink(t, directory, "lsp_stdin.jsonl"),
		Fallback: func() (*logsink.RawSink, error) {
			opened++
			return newRawSink(t, directory, "lsp_stdin.log"), nil
		},
	}
	runTee(t, tee, input, 3)

	if !tee.Demoted() {
		t.Fatal("stream was not demoted after a framing error")
	}
	if opened != 1 {
		t.Errorf("fallback opened %d times, want 1", opened)
	}
	tee.Structured.Close()
	tee.FallbackSink().Close()

	if got := lines(readFile(t, tee.Structured.Path())); len(got) != 1 || got[0] != `{"id":1}` {
		t.Errorf("structured lines = %q", got)
	}
	wantFallback := append(bytes.Clone(garbage), trailing...)
	if got := readFile(t, tee.FallbackSink().Path()); !bytes.Equal(got, wantFallback) {
		t.Errorf("fallback log = %q, want %q", got, wantFallback)
	}
}

func TestLogTeePartialFrameAtEndOfStream(t *testing.T) {
	directory := t.TempDir()
	complete := framing.Encode([]byte(`{"id":1}`))
	partial := []byte("Content-Length: 43\r\n\r\n{\"jsonrpc\":")
	input := append(bytes.Clone(complete), partial...)

	tee := &LogTee{
		Structured: newJSONLinesSink(t, directory, "lsp_stdout.jsonl"),
		Fallback: func() (*logsink.RawSink, error) {
			return newRawSink(t, directory, "lsp_stdout.log"), nil
		},
	}
	runTee(t, tee, input, 4096)

	if tee.FallbackSink() == nil {
		t.Fatal("partial trailing frame did not open the fallback log")
	}
	tee.FallbackSink().Close()
	if got := readFile(t, tee.FallbackSink().Path()); !bytes.Equal(got, partial) {
		t.Errorf("fallback log = %q, want the partial frame %q", got, partial)
	}
}

func TestLogTeeWithRawSinkNeedsNoFallback(t *testing.T) {
	directory := t.TempDir()
	input := []byte("Content-Length: 10\r\n\r\n{}")
	tee := &LogTee{
		Raw:        newRawSink(t, directory, "raw.log"),
		Structured: newJSONLinesSink(t, directory, "structured.jsonl"),
		Fallback: func() (*logsink.RawSink, error) {
			t.Error("fallback opened although a raw log exists")
			return nil, nil
		},
	}
	runTee(t, tee, input, 4096)
	tee.Raw.Close()

	if got := readFile(t, tee.Raw.Path()); !bytes.Equal(got, input) {
		t.Errorf("raw log = %q, want %q", got, input)
	}
}

func TestLogTeeDetachStopsFallback(t *testing.T) {
	directory := t.TempDir()
	opened := 0
	tee := &LogTee{
		Structured: newJSONLinesSink(t, directory, "lsp_stdin.jsonl"),
		Fallback: func() (*logsink.RawSink, error) {
			opened++
			return newRawSink(t, directory, "lsp_stdin.log"), nil
		},
	}

	// A relay still feeding the tee while the controller detaches it.
	var wg sync.WaitGroup
	wg.Go(func() {
		for range 100 {
			tee.Observe([]byte(`{"id":1}`))
		}
	})
	detached := tee.Detach()
	wg.Wait()

	tee.Observe([]byte("garbage\r\n\r\n"))
	tee.Finish()

	if after := tee.FallbackSink(); after != detached {
		t.Errorf("fallback opened after Detach: %v", after.Path())
	}
	if opened > 1 {
		t.Errorf("fallback opened %d times", opened)
	}
}
