// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package inspect

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/lsp-proxy/lib/codec"
	"github.com/bureau-foundation/lsp-proxy/lib/framing"
	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
)

// readChunkSize matches the relay's default buffer so raw logs are
// re-framed in chunks similar to what the proxy saw live.
const readChunkSize = 32 * 1024

// maxLineLength bounds one structured log line. Frames themselves are
// bounded by framing.DefaultMaxBodyLength; compaction only shrinks them.
const maxLineLength = framing.DefaultMaxBodyLength + 1

// Printer writes human-readable renderings of session artifacts.
type Printer struct {
	// Out receives the rendering.
	Out io.Writer

	// Styled enables lipgloss labels and chroma JSON highlighting.
	// Callers set it when Out is a terminal.
	Styled bool

	index int
}

var (
	fileStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	indexStyle   = lipgloss.NewStyle().Faint(true)
	inboundStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	replyStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	summaryStyle = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// File renders one artifact. Message indices continue across calls so
// several logs printed together stay numbered in one sequence.
func (printer *Printer) File(path string) error {
	kind, direction := Classify(path)
	if kind == KindUnknown {
		return fmt.Errorf("%s: not a session log (expected .log, .jsonl or .cbor, optionally compressed)", path)
	}

	reader, err := logsink.OpenReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	printer.heading(fmt.Sprintf("%s (%s)", filepath.Base(path), kind))

	switch kind {
	case KindRawFrames:
		err = printer.rawFrames(reader, direction)
	case KindJSONLines:
		err = printer.jsonLines(reader, direction)
	case KindText:
		_, err = io.Copy(printer.Out, reader)
	case KindManifest:
		err = printer.manifest(reader)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

func (printer *Printer) rawFrames(reader io.Reader, direction Direction) error {
	framer := framing.NewFramer()
	chunk := make([]byte, readChunkSize)
	for {
		n, err := reader.Read(chunk)
		if n > 0 {
			for frame := range framer.Feed(chunk[:n]) {
				printer.message(direction, frame.Body)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
	}

	if framer.Err() != nil {
		printer.warning(fmt.Sprintf("%v; %d unframed bytes follow", framer.Err(), framer.Buffered()))
	} else if framer.Buffered() > 0 {
		printer.warning(fmt.Sprintf("log ends inside a frame; %d bytes incomplete", framer.Buffered()))
	}
	return nil
}

func (printer *Printer) jsonLines(reader io.Reader, direction Direction) error {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, readChunkSize), maxLineLength)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		printer.message(direction, line)
	}
	return scanner.Err()
}

func (printer *Printer) manifest(reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	notation, err := codec.Diagnose(data)
	if err != nil {
		return fmt.Errorf("decoding manifest: %w", err)
	}
	fmt.Fprintln(printer.Out, notation)
	return nil
}

// message prints one protocol message: an index/direction/summary line
// followed by the indented body. Bodies that are not JSON are printed
// verbatim after a warning.
func (printer *Printer) message(direction Direction, body []byte) {
	printer.index++

	var indented bytes.Buffer
	valid := json.Indent(&indented, body, "", "  ") == nil

	arrow := string(direction)
	label := fmt.Sprintf("#%d", printer.index)
	summary := "invalid JSON"
	if valid {
		summary = Summarize(body)
	}
	if printer.Styled {
		label = indexStyle.Render(label)
		switch direction {
		case ClientToServer:
			arrow = inboundStyle.Render(arrow)
		case ServerToClient:
			arrow = replyStyle.Render(arrow)
		}
		summary = summaryStyle.Render(summary)
	}
	fmt.Fprintf(printer.Out, "%s %s %s\n", label, arrow, summary)

	if !valid {
		printer.Out.Write(body)
		fmt.Fprintln(printer.Out)
		return
	}
	printer.json(indented.String())
}

func (printer *Printer) json(text string) {
	if printer.Styled {
		var highlighted bytes.Buffer
		if err := quick.Highlight(&highlighted, text, "json", "terminal256", "monokai"); err == nil {
			fmt.Fprintln(printer.Out, highlighted.String())
			return
		}
	}
	fmt.Fprintln(printer.Out, text)
}

func (printer *Printer) heading(text string) {
	if printer.Styled {
		text = fileStyle.Render(text)
	} else {
		text = "== " + text + " =="
	}
	fmt.Fprintln(printer.Out, text)
}

func (printer *Printer) warning(text string) {
	if printer.Styled {
		text = warningStyle.Render(text)
	}
	fmt.Fprintln(printer.Out, "! "+text)
}
