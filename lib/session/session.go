// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bureau-foundation/lsp-proxy/lib/clock"
	"github.com/bureau-foundation/lsp-proxy/lib/logsink"
)

// maxStemAttempts bounds the collision suffix search. Reaching it
// means the directory holds a thousand sessions from the same second,
// which is a misconfiguration rather than a race.
const maxStemAttempts = 1000

// Config describes the session to create.
type Config struct {
	// Directory receives the session's files. It is created (with
	// parents) when missing. Empty means the working directory.
	Directory string

	Mode        Mode
	Compression logsink.Compression

	// Manifest reserves the manifest file name when claiming the stem.
	Manifest bool

	// Clock supplies the session timestamp. Nil uses the real clock.
	Clock clock.Clock

	Logger *slog.Logger
}

// Session is one proxy run's identity and file set. Its exported
// fields are fixed by New and read-only afterwards.
type Session struct {
	ID          uuid.UUID
	Started     time.Time
	Stem        string
	Directory   string
	Mode        Mode
	Compression logsink.Compression

	logger *slog.Logger

	mutex   sync.Mutex
	pending map[Artifact]*os.File
	created []string
}

// New creates the log directory, fixes the session timestamp, claims a
// stem no earlier session used, and creates the mode's log files.
// Failure here aborts the session before the backend is started.
func New(config Config) (*Session, error) {
	sessionClock := config.Clock
	if sessionClock == nil {
		sessionClock = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	directory := config.Directory
	if directory == "" {
		directory = "."
	}

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", directory, err)
	}

	session := &Session{
		ID:          uuid.New(),
		Started:     sessionClock.Now(),
		Directory:   directory,
		Mode:        config.Mode,
		Compression: config.Compression,
		logger:      logger,
	}

	base := session.Started.Format(TimestampLayout)
	for attempt := range maxStemAttempts {
		stem := base
		if attempt > 0 {
			stem = fmt.Sprintf("%s-%d", base, attempt)
		}
		if session.reservedNameTaken(stem, config.Manifest) {
			continue
		}
		files, err := session.createArtifacts(stem)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		session.Stem = stem
		session.pending = files
		if attempt > 0 {
			logger.Info("session timestamp already used, added suffix", "stem", stem)
		}
		return session, nil
	}
	return nil, fmt.Errorf("no free session name for timestamp %s in %s after %d attempts", base, directory, maxStemAttempts)
}

// reservedNameTaken reports whether a file the session may create
// later (a fallback log or the manifest) already exists under stem.
func (session *Session) reservedNameTaken(stem string, manifest bool) bool {
	var names []string
	for _, artifact := range session.Mode.Fallbacks() {
		names = append(names, artifact.FileName(stem, session.Compression))
	}
	if manifest {
		names = append(names, ManifestFileName(stem))
	}
	for _, name := range names {
		if _, err := os.Lstat(filepath.Join(session.Directory, name)); err == nil {
			return true
		}
	}
	return false
}

// createArtifacts creates every eager log of the mode exclusively. On
// any failure the files already created are removed.
func (session *Session) createArtifacts(stem string) (map[Artifact]*os.File, error) {
	files := make(map[Artifact]*os.File)
	var paths []string
	for _, artifact := range session.Mode.Artifacts() {
		path := filepath.Join(session.Directory, artifact.FileName(stem, session.Compression))
		file, err := createExclusive(path)
		if err != nil {
			for _, created := range files {
				created.Close()
			}
			for _, createdPath := range paths {
				os.Remove(createdPath)
			}
			if errors.Is(err, fs.ErrExist) {
				return nil, err
			}
			return nil, fmt.Errorf("creating session log: %w", err)
		}
		files[artifact] = file
		paths = append(paths, path)
	}
	session.created = append(session.created, paths...)
	return files, nil
}

func createExclusive(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
}

// Path returns the full path of an artifact of this session.
func (session *Session) Path(artifact Artifact) string {
	return filepath.Join(session.Directory, artifact.FileName(session.Stem, session.Compression))
}

// ManifestPath returns the full path of the session manifest.
func (session *Session) ManifestPath() string {
	return filepath.Join(session.Directory, ManifestFileName(session.Stem))
}

// Open hands over the file of an artifact. Eager artifacts were
// created by New and are returned once; fallback artifacts are created
// on first request. The caller owns the returned file.
func (session *Session) Open(artifact Artifact) (*os.File, error) {
	session.mutex.Lock()
	defer session.mutex.Unlock()

	if file, ok := session.pending[artifact]; ok {
		delete(session.pending, artifact)
		return file, nil
	}

	isFallback := false
	for _, fallback := range session.Mode.Fallbacks() {
		if fallback == artifact {
			isFallback = true
		}
	}
	if !isFallback {
		return nil, fmt.Errorf("session %s: %s %s log is not available in %s mode or was already opened",
			session.Stem, artifact.Stream, artifact.Format, session.Mode)
	}

	path := session.Path(artifact)
	file, err := createExclusive(path)
	if err != nil {
		return nil, fmt.Errorf("creating fallback log: %w", err)
	}
	session.created = append(session.created, path)
	session.logger.Debug("created fallback log", "path", path)
	return file, nil
}

// Created returns the paths of every file the session created so far.
func (session *Session) Created() []string {
	session.mutex.Lock()
	defer session.mutex.Unlock()
	return append([]string(nil), session.created...)
}

// Discard closes any files not yet handed out and removes every file
// the session created. Used when the backend cannot be started, so a
// failed session leaves no stream logs behind. Callers close the files
// they were handed before calling Discard.
func (session *Session) Discard() error {
	session.mutex.Lock()
	defer session.mutex.Unlock()

	for artifact, file := range session.pending {
		file.Close()
		delete(session.pending, artifact)
	}
	var errs []error
	for _, path := range session.created {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	session.created = nil
	return errors.Join(errs...)
}
