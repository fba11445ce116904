// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// recordingT captures Fatalf instead of stopping the test. Fatalf
// panics so the helper's "unreachable" path is never taken.
type recordingT struct {
	message string
}

type fatalPanic struct{}

func (r *recordingT) Helper() {}

func (r *recordingT) Fatalf(format string, args ...any) {
	r.message = fmt.Sprintf(format, args...)
	panic(fatalPanic{})
}

func expectFatal(t *testing.T, run func(*recordingT)) string {
	t.Helper()
	recorder := &recordingT{}
	func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				if _, ok := recovered.(fatalPanic); !ok {
					panic(recovered)
				}
			}
		}()
		run(recorder)
	}()
	if recorder.message == "" {
		t.Fatal("helper did not fail")
	}
	return recorder.message
}

func TestRequireReceive(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if got := RequireReceive(t, ch, time.Second, "value"); got != 7 {
		t.Errorf("RequireReceive = %d, want 7", got)
	}
}

func TestRequireReceiveTimeout(t *testing.T) {
	message := expectFatal(t, func(r *recordingT) {
		RequireReceive(r, make(chan int), 10*time.Millisecond, "waiting for %s", "relay")
	})
	if !strings.Contains(message, "timed out") || !strings.Contains(message, "waiting for relay") {
		t.Errorf("message = %q", message)
	}
}

func TestRequireReceiveClosed(t *testing.T) {
	ch := make(chan int)
	close(ch)
	message := expectFatal(t, func(r *recordingT) {
		RequireReceive(r, ch, time.Second, "result")
	})
	if !strings.Contains(message, "closed without sending") {
		t.Errorf("message = %q", message)
	}
}

func TestRequireClosed(t *testing.T) {
	ch := make(chan struct{})
	close(ch)
	RequireClosed(t, ch, time.Second)

	message := expectFatal(t, func(r *recordingT) {
		RequireClosed(r, make(chan struct{}), 10*time.Millisecond, "backend reaped")
	})
	if !strings.Contains(message, "backend reaped") {
		t.Errorf("message = %q", message)
	}
}

func TestSyncBufferConcurrentWrites(t *testing.T) {
	var buffer SyncBuffer
	var group sync.WaitGroup
	for range 8 {
		group.Go(func() {
			for range 100 {
				buffer.Write([]byte("x"))
			}
		})
	}
	group.Wait()
	if buffer.Len() != 800 || buffer.String() != strings.Repeat("x", 800) {
		t.Errorf("buffer holds %d bytes, want 800", buffer.Len())
	}
}
