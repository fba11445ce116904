// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// The proxy reads the clock for two things: the session timestamp that
// names every log file, and the drain timeout that bounds shutdown.
// Production code uses [Real]. Tests use [Fake], whose time moves only
// when [FakeClock.Advance] is called, so file names are predictable and
// timeouts fire exactly when the test says:
//
//	c := clock.Fake(time.Date(2026, 3, 1, 12, 45, 0, 0, time.UTC))
//	go run(c)
//	c.WaitForTimers(1)          // run is now waiting on c.After
//	c.Advance(2 * time.Second)  // and its timeout fires
package clock
