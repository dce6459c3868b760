// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package clock abstracts the wall-clock source used by time-sensitive domain logic.

Session expiry, token eviction ordering, and passcode lifetimes all depend on
"now". Injecting a [Clock] instead of calling time.Now directly lets the test
suite step time forward deterministically and verify expiry behavior without
sleeping.
*/
package clock

import (
	"sync"
	"time"
)

// Clock yields the current time.
type Clock interface {
	// Now returns the current wall-clock time.
	Now() time.Time
}

// # Production Clock

// System is the real wall clock. The zero value is ready to use.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// # Test Clock

// Fake is a manually controlled clock for tests.
//
// # Concurrency
//
// Safe for concurrent use; services under test may read it from multiple
// goroutines while the test advances it.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a [Fake] frozen at the given instant.
func NewFake(now time.Time) *Fake {
	return &Fake{now: now}
}

// Now returns the frozen instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Set moves the clock to an absolute instant.
func (f *Fake) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = now
}
