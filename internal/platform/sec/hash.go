// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives for the platform.
//
// # Architecture
//
// This package isolates security-sensitive code (credential hashing, secure
// token generation, passcode generation) from the domain logic. It acts as an
// Infrastructure service injected into the Application layer via small
// interfaces defined by the consuming packages.
package sec

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// # Credential Hashing

// Hasher performs salted one-way hashing and verification for passwords and
// wallet PINs.
//
// # Pool Protection
//
// bcrypt is deliberately slow. A bounded semaphore caps how many hash/verify
// operations run concurrently so that a burst of login attempts cannot
// monopolize the request-handling pool.
type Hasher struct {
	sem chan struct{}
}

// defaultHashConcurrency caps concurrent bcrypt operations.
const defaultHashConcurrency = 8

// NewHasher constructs a [Hasher]. A concurrency of 0 or less falls back to
// the default bound.
func NewHasher(concurrency int) *Hasher {
	if concurrency <= 0 {
		concurrency = defaultHashConcurrency
	}
	return &Hasher{sem: make(chan struct{}, concurrency)}
}

// Hash hashes a plain-text credential using the bcrypt algorithm.
// Default cost balances security against CPU utilization during login spikes.
func (h *Hasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash credential: %w", err)
	}
	return string(hashedBytes), nil
}

// Verify compares a plain-text credential with its stored hash.
//
// bcrypt's comparison is constant-time. A malformed or empty digest verifies
// false exactly like an ordinary mismatch; it never panics or surfaces a
// distinguishable error to the caller.
func (h *Hasher) Verify(ctx context.Context, plaintext, existingHash string) bool {
	if err := h.acquire(ctx); err != nil {
		return false
	}
	defer h.release()

	return bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plaintext)) == nil
}

// acquire blocks until a hashing slot is free or the request is cancelled.
func (h *Hasher) acquire(ctx context.Context) error {
	select {
	case h.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hasher) release() { <-h.sem }
