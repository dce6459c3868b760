// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package wallet manages the marketplace wallet and its transaction PIN.

The PIN is a second credential guarding money movement, stored only as a
salted one-way hash exactly like a password. Balance bookkeeping itself is
out of scope here; this package owns the wallet row and its PIN lifecycle
(set, change, verify, passcode-gated reset).
*/
package wallet

import (
	"time"
)

// # Domain Entities

// Wallet represents a principal's marketplace wallet.
type Wallet struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	Balance     int64     `json:"balance"` // Minor units (xu); mutated elsewhere.
	Currency    string    `json:"currency"`
	PINHash     string    `json:"-"` // Explicitly omitted from JSON for security.
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasPIN reports whether a transaction PIN has been set.
func (w *Wallet) HasPIN() bool {
	return w.PINHash != ""
}

// DefaultCurrency is the marketplace settlement currency.
const DefaultCurrency = "VND"

// # Field Identifiers

// Global field names for validation in the wallet domain.
const (
	FieldPIN        = "pin"
	FieldCurrentPIN = "current_pin"
	FieldNewPIN     = "new_pin"
	FieldCode       = "code"
	FieldMessage    = "message"
)
