// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package session implements the credential and session lifecycle core.

It owns issuance and capacity-bounded eviction of session tokens, expiry-based
rotation, multi-device revocation, and the request guard that every protected
operation calls.

Architecture:

  - Token: one authenticated device/session, persisted for audit (never deleted).
  - TokenRepository: storage contract, including the conditional issuance
    transaction that keeps the per-principal device cap.
  - Service: the login/resume/logout state machine.
  - Guard: side-effect-free token resolution for inbound requests.

The store is the single source of truth; there is no in-process session cache.
*/
package session

import (
	"time"
)

// # Token Lifecycle

// TokenStatus represents the lifecycle state of a session token.
type TokenStatus string

const (
	// TokenActive grants access while the token is unexpired.
	TokenActive TokenStatus = "ACTIVE"

	// TokenInactive is the terminal state reached by logout, cap eviction,
	// or bulk revocation. Rows are kept for audit, never deleted.
	TokenInactive TokenStatus = "INACTIVE"

	// TokenSuspended is an administrative override distinct from expiry.
	TokenSuspended TokenStatus = "SUSPENDED"
)

// # Domain Entities

// Token represents one authenticated device/session.
type Token struct {
	ID           string      `json:"id"`
	PrincipalID  string      `json:"principal_id"`
	Token        string      `json:"-"` // Opaque bearer secret. Omitted for security.
	RefreshToken string      `json:"-"` // Paired re-entry secret. Omitted for security.
	DeviceInfo   string      `json:"device_info"`
	IssuedAt     time.Time   `json:"issued_at"`
	ExpiresAt    time.Time   `json:"expires_at"`
	Status       TokenStatus `json:"status"`
}

// Usable reports whether the token grants access at the given instant:
// ACTIVE status and not yet expired. Both conditions are required; an
// expired token denies access even while its stored status is still ACTIVE.
func (t *Token) Usable(now time.Time) bool {
	return t.Status == TokenActive && now.Before(t.ExpiresAt)
}

// Expired reports whether the instant is past the token's expiry.
func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the session domain.
const (
	FieldIdentifier   = "identifier"
	FieldPassword     = "password"
	FieldToken        = "token"
	FieldRefreshToken = "refresh_token"
	FieldDeviceInfo   = "device_info"
	FieldUserID       = "user_id"
	FieldMessage      = "message"
)
