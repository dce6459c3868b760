// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package otp implements single-use, time-boxed one-time passcodes.

Codes are bound to a principal and a purpose (password reset, wallet PIN
reset), verify at most once, and expire within minutes. Expiry is observed
lazily: reads compute an effective status without touching storage, and the
EXPIRED transition is persisted only from the Verify write path.

Architecture:

  - OTP: the persisted code row; historical rows accumulate, only the most
    recently issued one is live.
  - EffectiveStatus: pure read-time status computation.
  - Service: issuance (with prior-code invalidation and delivery) and
    verification (single-use, exact match).
*/
package otp

import (
	"time"
)

// # Passcode Lifecycle

// Status represents the lifecycle state of a one-time passcode.
type Status string

const (
	// StatusActive is the issued, not-yet-consumed state.
	StatusActive Status = "ACTIVE"

	// StatusUsed is reached exactly once, irreversibly, on successful
	// verification.
	StatusUsed Status = "USED"

	// StatusExpired is the stored form of a code observed past its expiry.
	StatusExpired Status = "EXPIRED"
)

// # Purposes

// Purpose names the secondary-verification flow a code belongs to.
type Purpose string

const (
	// PurposeForgetPassword gates the forgot-password reset flow.
	PurposeForgetPassword Purpose = "FORGET_PASSWORD"

	// PurposeWalletPINReset gates resetting the wallet transaction PIN.
	PurposeWalletPINReset Purpose = "WALLET_PIN_RESET"
)

// Valid reports whether the purpose is a known member of the enum.
func (p Purpose) Valid() bool {
	return p == PurposeForgetPassword || p == PurposeWalletPINReset
}

// # Domain Entities

// OTP is a short numeric code bound to a principal and a purpose.
type OTP struct {
	ID          string    `json:"id"`
	PrincipalID string    `json:"principal_id"`
	Code        string    `json:"-"` // Never serialized; delivered out of band.
	Purpose     Purpose   `json:"purpose"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// EffectiveStatus computes the status of a code as of the given instant
// without any persistence side effect. A stored-ACTIVE code past its expiry
// reads as EXPIRED; everything else reads as stored. Persisting the EXPIRED
// observation is the Verify write path's job, which keeps plain reads
// side-effect-free and safely cacheable.
func EffectiveStatus(o *OTP, now time.Time) Status {
	if o.Status == StatusActive && now.After(o.ExpiresAt) {
		return StatusExpired
	}
	return o.Status
}

// # Field Identifiers

// Global field names for validation in the passcode domain.
const (
	FieldCode    = "code"
	FieldPurpose = "purpose"
	FieldEmail   = "email"
	FieldPhone   = "phone"
)
