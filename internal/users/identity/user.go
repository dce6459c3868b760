// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity manages the principal reference data of the marketplace.

It defines the User entity, its account lifecycle, and registration logic.
The session and passcode subsystems treat this package as read-only reference
data: they resolve a principal here, but never mutate it except through the
explicit password/status operations.

# Architecture

This layer is the "Truth" of who exists on the platform. Entities defined here
have no external dependencies and encapsulate all business rules related to
account lifecycle.
*/
package identity

import (
	"time"

	"github.com/taibuivan/farmo/internal/platform/sec"
)

// # Account Lifecycle

// Status represents the lifecycle state of a user account.
type Status string

const (
	// StatusPending marks an admin-created account that must change its
	// generated password before it can log in.
	StatusPending Status = "PENDING"

	// StatusActivated is the normal, usable state.
	StatusActivated Status = "ACTIVATED"

	// StatusSuspended is an administrative lock.
	StatusSuspended Status = "SUSPENDED"

	// StatusDeleted is a retention-friendly soft delete.
	StatusDeleted Status = "DELETED"
)

// # Domain Entities

// User represents a registered principal of the Farmo platform.
type User struct {
	ID           string    `json:"id"`
	Phone        string    `json:"phone"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email,omitempty"`
	Role         sec.Role  `json:"role"`
	Status       Status    `json:"status"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CanAuthenticate reports whether the account status permits a normal login.
// PENDING accounts are rejected separately so the client can prompt for a
// password change.
func (u *User) CanAuthenticate() bool {
	return u.Status == StatusActivated
}

// # Field Identifiers

// Global field names for validation and identity mapping in the identity domain.
const (
	FieldPhone    = "phone"
	FieldFullName = "full_name"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldRole     = "role"
	FieldStatus   = "status"
)
