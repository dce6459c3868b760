// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"time"
)

// # Passcode Data Access

// Repository defines the data access contract for one-time passcodes.
type Repository interface {

	/*
		Create persists a new passcode row.

		Parameters:
		  - context: context.Context
		  - otp: *OTP

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, otp *OTP) error

	/*
		FindLatest returns the most recently issued passcode for the
		(principal, purpose) pair regardless of status.

		Parameters:
		  - context: context.Context
		  - principalID: string
		  - purpose: Purpose

		Returns:
		  - *OTP: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindLatest(context context.Context, principalID string, purpose Purpose) (*OTP, error)

	/*
		SetStatus moves a single passcode to a new lifecycle state.

		Parameters:
		  - context: context.Context
		  - otpID: string
		  - status: Status

		Returns:
		  - error: Persistence failures
	*/
	SetStatus(context context.Context, otpID string, status Status) error

	/*
		ExpirePrior bulk-expires every still-ACTIVE passcode of the
		(principal, purpose) pair. Called on issuance so that at most one
		code is ever live for a purpose.

		Parameters:
		  - context: context.Context
		  - principalID: string
		  - purpose: Purpose

		Returns:
		  - error: Persistence failures
	*/
	ExpirePrior(context context.Context, principalID string, purpose Purpose) error
}

// # Issuance Throttling

// IssueThrottle bounds how many codes a principal can request per window.
// The session package's Redis attempt limiter satisfies this structurally.
type IssueThrottle interface {
	Hit(context context.Context, key string, window time.Duration) (int64, error)
	Count(context context.Context, key string) (int64, error)
}

// # Delivery Boundary

// Sender delivers a passcode out of band (email or SMS). The mechanics are
// out of scope; this boundary only reports delivery success or failure.
type Sender interface {
	Send(context context.Context, address, code string) error
}
