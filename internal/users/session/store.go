// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"time"
)

// # Token Data Access

// TokenRepository defines the data access contract for session tokens.
//
// Rows in this store are exclusively owned by the session [Service]; the
// [Guard] only reads. All writes are single-row or single-predicate bulk
// updates except [TokenRepository.Issue], which is the one conditional
// transaction in the subsystem.
type TokenRepository interface {

	/*
		Create persists a new session token row.

		Parameters:
		  - context: context.Context
		  - token: *Token

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token *Token) error

	/*
		FindActive returns the principal's ACTIVE tokens ordered oldest first.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - []*Token: Oldest-first sequence (may be empty)
		  - error: Database retrieval failures
	*/
	FindActive(context context.Context, principalID string) ([]*Token, error)

	/*
		FindByToken returns the row matching the exact bearer token value.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - *Token: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByToken(context context.Context, token string) (*Token, error)

	/*
		FindByTuple returns the row matching the exact four-part device tuple.
		All four values must match the same row, binding a refresh to its
		originating device fingerprint.

		Parameters:
		  - context: context.Context
		  - token: string
		  - principalID: string
		  - refreshToken: string
		  - deviceInfo: string

		Returns:
		  - *Token: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByTuple(context context.Context, token, principalID, refreshToken, deviceInfo string) (*Token, error)

	/*
		SetStatus moves a single token to a new lifecycle state.

		Parameters:
		  - context: context.Context
		  - tokenID: string
		  - status: TokenStatus

		Returns:
		  - error: Persistence failures
	*/
	SetStatus(context context.Context, tokenID string, status TokenStatus) error

	/*
		SetStatusAll bulk-moves every token of the principal currently in
		fromStatus to toStatus. Used for "sign out everywhere".

		Parameters:
		  - context: context.Context
		  - principalID: string
		  - fromStatus: TokenStatus
		  - toStatus: TokenStatus

		Returns:
		  - error: Persistence failures
	*/
	SetStatusAll(context context.Context, principalID string, fromStatus, toStatus TokenStatus) error

	/*
		Issue atomically applies the device-cap policy and inserts the new
		token: the principal's ACTIVE rows are locked, the oldest are retired
		until fewer than the cap remain, and the new row is inserted — all in
		one transaction. If any step fails, nothing is persisted.

		Parameters:
		  - context: context.Context
		  - token: *Token (status must be ACTIVE)

		Returns:
		  - error: Transaction failures
	*/
	Issue(context context.Context, token *Token) error
}

// # Attempt Throttling

// AttemptLimiter counts failed attempts per key inside a sliding window.
// Backed by Redis INCR+EXPIRE in production, an in-memory map in tests.
type AttemptLimiter interface {

	/*
		Hit increments the counter for the key, starting the window on the
		first hit, and returns the new count.

		Parameters:
		  - context: context.Context
		  - key: string
		  - window: time.Duration

		Returns:
		  - int64: Count after increment
		  - error: Backend failures
	*/
	Hit(context context.Context, key string, window time.Duration) (int64, error)

	/*
		Count returns the current counter value without incrementing.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - int64: Current count (0 when absent)
		  - error: Backend failures
	*/
	Count(context context.Context, key string) (int64, error)

	/*
		Reset clears the counter for the key.

		Parameters:
		  - context: context.Context
		  - key: string

		Returns:
		  - error: Backend failures
	*/
	Reset(context context.Context, key string) error
}
