// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/clock"
	"github.com/taibuivan/farmo/internal/platform/sec"
)

// # Request Guard

// Guard resolves a presented bearer token to an authenticated principal.
//
// # Purity
//
// The guard is a pure read path: it never mutates token state (no implicit
// renewal, no lazy status correction), which keeps it side-effect-free and
// cheap to call on every request. Role-based authorization is a separate
// check layered on top by the caller.
type Guard struct {
	tokens TokenRepository
	users  UserDirectory
	clock  clock.Clock
}

// NewGuard constructs a [Guard] with its read-only dependencies.
func NewGuard(tokens TokenRepository, users UserDirectory, clk clock.Clock) *Guard {
	return &Guard{
		tokens: tokens,
		users:  users,
		clock:  clk,
	}
}

/*
Authenticate resolves a bearer token to its principal and role.

Description: Denies unless the row exists, status is ACTIVE, and the token is
unexpired, and unless the owning account is still ACTIVATED. Every denial is
the same INVALID_TOKEN so a caller cannot probe whether a token ever existed
or has merely expired.

Parameters:
  - ctx: context.Context
  - token: string

Returns:
  - *sec.AuthUser: The resolved principal and role
  - error: apperr.InvalidToken on any denial, or storage failures
*/
func (guard *Guard) Authenticate(ctx context.Context, token string) (*sec.AuthUser, error) {
	row, err := guard.tokens.FindByToken(ctx, token)
	if err != nil {
		return nil, apperr.InvalidToken()
	}

	// Expired-but-still-ACTIVE rows deny here without being touched; the
	// EXPIRED observation is persisted only on the resume write path.
	if !row.Usable(guard.clock.Now()) {
		return nil, apperr.InvalidToken()
	}

	user, err := guard.users.FindByID(ctx, row.PrincipalID)
	if err != nil {
		return nil, apperr.InvalidToken()
	}

	// A suspended or deleted account invalidates all of its outstanding
	// tokens immediately, without waiting for revocation writes.
	if !user.CanAuthenticate() {
		return nil, apperr.InvalidToken()
	}

	return &sec.AuthUser{UserID: user.ID, Role: user.Role}, nil
}

/*
AuthenticateOwned resolves a bearer token and additionally binds it to a
claimed principal.

Description: Same checks as Authenticate, plus the token row must belong to
claimedPrincipalID. Used where the caller names the principal it is acting
for, so a leaked token cannot be replayed against another account's resources.

Parameters:
  - ctx: context.Context
  - token: string
  - claimedPrincipalID: string

Returns:
  - *sec.AuthUser: The resolved principal and role
  - error: apperr.InvalidToken on any denial
*/
func (guard *Guard) AuthenticateOwned(ctx context.Context, token, claimedPrincipalID string) (*sec.AuthUser, error) {
	row, err := guard.tokens.FindByToken(ctx, token)
	if err != nil {
		return nil, apperr.InvalidToken()
	}

	if row.PrincipalID != claimedPrincipalID {
		return nil, apperr.InvalidToken()
	}

	if !row.Usable(guard.clock.Now()) {
		return nil, apperr.InvalidToken()
	}

	user, err := guard.users.FindByID(ctx, row.PrincipalID)
	if err != nil {
		return nil, apperr.InvalidToken()
	}

	if !user.CanAuthenticate() {
		return nil, apperr.InvalidToken()
	}

	return &sec.AuthUser{UserID: user.ID, Role: user.Role}, nil
}
