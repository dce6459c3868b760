// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/internal/users/identity"
	"github.com/taibuivan/farmo/internal/users/session"
)

func newGuardFixture(t *testing.T, users ...*identity.User) (*session.Guard, *fixture) {
	t.Helper()
	f := newFixture(users...)
	return session.NewGuard(f.tokens, f.users, f.clock), f
}

/*
TestGuard_Authenticate resolves a live token to its principal and role.
*/
func TestGuard_Authenticate(t *testing.T) {
	guard, f := newGuardFixture(t, farmer("u1", "+84901234567", "secret"))
	grant := f.mustLogin(t, "iPhone 15")

	authUser, err := guard.Authenticate(context.Background(), grant.Token)

	require.NoError(t, err)
	assert.Equal(t, "u1", authUser.UserID)
	assert.Equal(t, sec.RoleFarmer, authUser.Role)
}

/*
TestGuard_DenialsCollapse verifies that unknown, retired, and expired tokens
all produce the identical opaque denial.
*/
func TestGuard_DenialsCollapse(t *testing.T) {
	guard, f := newGuardFixture(t, farmer("u1", "+84901234567", "secret"))
	ctx := context.Background()

	retired := f.mustLogin(t, "Device A")
	require.NoError(t, f.service.Logout(ctx, retired.Token))

	expired := f.mustLogin(t, "Device B")
	f.clock.Advance(41 * 24 * time.Hour)

	for name, token := range map[string]string{
		"unknown": "never-issued",
		"retired": retired.Token,
		"expired": expired.Token,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := guard.Authenticate(ctx, token)
			assertCode(t, err, "INVALID_TOKEN")
		})
	}
}

/*
TestGuard_ExpiredTokenNotMutated checks the guard's pure-read contract: an
expired row is denied but its stored status stays ACTIVE.
*/
func TestGuard_ExpiredTokenNotMutated(t *testing.T) {
	guard, f := newGuardFixture(t, farmer("u1", "+84901234567", "secret"))
	grant := f.mustLogin(t, "iPhone 15")
	ctx := context.Background()

	f.clock.Advance(41 * 24 * time.Hour)

	_, err := guard.Authenticate(ctx, grant.Token)
	assertCode(t, err, "INVALID_TOKEN")

	row, err := f.tokens.FindByToken(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, session.TokenActive, row.Status)
}

/*
TestGuard_SuspendedAccountInvalidatesTokens verifies that suspending an
account instantly denies every token it holds.
*/
func TestGuard_SuspendedAccountInvalidatesTokens(t *testing.T) {
	user := farmer("u1", "+84901234567", "secret")
	guard, f := newGuardFixture(t, user)
	grant := f.mustLogin(t, "iPhone 15")

	user.Status = identity.StatusSuspended

	_, err := guard.Authenticate(context.Background(), grant.Token)
	assertCode(t, err, "INVALID_TOKEN")
}

/*
TestGuard_AuthenticateOwned checks the principal-binding variant.
*/
func TestGuard_AuthenticateOwned(t *testing.T) {
	guard, f := newGuardFixture(t,
		farmer("u1", "+84901234567", "secret"),
		farmer("u2", "+84907654321", "secret"),
	)
	grant := f.mustLogin(t, "iPhone 15")
	ctx := context.Background()

	authUser, err := guard.AuthenticateOwned(ctx, grant.Token, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", authUser.UserID)

	// The same token replayed against another principal is refused.
	_, err = guard.AuthenticateOwned(ctx, grant.Token, "u2")
	assertCode(t, err, "INVALID_TOKEN")
}
