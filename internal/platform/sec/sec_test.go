// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmo/internal/platform/sec"
)

/*
TestHasher_RoundTrip checks hash-then-verify for a credential.
*/
func TestHasher_RoundTrip(t *testing.T) {
	hasher := sec.NewHasher(0)
	ctx := context.Background()

	hash, err := hasher.Hash(ctx, "s3cret-Pa55")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-Pa55", hash)

	assert.True(t, hasher.Verify(ctx, "s3cret-Pa55", hash))
	assert.False(t, hasher.Verify(ctx, "wrong", hash))
}

/*
TestHasher_MalformedHashVerifiesFalse verifies that a garbage or empty digest
behaves exactly like a mismatch.
*/
func TestHasher_MalformedHashVerifiesFalse(t *testing.T) {
	hasher := sec.NewHasher(0)
	ctx := context.Background()

	assert.False(t, hasher.Verify(ctx, "anything", ""))
	assert.False(t, hasher.Verify(ctx, "anything", "not-a-bcrypt-digest"))
}

/*
TestHasher_CancelledContext checks that a cancelled request gives up instead
of queueing behind a saturated hashing pool.
*/
func TestHasher_CancelledContext(t *testing.T) {
	hasher := sec.NewHasher(1)

	// Saturate the single slot with a slow hash.
	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		close(started)
		_, _ = hasher.Hash(context.Background(), "occupies-the-slot")
		close(done)
	}()
	<-started
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hasher.Hash(ctx, "s3cret")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, hasher.Verify(ctx, "s3cret", "$2a$10$abcdefghijklmnopqrstuv"))

	<-done
}

/*
TestGenerateSecureToken checks encoding shape and basic uniqueness.
*/
func TestGenerateSecureToken(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 32; i++ {
		token, err := sec.GenerateSecureToken(32)
		require.NoError(t, err)

		// 32 bytes → 43 chars of unpadded URL-safe base64.
		assert.Len(t, token, 43)
		assert.NotContains(t, token, "=")
		assert.False(t, seen[token], "token repeated")
		seen[token] = true
	}
}

/*
TestGenerateNumericCode checks length, charset, and leading-zero handling.
*/
func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 64; i++ {
		code, err := sec.GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non-digit in %q", code)
		}
	}
}

/*
TestRole_Hierarchy covers the ordering used by role-gated routes.
*/
func TestRole_Hierarchy(t *testing.T) {
	tests := []struct {
		name    string
		role    sec.Role
		target  sec.Role
		atLeast bool
	}{
		{"superadmin_over_admin", sec.RoleSuperAdmin, sec.RoleAdmin, true},
		{"admin_over_farmer", sec.RoleAdmin, sec.RoleFarmer, true},
		{"farmer_not_admin", sec.RoleFarmer, sec.RoleAdmin, false},
		{"consumer_is_consumer", sec.RoleConsumer, sec.RoleConsumer, true},
		{"verified_over_plain", sec.RoleVerifiedFarmer, sec.RoleFarmer, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.atLeast, tt.role.AtLeast(tt.target))
		})
	}
}

/*
TestRole_IsAdmin checks the administrative class split used for login
resolution and session lifetimes.
*/
func TestRole_IsAdmin(t *testing.T) {
	assert.True(t, sec.RoleAdmin.IsAdmin())
	assert.True(t, sec.RoleSuperAdmin.IsAdmin())
	assert.False(t, sec.RoleFarmer.IsAdmin())
	assert.False(t, sec.RoleVerifiedConsumer.IsAdmin())
}
