// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/clock"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/internal/users/identity"
	"github.com/taibuivan/farmo/internal/users/otp"
	"github.com/taibuivan/farmo/internal/wallet"
)

// # In-Memory Fakes

type fakeWalletRepo struct {
	rows map[string]*wallet.Wallet // by principal ID
}

func (r *fakeWalletRepo) FindByPrincipal(_ context.Context, principalID string) (*wallet.Wallet, error) {
	if w, ok := r.rows[principalID]; ok {
		return w, nil
	}
	return nil, apperr.NotFound("Wallet")
}

func (r *fakeWalletRepo) Create(_ context.Context, w *wallet.Wallet) error {
	copied := *w
	r.rows[w.PrincipalID] = &copied
	return nil
}

func (r *fakeWalletRepo) UpdatePIN(_ context.Context, walletID, pinHash string) error {
	for _, w := range r.rows {
		if w.ID == walletID {
			w.PINHash = pinHash
			return nil
		}
	}
	return apperr.NotFound("Wallet")
}

type fakeUserRepo struct {
	user *identity.User
}

func (r *fakeUserRepo) FindByID(_ context.Context, id string) (*identity.User, error) {
	if r.user != nil && r.user.ID == id {
		return r.user, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepo) FindByPhone(_ context.Context, _ string) (*identity.User, error) {
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepo) FindByIdentifier(_ context.Context, _ string, _ bool) (*identity.User, error) {
	return nil, apperr.NotFound("User")
}

func (r *fakeUserRepo) Create(_ context.Context, _ *identity.User) error       { return nil }
func (r *fakeUserRepo) UpdatePassword(_ context.Context, _, _ string) error    { return nil }
func (r *fakeUserRepo) SetStatus(_ context.Context, _ string, _ identity.Status) error {
	return nil
}

type fakeOTPRepo struct {
	rows []*otp.OTP
}

func (r *fakeOTPRepo) Create(_ context.Context, o *otp.OTP) error {
	copied := *o
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *fakeOTPRepo) FindLatest(_ context.Context, principalID string, purpose otp.Purpose) (*otp.OTP, error) {
	var latest *otp.OTP
	for _, row := range r.rows {
		if row.PrincipalID != principalID || row.Purpose != purpose {
			continue
		}
		if latest == nil || !row.CreatedAt.Before(latest.CreatedAt) {
			latest = row
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("Passcode")
	}
	return latest, nil
}

func (r *fakeOTPRepo) SetStatus(_ context.Context, otpID string, status otp.Status) error {
	for _, row := range r.rows {
		if row.ID == otpID {
			row.Status = status
			return nil
		}
	}
	return apperr.NotFound("Passcode")
}

func (r *fakeOTPRepo) ExpirePrior(_ context.Context, principalID string, purpose otp.Purpose) error {
	for _, row := range r.rows {
		if row.PrincipalID == principalID && row.Purpose == purpose && row.Status == otp.StatusActive {
			row.Status = otp.StatusExpired
		}
	}
	return nil
}

type fakeThrottle struct{ counts map[string]int64 }

func (l *fakeThrottle) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	l.counts[key]++
	return l.counts[key], nil
}
func (l *fakeThrottle) Count(_ context.Context, key string) (int64, error) { return l.counts[key], nil }

type fakeSender struct{ codes []string }

func (s *fakeSender) Send(_ context.Context, _ string, code string) error {
	s.codes = append(s.codes, code)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(_ context.Context, plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (plainHasher) Verify(_ context.Context, plaintext, hash string) bool {
	return hash == "hashed:"+plaintext
}

// # Fixture

type fixture struct {
	service *wallet.Service
	repo    *fakeWalletRepo
	sender  *fakeSender
}

func newFixture(user *identity.User) *fixture {
	f := &fixture{
		repo:   &fakeWalletRepo{rows: make(map[string]*wallet.Wallet)},
		sender: &fakeSender{},
	}

	passcodes := otp.NewService(
		&fakeOTPRepo{},
		&fakeThrottle{counts: make(map[string]int64)},
		f.sender,
		clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	)

	f.service = wallet.NewService(f.repo, plainHasher{}, passcodes, &fakeUserRepo{user: user})
	return f
}

func owner() *identity.User {
	return &identity.User{
		ID:     "u1",
		Phone:  "0901234567",
		Email:  "an@example.com",
		Role:   sec.RoleFarmer,
		Status: identity.StatusActivated,
	}
}

// # Wallet Lifecycle

/*
TestEnsure_CreatesOnFirstAccess checks lazy creation and the stable identity
of the wallet across calls.
*/
func TestEnsure_CreatesOnFirstAccess(t *testing.T) {
	f := newFixture(owner())
	ctx := context.Background()

	created, err := f.service.Ensure(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", created.PrincipalID)
	assert.Equal(t, wallet.DefaultCurrency, created.Currency)
	assert.Zero(t, created.Balance)
	assert.False(t, created.HasPIN())

	again, err := f.service.Ensure(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

// # PIN Lifecycle

/*
TestSetPIN covers first-time set, the current-PIN gate on change, and the
denial for a wrong current PIN.
*/
func TestSetPIN(t *testing.T) {
	f := newFixture(owner())
	ctx := context.Background()

	// First-time set accepts an empty current PIN.
	require.NoError(t, f.service.SetPIN(ctx, "u1", "", "1234"))
	require.NoError(t, f.service.VerifyPIN(ctx, "u1", "1234"))

	// Changing requires the current PIN.
	err := f.service.SetPIN(ctx, "u1", "9999", "5678")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))

	require.NoError(t, f.service.SetPIN(ctx, "u1", "1234", "5678"))
	require.NoError(t, f.service.VerifyPIN(ctx, "u1", "5678"))
	require.Error(t, f.service.VerifyPIN(ctx, "u1", "1234"))
}

/*
TestVerifyPIN_NoPINSetDenies checks that an unset PIN never verifies; money
must not move unguarded.
*/
func TestVerifyPIN_NoPINSetDenies(t *testing.T) {
	f := newFixture(owner())
	ctx := context.Background()

	_, err := f.service.Ensure(ctx, "u1")
	require.NoError(t, err)

	err = f.service.VerifyPIN(ctx, "u1", "")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "UNAUTHORIZED"))
}

/*
TestResetPIN drives the passcode-gated recovery: request, verify, replace.
*/
func TestResetPIN(t *testing.T) {
	f := newFixture(owner())
	ctx := context.Background()

	require.NoError(t, f.service.SetPIN(ctx, "u1", "", "1234"))

	masked, err := f.service.RequestPINReset(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a***@example.com", masked)
	require.NotEmpty(t, f.sender.codes)

	code := f.sender.codes[len(f.sender.codes)-1]
	require.NoError(t, f.service.ResetPIN(ctx, "u1", code, "5678"))

	require.NoError(t, f.service.VerifyPIN(ctx, "u1", "5678"))
	require.Error(t, f.service.VerifyPIN(ctx, "u1", "1234"))

	// The consumed passcode cannot be replayed.
	err = f.service.ResetPIN(ctx, "u1", code, "9999")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "OTP_ALREADY_USED"))
}

/*
TestResetPIN_WrongCode leaves the old PIN in place.
*/
func TestResetPIN_WrongCode(t *testing.T) {
	f := newFixture(owner())
	ctx := context.Background()

	require.NoError(t, f.service.SetPIN(ctx, "u1", "", "1234"))

	_, err := f.service.RequestPINReset(ctx, "u1")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == f.sender.codes[len(f.sender.codes)-1] {
		wrong = "000001"
	}

	err = f.service.ResetPIN(ctx, "u1", wrong, "5678")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "OTP_MISMATCH"))

	require.NoError(t, f.service.VerifyPIN(ctx, "u1", "1234"))
}
