// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Integration-style tests: the auth service is wired to real session and
// passcode services over in-memory stores, so the cross-service flows
// (reset-then-revoke, change-then-activate) are exercised end to end.
package auth_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/clock"
	"github.com/taibuivan/farmo/internal/platform/constants"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/internal/users/auth"
	"github.com/taibuivan/farmo/internal/users/identity"
	"github.com/taibuivan/farmo/internal/users/otp"
	"github.com/taibuivan/farmo/internal/users/session"
)

// # In-Memory Infrastructure

type memUserRepo struct {
	users map[string]*identity.User
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*identity.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *memUserRepo) FindByPhone(_ context.Context, phone string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *memUserRepo) FindByIdentifier(_ context.Context, identifier string, adminClass bool) (*identity.User, error) {
	for _, u := range r.users {
		if (u.ID == identifier || u.Phone == identifier) && u.Role.IsAdmin() == adminClass {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *memUserRepo) Create(_ context.Context, user *identity.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memUserRepo) SetStatus(_ context.Context, userID string, status identity.Status) error {
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	u.Status = status
	return nil
}

type memTokenRepo struct {
	rows map[string]*session.Token
}

func (r *memTokenRepo) Create(_ context.Context, token *session.Token) error {
	copied := *token
	r.rows[token.ID] = &copied
	return nil
}

func (r *memTokenRepo) FindActive(_ context.Context, principalID string) ([]*session.Token, error) {
	var active []*session.Token
	for _, row := range r.rows {
		if row.PrincipalID == principalID && row.Status == session.TokenActive {
			active = append(active, row)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].IssuedAt.Before(active[j].IssuedAt) })
	return active, nil
}

func (r *memTokenRepo) FindByToken(_ context.Context, token string) (*session.Token, error) {
	for _, row := range r.rows {
		if row.Token == token {
			return row, nil
		}
	}
	return nil, apperr.NotFound("Session token")
}

func (r *memTokenRepo) FindByTuple(_ context.Context, token, principalID, refreshToken, deviceInfo string) (*session.Token, error) {
	for _, row := range r.rows {
		if row.Token == token && row.PrincipalID == principalID &&
			row.RefreshToken == refreshToken && row.DeviceInfo == deviceInfo {
			return row, nil
		}
	}
	return nil, apperr.NotFound("Session token")
}

func (r *memTokenRepo) SetStatus(_ context.Context, tokenID string, status session.TokenStatus) error {
	row, ok := r.rows[tokenID]
	if !ok {
		return apperr.NotFound("Session token")
	}
	row.Status = status
	return nil
}

func (r *memTokenRepo) SetStatusAll(_ context.Context, principalID string, fromStatus, toStatus session.TokenStatus) error {
	for _, row := range r.rows {
		if row.PrincipalID == principalID && row.Status == fromStatus {
			row.Status = toStatus
		}
	}
	return nil
}

func (r *memTokenRepo) Issue(ctx context.Context, token *session.Token) error {
	active, _ := r.FindActive(ctx, token.PrincipalID)
	for len(active) >= constants.MaxActiveSessions {
		active[0].Status = session.TokenInactive
		active = active[1:]
	}
	return r.Create(ctx, token)
}

type memOTPRepo struct {
	rows []*otp.OTP
}

func (r *memOTPRepo) Create(_ context.Context, o *otp.OTP) error {
	copied := *o
	r.rows = append(r.rows, &copied)
	return nil
}

func (r *memOTPRepo) FindLatest(_ context.Context, principalID string, purpose otp.Purpose) (*otp.OTP, error) {
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

func (r *memOTPRepo) SetStatus(_ context.Context, otpID string, status otp.Status) error {
	for _, row := range r.rows {
		if row.ID == otpID {
			row.Status = status
			return nil
		}
	}
	return apperr.NotFound("Passcode")
}

func (r *memOTPRepo) ExpirePrior(_ context.Context, principalID string, purpose otp.Purpose) error {
	for _, row := range r.rows {
		if row.PrincipalID == principalID && row.Purpose == purpose && row.Status == otp.StatusActive {
			row.Status = otp.StatusExpired
		}
	}
	return nil
}

type memLimiter struct {
	counts map[string]int64
}

func (l *memLimiter) Hit(_ context.Context, key string, _ time.Duration) (int64, error) {
	l.counts[key]++
	return l.counts[key], nil
}
func (l *memLimiter) Count(_ context.Context, key string) (int64, error) { return l.counts[key], nil }
func (l *memLimiter) Reset(_ context.Context, key string) error {
	delete(l.counts, key)
	return nil
}

type memSender struct {
	codes []string
}

func (s *memSender) Send(_ context.Context, _ string, code string) error {
	s.codes = append(s.codes, code)
	return nil
}

func (s *memSender) latest(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, s.codes, "no passcode was delivered")
	return s.codes[len(s.codes)-1]
}

type noopRecorder struct{}

func (noopRecorder) Record(_ context.Context, _, _, _ string) {}

// plainHasher treats "hashed:<plaintext>" as the digest.
type plainHasher struct{}

func (plainHasher) Hash(_ context.Context, plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

func (plainHasher) Verify(_ context.Context, plaintext, hash string) bool {
	return hash == "hashed:"+plaintext
}

// # Fixture

type fixture struct {
	authService    *auth.Service
	sessionService *session.Service
	users          *memUserRepo
	tokens         *memTokenRepo
	sender         *memSender
	clock          *clock.Fake
}

func newFixture(users ...*identity.User) *fixture {
	f := &fixture{
		users:  &memUserRepo{users: make(map[string]*identity.User)},
		tokens: &memTokenRepo{rows: make(map[string]*session.Token)},
		sender: &memSender{},
		clock:  clock.NewFake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	for _, u := range users {
		f.users.users[u.ID] = u
	}

	limiter := &memLimiter{counts: make(map[string]int64)}
	hasher := plainHasher{}

	f.sessionService = session.NewService(f.tokens, f.users, hasher, limiter, noopRecorder{}, f.clock)
	passcodes := otp.NewService(&memOTPRepo{}, limiter, f.sender, f.clock)
	f.authService = auth.NewService(f.users, f.sessionService, passcodes, hasher)

	return f
}

func activatedFarmer(id, phone, email, password string) *identity.User {
	return &identity.User{
		ID:           id,
		Phone:        phone,
		Email:        email,
		FullName:     "Nguyen Van A",
		Role:         sec.RoleFarmer,
		Status:       identity.StatusActivated,
		PasswordHash: "hashed:" + password,
	}
}

// # Forgot / Reset Password

/*
TestForgotPassword_EnumerationSafe verifies that an unknown identifier gets a
masked placeholder and no delivery, indistinguishable from success in shape.
*/
func TestForgotPassword_EnumerationSafe(t *testing.T) {
	f := newFixture(activatedFarmer("u1", "0901234567", "an@example.com", "old-pass"))
	ctx := context.Background()

	masked, err := f.authService.ForgotPassword(ctx, "0901234567")
	require.NoError(t, err)
	assert.Equal(t, "a***@example.com", masked)
	assert.Len(t, f.sender.codes, 1)

	masked, err = f.authService.ForgotPassword(ctx, "0999999999")
	require.NoError(t, err)
	assert.Equal(t, "***", masked)
	assert.Len(t, f.sender.codes, 1, "nothing may be delivered for unknown accounts")
}

/*
TestForgotPassword_FallsBackToPhone checks delivery routing when the account
has no email.
*/
func TestForgotPassword_FallsBackToPhone(t *testing.T) {
	f := newFixture(activatedFarmer("u1", "0901234567", "", "old-pass"))

	masked, err := f.authService.ForgotPassword(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "***567", masked)
}

/*
TestResetPassword_FullFlow drives forgot → reset and verifies the new
credential works, the old one does not, and every session was revoked.
*/
func TestResetPassword_FullFlow(t *testing.T) {
	f := newFixture(activatedFarmer("u1", "0901234567", "an@example.com", "old-pass"))
	ctx := context.Background()

	// Establish a session that the reset must revoke.
	grant, err := f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0901234567", Password: "old-pass", DeviceInfo: "iPhone 15",
	})
	require.NoError(t, err)

	_, err = f.authService.ForgotPassword(ctx, "0901234567")
	require.NoError(t, err)
	code := f.sender.latest(t)

	require.NoError(t, f.authService.ResetPassword(ctx, "0901234567", code, "new-pass"))

	// Old password dead, new one live.
	_, err = f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0901234567", Password: "old-pass",
	})
	require.Error(t, err)

	_, err = f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0901234567", Password: "new-pass",
	})
	require.NoError(t, err)

	// The pre-reset session was revoked.
	row, err := f.tokens.FindByToken(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, session.TokenInactive, row.Status)

	// The consumed code cannot reset again.
	err = f.authService.ResetPassword(ctx, "0901234567", code, "another-pass")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "OTP_ALREADY_USED"))
}

/*
TestResetPassword_WrongCode verifies a mismatched code leaves the credential
untouched.
*/
func TestResetPassword_WrongCode(t *testing.T) {
	f := newFixture(activatedFarmer("u1", "0901234567", "an@example.com", "old-pass"))
	ctx := context.Background()

	_, err := f.authService.ForgotPassword(ctx, "0901234567")
	require.NoError(t, err)

	wrong := "000000"
	if wrong == f.sender.latest(t) {
		wrong = "000001"
	}

	err = f.authService.ResetPassword(ctx, "0901234567", wrong, "new-pass")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "OTP_MISMATCH"))

	_, err = f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0901234567", Password: "old-pass",
	})
	require.NoError(t, err)
}

/*
TestResetPassword_UnknownIdentifier collapses into the passcode not-found
denial.
*/
func TestResetPassword_UnknownIdentifier(t *testing.T) {
	f := newFixture()

	err := f.authService.ResetPassword(context.Background(), "0999999999", "123456", "new-pass")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "OTP_NOT_FOUND"))
}

// # Change Password

/*
TestChangePassword verifies the sessioned change: current credential checked,
all sessions revoked.
*/
func TestChangePassword(t *testing.T) {
	f := newFixture(activatedFarmer("u1", "0901234567", "an@example.com", "old-pass"))
	ctx := context.Background()

	grant, err := f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0901234567", Password: "old-pass", DeviceInfo: "iPhone 15",
	})
	require.NoError(t, err)

	require.NoError(t, f.authService.ChangePassword(ctx, "0901234567", "old-pass", "new-pass"))

	row, err := f.tokens.FindByToken(ctx, grant.Token)
	require.NoError(t, err)
	assert.Equal(t, session.TokenInactive, row.Status)

	_, err = f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0901234567", Password: "new-pass",
	})
	require.NoError(t, err)
}

/*
TestChangePassword_WrongCurrent checks the enumeration-safe denial: wrong
current password and unknown identifier read identically.
*/
func TestChangePassword_WrongCurrent(t *testing.T) {
	f := newFixture(activatedFarmer("u1", "0901234567", "an@example.com", "old-pass"))
	ctx := context.Background()

	wrongErr := f.authService.ChangePassword(ctx, "0901234567", "not-it", "new-pass")
	missingErr := f.authService.ChangePassword(ctx, "0999999999", "whatever", "new-pass")

	require.Error(t, wrongErr)
	require.Error(t, missingErr)
	assert.Equal(t, wrongErr.Error(), missingErr.Error())
	assert.True(t, apperr.HasCode(wrongErr, "INVALID_CREDENTIALS"))
}

/*
TestChangePassword_ActivatesPendingAccount verifies the enrollment handover:
changing the generated password flips PENDING to ACTIVATED and the owner can
then log in.
*/
func TestChangePassword_ActivatesPendingAccount(t *testing.T) {
	pending := activatedFarmer("p1", "0907654321", "", "generated-pass")
	pending.Status = identity.StatusPending
	f := newFixture(pending)
	ctx := context.Background()

	// PENDING blocks login outright.
	_, err := f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0907654321", Password: "generated-pass",
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "ACCOUNT_PENDING"))

	// The password change is available without a session.
	require.NoError(t, f.authService.ChangePassword(ctx, "0907654321", "generated-pass", "chosen-pass"))

	assert.Equal(t, identity.StatusActivated, f.users.users["p1"].Status)

	_, err = f.sessionService.Login(ctx, session.LoginInput{
		Identifier: "0907654321", Password: "chosen-pass",
	})
	require.NoError(t, err)
}

// # Verify Code

/*
TestVerifyCode consumes the code through the identifier-resolving wrapper.
*/
func TestVerifyCode(t *testing.T) {
	f := newFixture(activatedFarmer("u1", "0901234567", "an@example.com", "old-pass"))
	ctx := context.Background()

	_, err := f.authService.ForgotPassword(ctx, "0901234567")
	require.NoError(t, err)
	code := f.sender.latest(t)

	require.NoError(t, f.authService.VerifyCode(ctx, "0901234567", otp.PurposeForgetPassword, code))

	// Consumed: the follow-up reset with the same code is refused.
	err = f.authService.ResetPassword(ctx, "0901234567", code, "new-pass")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "OTP_ALREADY_USED"))

	// Unknown identifiers collapse into not-found.
	err = f.authService.VerifyCode(ctx, "0999999999", otp.PurposeForgetPassword, code)
	assert.True(t, apperr.HasCode(err, "OTP_NOT_FOUND"))
}
