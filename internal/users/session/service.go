// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/clock"
	"github.com/taibuivan/farmo/internal/platform/constants"
	"github.com/taibuivan/farmo/internal/platform/ctxutil"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/internal/users/identity"
	"github.com/taibuivan/farmo/pkg/uuid"
)

// # Contracts & Types

// UserDirectory is the read-only principal lookup consumed by the session core.
// Accounts are reference data here; this package never mutates them.
type UserDirectory interface {
	FindByID(ctx context.Context, id string) (*identity.User, error)
	FindByIdentifier(ctx context.Context, identifier string, adminClass bool) (*identity.User, error)
}

// PasswordVerifier is the credential verification seam. [sec.Hasher] satisfies it.
type PasswordVerifier interface {
	Verify(ctx context.Context, plaintext, hash string) bool
}

// ActivityRecorder is the audit sink. Implementations must swallow their own
// failures: an audit write never blocks or fails an authentication flow.
type ActivityRecorder interface {
	Record(ctx context.Context, principalID, eventType, text string)
}

// Service implements the session lifecycle state machine.
//
// # Review Process
//
// This service is critical for security. Any changes to issuance, eviction,
// or rotation logic must be reviewed by the security team.
type Service struct {
	tokens   TokenRepository
	users    UserDirectory
	verifier PasswordVerifier
	limiter  AttemptLimiter
	activity ActivityRecorder
	clock    clock.Clock
}

// NewService constructs a new session [Service] with its dependencies.
func NewService(
	tokens TokenRepository,
	users UserDirectory,
	verifier PasswordVerifier,
	limiter AttemptLimiter,
	activity ActivityRecorder,
	clk clock.Clock,
) *Service {
	return &Service{
		tokens:   tokens,
		users:    users,
		verifier: verifier,
		limiter:  limiter,
		activity: activity,
		clock:    clk,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Identifier string // Account ID or phone number
	Password   string
	AdminLogin bool   // Resolve the identifier within the admin role class
	DeviceInfo string // Opaque client-supplied device label
}

// Grant represents an established session pair handed to the client.
type Grant struct {
	Token        string         `json:"token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresAt    time.Time      `json:"expires_at"`
	Rotated      bool           `json:"rotated"`
	User         *identity.User `json:"user"`
}

/*
Login validates credentials and issues a new session token pair.

Description: Resolves the identifier within the requested role class, performs
constant-time password verification, gates on account status, then issues the
new pair through the conditional eviction transaction. The response is
indistinguishable whether the principal does not exist or the password is
wrong, to prevent user enumeration.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *Grant: Transport-ready session pair
  - error: InvalidCredentials, AccountPending, AccountNotActive, RateLimited,
    or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*Grant, error) {
	throttleKey := constants.RedisPrefixLoginAttempts + input.Identifier

	// Refuse outright once the failed-attempt budget is spent. Throttle
	// backend failures fail open: a cache outage must not lock everyone out.
	if count, err := service.limiter.Count(context, throttleKey); err == nil && count >= constants.MaxLoginAttempts {
		return nil, apperr.RateLimited(int(constants.LoginAttemptWindow.Seconds()))
	}

	// Resolve the identifier (ID or phone) within the requested role class.
	user, err := service.users.FindByIdentifier(context, input.Identifier, input.AdminLogin)
	if err != nil {
		// Burn a verify cycle against a dummy hash so a missing account costs
		// the same wall time as a wrong password.
		service.verifier.Verify(context, input.Password, "")
		service.recordFailure(context, throttleKey)
		return nil, apperr.InvalidCredentials()
	}

	// Constant-time comparison inside bcrypt prevents timing attacks.
	if !service.verifier.Verify(context, input.Password, user.PasswordHash) {
		service.recordFailure(context, throttleKey)
		return nil, apperr.InvalidCredentials()
	}

	// Account-state gates. Specific codes are acceptable here: they do not
	// aid credential guessing the way a not-found/wrong-password split would.
	if user.Status == identity.StatusPending {
		return nil, apperr.AccountPending()
	}
	if !user.CanAuthenticate() {
		return nil, apperr.AccountNotActive()
	}

	grant, err := service.issue(context, user, input.DeviceInfo)
	if err != nil {
		return nil, err
	}

	// Success clears the failed-attempt counter.
	_ = service.limiter.Reset(context, throttleKey)

	service.activity.Record(context, user.ID, "LOGIN", "Logged in from "+input.DeviceInfo)

	return grant, nil
}

// # Session Resumption

// ResumeInput carries the four-part tuple a device presents to re-enter.
type ResumeInput struct {
	Token        string
	RefreshToken string
	PrincipalID  string
	DeviceInfo   string
}

/*
ResumeSession re-establishes a "remember me" session.

Description: Looks up the row by the exact (token, principal, refresh token,
device) tuple; all four must match the same row. A still-valid pair is
returned unchanged. An expired pair is rotated: the old row is retired and a
fresh pair is issued through the same eviction transaction as Login.

Parameters:
  - context: context.Context
  - input: ResumeInput

Returns:
  - *Grant: The same pair (rotated=false) or a fresh pair (rotated=true)
  - error: InvalidToken, AccountPending, AccountNotActive, or internal failures
*/
func (service *Service) ResumeSession(context context.Context, input ResumeInput) (*Grant, error) {

	// Any lookup miss collapses into the same denial: absence, wrong device,
	// wrong refresh token, and wrong principal are indistinguishable.
	row, err := service.tokens.FindByTuple(context, input.Token, input.PrincipalID, input.RefreshToken, input.DeviceInfo)
	if err != nil {
		return nil, apperr.InvalidToken()
	}

	// A retired or suspended row never resumes.
	if row.Status != TokenActive {
		return nil, apperr.InvalidToken()
	}

	// Account-state gates apply exactly as in Login.
	user, err := service.users.FindByID(context, row.PrincipalID)
	if err != nil {
		return nil, apperr.InvalidToken()
	}
	if user.Status == identity.StatusPending {
		return nil, apperr.AccountPending()
	}
	if !user.CanAuthenticate() {
		return nil, apperr.AccountNotActive()
	}

	now := service.clock.Now()

	// Still valid: hand back the identical pair. No expiry extension, no
	// state change — resumption must never silently downgrade or renew.
	if !row.Expired(now) {
		return &Grant{
			Token:        row.Token,
			RefreshToken: row.RefreshToken,
			ExpiresAt:    row.ExpiresAt,
			Rotated:      false,
			User:         user,
		}, nil
	}

	// Expired: retire the old row first. Fail closed — if the retirement
	// write fails, no new pair is issued.
	if err := service.tokens.SetStatus(context, row.ID, TokenInactive); err != nil {
		return nil, fmt.Errorf("session_service_resume_retire_failed: %w", err)
	}

	grant, err := service.issue(context, user, input.DeviceInfo)
	if err != nil {
		return nil, err
	}
	grant.Rotated = true

	service.activity.Record(context, user.ID, "SESSION_ROTATED", "Expired session rotated for "+input.DeviceInfo)

	return grant, nil
}

// # Revocation

/*
Logout retires the presented session token.

Description: Sets the token's status to INACTIVE. Retiring an already-inactive
token is not an error; the outcome is the same.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: InvalidToken when the token does not exist, or storage failures
*/
func (service *Service) Logout(context context.Context, token string) error {
	row, err := service.tokens.FindByToken(context, token)
	if err != nil {
		return apperr.InvalidToken()
	}

	if row.Status == TokenInactive {
		return nil
	}

	if err := service.tokens.SetStatus(context, row.ID, TokenInactive); err != nil {
		return fmt.Errorf("session_service_logout_failed: %w", err)
	}

	service.activity.Record(context, row.PrincipalID, "LOGOUT", "Logged out from "+row.DeviceInfo)

	return nil
}

/*
LogoutAll retires every ACTIVE session of the principal.

Description: Single bulk update used for "sign out everywhere" and for the
security cleanup after a password reset.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - error: Storage failures
*/
func (service *Service) LogoutAll(context context.Context, principalID string) error {
	if err := service.tokens.SetStatusAll(context, principalID, TokenActive, TokenInactive); err != nil {
		return fmt.Errorf("session_service_logout_all_failed: %w", err)
	}

	service.activity.Record(context, principalID, "LOGOUT_ALL", "Signed out everywhere")

	return nil
}

// # Issuance

// issue mints a fresh token pair and persists it through the conditional
// eviction transaction. TTL depends on the role: admin sessions are short.
func (service *Service) issue(context context.Context, user *identity.User, deviceInfo string) (*Grant, error) {
	tokenValue, err := sec.GenerateSecureToken(constants.SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("session_service_token_generation_failed: %w", err)
	}

	refreshValue, err := sec.GenerateSecureToken(constants.SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("session_service_refresh_generation_failed: %w", err)
	}

	now := service.clock.Now()
	row := &Token{
		ID:           uuid.New(),
		PrincipalID:  user.ID,
		Token:        tokenValue,
		RefreshToken: refreshValue,
		DeviceInfo:   deviceInfo,
		IssuedAt:     now,
		ExpiresAt:    now.Add(ttlForRole(user.Role)),
		Status:       TokenActive,
	}

	if err := service.tokens.Issue(context, row); err != nil {
		return nil, fmt.Errorf("session_service_issue_failed: %w", err)
	}

	return &Grant{
		Token:        row.Token,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
		Rotated:      false,
		User:         user,
	}, nil
}

// recordFailure bumps the failed-attempt counter, logging but tolerating
// throttle backend outages.
func (service *Service) recordFailure(context context.Context, key string) {
	if _, err := service.limiter.Hit(context, key, constants.LoginAttemptWindow); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "login_throttle_unavailable", "error", err)
	}
}

// ttlForRole returns the session lifetime for the role. Admin tokens carry
// elevated privileges and get a much shorter life.
func ttlForRole(role sec.Role) time.Duration {
	if role.IsAdmin() {
		return constants.AdminSessionTTL
	}
	return constants.StandardSessionTTL
}
