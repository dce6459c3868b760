// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth is the delivery layer over the session and passcode cores.

It exposes the authentication lifecycle over HTTP (login, resume, logout,
password recovery) and orchestrates the password flows that span identity,
session, and passcode state: a reset revokes every session, and changing the
password of a PENDING account activates it.
*/
package auth

import (
	"context"
	"fmt"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/users/identity"
	"github.com/taibuivan/farmo/internal/users/otp"
	"github.com/taibuivan/farmo/internal/users/session"
)

// # Contracts & Types

// CredentialHasher hashes and verifies passwords. [sec.Hasher] satisfies it.
type CredentialHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) bool
}

// Service orchestrates the password lifecycle flows.
type Service struct {
	users     identity.Repository
	sessions  *session.Service
	passcodes *otp.Service
	hasher    CredentialHasher
}

// NewService constructs the auth delivery [Service].
func NewService(
	users identity.Repository,
	sessions *session.Service,
	passcodes *otp.Service,
	hasher CredentialHasher,
) *Service {
	return &Service{
		users:     users,
		sessions:  sessions,
		passcodes: passcodes,
		hasher:    hasher,
	}
}

// # Password Recovery

/*
ForgotPassword starts the reset flow by issuing a passcode to the account's
delivery address.

Description: The response is identical whether or not the identifier exists,
to prevent user enumeration; for a nonexistent account the masked address is
fabricated and nothing is issued.

Parameters:
  - context: context.Context
  - identifier: string (account ID or phone)

Returns:
  - string: Masked delivery address for display
  - error: Rate limiting or delivery failures (absence is NOT an error)
*/
func (service *Service) ForgotPassword(context context.Context, identifier string) (string, error) {
	user, err := service.users.FindByIdentifier(context, identifier, false)
	if err != nil {
		// Do not reveal that the account is absent.
		return "***", nil
	}

	address := user.Email
	if address == "" {
		address = user.Phone
	}

	_, err = service.passcodes.Issue(context, otp.IssueInput{
		PrincipalID: user.ID,
		Purpose:     otp.PurposeForgetPassword,
		Address:     address,
	})
	if err != nil {
		return "", err
	}

	return otp.MaskAddress(address), nil
}

/*
VerifyCode checks a submitted passcode for the given purpose.

Description: Consumes the code on success (single use). Unknown identifiers
collapse into the same not-found denial as a missing code.

Parameters:
  - context: context.Context
  - identifier: string
  - purpose: otp.Purpose
  - code: string

Returns:
  - error: nil on success, typed passcode denial otherwise
*/
func (service *Service) VerifyCode(context context.Context, identifier string, purpose otp.Purpose, code string) error {
	user, err := service.users.FindByIdentifier(context, identifier, false)
	if err != nil {
		return apperr.OTPNotFound()
	}

	return service.passcodes.Verify(context, user.ID, purpose, code)
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies (and consumes) the reset passcode, replaces the hash,
activates a PENDING account, and revokes every outstanding session so any
party holding a stolen token is signed out.

Parameters:
  - context: context.Context
  - identifier: string
  - code: string
  - newPassword: string

Returns:
  - error: Passcode denials or storage failures
*/
func (service *Service) ResetPassword(context context.Context, identifier, code, newPassword string) error {
	user, err := service.users.FindByIdentifier(context, identifier, false)
	if err != nil {
		return apperr.OTPNotFound()
	}

	if err := service.passcodes.Verify(context, user.ID, otp.PurposeForgetPassword, code); err != nil {
		return err
	}

	if err := service.applyNewPassword(context, user, newPassword); err != nil {
		return err
	}

	// Security cleanup: revoke EVERY active session for this user.
	if err := service.sessions.LogoutAll(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_reset_revoke_failed: %w", err)
	}

	return nil
}

/*
ChangePassword replaces a password after verifying the current one.

Description: Callable without a session so that PENDING accounts can perform
the change that activates them. The credential check is enumeration-safe.
All sessions are revoked afterwards; the owner logs in fresh.

Parameters:
  - context: context.Context
  - identifier: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: InvalidCredentials or storage failures
*/
func (service *Service) ChangePassword(context context.Context, identifier, currentPassword, newPassword string) error {
	user, err := service.users.FindByIdentifier(context, identifier, false)
	if err != nil {
		return apperr.InvalidCredentials()
	}

	if !service.hasher.Verify(context, currentPassword, user.PasswordHash) {
		return apperr.InvalidCredentials()
	}

	if err := service.applyNewPassword(context, user, newPassword); err != nil {
		return err
	}

	if err := service.sessions.LogoutAll(context, user.ID); err != nil {
		return fmt.Errorf("auth_service_change_revoke_failed: %w", err)
	}

	return nil
}

// applyNewPassword hashes and stores the replacement credential, activating
// the account if the change satisfies a PENDING state.
func (service *Service) applyNewPassword(context context.Context, user *identity.User, newPassword string) error {
	newHash, err := service.hasher.Hash(context, newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	if err := service.users.UpdatePassword(context, user.ID, newHash); err != nil {
		return fmt.Errorf("auth_service_update_password_failed: %w", err)
	}

	// Changing the generated password is exactly what PENDING was waiting for.
	if user.Status == identity.StatusPending {
		if err := service.users.SetStatus(context, user.ID, identity.StatusActivated); err != nil {
			return fmt.Errorf("auth_service_activate_failed: %w", err)
		}
	}

	return nil
}
