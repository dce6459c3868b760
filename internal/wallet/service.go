// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import (
	"context"
	"fmt"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/users/identity"
	"github.com/taibuivan/farmo/internal/users/otp"
	"github.com/taibuivan/farmo/pkg/uuid"
)

// # Contracts & Types

// PINHasher hashes and verifies wallet PINs. [sec.Hasher] satisfies it; the
// PIN gets the same salted one-way treatment as a password.
type PINHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	Verify(ctx context.Context, plaintext, hash string) bool
}

// Service implements wallet and PIN lifecycle use cases.
type Service struct {
	repository Repository
	hasher     PINHasher
	passcodes  *otp.Service
	users      identity.Repository
}

// NewService constructs a new wallet [Service] with its dependencies.
func NewService(repository Repository, hasher PINHasher, passcodes *otp.Service, users identity.Repository) *Service {
	return &Service{
		repository: repository,
		hasher:     hasher,
		passcodes:  passcodes,
		users:      users,
	}
}

// # Wallet Lifecycle

/*
Ensure returns the principal's wallet, creating an empty one on first access.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - *Wallet: Hydrated entity
  - error: Storage failures
*/
func (service *Service) Ensure(context context.Context, principalID string) (*Wallet, error) {
	wallet, err := service.repository.FindByPrincipal(context, principalID)
	if err == nil {
		return wallet, nil
	}
	if !apperr.HasCode(err, "NOT_FOUND") {
		return nil, err
	}

	wallet = &Wallet{
		ID:          uuid.New(),
		PrincipalID: principalID,
		Balance:     0,
		Currency:    DefaultCurrency,
	}

	if err := service.repository.Create(context, wallet); err != nil {
		// A concurrent first access may have created the row between the read
		// and the insert; the winner's row is the wallet.
		if apperr.HasCode(err, "CONFLICT") {
			return service.repository.FindByPrincipal(context, principalID)
		}
		return nil, fmt.Errorf("wallet_service_create_failed: %w", err)
	}

	return wallet, nil
}

// # PIN Lifecycle

/*
SetPIN sets or changes the wallet transaction PIN.

Description: When a PIN already exists the current one must verify first.
The first-time set accepts an empty currentPIN.

Parameters:
  - context: context.Context
  - principalID: string
  - currentPIN: string
  - newPIN: string

Returns:
  - error: Unauthorized (wrong current PIN) or storage failures
*/
func (service *Service) SetPIN(context context.Context, principalID, currentPIN, newPIN string) error {
	wallet, err := service.Ensure(context, principalID)
	if err != nil {
		return err
	}

	if wallet.HasPIN() && !service.hasher.Verify(context, currentPIN, wallet.PINHash) {
		return apperr.Unauthorized("Incorrect wallet PIN")
	}

	return service.storePIN(context, wallet, newPIN)
}

/*
VerifyPIN checks a submitted PIN against the stored hash.

Description: Called by the payment path before any money movement. A wallet
with no PIN set always denies; money never moves unguarded.

Parameters:
  - context: context.Context
  - principalID: string
  - pin: string

Returns:
  - error: nil on match, Unauthorized otherwise
*/
func (service *Service) VerifyPIN(context context.Context, principalID, pin string) error {
	wallet, err := service.repository.FindByPrincipal(context, principalID)
	if err != nil {
		return apperr.Unauthorized("Incorrect wallet PIN")
	}

	if !wallet.HasPIN() || !service.hasher.Verify(context, pin, wallet.PINHash) {
		return apperr.Unauthorized("Incorrect wallet PIN")
	}

	return nil
}

/*
RequestPINReset issues a passcode for resetting a forgotten PIN.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - string: Masked delivery address
  - error: Rate limiting or delivery failures
*/
func (service *Service) RequestPINReset(context context.Context, principalID string) (string, error) {
	user, err := service.users.FindByID(context, principalID)
	if err != nil {
		return "", err
	}

	address := user.Email
	if address == "" {
		address = user.Phone
	}

	_, err = service.passcodes.Issue(context, otp.IssueInput{
		PrincipalID: principalID,
		Purpose:     otp.PurposeWalletPINReset,
		Address:     address,
	})
	if err != nil {
		return "", err
	}

	return otp.MaskAddress(address), nil
}

/*
ResetPIN replaces a forgotten PIN after verifying the reset passcode.

Parameters:
  - context: context.Context
  - principalID: string
  - code: string
  - newPIN: string

Returns:
  - error: Typed passcode denial or storage failures
*/
func (service *Service) ResetPIN(context context.Context, principalID, code, newPIN string) error {
	wallet, err := service.Ensure(context, principalID)
	if err != nil {
		return err
	}

	if err := service.passcodes.Verify(context, principalID, otp.PurposeWalletPINReset, code); err != nil {
		return err
	}

	return service.storePIN(context, wallet, newPIN)
}

// storePIN hashes and persists the replacement PIN.
func (service *Service) storePIN(context context.Context, wallet *Wallet, newPIN string) error {
	pinHash, err := service.hasher.Hash(context, newPIN)
	if err != nil {
		return fmt.Errorf("wallet_service_hash_pin_failed: %w", err)
	}

	if err := service.repository.UpdatePIN(context, wallet.ID, pinHash); err != nil {
		return fmt.Errorf("wallet_service_update_pin_failed: %w", err)
	}

	return nil
}
