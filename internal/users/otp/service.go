// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"fmt"
	"time"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/clock"
	"github.com/taibuivan/farmo/internal/platform/constants"
	"github.com/taibuivan/farmo/internal/platform/ctxutil"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/pkg/uuid"
)

// # Service

// Service implements passcode issuance and verification use cases.
type Service struct {
	repository Repository
	throttle   IssueThrottle
	sender     Sender
	clock      clock.Clock
}

// NewService constructs a new passcode [Service] with its dependencies.
func NewService(repository Repository, throttle IssueThrottle, sender Sender, clk clock.Clock) *Service {
	return &Service{
		repository: repository,
		throttle:   throttle,
		sender:     sender,
		clock:      clk,
	}
}

// # Issuance

// IssueInput carries everything needed to mint and deliver a passcode.
type IssueInput struct {
	PrincipalID string
	Purpose     Purpose
	Address     string        // Delivery address (email or phone), owned by the principal
	TTL         time.Duration // Zero falls back to the default lifetime
}

/*
Issue generates, persists, and delivers a fresh passcode.

Description: Prior ACTIVE codes for the same (principal, purpose) are expired
first, so at most one code is ever live per purpose. The code is a fixed-length
numeric string drawn from the kernel CSPRNG, never a general-purpose PRNG.
Issuance is throttled per principal and purpose.

Parameters:
  - context: context.Context
  - input: IssueInput

Returns:
  - *OTP: The persisted passcode (code included for delivery, never serialized)
  - error: RateLimited, delivery failures, or storage failures
*/
func (service *Service) Issue(context context.Context, input IssueInput) (*OTP, error) {
	throttleKey := constants.RedisPrefixOTPRequests + input.PrincipalID + ":" + string(input.Purpose)

	// Throttle issuance. Backend failures fail open; a cache outage must not
	// block password recovery.
	if count, err := service.throttle.Count(context, throttleKey); err == nil && count >= constants.MaxOTPRequests {
		return nil, apperr.RateLimited(int(constants.OTPRequestWindow.Seconds()))
	}
	if _, err := service.throttle.Hit(context, throttleKey, constants.OTPRequestWindow); err != nil {
		ctxutil.GetLogger(context).WarnContext(context, "otp_throttle_unavailable", "error", err)
	}

	// Supersede any outstanding code for this purpose before minting.
	if err := service.repository.ExpirePrior(context, input.PrincipalID, input.Purpose); err != nil {
		return nil, fmt.Errorf("otp_service_expire_prior_failed: %w", err)
	}

	code, err := sec.GenerateNumericCode(constants.OTPDigits)
	if err != nil {
		return nil, fmt.Errorf("otp_service_generate_failed: %w", err)
	}

	ttl := input.TTL
	if ttl <= 0 {
		ttl = constants.OTPDefaultTTL
	}

	now := service.clock.Now()
	otp := &OTP{
		ID:          uuid.New(),
		PrincipalID: input.PrincipalID,
		Code:        code,
		Purpose:     input.Purpose,
		Status:      StatusActive,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}

	if err := service.repository.Create(context, otp); err != nil {
		return nil, fmt.Errorf("otp_service_create_failed: %w", err)
	}

	// Delivery failure surfaces to the caller; a code the user never received
	// is useless and the client should offer a retry.
	if err := service.sender.Send(context, input.Address, code); err != nil {
		return nil, fmt.Errorf("otp_service_delivery_failed: %w", err)
	}

	return otp, nil
}

// # Verification

/*
Verify checks a submitted code against the live passcode for the pair.

Description: Only the most recently issued code is considered. The effective
status is computed against the injected clock; a stored-ACTIVE row observed
past its expiry has the EXPIRED transition persisted here, on the write path.
A matching code transitions to USED exactly once. A mismatch mutates nothing,
so the caller may retry against the same still-active code.

Parameters:
  - context: context.Context
  - principalID: string
  - purpose: Purpose
  - submittedCode: string

Returns:
  - error: nil on success; OTPNotFound, OTPExpired, OTPAlreadyUsed,
    OTPMismatch, or storage failures otherwise
*/
func (service *Service) Verify(context context.Context, principalID string, purpose Purpose, submittedCode string) error {
	otp, err := service.repository.FindLatest(context, principalID, purpose)
	if err != nil {
		return apperr.OTPNotFound()
	}

	switch EffectiveStatus(otp, service.clock.Now()) {
	case StatusUsed:
		return apperr.OTPAlreadyUsed()

	case StatusExpired:
		// Persist the lazy expiry observation if the stored row still says
		// ACTIVE. Best effort: the denial stands either way.
		if otp.Status == StatusActive {
			if err := service.repository.SetStatus(context, otp.ID, StatusExpired); err != nil {
				ctxutil.GetLogger(context).WarnContext(context, "otp_expire_persist_failed", "error", err)
			}
		}
		return apperr.OTPExpired()
	}

	// Exact-match string compare against the live code only. An expired or
	// used code never reaches this point, even if its digits match.
	if otp.Code != submittedCode {
		return apperr.OTPMismatch()
	}

	// Single use: the USED transition must be durable before success is
	// reported, otherwise a crash could let the code verify twice.
	if err := service.repository.SetStatus(context, otp.ID, StatusUsed); err != nil {
		return fmt.Errorf("otp_service_consume_failed: %w", err)
	}

	return nil
}

// # Presentation Helpers

// MaskAddress hides most of a delivery address for inclusion in API
// responses. "nguyen@example.com" becomes "ngu***@example.com"; non-email
// addresses keep their last three characters.
func MaskAddress(address string) string {
	at := -1
	for i, r := range address {
		if r == '@' {
			at = i
			break
		}
	}

	if at > 0 {
		visible := (at + 1) / 2
		return address[:visible] + "***" + address[at:]
	}

	if len(address) <= 3 {
		return "***"
	}
	return "***" + address[len(address)-3:]
}
