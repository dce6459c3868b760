// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package apperr defines the centralized error handling framework for Farmo.

It provides a rich error type that bridges the gap between low-level Domain/Storage
errors and high-level HTTP responses.

Architecture:

  - AppError: A struct containing machine-readable ErrorCode and user-friendly messages.
  - Taxonomy: Dedicated constructors for every credential/session/OTP denial.
  - Mapping: Explicit mapping from AppError to standard HTTP Status Codes.

Every error that leaves the service layer should be wrapped as an [AppError] to ensure
consistent API responses.
*/
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is the canonical error type for the Farmo API.
//
// It carries an HTTP status code, a machine-readable code, a client-safe
// message, and an optional slice of field-level validation errors.
//
// # Security
//
// The Cause field is for server-side logging only and is never sent to clients
// to avoid leaking internal implementation details (e.g., SQL queries).
type AppError struct {
	// Code is a machine-readable error identifier (e.g. "INVALID_TOKEN").
	Code string `json:"code"`
	// Message is a human-readable description safe to return to the client.
	Message string `json:"error"`
	// HTTPStatus is the HTTP response status code.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for server-side logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR responses.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Client Errors (4xx)

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Wallet") // Returns "Wallet not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// Unauthorized creates a 401 [AppError].
func Unauthorized(msg string) *AppError {
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates a 403 [AppError].
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       "FORBIDDEN",
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// Conflict creates a 409 [AppError] for duplicate or unique-constraint violations.
func Conflict(msg string) *AppError {
	return &AppError{
		Code:       "CONFLICT",
		Message:    msg,
		HTTPStatus: http.StatusConflict,
	}
}

// ValidationError creates a 400 [AppError] with optional per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// RateLimited creates a 429 [AppError].
func RateLimited(retryAfterSeconds int) *AppError {
	return &AppError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("Too many requests. Try again in %ds.", retryAfterSeconds),
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// # Credential & Session Denials

// InvalidCredentials creates the single 401 used for every identifier/password
// failure. The message is deliberately identical whether the account does not
// exist or the password is wrong, to prevent user enumeration.
func InvalidCredentials() *AppError {
	return &AppError{
		Code:       "INVALID_CREDENTIALS",
		Message:    "Invalid login credentials",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// AccountPending creates a 403 for accounts that must change their initial
// password before they can log in.
func AccountPending() *AppError {
	return &AppError{
		Code:       "ACCOUNT_PENDING",
		Message:    "Change your password to activate your account",
		HTTPStatus: http.StatusForbidden,
	}
}

// AccountNotActive creates a 403 for suspended or deleted accounts.
// Account-state codes are allowed to be specific: they do not aid
// credential-guessing the way a not-found/wrong-password split would.
func AccountNotActive() *AppError {
	return &AppError{
		Code:       "ACCOUNT_NOT_ACTIVE",
		Message:    "Account is inactive or suspended",
		HTTPStatus: http.StatusForbidden,
	}
}

// InvalidToken creates the 401 used whenever a presented session token,
// refresh token, or device tuple does not resolve to a usable session.
// Expired tokens also collapse into this code on the request guard path,
// so a caller cannot probe whether a given token ever existed.
func InvalidToken() *AppError {
	return &AppError{
		Code:       "INVALID_TOKEN",
		Message:    "Invalid or expired session token",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenExpired creates a 401 surfaced only where the caller can act on the
// distinction, i.e. the resume-session rotation path.
func TokenExpired() *AppError {
	return &AppError{
		Code:       "TOKEN_EXPIRED",
		Message:    "Session token has expired",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// # One-Time Passcode Denials

// OTPNotFound creates a 404 for verification attempts with no outstanding code.
func OTPNotFound() *AppError {
	return &AppError{
		Code:       "OTP_NOT_FOUND",
		Message:    "No passcode has been issued",
		HTTPStatus: http.StatusNotFound,
	}
}

// OTPExpired creates a 410 for codes past their expiry.
func OTPExpired() *AppError {
	return &AppError{
		Code:       "OTP_EXPIRED",
		Message:    "Passcode has expired. Request a new one",
		HTTPStatus: http.StatusGone,
	}
}

// OTPMismatch creates a 401 for codes that do not match the live passcode.
func OTPMismatch() *AppError {
	return &AppError{
		Code:       "OTP_MISMATCH",
		Message:    "Incorrect passcode",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// OTPAlreadyUsed creates a 410 for codes that have already been consumed.
func OTPAlreadyUsed() *AppError {
	return &AppError{
		Code:       "OTP_ALREADY_USED",
		Message:    "Passcode has already been used. Request a new one",
		HTTPStatus: http.StatusGone,
	}
}

// # Server Errors (5xx)

// Internal creates a 500 [AppError] wrapping an unexpected server-side error.
// The cause is stored for logging but is never sent to the client.
func Internal(cause error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// ServiceUnavailable creates a 503 [AppError] for maintenance mode.
func ServiceUnavailable(msg string) *AppError {
	return &AppError{
		Code:       "SERVICE_UNAVAILABLE",
		Message:    msg,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// HasCode reports whether err carries the given machine-readable code.
func HasCode(err error, code string) bool {
	ae := As(err)
	return ae != nil && ae.Code == code
}
