// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Sessions: Device caps and role-dependent token lifetimes.
  - OTP: Code length, lifetime, and issuance throttling.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "farmo-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Sessions

const (
	// MaxActiveSessions is the per-user device cap. When a login would exceed
	// it, the oldest ACTIVE session is retired before the new one is issued.
	MaxActiveSessions = 2

	// SessionTokenLength is the byte length of the random session and refresh
	// tokens (32 bytes = 256 bits of entropy).
	SessionTokenLength = 32

	// AdminSessionTTL is the lifetime of an administrator session. Kept short
	// because admin tokens carry elevated privileges.
	AdminSessionTTL = 24 * time.Hour

	// StandardSessionTTL is the lifetime of a farmer/consumer session.
	// Long-lived (40 days) to support "remember me" on mobile clients.
	StandardSessionTTL = 40 * 24 * time.Hour
)

// # One-Time Passcodes

const (
	// OTPDigits is the fixed length of a numeric one-time passcode.
	OTPDigits = 6

	// OTPDefaultTTL is the lifetime of a passcode after issuance.
	OTPDefaultTTL = 10 * time.Minute
)

// # Attempt Throttling

const (
	// MaxLoginAttempts is the number of failed password attempts allowed per
	// identifier within LoginAttemptWindow before logins are throttled.
	MaxLoginAttempts = 10

	// LoginAttemptWindow is the sliding window for the failed-login counter.
	LoginAttemptWindow = 15 * time.Minute

	// MaxOTPRequests is the number of passcodes a user may request per
	// purpose within OTPRequestWindow.
	MaxOTPRequests = 5

	// OTPRequestWindow is the sliding window for the OTP issuance counter.
	OTPRequestWindow = 1 * time.Hour
)

// # Wallet

const (
	// WalletPINMinDigits and WalletPINMaxDigits bound the transaction PIN length.
	WalletPINMinDigits = 4
	WalletPINMaxDigits = 6
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaUsers  = "users"
	SchemaWallet = "wallet"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixLoginAttempts = "auth:login_attempts:"
	RedisPrefixOTPRequests   = "auth:otp_requests:"
)
