// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package middleware provides the HTTP middleware chain for the Farmo API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/ctxkey"
	"github.com/taibuivan/farmo/internal/platform/respond"
	"github.com/taibuivan/farmo/internal/platform/sec"
)

// TokenAuthenticator resolves an opaque session token to a principal.
//
// # Why an interface?
//
// Session tokens are server-side records, not self-validating JWTs, so
// resolution requires a store lookup. Defining the interface here decouples
// the middleware from the session service implementation and lets tests
// inject a fake.
//
// Implementations must be pure reads: an expired session observed here is
// rejected but never mutated. Persistence of the EXPIRED status belongs to
// the resume path.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*sec.AuthUser, error)
}

// Authenticate extracts the bearer token from the Authorization header and
// resolves it through the [TokenAuthenticator].
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve the token via [TokenAuthenticator].
//  4. Inject [*sec.AuthUser] into the request context for downstream use.
//
// Missing, unknown, retired, and expired tokens all produce the same 401 so
// a caller cannot probe whether a given token ever existed.
func Authenticate(authenticator TokenAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get("Authorization")

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Resolution ───────────────────────────────────────────
			tokenStr := parts[1]
			user, err := authenticator.Authenticate(request.Context(), tokenStr)
			if err != nil {
				respond.Error(writer, request, apperr.InvalidToken())
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := context.WithValue(request.Context(), ctxkey.KeyUser, user)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.AuthUser] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		user := GetUser(request.Context())
		if user == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated user doesn't have the required role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically implies
// [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*sec.AuthUser] exists in context (implies AuthN).
//  2. Check if the user's role meets or exceeds the required target role using [sec.Role.AtLeast].
//  3. If insufficient, abort with HTTP 403 Forbidden.
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			user := GetUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if user == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !user.Role.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// GetUser retrieves the [*sec.AuthUser] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.AuthUser] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AuthUser {
	user, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthUser)
	if !ok {
		return nil
	}
	return user
}
