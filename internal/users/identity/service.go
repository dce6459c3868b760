// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/pkg/uuid"
)

// # Contracts & Types

// Hasher is the credential hashing seam consumed by the registration flow.
type Hasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
}

// generatedPasswordBytes sizes the random initial password handed to
// admin-created accounts. The account stays PENDING until it is changed.
const generatedPasswordBytes = 9

// Service implements account registration and lifecycle use cases.
type Service struct {
	repository Repository
	hasher     Hasher
}

// NewService constructs a new identity [Service] with its dependencies.
func NewService(repository Repository, hasher Hasher) *Service {
	return &Service{
		repository: repository,
		hasher:     hasher,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Phone    string
	FullName string
	Email    string
	Password string
	Role     sec.Role
}

/*
Register validates, hashes, and persists a brand new self-service account.

Description: Normalizes the registrant's name to NFC so that visually
identical names compare equal regardless of the keyboard that produced them,
verifies phone uniqueness, and persists the account as ACTIVATED.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if phone exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Self-registration is limited to the base marketplace roles. Elevated
	// roles are granted by verification or admin enrollment, never claimed.
	if input.Role != sec.RoleConsumer && input.Role != sec.RoleFarmer {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldRole,
			Message: "Must be consumer or farmer",
		})
	}

	// Verify phone uniqueness. Return a client-safe Conflict error.
	_, err := service.repository.FindByPhone(context, normalizePhone(input.Phone))
	if err == nil {
		return nil, apperr.Conflict("Phone number is already registered")
	}

	// Prevent storing plain-text passwords.
	hashedPassword, err := service.hasher.Hash(context, input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Phone:        normalizePhone(input.Phone),
		FullName:     normalizeName(input.FullName),
		Email:        strings.TrimSpace(input.Email),
		Role:         input.Role,
		Status:       StatusActivated,
		PasswordHash: hashedPassword,
	}

	// Persist the user to the database
	if err := service.repository.Create(context, user); err != nil {
		return nil, fmt.Errorf("identity_service_register_failed: %w", err)
	}

	return user, nil
}

// # Administrative Enrollment

// EnrollInput holds the data an administrator provides to create an account.
type EnrollInput struct {
	Phone    string
	FullName string
	Email    string
	Role     sec.Role
}

// Enrollment is the result of an administrative account creation. The
// generated password is returned exactly once for out-of-band handover.
type Enrollment struct {
	User              *User  `json:"user"`
	GeneratedPassword string `json:"generated_password"`
}

/*
Enroll creates an account on behalf of an administrator.

Description: The account receives a random generated password and starts in
PENDING status; the owner must change the password before they can log in.

Parameters:
  - context: context.Context
  - input: EnrollInput

Returns:
  - *Enrollment: Created entity plus the one-time generated password
  - error: Conflict or storage errors
*/
func (service *Service) Enroll(context context.Context, input EnrollInput) (*Enrollment, error) {

	if !input.Role.Valid() {
		return nil, apperr.ValidationError("Validation failed", apperr.FieldError{
			Field:   FieldRole,
			Message: "Unknown role",
		})
	}

	// Verify phone uniqueness
	_, err := service.repository.FindByPhone(context, normalizePhone(input.Phone))
	if err == nil {
		return nil, apperr.Conflict("Phone number is already registered")
	}

	// Generate the initial password from the kernel CSPRNG
	generatedPassword, err := sec.GenerateSecureToken(generatedPasswordBytes)
	if err != nil {
		return nil, fmt.Errorf("identity_service_generate_password_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(context, generatedPassword)
	if err != nil {
		return nil, fmt.Errorf("identity_service_enroll_hash_failed: %w", err)
	}

	user := &User{
		ID:           uuid.New(),
		Phone:        normalizePhone(input.Phone),
		FullName:     normalizeName(input.FullName),
		Email:        strings.TrimSpace(input.Email),
		Role:         input.Role,
		Status:       StatusPending,
		PasswordHash: hashedPassword,
	}

	if err := service.repository.Create(context, user); err != nil {
		return nil, fmt.Errorf("identity_service_enroll_failed: %w", err)
	}

	return &Enrollment{User: user, GeneratedPassword: generatedPassword}, nil
}

// # Lookups

/*
Profile returns the account for the given principal ID.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *User: Hydrated entity
  - error: apperr.NotFound or storage errors
*/
func (service *Service) Profile(context context.Context, userID string) (*User, error) {
	return service.repository.FindByID(context, userID)
}

/*
PhoneAvailable reports whether a phone number is free for registration.

Description: Lookup runs against the normalized form so that formatting
variants of an already-registered number report taken.

Parameters:
  - context: context.Context
  - phone: string

Returns:
  - bool: true when no account holds the number
  - error: Storage errors other than not-found
*/
func (service *Service) PhoneAvailable(context context.Context, phone string) (bool, error) {
	_, err := service.repository.FindByPhone(context, normalizePhone(phone))
	if err == nil {
		return false, nil
	}
	if apperr.HasCode(err, "NOT_FOUND") {
		return true, nil
	}
	return false, err
}

// # Normalization Helpers

// normalizeName canonicalizes a display name to Unicode NFC and trims
// surrounding whitespace. Vietnamese names in particular arrive in both
// composed and decomposed forms depending on the input method.
func normalizeName(name string) string {
	return strings.TrimSpace(norm.NFC.String(name))
}

// normalizePhone strips spaces and dashes so that stored phone numbers
// compare byte-for-byte.
func normalizePhone(phone string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(phone))
}
