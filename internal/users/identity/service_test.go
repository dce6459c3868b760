// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/sec"
	"github.com/taibuivan/farmo/internal/users/identity"
)

// fakeRepo is an in-memory identity.Repository.
type fakeRepo struct {
	users map[string]*identity.User // by ID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*identity.User)}
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*identity.User, error) {
	if u, ok := r.users[id]; ok && u.Status != identity.StatusDeleted {
		return u, nil
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeRepo) FindByPhone(_ context.Context, phone string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Phone == phone && u.Status != identity.StatusDeleted {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeRepo) FindByIdentifier(_ context.Context, identifier string, adminClass bool) (*identity.User, error) {
	for _, u := range r.users {
		if (u.ID == identifier || u.Phone == identifier) &&
			u.Role.IsAdmin() == adminClass && u.Status != identity.StatusDeleted {
			return u, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (r *fakeRepo) Create(_ context.Context, user *identity.User) error {
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeRepo) SetStatus(_ context.Context, userID string, status identity.Status) error {
	u, ok := r.users[userID]
	if !ok {
		return apperr.NotFound("User")
	}
	u.Status = status
	return nil
}

// plainHasher stores the plaintext as its own hash.
type plainHasher struct{}

func (plainHasher) Hash(_ context.Context, plaintext string) (string, error) {
	return "hashed:" + plaintext, nil
}

/*
TestRegister creates a self-service account and checks normalization and the
resulting lifecycle state.
*/
func TestRegister(t *testing.T) {
	repo := newFakeRepo()
	service := identity.NewService(repo, plainHasher{})

	user, err := service.Register(context.Background(), identity.RegisterInput{
		Phone:    " 090 123-4567 ",
		FullName: "  Nguyễn Văn An  ",
		Email:    " an@example.com ",
		Password: "s3cret-Pa55",
		Role:     sec.RoleFarmer,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "0901234567", user.Phone)
	assert.Equal(t, "Nguyễn Văn An", user.FullName)
	assert.Equal(t, "an@example.com", user.Email)
	assert.Equal(t, identity.StatusActivated, user.Status)
	assert.Equal(t, "hashed:s3cret-Pa55", user.PasswordHash)
}

/*
TestRegister_RoleRestricted verifies that self-registration cannot claim an
elevated role.
*/
func TestRegister_RoleRestricted(t *testing.T) {
	service := identity.NewService(newFakeRepo(), plainHasher{})

	for _, role := range []sec.Role{sec.RoleAdmin, sec.RoleSuperAdmin, sec.RoleVerifiedFarmer} {
		_, err := service.Register(context.Background(), identity.RegisterInput{
			Phone:    "0901234567",
			FullName: "Nguyen Van A",
			Password: "s3cret",
			Role:     role,
		})

		require.Error(t, err, "role %s must be rejected", role)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "VALIDATION_ERROR", ae.Code)
	}
}

/*
TestRegister_DuplicatePhone checks the uniqueness conflict, including numbers
that differ only in formatting.
*/
func TestRegister_DuplicatePhone(t *testing.T) {
	repo := newFakeRepo()
	service := identity.NewService(repo, plainHasher{})
	ctx := context.Background()

	_, err := service.Register(ctx, identity.RegisterInput{
		Phone: "0901234567", FullName: "Nguyen Van A", Password: "x", Role: sec.RoleConsumer,
	})
	require.NoError(t, err)

	_, err = service.Register(ctx, identity.RegisterInput{
		Phone: "090 123-4567", FullName: "Someone Else", Password: "y", Role: sec.RoleConsumer,
	})

	require.Error(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Equal(t, "CONFLICT", ae.Code)
}

/*
TestEnroll verifies administrative enrollment: generated password handed back
once, account parked in PENDING.
*/
func TestEnroll(t *testing.T) {
	repo := newFakeRepo()
	service := identity.NewService(repo, plainHasher{})

	enrollment, err := service.Enroll(context.Background(), identity.EnrollInput{
		Phone:    "0907654321",
		FullName: "Tran Thi B",
		Role:     sec.RoleVerifiedFarmer,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.GeneratedPassword)
	assert.Equal(t, identity.StatusPending, enrollment.User.Status)
	assert.Equal(t, "hashed:"+enrollment.GeneratedPassword, enrollment.User.PasswordHash)
}

/*
TestEnroll_UnknownRole rejects roles outside the platform taxonomy.
*/
func TestEnroll_UnknownRole(t *testing.T) {
	service := identity.NewService(newFakeRepo(), plainHasher{})

	_, err := service.Enroll(context.Background(), identity.EnrollInput{
		Phone:    "0907654321",
		FullName: "Tran Thi B",
		Role:     sec.Role("landlord"),
	})

	require.Error(t, err)
}

/*
TestPhoneAvailable checks the registration availability probe, including
formatting variants of a taken number.
*/
func TestPhoneAvailable(t *testing.T) {
	repo := newFakeRepo()
	service := identity.NewService(repo, plainHasher{})
	ctx := context.Background()

	available, err := service.PhoneAvailable(ctx, "0901234567")
	require.NoError(t, err)
	assert.True(t, available)

	_, err = service.Register(ctx, identity.RegisterInput{
		Phone: "0901234567", FullName: "Nguyen Van A", Password: "x", Role: sec.RoleConsumer,
	})
	require.NoError(t, err)

	available, err = service.PhoneAvailable(ctx, "090 123-4567")
	require.NoError(t, err)
	assert.False(t, available)
}

/*
TestProfile returns the stored account or a typed not-found.
*/
func TestProfile(t *testing.T) {
	repo := newFakeRepo()
	service := identity.NewService(repo, plainHasher{})
	ctx := context.Background()

	created, err := service.Register(ctx, identity.RegisterInput{
		Phone: "0901234567", FullName: "Nguyen Van A", Password: "x", Role: sec.RoleConsumer,
	})
	require.NoError(t, err)

	found, err := service.Profile(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Phone, found.Phone)

	_, err = service.Profile(ctx, "missing")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "NOT_FOUND"))
}
