// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
)

// # Principal Data Access

// Repository defines the data access contract for user accounts.
type Repository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByPhone returns the account with the given phone number.

		Parameters:
		  - context: context.Context
		  - phone: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByPhone(context context.Context, phone string) (*User, error)

	/*
		FindByIdentifier resolves a login identifier (account ID or phone) to
		exactly one account within the requested role class. Admin logins only
		match administrative accounts; ordinary logins only match the rest.

		Parameters:
		  - context: context.Context
		  - identifier: string (account ID or phone number)
		  - adminClass: bool (restrict the lookup to the admin role class)

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByIdentifier(context context.Context, identifier string, adminClass bool) (*User, error)

	/*
		Create persists a brand-new user account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, user *User) error

	/*
		UpdatePassword replaces only the user's password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - newHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePassword(context context.Context, userID, newHash string) error

	/*
		SetStatus moves the account to a new lifecycle state.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - status: Status

		Returns:
		  - error: Persistence failures
	*/
	SetStatus(context context.Context, userID string, status Status) error
}
