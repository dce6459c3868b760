// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/dberr"
)

// # Principal Repository

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const userColumns = `id, phone, fullname, email, role, status, passwordhash, createdat, updatedat`

// scanUser hydrates a User from a pgx row.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Phone,
		&user.FullName,
		&user.Email,
		&user.Role,
		&user.Status,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

Description: Deep-persists account metadata, ensuring timestamps are initialized
if not provided.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, phone, fullname, email, role, status, passwordhash, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Phone,
		user.FullName,
		user.Email,
		user.Role,
		user.Status,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	// The phone unique constraint backs the service-level check; a racing
	// duplicate surfaces as a Conflict rather than an internal error.
	if dberr.IsDuplicate(err) {
		return apperr.Conflict("Phone number is already registered")
	}
	if err != nil {
		return fmt.Errorf("postgres_identity_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts, filtering out
soft-deleted rows.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1 AND status != 'DELETED'`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_identity_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByPhone retrieves a user record by their unique phone number.

Parameters:
  - context: context.Context
  - phone: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByPhone(context context.Context, phone string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE phone = $1 AND status != 'DELETED'`

	user, err := scanUser(repository.pool.QueryRow(context, query, phone))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_identity_repo_find_by_phone_failed: %w", err)
	}

	return user, nil
}

/*
FindByIdentifier resolves an account ID or phone number to a single account
within the requested role class.

Description: Admin logins resolve only admin/superadmin rows; ordinary logins
resolve everything else. The class filter runs inside the query so that an
identifier shared across classes can never produce an ambiguous match.

Parameters:
  - context: context.Context
  - identifier: string
  - adminClass: bool

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByIdentifier(context context.Context, identifier string, adminClass bool) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE (id::text = $1 OR phone = $1)
		  AND (role IN ('admin', 'superadmin')) = $2
		  AND status != 'DELETED'`

	user, err := scanUser(repository.pool.QueryRow(context, query, identifier, adminClass))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_identity_repo_find_by_identifier_failed: %w", err)
	}

	return user, nil
}

/*
UpdatePassword updates only the password hash for a specific user.

Parameters:
  - context: context.Context
  - userID: string
  - newHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresRepository) UpdatePassword(context context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, updatedat = $3
		WHERE id = $1 AND status != 'DELETED'`

	_, err := repository.pool.Exec(context, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_identity_repo_update_password_failed: %w", err)
	}

	return nil
}

/*
SetStatus moves the account to a new lifecycle state.

Parameters:
  - context: context.Context
  - userID: string
  - status: Status

Returns:
  - error: Execution errors
*/
func (repository *PostgresRepository) SetStatus(context context.Context, userID string, status Status) error {
	const query = `
		UPDATE users.account
		SET status = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, userID, status, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_identity_repo_set_status_failed: %w", err)
	}

	return nil
}
