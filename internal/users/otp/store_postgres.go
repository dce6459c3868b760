// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package otp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/farmo/internal/platform/apperr"
)

// # Passcode Repository

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const otpColumns = `id, principalid, code, purpose, status, createdat, expiresat`

/*
Create persists a new passcode row into the users.otp table.

Parameters:
  - context: context.Context
  - otp: *OTP

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, otp *OTP) error {
	const query = `
		INSERT INTO users.otp (
			id, principalid, code, purpose, status, createdat, expiresat
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := repository.pool.Exec(context, query,
		otp.ID,
		otp.PrincipalID,
		otp.Code,
		otp.Purpose,
		otp.Status,
		otp.CreatedAt,
		otp.ExpiresAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_otp_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindLatest returns the most recently issued passcode for the pair.

Description: Historical rows accumulate; verification only ever considers the
newest one, whatever its status.

Parameters:
  - context: context.Context
  - principalID: string
  - purpose: Purpose

Returns:
  - *OTP: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindLatest(context context.Context, principalID string, purpose Purpose) (*OTP, error) {
	const query = `
		SELECT ` + otpColumns + `
		FROM users.otp
		WHERE principalid = $1 AND purpose = $2
		ORDER BY createdat DESC
		LIMIT 1`

	otp := &OTP{}
	err := repository.pool.QueryRow(context, query, principalID, purpose).Scan(
		&otp.ID,
		&otp.PrincipalID,
		&otp.Code,
		&otp.Purpose,
		&otp.Status,
		&otp.CreatedAt,
		&otp.ExpiresAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Passcode")
		}
		return nil, fmt.Errorf("postgres_otp_repo_find_latest_failed: %w", err)
	}

	return otp, nil
}

/*
SetStatus moves a single passcode to a new lifecycle state.

Parameters:
  - context: context.Context
  - otpID: string
  - status: Status

Returns:
  - error: Execution errors
*/
func (repository *PostgresRepository) SetStatus(context context.Context, otpID string, status Status) error {
	const query = "UPDATE users.otp SET status = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, otpID, status)
	if err != nil {
		return fmt.Errorf("postgres_otp_repo_set_status_failed: %w", err)
	}
	return nil
}

/*
ExpirePrior bulk-expires every still-ACTIVE passcode of the pair.

Description: Single-predicate bulk update run before each new issuance so a
superseded code can never verify, even inside its nominal lifetime.

Parameters:
  - context: context.Context
  - principalID: string
  - purpose: Purpose

Returns:
  - error: Execution errors
*/
func (repository *PostgresRepository) ExpirePrior(context context.Context, principalID string, purpose Purpose) error {
	const query = `
		UPDATE users.otp
		SET status = 'EXPIRED'
		WHERE principalid = $1 AND purpose = $2 AND status = 'ACTIVE'`

	_, err := repository.pool.Exec(context, query, principalID, purpose)
	if err != nil {
		return fmt.Errorf("postgres_otp_repo_expire_prior_failed: %w", err)
	}

	return nil
}
