// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/farmo/internal/platform/apperr"
	"github.com/taibuivan/farmo/internal/platform/constants"
)

// # Token Repository

// PostgresTokenRepository implements the TokenRepository interface using pgx.
type PostgresTokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new PostgreSQL implementation of TokenRepository.
func NewTokenRepository(pool *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{pool: pool}
}

const tokenColumns = `id, principalid, token, refreshtoken, deviceinfo, issuedat, expiresat, status`

// scanToken hydrates a Token from a pgx row.
func scanToken(row pgx.Row) (*Token, error) {
	token := &Token{}
	err := row.Scan(
		&token.ID,
		&token.PrincipalID,
		&token.Token,
		&token.RefreshToken,
		&token.DeviceInfo,
		&token.IssuedAt,
		&token.ExpiresAt,
		&token.Status,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}

/*
Create persists a new session token row into the users.token table.

Parameters:
  - context: context.Context
  - token: *Token

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresTokenRepository) Create(context context.Context, token *Token) error {
	const query = `
		INSERT INTO users.token (
			id, principalid, token, refreshtoken, deviceinfo, issuedat, expiresat, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := repository.pool.Exec(context, query,
		token.ID,
		token.PrincipalID,
		token.Token,
		token.RefreshToken,
		token.DeviceInfo,
		token.IssuedAt,
		token.ExpiresAt,
		token.Status,
	)

	if err != nil {
		return fmt.Errorf("postgres_token_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindActive returns the principal's ACTIVE tokens ordered oldest first.

Description: The oldest-first ordering is what the eviction policy relies on.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - []*Token: Oldest-first sequence
  - error: Execution errors
*/
func (repository *PostgresTokenRepository) FindActive(context context.Context, principalID string) ([]*Token, error) {
	const query = `
		SELECT ` + tokenColumns + `
		FROM users.token
		WHERE principalid = $1 AND status = 'ACTIVE'
		ORDER BY issuedat ASC`

	rows, err := repository.pool.Query(context, query, principalID)
	if err != nil {
		return nil, fmt.Errorf("postgres_token_repo_find_active_failed: %w", err)
	}
	defer rows.Close()

	var tokens []*Token
	for rows.Next() {
		token, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_token_repo_scan_failed: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_token_repo_rows_failed: %w", err)
	}

	return tokens, nil
}

/*
FindByToken retrieves a session row by its exact bearer token value.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *Token: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresTokenRepository) FindByToken(context context.Context, token string) (*Token, error) {
	const query = `
		SELECT ` + tokenColumns + `
		FROM users.token
		WHERE token = $1`

	row, err := scanToken(repository.pool.QueryRow(context, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_token_repo_find_by_token_failed: %w", err)
	}

	return row, nil
}

/*
FindByTuple retrieves a session row by the exact four-part device tuple.

Description: token, principal, refresh token, and device label must all match
the same row. This binds a refresh to its originating device fingerprint and
prevents cross-device refresh replay.

Parameters:
  - context: context.Context
  - token: string
  - principalID: string
  - refreshToken: string
  - deviceInfo: string

Returns:
  - *Token: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresTokenRepository) FindByTuple(context context.Context, token, principalID, refreshToken, deviceInfo string) (*Token, error) {
	const query = `
		SELECT ` + tokenColumns + `
		FROM users.token
		WHERE token = $1 AND principalid = $2 AND refreshtoken = $3 AND deviceinfo = $4`

	row, err := scanToken(repository.pool.QueryRow(context, query, token, principalID, refreshToken, deviceInfo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_token_repo_find_by_tuple_failed: %w", err)
	}

	return row, nil
}

/*
SetStatus moves a single token to a new lifecycle state.

Parameters:
  - context: context.Context
  - tokenID: string
  - status: TokenStatus

Returns:
  - error: Execution errors
*/
func (repository *PostgresTokenRepository) SetStatus(context context.Context, tokenID string, status TokenStatus) error {
	const query = "UPDATE users.token SET status = $2 WHERE id = $1"
	_, err := repository.pool.Exec(context, query, tokenID, status)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_set_status_failed: %w", err)
	}
	return nil
}

/*
SetStatusAll bulk-moves every token of the principal in fromStatus to toStatus.

Description: Single-predicate bulk update used for "sign out everywhere".

Parameters:
  - context: context.Context
  - principalID: string
  - fromStatus: TokenStatus
  - toStatus: TokenStatus

Returns:
  - error: Execution errors
*/
func (repository *PostgresTokenRepository) SetStatusAll(context context.Context, principalID string, fromStatus, toStatus TokenStatus) error {
	const query = "UPDATE users.token SET status = $3 WHERE principalid = $1 AND status = $2"
	_, err := repository.pool.Exec(context, query, principalID, fromStatus, toStatus)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_set_status_all_failed: %w", err)
	}
	return nil
}

/*
Issue atomically applies the device-cap policy and inserts the new token.

Description: Locks the principal's ACTIVE rows with SELECT ... FOR UPDATE so
two concurrent logins for the same principal serialize on the row set, retires
the oldest rows until fewer than the cap remain, then inserts the new row.
Commit is all-or-nothing: if eviction fails, issuance does not proceed.

Parameters:
  - context: context.Context
  - token: *Token

Returns:
  - error: Transaction failures
*/
func (repository *PostgresTokenRepository) Issue(context context.Context, token *Token) error {
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_issue_begin_failed: %w", err)
	}
	// Rollback is a no-op after a successful commit.
	defer func() { _ = transaction.Rollback(context) }()

	// Lock this principal's ACTIVE rows, oldest first. The lock serializes
	// concurrent issuance for the same principal without blocking others.
	const lockQuery = `
		SELECT id
		FROM users.token
		WHERE principalid = $1 AND status = 'ACTIVE'
		ORDER BY issuedat ASC
		FOR UPDATE`

	rows, err := transaction.Query(context, lockQuery, token.PrincipalID)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_issue_lock_failed: %w", err)
	}

	var activeIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("postgres_token_repo_issue_scan_failed: %w", err)
		}
		activeIDs = append(activeIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres_token_repo_issue_rows_failed: %w", err)
	}

	// Retire the oldest rows until the insert keeps the active count at the cap.
	const evictQuery = "UPDATE users.token SET status = 'INACTIVE' WHERE id = $1"
	for len(activeIDs) >= constants.MaxActiveSessions {
		oldest := activeIDs[0]
		activeIDs = activeIDs[1:]
		if _, err := transaction.Exec(context, evictQuery, oldest); err != nil {
			return fmt.Errorf("postgres_token_repo_issue_evict_failed: %w", err)
		}
	}

	const insertQuery = `
		INSERT INTO users.token (
			id, principalid, token, refreshtoken, deviceinfo, issuedat, expiresat, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = transaction.Exec(context, insertQuery,
		token.ID,
		token.PrincipalID,
		token.Token,
		token.RefreshToken,
		token.DeviceInfo,
		token.IssuedAt,
		token.ExpiresAt,
		token.Status,
	)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_issue_insert_failed: %w", err)
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_token_repo_issue_commit_failed: %w", err)
	}

	return nil
}
