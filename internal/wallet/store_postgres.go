// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

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

// # Wallet Repository

// PostgresRepository implements the Repository interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
FindByPrincipal returns the wallet owned by the principal.

Parameters:
  - context: context.Context
  - principalID: string

Returns:
  - *Wallet: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByPrincipal(context context.Context, principalID string) (*Wallet, error) {
	const query = `
		SELECT id, principalid, balance, currency, pinhash, createdat, updatedat
		FROM wallet.wallet
		WHERE principalid = $1`

	wallet := &Wallet{}
	err := repository.pool.QueryRow(context, query, principalID).Scan(
		&wallet.ID,
		&wallet.PrincipalID,
		&wallet.Balance,
		&wallet.Currency,
		&wallet.PINHash,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Wallet")
		}
		return nil, fmt.Errorf("postgres_wallet_repo_find_failed: %w", err)
	}

	return wallet, nil
}

/*
Create persists a brand-new wallet row into the wallet.wallet table.

Parameters:
  - context: context.Context
  - wallet: *Wallet

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, wallet *Wallet) error {
	const query = `
		INSERT INTO wallet.wallet (
			id, principalid, balance, currency, pinhash, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	now := time.Now()
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = now
	}
	wallet.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		wallet.ID,
		wallet.PrincipalID,
		wallet.Balance,
		wallet.Currency,
		wallet.PINHash,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	)

	// One wallet per principal; a racing first-access creation collapses
	// into a Conflict the service resolves by re-reading.
	if dberr.IsDuplicate(err) {
		return dberr.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("postgres_wallet_repo_create_failed: %w", err)
	}

	return nil
}

/*
UpdatePIN replaces only the wallet's PIN hash.

Parameters:
  - context: context.Context
  - walletID: string
  - pinHash: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresRepository) UpdatePIN(context context.Context, walletID, pinHash string) error {
	const query = `
		UPDATE wallet.wallet
		SET pinhash = $2, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(context, query, walletID, pinHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_wallet_repo_update_pin_failed: %w", err)
	}

	return nil
}
