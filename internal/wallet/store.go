// Copyright (c) 2026 Farmo. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import (
	"context"
)

// # Wallet Data Access

// Repository defines the data access contract for wallets.
type Repository interface {

	/*
		FindByPrincipal returns the wallet owned by the principal.

		Parameters:
		  - context: context.Context
		  - principalID: string

		Returns:
		  - *Wallet: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByPrincipal(context context.Context, principalID string) (*Wallet, error)

	/*
		Create persists a brand-new wallet row.

		Parameters:
		  - context: context.Context
		  - wallet: *Wallet

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, wallet *Wallet) error

	/*
		UpdatePIN replaces only the wallet's PIN hash.

		Parameters:
		  - context: context.Context
		  - walletID: string
		  - pinHash: string

		Returns:
		  - error: Persistence failures
	*/
	UpdatePIN(context context.Context, walletID, pinHash string) error
}
