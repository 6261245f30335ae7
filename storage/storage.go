// Package storage persists account state. Account data is sealed into an
// encrypted envelope before it reaches any backend, so adapters and the
// services behind them only ever see ciphertext.
package storage

import (
	"context"
	"fmt"

	"github.com/oipwg/oip-account/types"
)

// Adapter stores encrypted account blobs by id.
type Adapter interface {
	// Create persists a new account and returns its id.
	Create(ctx context.Context, data *types.AccountData, password string) (string, error)

	// Load fetches and decrypts the account with the given id.
	Load(ctx context.Context, id, password string) (*types.AccountData, error)

	// Save re-encrypts and overwrites an existing account.
	Save(ctx context.Context, data *types.AccountData, password string) error
}

func notFound(id string) *types.Error {
	return &types.Error{
		Code:    types.ErrAccountNotFound,
		Message: fmt.Sprintf("no account with id %s", id),
	}
}
