// Package accounts declares the account store contract and its PostgreSQL
// and in-memory implementations.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/authapi/internal/server/models"
)

// Repository persists accounts. Lookups of absent accounts return
// common.ErrorNotFound; creating an account whose name is taken returns
// common.ErrorConflict.
type Repository interface {
	// Create inserts a new account. ID is generated when empty; CreatedAt is
	// set by the store.
	Create(ctx context.Context, account *models.Account) (*models.Account, error)

	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByName(ctx context.Context, name string) (*models.Account, error)
	GetByAPIKeyHash(ctx context.Context, hash string) (*models.Account, error)

	// List returns every account ordered by creation time, then id.
	List(ctx context.Context) ([]*models.Account, error)

	// ReplaceFields overwrites all fields of the account and returns the
	// updated account.
	ReplaceFields(ctx context.Context, id string, fields models.Fields) (*models.Account, error)

	UpdateAPIKeyHash(ctx context.Context, id string, hash string) error

	Delete(ctx context.Context, id string) error
}
