// Package renewaltokens declares the renewal token store contract and its
// PostgreSQL, Redis and in-memory implementations.
package renewaltokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authapi/internal/server/models"
)

// Repository stores opaque renewal tokens.
type Repository interface {
	// Create stores token for accountID with an expiry of now+validity.
	Create(ctx context.Context, accountID string, token string, validity time.Duration) error

	// Consume atomically removes the token and returns what it held. Of two
	// concurrent calls for one token only one succeeds; the other gets
	// common.ErrorNotFound.
	Consume(ctx context.Context, token string) (*models.RenewalToken, error)

	// DeleteByAccount removes every token of the account.
	DeleteByAccount(ctx context.Context, accountID string) error
}
