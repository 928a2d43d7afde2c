// Package client talks to the account service over HTTP and sets up the
// local session database.
package client

import (
	"context"

	"github.com/dmitrijs2005/authapi/internal/server/models"
)

// TokenPair is what every successful authentication returns.
type TokenPair struct {
	JWT          string `json:"jwt"`
	RenewalToken string `json:"renewalToken"`
}

type Client interface {
	Close() error
	Ping(ctx context.Context) error

	LoginAPIKey(ctx context.Context, apiKey string) (*TokenPair, error)
	LoginPassword(ctx context.Context, name, password string) (*TokenPair, error)
	Renew(ctx context.Context, renewalToken string) (*TokenPair, error)

	ListAccounts(ctx context.Context, jwt string) ([]*models.Account, error)
	GetAccount(ctx context.Context, jwt, id string) (*models.Account, error)
	CreateAccount(ctx context.Context, jwt, name, password string, fields models.Fields) (*models.Account, error)
	ReplaceFields(ctx context.Context, jwt, id string, fields models.Fields) (*models.Account, error)
	DeleteAccount(ctx context.Context, jwt, id string) error
}
