// Package repomanager vends repository implementations bound to a database
// handle and owns schema migrations and backend health checks.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authapi/internal/dbx"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/renewaltokens"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	// DB is the handle for calls made outside a transaction. It is nil for
	// backends without one.
	DB() dbx.DBTX

	// WithTx runs fn inside a transaction when the backend supports them and
	// directly otherwise.
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error

	Accounts(db dbx.DBTX) accounts.Repository
	RenewalTokens(db dbx.DBTX) renewaltokens.Repository
}

// Option customizes a RepositoryManager.
type Option func(*options)

type options struct {
	renewalTokens renewaltokens.Repository
}

// WithRenewalTokens makes the manager hand out repo for renewal tokens
// instead of its own backend, e.g. a Redis store next to PostgreSQL accounts.
func WithRenewalTokens(repo renewaltokens.Repository) Option {
	return func(o *options) {
		o.renewalTokens = repo
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func pingRenewal(ctx context.Context, repo renewaltokens.Repository) error {
	if p, ok := repo.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
