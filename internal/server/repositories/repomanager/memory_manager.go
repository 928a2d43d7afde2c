package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authapi/internal/dbx"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/renewaltokens"
)

// MemoryRepositoryManager hands out process-local repositories. Every call
// returns the same instances; the DBTX argument is ignored.
type MemoryRepositoryManager struct {
	accounts      *accounts.MemoryRepository
	renewalTokens renewaltokens.Repository
}

func NewMemoryRepositoryManager(opts ...Option) *MemoryRepositoryManager {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.renewalTokens == nil {
		o.renewalTokens = renewaltokens.NewMemoryRepository()
	}
	return &MemoryRepositoryManager{
		accounts:      accounts.NewMemoryRepository(),
		renewalTokens: o.renewalTokens,
	}
}

func (m *MemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository {
	return m.accounts
}

func (m *MemoryRepositoryManager) RenewalTokens(dbx.DBTX) renewaltokens.Repository {
	return m.renewalTokens
}

func (m *MemoryRepositoryManager) DB() dbx.DBTX {
	return nil
}

// WithTx runs fn directly. Each memory repository call is atomic on its own;
// a failure part-way through fn is not rolled back.
func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error {
	return nil
}

func (m *MemoryRepositoryManager) Ping(ctx context.Context) error {
	return pingRenewal(ctx, m.renewalTokens)
}

func (m *MemoryRepositoryManager) Close() error {
	return nil
}
