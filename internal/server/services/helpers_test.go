package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/authapi/internal/dbx"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/renewaltokens"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminKey = "admin-secret-key"
	testSecret   = "jwt-secret"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AdminAPIKey = testAdminKey
	cfg.SecretKey = testSecret
	cfg.BcryptCost = bcrypt.MinCost
	cfg.AccessTokenValidityDuration = time.Minute
	cfg.RenewalTokenValidityDuration = time.Hour
	return cfg
}

// fakeAccountsRepo delegates to an embedded memory repository unless an
// error is forced for a method.
type fakeAccountsRepo struct {
	*accounts.MemoryRepository
	getByNameErr error
	getByIDErr   error
	listErr      error
	deleteErr    error
}

func (f *fakeAccountsRepo) GetByName(ctx context.Context, name string) (*models.Account, error) {
	if f.getByNameErr != nil {
		return nil, f.getByNameErr
	}
	return f.MemoryRepository.GetByName(ctx, name)
}

func (f *fakeAccountsRepo) GetByID(ctx context.Context, id string) (*models.Account, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.MemoryRepository.GetByID(ctx, id)
}

func (f *fakeAccountsRepo) List(ctx context.Context) ([]*models.Account, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.MemoryRepository.List(ctx)
}

func (f *fakeAccountsRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryRepository.Delete(ctx, id)
}

type fakeRenewalRepo struct {
	*renewaltokens.MemoryRepository
	createErr  error
	consumeErr error
}

func (f *fakeRenewalRepo) Create(ctx context.Context, accountID, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	return f.MemoryRepository.Create(ctx, accountID, token, validity)
}

func (f *fakeRenewalRepo) Consume(ctx context.Context, token string) (*models.RenewalToken, error) {
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	return f.MemoryRepository.Consume(ctx, token)
}

type fakeRepoManager struct {
	acc     *fakeAccountsRepo
	renewal *fakeRenewalRepo
	txCalls int
}

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		acc:     &fakeAccountsRepo{MemoryRepository: accounts.NewMemoryRepository()},
		renewal: &fakeRenewalRepo{MemoryRepository: renewaltokens.NewMemoryRepository()},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context) error { return nil }
func (m *fakeRepoManager) Ping(context.Context) error          { return nil }
func (m *fakeRepoManager) Close() error                        { return nil }
func (m *fakeRepoManager) DB() dbx.DBTX                        { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository {
	return m.acc
}
func (m *fakeRepoManager) RenewalTokens(dbx.DBTX) renewaltokens.Repository {
	return m.renewal
}
func (m *fakeRepoManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txCalls++
	return fn(ctx, nil)
}

var errDB = errors.New("db down")

func mustCreate(t *testing.T, svc *AccountService, name, password string, fields models.Fields) *models.Account {
	t.Helper()
	acc, err := svc.Create(context.Background(), CreateAccountInput{Name: name, Password: password, Fields: fields})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return acc
}
