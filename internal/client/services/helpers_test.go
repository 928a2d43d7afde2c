package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/authapi/internal/client/client"
	"github.com/dmitrijs2005/authapi/internal/server/auth"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tokenFor(t *testing.T, name string) string {
	t.Helper()
	tok, err := auth.GenerateToken(models.Identity{AccountID: "id-" + name, Name: name}, []byte("secret"), time.Minute)
	require.NoError(t, err)
	return tok
}

// fakeClient implements client.Client with overridable functions.
type fakeClient struct {
	loginAPIKey   func(ctx context.Context, key string) (*client.TokenPair, error)
	loginPassword func(ctx context.Context, name, password string) (*client.TokenPair, error)
	renew         func(ctx context.Context, token string) (*client.TokenPair, error)
	list          func(ctx context.Context, jwt string) ([]*models.Account, error)
	deleteAccount func(ctx context.Context, jwt, id string) error

	renewCalls int
}

func (f *fakeClient) Close() error                   { return nil }
func (f *fakeClient) Ping(ctx context.Context) error { return nil }

func (f *fakeClient) LoginAPIKey(ctx context.Context, key string) (*client.TokenPair, error) {
	return f.loginAPIKey(ctx, key)
}

func (f *fakeClient) LoginPassword(ctx context.Context, name, password string) (*client.TokenPair, error) {
	return f.loginPassword(ctx, name, password)
}

func (f *fakeClient) Renew(ctx context.Context, token string) (*client.TokenPair, error) {
	f.renewCalls++
	return f.renew(ctx, token)
}

func (f *fakeClient) ListAccounts(ctx context.Context, jwt string) ([]*models.Account, error) {
	return f.list(ctx, jwt)
}

func (f *fakeClient) GetAccount(ctx context.Context, jwt, id string) (*models.Account, error) {
	return &models.Account{ID: id}, nil
}

func (f *fakeClient) CreateAccount(ctx context.Context, jwt, name, password string, fields models.Fields) (*models.Account, error) {
	return &models.Account{ID: "new", Name: name, Fields: fields, APIKey: "k"}, nil
}

func (f *fakeClient) ReplaceFields(ctx context.Context, jwt, id string, fields models.Fields) (*models.Account, error) {
	return &models.Account{ID: id, Fields: fields}, nil
}

func (f *fakeClient) DeleteAccount(ctx context.Context, jwt, id string) error {
	return f.deleteAccount(ctx, jwt, id)
}
