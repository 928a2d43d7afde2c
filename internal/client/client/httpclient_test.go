package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authapi/internal/logging"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/httpapi"
	"github.com/dmitrijs2005/authapi/internal/server/metrics"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authapi/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminKey = "admin-key"

// startServer runs the real HTTP API over in-memory storage.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AdminAPIKey = testAdminKey
	cfg.SecretKey = "secret"
	cfg.BcryptCost = bcrypt.MinCost

	rm := repomanager.NewMemoryRepositoryManager()
	accounts := services.NewAccountService(rm, cfg)
	_, err := accounts.EnsureAdmin(context.Background())
	require.NoError(t, err)
	verifier, err := services.NewCredentialVerifier(rm, cfg)
	require.NoError(t, err)

	srv := httpapi.NewHTTPServer("", logging.Nop(), verifier, services.NewSessionService(rm, cfg), accounts, rm, metrics.New(), cfg.SecretKey)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T, url string) *HTTPClient {
	t.Helper()
	c, err := NewHTTPClient(url, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestNewHTTPClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewHTTPClient("localhost", time.Second)
	assert.Error(t, err)
}

func TestHTTPClient_AccountLifecycle(t *testing.T) {
	ts := startServer(t)
	c := newClient(t, ts.URL+"/")
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	pair, err := c.LoginAPIKey(ctx, testAdminKey)
	require.NoError(t, err)
	require.NotEmpty(t, pair.JWT)

	created, err := c.CreateAccount(ctx, pair.JWT, "alice", "pw", models.Fields{{Name: "team", Values: []string{"a"}}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.APIKey)

	_, err = c.CreateAccount(ctx, pair.JWT, "alice", "", nil)
	assert.ErrorIs(t, err, ErrConflict)

	items, err := c.ListAccounts(ctx, pair.JWT)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	updated, err := c.ReplaceFields(ctx, pair.JWT, created.ID, models.Fields{{Name: "x", Values: []string{"1"}}})
	require.NoError(t, err)
	assert.Equal(t, models.Fields{{Name: "x", Values: []string{"1"}}}, updated.Fields)

	got, err := c.GetAccount(ctx, pair.JWT, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)

	userPair, err := c.LoginPassword(ctx, "alice", "pw")
	require.NoError(t, err)
	_, err = c.ListAccounts(ctx, userPair.JWT)
	assert.ErrorIs(t, err, ErrForbidden)

	renewed, err := c.Renew(ctx, pair.RenewalToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RenewalToken, renewed.RenewalToken)

	require.NoError(t, c.DeleteAccount(ctx, renewed.JWT, created.ID))
	err = c.DeleteAccount(ctx, renewed.JWT, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"expired", http.StatusForbidden, `[{"error":"token expired"}]`, ErrTokenExpired},
		{"forbidden", http.StatusForbidden, `[{"error":"invalid token"}]`, ErrForbidden},
		{"not found", http.StatusNotFound, `[{"error":"not found"}]`, ErrNotFound},
		{"conflict", http.StatusConflict, `[{"error":"already exists","field":"name"}]`, ErrConflict},
		{"bad request", http.StatusBadRequest, `[{"error":"must not be empty","field":"name"}]`, ErrBadRequest},
		{"server", http.StatusInternalServerError, `oops`, ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := newClient(t, ts.URL).GetAccount(context.Background(), "jwt", "id")
			require.ErrorIs(t, err, tt.want)
			assert.True(t, IsAPIError(err))
		})
	}
}

func TestHTTPClient_Unavailable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	err := newClient(t, url).Ping(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, IsAPIError(err))
}

func TestHTTPClient_SendsBearerToken(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	require.NoError(t, newClient(t, ts.URL).DeleteAccount(context.Background(), "tok", "id"))
	assert.Equal(t, "Bearer tok", got)
}
