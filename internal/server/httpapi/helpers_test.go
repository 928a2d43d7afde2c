package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/authapi/internal/logging"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/metrics"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authapi/internal/server/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminKey = "admin-secret-key"
	testSecret   = "jwt-secret"
)

type fixture struct {
	handler  http.Handler
	accounts *services.AccountService
	metrics  *metrics.Metrics
	admin    *models.Account
	health   *fakeHealth
}

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Ping(context.Context) error { return f.err }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AdminAPIKey = testAdminKey
	cfg.SecretKey = testSecret
	cfg.BcryptCost = bcrypt.MinCost
	cfg.AccessTokenValidityDuration = time.Minute
	cfg.RenewalTokenValidityDuration = time.Hour

	rm := repomanager.NewMemoryRepositoryManager()
	accounts := services.NewAccountService(rm, cfg)
	admin, err := accounts.EnsureAdmin(context.Background())
	require.NoError(t, err)

	verifier, err := services.NewCredentialVerifier(rm, cfg)
	require.NoError(t, err)

	m := metrics.New()
	health := &fakeHealth{}
	srv := NewHTTPServer(":0", logging.Nop(), verifier, services.NewSessionService(rm, cfg), accounts, health, m, cfg.SecretKey)

	return &fixture{handler: srv.Router(), accounts: accounts, metrics: m, admin: admin, health: health}
}

func (f *fixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// raw sends body as is with the given content type.
func (f *fixture) raw(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) adminToken(t *testing.T) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/api-key", "", map[string]string{"apiKey": testAdminKey})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodePair(t, rec).JWT
}

func (f *fixture) createAccount(t *testing.T, token, name, password string, fields any) models.Account {
	t.Helper()
	body := map[string]any{"name": name, "password": password}
	if fields != nil {
		body["fields"] = fields
	}
	rec := f.do(t, http.MethodPost, "/accounts", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var a models.Account
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	return a
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) services.TokenPair {
	t.Helper()
	var p services.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func decodeErrors(t *testing.T, rec *httptest.ResponseRecorder) []apiError {
	t.Helper()
	var out []apiError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.NotEmpty(t, out)
	return out
}
