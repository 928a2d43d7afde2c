// Package httpapi exposes the account service over HTTP/JSON: authentication
// endpoints, the administrator-only account API, health and metrics.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authapi/internal/logging"
	"github.com/dmitrijs2005/authapi/internal/server/metrics"
	"github.com/dmitrijs2005/authapi/internal/server/models"
	"github.com/dmitrijs2005/authapi/internal/server/services"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// CredentialVerifier checks presented credentials.
type CredentialVerifier interface {
	VerifyAPIKey(ctx context.Context, presented string) (models.Identity, error)
	VerifyPassword(ctx context.Context, name, password string) (models.Identity, error)
}

// SessionIssuer hands out and renews token pairs.
type SessionIssuer interface {
	Issue(ctx context.Context, identity models.Identity) (*services.TokenPair, error)
	Renew(ctx context.Context, renewalToken string) (*services.TokenPair, error)
}

// AccountManager is the administrator account API.
type AccountManager interface {
	Create(ctx context.Context, in services.CreateAccountInput) (*models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
	ReplaceFields(ctx context.Context, id string, fields models.Fields) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}

// HealthChecker reports whether the storage backends are reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type HTTPServer struct {
	address   string
	logger    logging.Logger
	verifier  CredentialVerifier
	sessions  SessionIssuer
	accounts  AccountManager
	health    HealthChecker
	metrics   *metrics.Metrics
	jwtSecret []byte
}

func NewHTTPServer(address string, l logging.Logger, v CredentialVerifier, s SessionIssuer, a AccountManager,
	h HealthChecker, m *metrics.Metrics, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   address,
		logger:    l.With("module", "http_server"),
		verifier:  v,
		sessions:  s,
		accounts:  a,
		health:    h,
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *HTTPServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	shutdownErr := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		shutdownErr <- srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-shutdownErr
}
