// Package server wires the account service together: storage backends,
// services, the HTTP API and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/authapi/internal/buildinfo"
	"github.com/dmitrijs2005/authapi/internal/logging"
	"github.com/dmitrijs2005/authapi/internal/server/config"
	"github.com/dmitrijs2005/authapi/internal/server/httpapi"
	"github.com/dmitrijs2005/authapi/internal/server/metrics"
	"github.com/dmitrijs2005/authapi/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authapi/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	closers     []func() error
	httpServer  *httpapi.HTTPServer
}

// NewApp opens storage, applies migrations, makes sure the bootstrap admin
// account exists and builds the HTTP server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogLevel, c.LogFormat, os.Stdout)

	mtr := metrics.New()
	rm, closers, err := openStorage(ctx, c, logger, mtr)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	app := &App{config: c, logger: logger, repomanager: rm, closers: closers}

	if err := rm.RunMigrations(ctx); err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	accounts := services.NewAccountService(rm, c)
	admin, err := accounts.EnsureAdmin(ctx)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("admin bootstrap error: %w", err)
	}
	logger.Info(ctx, "Admin account ready", "account_id", admin.ID, "name", admin.Name)

	verifier, err := services.NewCredentialVerifier(rm, c)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	sessions := services.NewSessionService(rm, c)

	app.httpServer = httpapi.NewHTTPServer(c.WebBindHost, logger, verifier, sessions, accounts, rm, mtr, c.SecretKey)

	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	err := app.httpServer.Run(ctx)
	if err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
	return err
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the storage backends.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "version", buildinfo.Version, "commit", buildinfo.Commit)

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg      sync.WaitGroup
		httpErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		httpErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(ctx)
	app.logger.Info(ctx, "App stopped")
	return httpErr
}

func (app *App) close(ctx context.Context) {
	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "error closing storage", "error", err)
	}
}
