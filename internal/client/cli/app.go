// Package cli implements authctl, an interactive administrator console for
// the account service.
package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/authapi/internal/client/client"
	"github.com/dmitrijs2005/authapi/internal/client/config"
	"github.com/dmitrijs2005/authapi/internal/client/services"
	"github.com/dmitrijs2005/authapi/internal/server/models"
)

// SessionManager is what the console needs from the session service.
type SessionManager interface {
	LoginAPIKey(ctx context.Context, apiKey []byte) (string, error)
	LoginPassword(ctx context.Context, name string, password []byte) (string, error)
	Renew(ctx context.Context) error
	AccountName(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// AccountCommands are the account operations the console offers.
type AccountCommands interface {
	List(ctx context.Context) ([]*models.Account, error)
	Get(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, name string, password []byte, fields models.Fields) (*models.Account, error)
	ReplaceFields(ctx context.Context, id string, fields models.Fields) (*models.Account, error)
	Delete(ctx context.Context, id string) error
}

// Pinger checks that the server is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type App struct {
	server   Pinger
	sessions SessionManager
	accounts AccountCommands
	reader   *bufio.Reader
	out      io.Writer
	closers  []func() error
}

// NewApp opens the session database and the API client described by c.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	db, err := client.InitDatabase(ctx, c.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("error initializing session database: %w", err)
	}

	apiClient, err := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return newApp(db, apiClient, os.Stdin, os.Stdout), nil
}

func newApp(db *sql.DB, c client.Client, in io.Reader, out io.Writer) *App {
	ss := services.NewSessionService(c, db)
	return &App{
		server:   c,
		sessions: ss,
		accounts: services.NewAccountService(c, ss),
		reader:   bufio.NewReader(in),
		out:      out,
		closers:  []func() error{c.Close, db.Close},
	}
}

func (a *App) isLoggedIn(ctx context.Context) bool {
	name, err := a.sessions.AccountName(ctx)
	return err == nil && name != ""
}

func (a *App) status(ctx context.Context) string {
	name, err := a.sessions.AccountName(ctx)
	if err != nil || name == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", name)
}

// Run starts the console and blocks until the user leaves it.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to authctl (type 'help' for commands)")
	if err := a.server.Ping(ctx); err != nil {
		fmt.Fprintln(a.out, "Warning:", err)
	}

	scanner := bufio.NewScanner(a.reader)
	runREPL(ctx, a, func() string { return a.status(ctx) }, scanner)

	for _, closeFn := range a.closers {
		_ = closeFn()
	}
}
