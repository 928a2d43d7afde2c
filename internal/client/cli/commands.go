package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/authapi/internal/client/client"
	"github.com/dmitrijs2005/authapi/internal/client/services"
	"github.com/dmitrijs2005/authapi/internal/common"
	"github.com/dmitrijs2005/authapi/internal/server/models"
)

// getSimpleText, getSecret and getFields point at the interactive input
// helpers and can be swapped in tests.
var (
	getSimpleText = GetSimpleText
	getSecret     = GetSecret
	getFields     = GetFields
)

func (a *App) report(err error) error {
	if errors.Is(err, services.ErrNotLoggedIn) {
		fmt.Fprintln(a.out, "Not logged in, use 'login' or 'login-key'")
		return err
	}
	if client.IsAPIError(err) {
		fmt.Fprintln(a.out, "Server rejected the request:", err)
		return err
	}
	fmt.Fprintln(a.out, "Error:", err)
	return err
}

// Ping checks that the server answers its health endpoint.
func (a *App) Ping(ctx context.Context) error {
	if err := a.server.Ping(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Server is up")
	return nil
}

func (a *App) LoginPassword(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter account name", a.out)
	if err != nil {
		return err
	}
	password, err := getSecret("Enter password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	account, err := a.sessions.LoginPassword(ctx, name, password)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", account)
	return nil
}

func (a *App) LoginAPIKey(ctx context.Context) error {
	key, err := getSecret("Enter API key", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(key)

	account, err := a.sessions.LoginAPIKey(ctx, key)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", account)
	return nil
}

func (a *App) Renew(ctx context.Context) error {
	if err := a.sessions.Renew(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Session renewed")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	name, err := a.sessions.AccountName(ctx)
	if err != nil {
		return a.report(err)
	}
	if name == "" {
		return a.report(services.ErrNotLoggedIn)
	}
	fmt.Fprintln(a.out, name)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.sessions.Logout(ctx); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) List(ctx context.Context) error {
	items, err := a.accounts.List(ctx)
	if err != nil {
		return a.report(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFIELDS")
	for _, item := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", item.ID, item.Name, formatFields(item.Fields))
	}
	return tw.Flush()
}

func (a *App) Show(ctx context.Context, id string) error {
	account, err := a.accounts.Get(ctx, id)
	if err != nil {
		return a.report(err)
	}
	a.printAccount(account)
	return nil
}

func (a *App) Create(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter account name", a.out)
	if err != nil {
		return err
	}
	password, err := getSecret("Enter password (empty for API key only)", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	fields, err := getFields(a.reader, a.out)
	if err != nil {
		return a.report(err)
	}

	account, err := a.accounts.Create(ctx, name, password, fields)
	if err != nil {
		return a.report(err)
	}
	a.printAccount(account)
	fmt.Fprintf(a.out, "API key: %s\n", account.APIKey)
	return nil
}

func (a *App) SetFields(ctx context.Context, id string) error {
	fields, err := getFields(a.reader, a.out)
	if err != nil {
		return a.report(err)
	}

	account, err := a.accounts.ReplaceFields(ctx, id, fields)
	if err != nil {
		return a.report(err)
	}
	a.printAccount(account)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.accounts.Delete(ctx, id); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Deleted", id)
	return nil
}

func (a *App) printAccount(account *models.Account) {
	fmt.Fprintf(a.out, "ID:      %s\n", account.ID)
	fmt.Fprintf(a.out, "Name:    %s\n", account.Name)
	fmt.Fprintf(a.out, "Created: %s\n", account.CreatedAt.Format("2006-01-02 15:04:05"))
	for _, f := range account.Fields {
		fmt.Fprintf(a.out, "  %s = %s\n", f.Name, strings.Join(f.Values, ", "))
	}
}

func formatFields(fields models.Fields) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Name+"="+strings.Join(f.Values, ","))
	}
	return strings.Join(parts, " ")
}
