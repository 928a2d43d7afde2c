package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Ping(ctx context.Context) error
	LoginAPIKey(ctx context.Context) error
	LoginPassword(ctx context.Context) error
	Renew(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, id string) error
	Create(ctx context.Context) error
	SetFields(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Logout(ctx context.Context) error
}

// runREPL reads commands from scanner and dispatches them to a until EOF or
// "exit". Command errors are reported by the commands themselves.
//
//	Always:
//	  - ping           check that the server is up
//
//	Not logged in:
//	  - login          log in with name and password
//	  - login-key      log in with an API key
//
//	Logged in:
//	  - (l)ist         list accounts
//	  - show <id>      show one account
//	  - create         create an account
//	  - fields <id>    replace the fields of an account
//	  - delete <id>    delete an account
//	  - renew          renew the session
//	  - whoami         show the logged in account
//	  - logout         forget the session
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("authctl %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn("Available commands: (l)ist, show <id>, create, fields <id>, delete <id>, renew, whoami, ping, logout, exit")
			} else {
				printlnFn("Available commands: login, login-key, ping, exit")
			}

		case "ping":
			_ = a.Ping(ctx)

		case "login":
			_ = a.LoginPassword(ctx)

		case "login-key":
			_ = a.LoginAPIKey(ctx)

		case "renew":
			_ = a.Renew(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "show", "fields", "delete":
			if len(args) != 1 {
				printlnFn("Usage:", cmd, "<id>")
				continue
			}
			switch cmd {
			case "show":
				_ = a.Show(ctx, args[0])
			case "fields":
				_ = a.SetFields(ctx, args[0])
			case "delete":
				_ = a.Delete(ctx, args[0])
			}

		case "create":
			_ = a.Create(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
