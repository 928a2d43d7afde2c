package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authapi/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-d string   PostgreSQL DSN
//	-k string   admin API key
//	-s string   JWT shared secret
//	-t int      session token validity, minutes
//	-r int      renewal token validity, minutes
//
// Arguments not in this list are filtered out with flagx.FilterArgs first.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-k", "-s", "-t", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.WebBindHost, "a", config.WebBindHost, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.AdminAPIKey, "k", config.AdminAPIKey, "admin API key")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "JWT shared secret")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "session token validity (in minutes)")
	renewalTokenValidityDuration := fs.Int("r", int(config.RenewalTokenValidityDuration.Minutes()), "renewal token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// Durations change only when their flag is given.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RenewalTokenValidityDuration = time.Duration(*renewalTokenValidityDuration) * time.Minute
		}
	})

	return nil
}
