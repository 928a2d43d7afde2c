package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/authapi/internal/flagx"
	"github.com/dmitrijs2005/authapi/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Durations
// accept both "15m" strings and integer nanoseconds.
type JsonConfig struct {
	WebBindHost                  string         `json:"web_bind_host"`
	DatabaseDSN                  string         `json:"database_dsn"`
	AdminAPIKey                  string         `json:"admin_api_key"`
	AdminAccountName             string         `json:"admin_account_name"`
	SecretKey                    string         `json:"jwt_shared_secret"`
	AccessTokenValidityDuration  timex.Duration `json:"jwt_ttl"`
	RenewalTokenValidityDuration timex.Duration `json:"renewal_token_ttl"`
	RenewalStore                 string         `json:"renewal_store"`
	RedisURL                     string         `json:"redis_url"`
	BcryptCost                   int            `json:"bcrypt_cost"`
	LogLevel                     string         `json:"log_level"`
	LogFormat                    string         `json:"log_format"`
}

// parseJson overlays the JSON file named by -c/-config in args onto config.
// Values absent from the file keep their current setting.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.ConfigFileFlag(args)

	// nothing to load
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	setString(&config.WebBindHost, c.WebBindHost)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.AdminAPIKey, c.AdminAPIKey)
	setString(&config.AdminAccountName, c.AdminAccountName)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.AccessTokenValidityDuration, c.AccessTokenValidityDuration)
	setDuration(&config.RenewalTokenValidityDuration, c.RenewalTokenValidityDuration)
	setString(&config.RenewalStore, c.RenewalStore)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
