// Package config loads and validates agent configuration via Viper.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all agent configuration knobs loaded via Viper. A Config
// value is an immutable snapshot: components receive it at construction
// and a fresh snapshot comes from Reload, never from in-place mutation.
type Config struct {
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	SMS      SMSConfig      `mapstructure:"sms"`
	Email    EmailConfig    `mapstructure:"email"`
	Operator OperatorConfig `mapstructure:"operator"`
	CRM      CRMConfig      `mapstructure:"crm"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// LedgerConfig controls the remote ledger and its local mirror.
type LedgerConfig struct {
	SheetID        string `mapstructure:"sheet_id"`
	BaseURL        string `mapstructure:"base_url"`
	APIToken       string `mapstructure:"api_token"`
	LocalPath      string `mapstructure:"local_path"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RetryAttempts  int    `mapstructure:"retry_attempts"`
	RetryDelaySec  int    `mapstructure:"retry_delay_seconds"`
}

// ScraperConfig governs the classifieds scraper.
type ScraperConfig struct {
	URLs           []string `mapstructure:"urls"`
	MinVehicleYear int      `mapstructure:"min_vehicle_year"`
	UserAgent      string   `mapstructure:"user_agent"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds"`
}

// SMSConfig holds SMS gateway credentials.
type SMSConfig struct {
	AccountSID     string `mapstructure:"account_sid"`
	AuthToken      string `mapstructure:"auth_token"`
	FromNumber     string `mapstructure:"from_number"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// EmailConfig configures the SMTP relay.
type EmailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// OperatorConfig identifies who gets notified about new leads.
type OperatorConfig struct {
	Email string `mapstructure:"email"`
	Phone string `mapstructure:"phone"`
}

// CRMConfig controls the Thryv integration.
type CRMConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	APIKey         string `mapstructure:"api_key"`
	AccountID      string `mapstructure:"account_id"`
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// LoggingConfig toggles zap development features. An empty Level keeps
// the mode's default verbosity.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CARFINDER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Reload returns a fresh immutable snapshot from the same sources.
func Reload(path string) (Config, error) {
	return Load(path)
}

// TokenRefresher returns a hook that re-reads the ledger API token from
// the configuration sources. Rotating the token in the config file or the
// CARFINDER_LEDGER_API_TOKEN variable lets a 401/403 retry pick it up
// without restarting the agent.
func TokenRefresher(path string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) {
		cfg, err := Reload(path)
		if err != nil {
			return "", fmt.Errorf("reload credentials: %w", err)
		}
		if cfg.Ledger.APIToken == "" {
			return "", fmt.Errorf("no ledger api token configured")
		}
		return cfg.Ledger.APIToken, nil
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ledger.base_url", "https://sheets.googleapis.com/v4")
	v.SetDefault("ledger.local_path", "local_leads.json")
	v.SetDefault("ledger.timeout_seconds", 30)
	v.SetDefault("ledger.retry_attempts", 3)
	v.SetDefault("ledger.retry_delay_seconds", 2)
	v.SetDefault("scraper.min_vehicle_year", 2018)
	v.SetDefault("scraper.user_agent", "carfinderai/1.0")
	v.SetDefault("scraper.timeout_seconds", 10)
	v.SetDefault("sms.base_url", "https://api.twilio.com/2010-04-01")
	v.SetDefault("sms.timeout_seconds", 15)
	v.SetDefault("email.host", "smtp.gmail.com")
	v.SetDefault("email.port", 587)
	v.SetDefault("crm.enabled", false)
	v.SetDefault("crm.base_url", "https://api.thryv.com/v1")
	v.SetDefault("crm.timeout_seconds", 15)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Scraper.MinVehicleYear <= 0 {
		return fmt.Errorf("scraper.min_vehicle_year must be > 0")
	}
	if c.Ledger.RetryAttempts <= 0 {
		return fmt.Errorf("ledger.retry_attempts must be > 0")
	}
	if c.Ledger.TimeoutSeconds <= 0 {
		return fmt.Errorf("ledger.timeout_seconds must be > 0")
	}
	if c.Email.Port <= 0 {
		return fmt.Errorf("email.port must be > 0")
	}
	if c.CRM.Enabled && (c.CRM.APIKey == "" || c.CRM.AccountID == "") {
		return fmt.Errorf("crm.api_key and crm.account_id must be set when crm is enabled")
	}
	return nil
}

// LedgerTimeout converts the ledger timeout into a duration.
func (c Config) LedgerTimeout() time.Duration {
	return time.Duration(c.Ledger.TimeoutSeconds) * time.Second
}

// RetryDelay converts the base retry delay into a duration.
func (c Config) RetryDelay() time.Duration {
	return time.Duration(c.Ledger.RetryDelaySec) * time.Second
}
