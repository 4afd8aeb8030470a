package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling; keys double as the
// environment variable names.
type Config struct {
	Port     string `mapstructure:"PORT"`
	AppEnv   string `mapstructure:"APP_ENV"`
	AppTitle string `mapstructure:"APP_TITLE"`

	DBURL string `mapstructure:"DB_URL"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`

	GoogleOAuthClientID     string `mapstructure:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleOAuthClientSecret string `mapstructure:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleOAuthCallbackURL  string `mapstructure:"GOOGLE_OAUTH_CALLBACK_URL"`
	GoogleOAuthScope        string `mapstructure:"GOOGLE_OAUTH_SCOPE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogPretty bool   `mapstructure:"LOG_PRETTY"`

	DebugRoutes bool `mapstructure:"DEBUG_ROUTES"`
	DebugHTMX   bool `mapstructure:"DEBUG_HTMX"`

	BcryptCost int `mapstructure:"BCRYPT_COST"`
}

// required lists the keys without sane defaults; Load fails fast when any
// of them is absent.
var required = []string{
	"DB_URL",
	"JWT_SECRET",
	"SESSION_SECRET",
	"GOOGLE_OAUTH_CLIENT_ID",
	"GOOGLE_OAUTH_CLIENT_SECRET",
	"GOOGLE_OAUTH_CALLBACK_URL",
}

// Load reads configuration from the environment, applies defaults, and
// validates that every required value is present.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_TITLE", "htmx-kit")
	v.SetDefault("GOOGLE_OAUTH_SCOPE", "openid email profile")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("DEBUG_ROUTES", false)
	v.SetDefault("DEBUG_HTMX", false)
	v.SetDefault("BCRYPT_COST", 0) // 0 means bcrypt.DefaultCost

	// AutomaticEnv alone does not surface keys without defaults through
	// Unmarshal; bind the required ones explicitly.
	for _, key := range required {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing required value at once so a broken
// deployment fails with one actionable message.
func (c *Config) Validate() error {
	missing := make([]string, 0)
	for key, val := range map[string]string{
		"DB_URL":                     c.DBURL,
		"JWT_SECRET":                 c.JWTSecret,
		"SESSION_SECRET":             c.SessionSecret,
		"GOOGLE_OAUTH_CLIENT_ID":     c.GoogleOAuthClientID,
		"GOOGLE_OAUTH_CLIENT_SECRET": c.GoogleOAuthClientSecret,
		"GOOGLE_OAUTH_CALLBACK_URL":  c.GoogleOAuthCallbackURL,
	} {
		if val == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// GoogleScopes splits the configured scope string.
func (c *Config) GoogleScopes() []string { return strings.Fields(c.GoogleOAuthScope) }
