package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server ServerConfig
	UI     UIConfig
}

// ServerConfig points at the ledger service.
type ServerConfig struct {
	URL            string
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol"`
	DateFormat     string `mapstructure:"date_format"`
}

// Timeout returns the request timeout as a duration.
func (c ServerConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads configuration from file and env. Env var overrides use prefix TELLER_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("server.timeout_seconds", 10)
	v.SetDefault("ui.currency_symbol", "€")
	v.SetDefault("ui.date_format", "02/01/2006 15:04")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("TELLER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		base, err := os.UserConfigDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(base, "teller"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("TELLER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// Save writes the provided config to disk, creating the config directory if
// needed. Used for preferences edited inside the TUI.
func Save(cfg Config) error {
	path := os.Getenv("TELLER_CONFIG")
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(base, "teller", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout_seconds", cfg.Server.TimeoutSeconds)
	v.Set("ui.currency_symbol", cfg.UI.CurrencySymbol)
	v.Set("ui.date_format", cfg.UI.DateFormat)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
