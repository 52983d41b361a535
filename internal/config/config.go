package config

import (
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. ORDERFLOW_DATABASE_PATH.
const EnvPrefix = "ORDERFLOW"

// Config holds all application configuration.
type Config struct {
	Verbose  bool
	Database DatabaseConfig
	Journal  JournalConfig
}

// DatabaseConfig holds database settings.
type DatabaseConfig struct {
	Path string
}

// JournalConfig controls snapshot journaling.
type JournalConfig struct {
	Enabled bool
	// ListLimit caps the number of orders shown by the orders command.
	ListLimit int
}

// BindEnv lets ORDERFLOW_* environment variables override configuration.
// Nested keys use underscores: database.path is ORDERFLOW_DATABASE_PATH.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads configuration from Viper and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{
		Verbose: viper.GetBool("verbose"),
		Database: DatabaseConfig{
			Path: viper.GetString("database.path"),
		},
		Journal: JournalConfig{
			Enabled:   viper.GetBool("journal.enabled"),
			ListLimit: viper.GetInt("journal.list_limit"),
		},
	}

	// Apply defaults
	if cfg.Database.Path == "" {
		cfg.Database.Path = "orderflow.db"
	}
	if !viper.IsSet("journal.enabled") {
		cfg.Journal.Enabled = true
	}
	if cfg.Journal.ListLimit <= 0 {
		cfg.Journal.ListLimit = 20
	}

	return cfg, nil
}
