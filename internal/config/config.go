// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Split struct {
		Column           int    `mapstructure:"column"`
		Sheet            string `mapstructure:"sheet"`
		ArchiveName      string `mapstructure:"archive_name"`
		Disambiguate     bool   `mapstructure:"disambiguate"`
		CompressionLevel int    `mapstructure:"compression_level"`
	} `mapstructure:"split"`
	Output struct {
		Format string `mapstructure:"format"`
		Color  bool   `mapstructure:"color"`
	} `mapstructure:"output"`
	Audit struct {
		Enabled  bool   `mapstructure:"enabled"`
		FilePath string `mapstructure:"file_path"`
	} `mapstructure:"audit"`
	Watch struct {
		DebounceMS int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
}

// defaults lists every known key with its default value.
var defaults = map[string]any{
	"split.column":            1,
	"split.sheet":             "",
	"split.archive_name":      "Separated_Data_Archive.zip",
	"split.disambiguate":      false,
	"split.compression_level": -1,
	"output.format":           "text",
	"output.color":            true,
	"audit.enabled":           true,
	"audit.file_path":         "~/.sheetsplit/audit.log",
	"watch.debounce_ms":       500,
}

// Load reads the configuration from ~/.sheetsplit/config.yaml, a .env file in
// the working directory and SHEETSPLIT_* environment variables.
func Load() (*Config, error) {
	// Variables already set in the environment take precedence over .env.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir())

	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	viper.SetEnvPrefix("SHEETSPLIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AuditLogPath returns the audit log location with a leading ~ expanded.
func (c *Config) AuditLogPath() string {
	return ExpandHome(c.Audit.FilePath)
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Dir returns the directory holding the config file, audit log and watch state.
func Dir() string {
	return configDir()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetsplit"
	}
	return filepath.Join(home, ".sheetsplit")
}
