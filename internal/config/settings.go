package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

// OutputFormats are the accepted values of output.format. "json" makes every
// command behave as if --json was given.
var OutputFormats = []string{"text", "json"}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	if col := viper.GetInt("split.column"); col < 0 {
		issues = append(issues, ConfigIssue{
			Key:      "split.column",
			Severity: "error",
			Message:  fmt.Sprintf("split.column must be a non-negative column index, got %d", col),
			Fix:      "sheetsplit config set split.column 1",
		})
	}

	if level := viper.GetInt("split.compression_level"); level < -2 || level > 9 {
		issues = append(issues, ConfigIssue{
			Key:      "split.compression_level",
			Severity: "error",
			Message:  fmt.Sprintf("split.compression_level must be between -2 and 9 (0 and -1 select the default), got %d", level),
			Fix:      "sheetsplit config set split.compression_level -1",
		})
	}

	if name := viper.GetString("split.archive_name"); !strings.HasSuffix(strings.ToLower(name), ".zip") {
		issues = append(issues, ConfigIssue{
			Key:      "split.archive_name",
			Severity: "warning",
			Message:  fmt.Sprintf("split.archive_name %q does not end in .zip", name),
			Fix:      "sheetsplit config set split.archive_name Separated_Data_Archive.zip",
		})
	}

	if format := viper.GetString("output.format"); !slices.Contains(OutputFormats, strings.ToLower(format)) {
		issues = append(issues, ConfigIssue{
			Key:      "output.format",
			Severity: "error",
			Message:  fmt.Sprintf("output.format must be one of %s, got %q", strings.Join(OutputFormats, ", "), format),
			Fix:      "sheetsplit config set output.format text",
		})
	}

	if ms := viper.GetInt("watch.debounce_ms"); ms < 0 {
		issues = append(issues, ConfigIssue{
			Key:      "watch.debounce_ms",
			Severity: "error",
			Message:  fmt.Sprintf("watch.debounce_ms must not be negative, got %d", ms),
			Fix:      "sheetsplit config set watch.debounce_ms 500",
		})
	}

	if !viper.GetBool("audit.enabled") {
		issues = append(issues, ConfigIssue{
			Key:      "audit.enabled",
			Severity: "info",
			Message:  "audit logging is disabled — split runs will not be recorded",
			Fix:      "sheetsplit config set audit.enabled true",
		})
	}

	return issues
}

// Keys returns every known config key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range Keys() {
		name := "SHEETSPLIT_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		env[name] = viper.GetString(key)
	}
	return env
}

// Set sets a config value and saves to disk. The value is parsed according to
// the type of the key's default.
func Set(key, value string) error {
	def, ok := defaults[key]
	if !ok {
		return fmt.Errorf("unknown config key %q — valid keys: %s", key, strings.Join(Keys(), ", "))
	}

	switch def.(type) {
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s expects an integer, got %q", key, value)
		}
		viper.Set(key, n)
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false, got %q", key, value)
		}
		viper.Set(key, b)
	default:
		viper.Set(key, value)
	}
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig resets all config to defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for key, value := range defaults {
		viper.Set(key, value)
	}
	return nil
}

// SaveConfig writes the current config to ~/.sheetsplit/config.yaml.
func SaveConfig() error {
	dir := configDir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	// Set secure permissions
	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// Settings returns the effective value of every known key.
func Settings() map[string]any {
	out := make(map[string]any, len(defaults))
	for _, key := range Keys() {
		out[key] = viper.Get(key)
	}
	return out
}

// ShowConfig returns a formatted string of the current configuration.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n\n", ConfigPath()))

	sb.WriteString("Split\n")
	sb.WriteString(fmt.Sprintf("  column:             %d\n", viper.GetInt("split.column")))
	sheet := viper.GetString("split.sheet")
	if sheet == "" {
		sheet = "(first sheet)"
	}
	sb.WriteString(fmt.Sprintf("  sheet:              %s\n", sheet))
	sb.WriteString(fmt.Sprintf("  archive_name:       %s\n", viper.GetString("split.archive_name")))
	sb.WriteString(fmt.Sprintf("  disambiguate:       %t\n", viper.GetBool("split.disambiguate")))
	sb.WriteString(fmt.Sprintf("  compression_level:  %d\n", viper.GetInt("split.compression_level")))
	sb.WriteString("\n")

	sb.WriteString("Output\n")
	sb.WriteString(fmt.Sprintf("  format:             %s\n", viper.GetString("output.format")))
	sb.WriteString(fmt.Sprintf("  color:              %t\n", viper.GetBool("output.color")))
	sb.WriteString("\n")

	sb.WriteString("Audit\n")
	sb.WriteString(fmt.Sprintf("  enabled:            %t\n", viper.GetBool("audit.enabled")))
	sb.WriteString(fmt.Sprintf("  file_path:          %s\n", viper.GetString("audit.file_path")))
	sb.WriteString("\n")

	sb.WriteString("Watch\n")
	sb.WriteString(fmt.Sprintf("  debounce_ms:        %d\n", viper.GetInt("watch.debounce_ms")))
	sb.WriteString("\n")

	return sb.String()
}
