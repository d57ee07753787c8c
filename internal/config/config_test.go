package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	viper.Reset()
	if _, err := Load(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		viper.Reset()
	})
	return dir
}

func hasIssue(issues []ConfigIssue, key, severity string) bool {
	for _, issue := range issues {
		if issue.Key == key && issue.Severity == severity {
			return true
		}
	}
	return false
}

func TestLoadDefaults(t *testing.T) {
	setupTestConfig(t)
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Split.Column != 1 {
		t.Errorf("default column = %d", cfg.Split.Column)
	}
	if cfg.Split.ArchiveName != "Separated_Data_Archive.zip" {
		t.Errorf("default archive name = %q", cfg.Split.ArchiveName)
	}
	if cfg.Split.CompressionLevel != -1 {
		t.Errorf("default compression level = %d", cfg.Split.CompressionLevel)
	}
	if !cfg.Audit.Enabled {
		t.Error("audit should be enabled by default")
	}
	if cfg.Watch.DebounceMS != 500 {
		t.Errorf("default debounce = %d", cfg.Watch.DebounceMS)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	setupTestConfig(t)
	t.Setenv("SHEETSPLIT_SPLIT_COLUMN", "4")
	t.Setenv("SHEETSPLIT_SPLIT_DISAMBIGUATE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Split.Column != 4 {
		t.Errorf("column = %d, want 4", cfg.Split.Column)
	}
	if !cfg.Split.Disambiguate {
		t.Error("disambiguate should come from the environment")
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgDir := filepath.Join(dir, ".sheetsplit")
	os.MkdirAll(cfgDir, 0700)
	content := "split:\n  column: 2\n  sheet: Orders\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Split.Column != 2 || cfg.Split.Sheet != "Orders" {
		t.Errorf("split = %+v", cfg.Split)
	}
}

func TestAuditLogPath(t *testing.T) {
	dir := setupTestConfig(t)
	cfg, _ := Load()
	want := filepath.Join(dir, ".sheetsplit", "audit.log")
	if got := cfg.AuditLogPath(); got != want {
		t.Errorf("AuditLogPath() = %q, want %q", got, want)
	}
	if got := ExpandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandHome changed an absolute path: %q", got)
	}
}

func TestValidateDefaults(t *testing.T) {
	setupTestConfig(t)
	for _, issue := range Validate() {
		if issue.Severity == "error" || issue.Severity == "warning" {
			t.Errorf("unexpected %s: %s", issue.Severity, issue.Message)
		}
	}
}

func TestValidateNegativeColumn(t *testing.T) {
	setupTestConfig(t)
	viper.Set("split.column", -1)
	if !hasIssue(Validate(), "split.column", "error") {
		t.Error("expected error for negative column")
	}
}

func TestValidateCompressionLevel(t *testing.T) {
	setupTestConfig(t)
	viper.Set("split.compression_level", 12)
	if !hasIssue(Validate(), "split.compression_level", "error") {
		t.Error("expected error for compression level 12")
	}
	viper.Set("split.compression_level", -2)
	if hasIssue(Validate(), "split.compression_level", "error") {
		t.Error("-2 (Huffman only) should be accepted")
	}
}

func TestValidateOutputFormat(t *testing.T) {
	setupTestConfig(t)
	viper.Set("output.format", "yaml")
	if !hasIssue(Validate(), "output.format", "error") {
		t.Error("expected error for unknown output format")
	}
	viper.Set("output.format", "JSON")
	if hasIssue(Validate(), "output.format", "error") {
		t.Error("output.format should be case-insensitive")
	}
}

func TestValidateArchiveNameWarning(t *testing.T) {
	setupTestConfig(t)
	viper.Set("split.archive_name", "output.tar")
	if !hasIssue(Validate(), "split.archive_name", "warning") {
		t.Error("expected warning for non-zip archive name")
	}
}

func TestValidateAuditDisabled(t *testing.T) {
	setupTestConfig(t)
	viper.Set("audit.enabled", false)
	if !hasIssue(Validate(), "audit.enabled", "info") {
		t.Error("expected info about disabled audit log")
	}
}

func TestToEnv(t *testing.T) {
	setupTestConfig(t)
	viper.Set("split.column", 3)
	viper.Set("split.sheet", "Orders")

	env := ToEnv()
	if env["SHEETSPLIT_SPLIT_COLUMN"] != "3" {
		t.Errorf("SHEETSPLIT_SPLIT_COLUMN = %q", env["SHEETSPLIT_SPLIT_COLUMN"])
	}
	if env["SHEETSPLIT_SPLIT_SHEET"] != "Orders" {
		t.Errorf("SHEETSPLIT_SPLIT_SHEET = %q", env["SHEETSPLIT_SPLIT_SHEET"])
	}
	if len(env) != len(Keys()) {
		t.Errorf("ToEnv returned %d vars, want %d", len(env), len(Keys()))
	}
}

func TestSetAndGet(t *testing.T) {
	dir := setupTestConfig(t)

	if err := Set("split.column", "3"); err != nil {
		t.Fatal(err)
	}
	if got := Get("split.column"); got != "3" {
		t.Errorf("Get(split.column) = %q, want %q", got, "3")
	}

	info, err := os.Stat(filepath.Join(dir, ".sheetsplit", "config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	setupTestConfig(t)

	if err := Set("split.column", "two"); err == nil {
		t.Error("expected error for non-integer column")
	}
	if err := Set("audit.enabled", "maybe"); err == nil {
		t.Error("expected error for non-boolean value")
	}
	err := Set("provider", "x")
	if err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("expected unknown key error, got %v", err)
	}
}

func TestShowConfig(t *testing.T) {
	setupTestConfig(t)
	viper.Set("split.sheet", "Orders")

	output := ShowConfig()
	for _, want := range []string{"Orders", "Separated_Data_Archive.zip", "debounce_ms"} {
		if !strings.Contains(output, want) {
			t.Errorf("ShowConfig should contain %q", want)
		}
	}
}

func TestSettings(t *testing.T) {
	setupTestConfig(t)
	s := Settings()
	if len(s) != len(Keys()) {
		t.Errorf("Settings() has %d keys, want %d", len(s), len(Keys()))
	}
	if s["split.archive_name"] != "Separated_Data_Archive.zip" {
		t.Errorf("split.archive_name = %v", s["split.archive_name"])
	}
}

func TestConfigPath(t *testing.T) {
	path := ConfigPath()
	if !strings.Contains(path, ".sheetsplit") || !strings.Contains(path, "config.yaml") {
		t.Errorf("unexpected path: %q", path)
	}
}

func TestResetConfig(t *testing.T) {
	setupTestConfig(t)

	viper.Set("split.column", 7)
	if err := SaveConfig(); err != nil {
		t.Fatal(err)
	}

	if err := ResetConfig(); err != nil {
		t.Fatal(err)
	}

	if viper.GetInt("split.column") != 1 {
		t.Errorf("column should reset to default, got %d", viper.GetInt("split.column"))
	}
	if _, err := os.Stat(ConfigPath()); !os.IsNotExist(err) {
		t.Error("config file should be removed")
	}
}
