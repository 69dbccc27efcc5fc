package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaultConfig_RequiresVault(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path != "vault" {
		t.Fatalf("expected vault validation error, got %v", err)
	}

	cfg.Vault = "Notes"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults with a vault to validate, got %v", err)
	}
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.yaml")
	res, err := LoadFromPath(path, Override{Key: "vault", Value: "Notes"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.File != "" {
		t.Fatalf("expected no file, got %q", res.File)
	}
	if res.Config.AppClass != DefaultAppClass {
		t.Fatalf("expected app_class %q, got %q", DefaultAppClass, res.Config.AppClass)
	}
	if src := res.Explain("vault"); src.Kind != SourceFlag {
		t.Fatalf("expected vault from flag, got %+v", src)
	}
	if src := res.Explain("app_class"); src.Kind != SourceDefault {
		t.Fatalf("expected app_class from defaults, got %+v", src)
	}
}

func TestLoadFromPath_EmptyFileNeedsVault(t *testing.T) {
	path := writeConfig(t, "# empty\n")
	if _, err := LoadFromPath(path); err == nil {
		t.Fatalf("expected error without vault")
	}
}

func TestLoadFromPath_VaultFromPath(t *testing.T) {
	vaultDir := filepath.Join(t.TempDir(), "Work Notes")
	if err := os.Mkdir(vaultDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := writeConfig(t, "vault_path: \""+vaultDir+"\"\nlog_level: debug\n")

	res, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := res.Config.VaultName(); got != "Work Notes" {
		t.Fatalf("expected vault name from path, got %q", got)
	}
	if res.Config.SlogLevel() != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", res.Config.SlogLevel())
	}
	src := res.Explain("vault_path")
	if src.Kind != SourceFile || src.Line != 1 {
		t.Fatalf("expected vault_path from file line 1, got %+v", src)
	}
}

func TestLoadFromPath_OverrideWinsOverFile(t *testing.T) {
	path := writeConfig(t, "vault: Home\ndisplay: \":1\"\n")
	res, err := LoadFromPath(path, Override{Key: "vault", Value: "Work"}, Override{Key: "display", Value: ""})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if res.Config.Vault != "Work" {
		t.Fatalf("expected override vault, got %q", res.Config.Vault)
	}
	if res.Config.Display != ":1" {
		t.Fatalf("empty override should keep file display, got %q", res.Config.Display)
	}
}

func TestLoadFromPath_UnknownKeyRejected(t *testing.T) {
	path := writeConfig(t, "vault: Home\nwindow_class: foo\n")
	_, err := LoadFromPath(path)
	if err == nil || !strings.Contains(err.Error(), "window_class") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoadFromPath_ValidationErrorCarriesLine(t *testing.T) {
	path := writeConfig(t, "vault: Home\ntitle_pattern: \"^Obsidian$\"\n")
	_, err := LoadFromPath(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "title_pattern" || verr.Source.Line != 2 {
		t.Fatalf("unexpected error context: %+v", verr)
	}
	if !strings.Contains(err.Error(), ":2:") {
		t.Fatalf("expected line in message, got %q", err.Error())
	}
}

func TestValidate_BadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"title_pattern": func(c *Config) { c.TitlePattern = "({{vault}}" },
		"uri_scheme":    func(c *Config) { c.URIScheme = "1bad" },
		"log_level":     func(c *Config) { c.LogLevel = "verbose" },
		"app_class":     func(c *Config) { c.AppClass = " " },
		"palette":       func(c *Config) { c.Palette = "zenity" },
		"vault_path":    func(c *Config) { c.VaultPath = filepath.Join(os.TempDir(), "vaulttray-missing-dir") },
	}
	for path, mutate := range cases {
		cfg := DefaultConfig()
		cfg.Vault = "Notes"
		mutate(cfg)
		err := cfg.Validate()
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Path != path {
			t.Fatalf("%s: expected validation error, got %v", path, err)
		}
	}
}

func TestOverride_UnknownKey(t *testing.T) {
	path := writeConfig(t, "vault: Home\n")
	if _, err := LoadFromPath(path, Override{Key: "app_class", Value: "x"}); err == nil {
		t.Fatalf("expected override error")
	}
}

func TestSettingsPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vault = "Notes"
	cfg.SettingsFile = "/tmp/custom.yaml"
	got, err := cfg.SettingsPath()
	if err != nil {
		t.Fatalf("settings path: %v", err)
	}
	if got != "/tmp/custom.yaml" {
		t.Fatalf("expected custom path, got %q", got)
	}

	cfg.SettingsFile = ""
	got, err = cfg.SettingsPath()
	if err != nil {
		t.Fatalf("settings path: %v", err)
	}
	if filepath.Base(got) != "Notes.settings.yaml" {
		t.Fatalf("unexpected default settings path %q", got)
	}
}

func TestYAML_RoundTripsKeys(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Vault = "Notes"
	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	for _, key := range []string{"vault: Notes", "app_class: obsidian", "log_level: info"} {
		if !strings.Contains(string(out), key) {
			t.Fatalf("expected %q in output:\n%s", key, out)
		}
	}
}
