package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/1broseidon/vaulttray/internal/palette"
	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/settings"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAppClass  = "obsidian"
	DefaultURIScheme = "obsidian"
	DefaultLogLevel  = "info"
	DefaultPalette   = "auto"
)

var uriSchemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*$`)

// Config is the daemon configuration for one vault. Per-vault behavior lives
// in the settings file; this file only says how to find the vault's windows.
type Config struct {
	// Vault is the vault name as it appears in window titles.
	Vault string `yaml:"vault,omitempty"`
	// VaultPath is the vault directory on disk. Quick notes are written here.
	VaultPath string `yaml:"vault_path,omitempty"`
	// AppClass is the WM_CLASS of the note app, matched case-insensitively.
	AppClass string `yaml:"app_class"`
	// TitlePattern is a regular expression; {{vault}} is replaced by the
	// quoted vault name.
	TitlePattern string `yaml:"title_pattern"`
	URIScheme    string `yaml:"uri_scheme"`
	// SettingsFile overrides ~/.config/vaulttray/<vault>.settings.yaml.
	SettingsFile string `yaml:"settings_file,omitempty"`
	LogLevel     string `yaml:"log_level"`
	// Palette names the launcher used by "vaulttray palette".
	Palette      string `yaml:"palette"`
	Display      string `yaml:"display,omitempty"`
	XAuthority   string `yaml:"xauthority,omitempty"`
}

type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func DefaultConfig() *Config {
	return &Config{
		AppClass:     DefaultAppClass,
		TitlePattern: platform.DefaultTitlePattern,
		URIScheme:    DefaultURIScheme,
		LogLevel:     DefaultLogLevel,
		Palette:      DefaultPalette,
	}
}

// VaultName returns the configured vault name, falling back to the base name
// of the vault path.
func (c *Config) VaultName() string {
	if c == nil {
		return ""
	}
	if name := strings.TrimSpace(c.Vault); name != "" {
		return name
	}
	if c.VaultPath == "" {
		return ""
	}
	return filepath.Base(filepath.Clean(c.VaultPath))
}

// SettingsPath returns the settings file for the configured vault.
func (c *Config) SettingsPath() (string, error) {
	if c.SettingsFile != "" {
		return expandHome(c.SettingsFile)
	}
	return settings.DefaultPath(c.VaultName())
}

// SlogLevel maps log_level onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) Validate() error {
	if c.VaultName() == "" {
		return &ValidationError{Path: "vault", Err: fmt.Errorf("vault or vault_path is required")}
	}
	if c.VaultPath != "" {
		if info, err := os.Stat(c.VaultPath); err != nil {
			return &ValidationError{Path: "vault_path", Err: err}
		} else if !info.IsDir() {
			return &ValidationError{Path: "vault_path", Err: fmt.Errorf("%s is not a directory", c.VaultPath)}
		}
	}
	if strings.TrimSpace(c.AppClass) == "" {
		return &ValidationError{Path: "app_class", Err: fmt.Errorf("must not be empty")}
	}
	if !strings.Contains(c.TitlePattern, "{{vault}}") {
		return &ValidationError{Path: "title_pattern", Err: fmt.Errorf("must contain {{vault}}")}
	}
	if _, err := platform.CompileTitlePattern(c.TitlePattern, c.VaultName()); err != nil {
		return &ValidationError{Path: "title_pattern", Err: err}
	}
	if !uriSchemePattern.MatchString(c.URIScheme) {
		return &ValidationError{Path: "uri_scheme", Err: fmt.Errorf("invalid scheme %q", c.URIScheme)}
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("invalid level %q (use debug, info, warning or error)", c.LogLevel)}
	}
	if !palette.Valid(c.Palette) {
		return &ValidationError{Path: "palette", Err: fmt.Errorf("unknown launcher %q (use auto, %s)", c.Palette, strings.Join(palette.Names, ", "))}
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
