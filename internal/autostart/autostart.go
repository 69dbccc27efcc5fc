// Package autostart registers the daemon as a login item.
package autostart

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// HiddenFlag is appended to the launch command when the app should start
// with every window suppressed.
const HiddenFlag = "--hidden"

// Manager creates and removes the login item of one vault daemon.
type Manager struct {
	// Name identifies the login item ("vaulttray-Personal").
	Name string
	Exe  string
	Args []string
	// Home overrides the user's home directory.
	Home string
	GOOS string
}

// New creates a manager for the running executable.
func New(name string, args ...string) (*Manager, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return &Manager{Name: name, Exe: exe, Args: args}, nil
}

func (m *Manager) goos() string {
	if m.GOOS != "" {
		return m.GOOS
	}
	return runtime.GOOS
}

func (m *Manager) home() (string, error) {
	if m.Home != "" {
		return m.Home, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return home, nil
}

// Command returns the launch command line.
func (m *Manager) Command(hidden bool) []string {
	cmd := append([]string{m.Exe}, m.Args...)
	if hidden {
		cmd = append(cmd, HiddenFlag)
	}
	return cmd
}

// SetLoginItem enables or disables launching at login.
func (m *Manager) SetLoginItem(enabled, hidden bool) error {
	if !enabled {
		return m.Disable()
	}
	return m.Enable(hidden)
}

// IsEnabled reports whether the login item exists.
func (m *Manager) IsEnabled() bool {
	switch m.goos() {
	case "windows":
		return m.isEnabledWindows()
	default:
		path, err := m.entryPath()
		if err != nil {
			return false
		}
		_, err = os.Stat(path)
		return err == nil
	}
}

// Enable writes the login item.
func (m *Manager) Enable(hidden bool) error {
	switch m.goos() {
	case "windows":
		return m.enableWindows(hidden)
	case "darwin":
		return m.writeEntry(m.plist(hidden))
	case "linux", "freebsd", "openbsd", "netbsd":
		return m.writeEntry(m.desktopEntry(hidden))
	default:
		return fmt.Errorf("login items not supported on %s", m.goos())
	}
}

// Disable removes the login item. A missing item is not an error.
func (m *Manager) Disable() error {
	switch m.goos() {
	case "windows":
		return m.disableWindows()
	default:
		path, err := m.entryPath()
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove login item: %w", err)
		}
		return nil
	}
}

func (m *Manager) entryPath() (string, error) {
	home, err := m.home()
	if err != nil {
		return "", err
	}
	if m.goos() == "darwin" {
		return filepath.Join(home, "Library", "LaunchAgents", m.label()+".plist"), nil
	}
	return filepath.Join(home, ".config", "autostart", m.Name+".desktop"), nil
}

func (m *Manager) label() string {
	return "com.1broseidon." + m.Name
}

func (m *Manager) writeEntry(content string) error {
	path, err := m.entryPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create login item directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write login item: %w", err)
	}
	return nil
}

func quoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t\"'\\") {
			a = `"` + strings.ReplaceAll(strings.ReplaceAll(a, `\`, `\\`), `"`, `\"`) + `"`
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}

func (m *Manager) desktopEntry(hidden bool) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=%s
Exec=%s
Hidden=false
NoDisplay=false
X-GNOME-Autostart-enabled=true
`, m.Name, quoteArgs(m.Command(hidden)))
}

func xmlEscape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func (m *Manager) plist(hidden bool) string {
	var args strings.Builder
	for _, a := range m.Command(hidden) {
		fmt.Fprintf(&args, "        <string>%s</string>\n", xmlEscape(a))
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>%s</string>
    <key>ProgramArguments</key>
    <array>
%s    </array>
    <key>RunAtLoad</key>
    <true/>
</dict>
</plist>
`, m.label(), args.String())
}
