package autostart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLinuxDesktopEntry(t *testing.T) {
	home := t.TempDir()
	m := &Manager{Name: "vaulttray-Personal", Exe: "/usr/bin/vaulttray", Args: []string{"daemon", "--vault", "Personal"}, Home: home, GOOS: "linux"}

	if err := m.SetLoginItem(true, true); err != nil {
		t.Fatalf("SetLoginItem: %v", err)
	}
	path := filepath.Join(home, ".config", "autostart", "vaulttray-Personal.desktop")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read entry: %v", err)
	}
	if !strings.Contains(string(data), "Exec=/usr/bin/vaulttray daemon --vault Personal --hidden\n") {
		t.Fatalf("unexpected entry:\n%s", data)
	}
	if !m.IsEnabled() {
		t.Fatalf("expected login item to be enabled")
	}

	if err := m.SetLoginItem(true, false); err != nil {
		t.Fatalf("SetLoginItem: %v", err)
	}
	data, _ = os.ReadFile(path)
	if strings.Contains(string(data), HiddenFlag) {
		t.Fatalf("hidden flag should be removed:\n%s", data)
	}

	if err := m.SetLoginItem(false, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if m.IsEnabled() {
		t.Fatalf("expected login item to be removed")
	}
	// Disabling twice is fine.
	if err := m.Disable(); err != nil {
		t.Fatalf("second disable: %v", err)
	}
}

func TestMacPlist(t *testing.T) {
	home := t.TempDir()
	m := &Manager{Name: "vaulttray-Work", Exe: "/Applications/vaulttray", Args: []string{"daemon"}, Home: home, GOOS: "darwin"}
	if err := m.Enable(true); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(home, "Library", "LaunchAgents", "com.1broseidon.vaulttray-Work.plist"))
	if err != nil {
		t.Fatalf("read plist: %v", err)
	}
	if !strings.Contains(string(data), "<string>--hidden</string>") {
		t.Fatalf("expected hidden flag in plist:\n%s", data)
	}
}

func TestQuoteArgs(t *testing.T) {
	got := quoteArgs([]string{"/opt/my app/vaulttray", "--vault", "My Vault"})
	want := `"/opt/my app/vaulttray" --vault "My Vault"`
	if got != want {
		t.Fatalf("quoteArgs = %q, want %q", got, want)
	}
}
