package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRun_UsageAndUnknownCommand(t *testing.T) {
	code, out, _ := runCLI(t)
	if code != 0 || !strings.Contains(out, "Usage: vaulttray") {
		t.Fatalf("expected usage on stdout, got code=%d out=%q", code, out)
	}

	code, _, errOut := runCLI(t, "frobnicate")
	if code != 2 || !strings.Contains(errOut, "Unknown command: frobnicate") {
		t.Fatalf("expected unknown command error, got code=%d err=%q", code, errOut)
	}
}

func TestRun_ArgumentErrors(t *testing.T) {
	cases := [][]string{
		{"status", "extra"},
		{"show", "extra"},
		{"status", "--bogus"},
		{"config"},
		{"config", "nope"},
		{"config", "explain"},
		{"mcp"},
		{"palette", "extra"},
		{"settings", "get"},
		{"settings", "set", "only-key"},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, args...); code != 2 {
			t.Fatalf("%v: expected exit code 2, got %d", args, code)
		}
	}
}

func TestRun_HelpFlagExitsZero(t *testing.T) {
	for _, args := range [][]string{{"status", "--help"}, {"hide", "-h"}, {"config", "help"}, {"mcp", "help"}} {
		if code, _, _ := runCLI(t, args...); code != 0 {
			t.Fatalf("%v: expected exit code 0, got %d", args, code)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	good := writeConfig(t, "vault: Notes\n")
	code, out, errOut := runCLI(t, "config", "validate", "--config", good)
	if code != 0 || !strings.Contains(out, "config: ok") {
		t.Fatalf("expected ok, got code=%d out=%q err=%q", code, out, errOut)
	}

	bad := writeConfig(t, "vault: Notes\nlog_level: loud\n")
	code, _, errOut = runCLI(t, "config", "validate", "--config", bad)
	if code != 1 || !strings.Contains(errOut, "log_level") {
		t.Fatalf("expected log_level error, got code=%d err=%q", code, errOut)
	}
}

func TestConfigExplainAndPrint(t *testing.T) {
	path := writeConfig(t, "vault: Notes\napp_class: obsidian\n")

	code, out, _ := runCLI(t, "config", "explain", "--config", path, "app_class")
	if code != 0 || !strings.Contains(out, ":2:") {
		t.Fatalf("expected file source with line, got code=%d out=%q", code, out)
	}

	code, out, _ = runCLI(t, "config", "explain", "--config", path, "--vault", "Work", "vault")
	if code != 0 || !strings.Contains(out, "flag --vault") {
		t.Fatalf("expected flag source, got code=%d out=%q", code, out)
	}

	code, out, _ = runCLI(t, "config", "print", "--config", path)
	if code != 0 || !strings.Contains(out, "vault: Notes") || !strings.Contains(out, "# settings:") {
		t.Fatalf("unexpected print output: code=%d out=%q", code, out)
	}

	code, out, _ = runCLI(t, "config", "print", "--defaults")
	if code != 0 || strings.Contains(out, "vault:") {
		t.Fatalf("defaults should not carry a vault: code=%d out=%q", code, out)
	}
}

func TestSettingsOffline(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_RUNTIME_DIR", dir)
	settingsFile := filepath.Join(dir, "notes.settings.yaml")
	path := writeConfig(t, "vault: OfflineVault\nsettings_file: "+settingsFile+"\n")

	code, out, errOut := runCLI(t, "settings", "set", "--config", path, "runInBackground", "true")
	if code != 0 || !strings.Contains(out, "next start") {
		t.Fatalf("expected offline save, got code=%d out=%q err=%q", code, out, errOut)
	}
	if _, err := os.Stat(settingsFile); err != nil {
		t.Fatalf("expected settings file to be written: %v", err)
	}

	code, out, _ = runCLI(t, "settings", "get", "--config", path, "runInBackground")
	if code != 0 || strings.TrimSpace(out) != "true" {
		t.Fatalf("expected true, got code=%d out=%q", code, out)
	}

	if code, _, _ := runCLI(t, "settings", "get", "--config", path, "noSuchKey"); code != 1 {
		t.Fatalf("expected unknown key to fail, got %d", code)
	}
}

func TestClientCommandWithoutDaemon(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	code, _, errOut := runCLI(t, "status", "--vault", "Nobody")
	if code != 1 || errOut == "" {
		t.Fatalf("expected connection failure, got code=%d err=%q", code, errOut)
	}
}
