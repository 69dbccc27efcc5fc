// Package palette shows the vault's commands in an external dmenu-style
// launcher (rofi, fuzzel, wofi or dmenu) and reports the choice.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without a choice.
var ErrCancelled = errors.New("palette cancelled")

// Names lists the supported launchers in detection order.
var Names = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// Item is a single selectable entry.
type Item struct {
	ID    string
	Label string
	// Meta holds hidden search keywords (rofi only).
	Meta   string
	Active bool
}

// Backend shows items and returns the selected one.
type Backend interface {
	Show(prompt string, items []Item) (Item, error)
	Name() string
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Detect returns the first launcher found in PATH.
func Detect() (string, error) {
	for _, name := range Names {
		if _, err := lookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette launcher found in PATH (looked for: %s)", strings.Join(Names, ", "))
}

// Valid reports whether name is "auto", empty or a supported launcher.
func Valid(name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		return true
	}
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// NewBackend creates a launcher by name; "" and "auto" detect one.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := Detect()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	if !Valid(name) {
		return nil, fmt.Errorf("unknown palette launcher: %q (expected: auto, %s)", name, strings.Join(Names, ", "))
	}
	if _, err := lookPath(name); err != nil {
		return nil, fmt.Errorf("palette launcher %q not found in PATH", name)
	}
	return newLauncher(name), nil
}
