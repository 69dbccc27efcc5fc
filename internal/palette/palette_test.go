package palette

import (
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/1broseidon/vaulttray/internal/shell"
)

func stubLookPath(t *testing.T, available ...string) {
	t.Helper()
	prev := lookPath
	lookPath = func(name string) (string, error) {
		for _, a := range available {
			if a == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
	t.Cleanup(func() { lookPath = prev })
}

func TestDetect_PriorityOrder(t *testing.T) {
	stubLookPath(t, "dmenu", "fuzzel")
	name, err := Detect()
	if err != nil || name != "fuzzel" {
		t.Fatalf("expected fuzzel, got %q (%v)", name, err)
	}

	stubLookPath(t)
	if _, err := Detect(); err == nil {
		t.Fatalf("expected error without launchers")
	}
}

func TestNewBackend(t *testing.T) {
	stubLookPath(t, "wofi")
	b, err := NewBackend("auto")
	if err != nil || b.Name() != "wofi" {
		t.Fatalf("expected wofi, got %v (%v)", b, err)
	}
	if _, err := NewBackend("rofi"); err == nil {
		t.Fatalf("expected missing rofi error")
	}
	if _, err := NewBackend("zenity"); err == nil {
		t.Fatalf("expected unknown launcher error")
	}
	if !Valid("") || !Valid("Rofi") || Valid("zenity") {
		t.Fatalf("unexpected Valid results")
	}
}

func TestRofi_FormatAndArgs(t *testing.T) {
	l := newLauncher("rofi")
	input, selected := l.formatInput([]Item{
		{Label: "Notes: Show <all>", Meta: "show\x1fwindows"},
		{Label: "Notes: Toggle", Active: true},
	})
	lines := strings.Split(input, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", input)
	}
	if strings.Count(lines[0], "\x00") != 1 || !strings.Contains(lines[0], "\x00meta\x1fshow windows") {
		t.Fatalf("unexpected rofi row %q", lines[0])
	}
	if !strings.Contains(lines[0], "&lt;all&gt;") {
		t.Fatalf("expected escaped markup, got %q", lines[0])
	}
	if selected != 1 {
		t.Fatalf("expected active row 1, got %d", selected)
	}

	args := strings.Join(l.buildArgs("Notes", selected), " ")
	for _, want := range []string{"-format i", "-no-custom", "-p Notes", "-selected-row 1"} {
		if !strings.Contains(args, want) {
			t.Fatalf("expected %q in %q", want, args)
		}
	}
}

func TestShow_ParsesSelection(t *testing.T) {
	items := []Item{{ID: "show", Label: "Show"}, {ID: "hide", Label: "Hide"}}

	rofi := newLauncher("rofi")
	rofi.run = func(*exec.Cmd) ([]byte, error) { return []byte("1\n"), nil }
	got, err := rofi.Show("p", items)
	if err != nil || got.ID != "hide" {
		t.Fatalf("expected hide by index, got %+v (%v)", got, err)
	}

	dmenu := newLauncher("dmenu")
	dmenu.run = func(*exec.Cmd) ([]byte, error) { return []byte("Show\n"), nil }
	got, err = dmenu.Show("p", items)
	if err != nil || got.ID != "show" {
		t.Fatalf("expected show by label, got %+v (%v)", got, err)
	}

	dmenu.run = func(*exec.Cmd) ([]byte, error) { return nil, nil }
	if _, err := dmenu.Show("p", items); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	rofi.run = func(*exec.Cmd) ([]byte, error) { return []byte("7"), nil }
	if _, err := rofi.Show("p", items); err == nil {
		t.Fatalf("expected out of range error")
	}
}

type fakeBackend struct {
	prompt string
	items  []Item
	pick   int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Show(prompt string, items []Item) (Item, error) {
	f.prompt, f.items = prompt, items
	return items[f.pick], nil
}

func TestChoose_LabelsCommandsWithVault(t *testing.T) {
	b := &fakeBackend{pick: 1}
	id, err := Choose(b, "Work", []shell.Command{
		{ID: "relaunch", Name: "Relaunch"},
		{ID: "close-vault", Name: "Close Vault"},
	})
	if err != nil || id != "close-vault" {
		t.Fatalf("expected close-vault, got %q (%v)", id, err)
	}
	if b.prompt != "Work" || b.items[0].Label != "Work: Relaunch" {
		t.Fatalf("unexpected rows %+v", b.items)
	}
}
