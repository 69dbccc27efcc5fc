package hotkeys

import (
	"errors"
	"io"
	"log/slog"
	"testing"
)

type fakeBinder struct {
	bound   map[string]func()
	fail    map[string]bool
	binds   int
	unbinds int
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{bound: make(map[string]func()), fail: make(map[string]bool)}
}

func (f *fakeBinder) Bind(accelerator string, callback func()) error {
	if f.fail[accelerator] {
		return errors.New("already grabbed by another client")
	}
	if _, ok := f.bound[accelerator]; ok {
		return errors.New("double bind")
	}
	f.binds++
	f.bound[accelerator] = callback
	return nil
}

func (f *fakeBinder) Unbind(accelerator string) error {
	if _, ok := f.bound[accelerator]; !ok {
		return errors.New("not bound")
	}
	f.unbinds++
	delete(f.bound, accelerator)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestToKeySequence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CmdOrCtrl+Shift+Tab", "control-shift-Tab"},
		{"CmdOrCtrl+Shift+Q", "control-shift-q"},
		{"Alt+Space", "mod1-space"},
		{"Super+F12", "mod4-F12"},
		{"Ctrl++", "control-plus"},
		{"Ctrl+PageDown", "control-Next"},
		{"Shift+,", "shift-comma"},
	}
	for _, tt := range tests {
		got, err := ToKeySequence(tt.in)
		if err != nil {
			t.Fatalf("ToKeySequence(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ToKeySequence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestToKeySequenceRejectsInvalid(t *testing.T) {
	for _, in := range []string{"", "Ctrl+", "Hyper+X"} {
		if _, err := ToKeySequence(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestDisplay(t *testing.T) {
	if got := Display("CmdOrCtrl+Shift+Tab"); got != "Ctrl+Shift+Tab" {
		t.Fatalf("Display = %q", got)
	}
}

func TestRegisterReplacesExistingBinding(t *testing.T) {
	binder := newFakeBinder()
	m := NewManager(binder, quietLogger())

	first, second := 0, 0
	m.Register("CmdOrCtrl+Shift+Tab", func() { first++ })
	m.Register("CmdOrCtrl+Shift+Tab", func() { second++ })

	if len(binder.bound) != 1 {
		t.Fatalf("expected a single binding, got %d", len(binder.bound))
	}
	binder.bound["CmdOrCtrl+Shift+Tab"]()
	if first != 0 || second != 1 {
		t.Fatalf("expected only the latest callback to fire, got first=%d second=%d", first, second)
	}
	if binder.unbinds != 1 {
		t.Fatalf("expected one unbind before rebinding, got %d", binder.unbinds)
	}
}

func TestRegisterFailureIsIgnored(t *testing.T) {
	binder := newFakeBinder()
	binder.fail["Alt+X"] = true
	m := NewManager(binder, quietLogger())

	m.Register("Alt+X", func() {})
	if len(m.Active()) != 0 {
		t.Fatalf("failed registration should not be active: %v", m.Active())
	}
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	binder := newFakeBinder()
	m := NewManager(binder, quietLogger())
	m.Unregister("Alt+Y")
	if binder.unbinds != 0 {
		t.Fatalf("unexpected unbind")
	}
}

func TestUnregisterAll(t *testing.T) {
	binder := newFakeBinder()
	m := NewManager(binder, quietLogger())
	m.Register("Alt+A", func() {})
	m.Register("Alt+B", func() {})
	m.UnregisterAll()

	if len(binder.bound) != 0 || len(m.Active()) != 0 {
		t.Fatalf("expected no bindings, binder=%d manager=%v", len(binder.bound), m.Active())
	}
}
