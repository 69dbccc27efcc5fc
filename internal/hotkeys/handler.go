package hotkeys

import (
	"fmt"
	"sync"

	"github.com/1broseidon/vaulttray/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"
)

// X11Binder grabs accelerators on the root window with xgbutil/keybind.
// Its methods must run on the X event loop goroutine.
type X11Binder struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	mu       sync.Mutex
	bindings map[string]binding
}

type binding struct {
	sequence string
	callback func()
}

var ignoreModsOnce sync.Once

// NewX11Binder creates a binder on conn's root window.
func NewX11Binder(conn *x11.Connection) *X11Binder {
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})

	return &X11Binder{
		xu:       conn.XUtil,
		root:     conn.Root,
		bindings: make(map[string]binding),
	}
}

// Bind grabs the accelerator and connects callback to it.
func (b *X11Binder) Bind(accelerator string, callback func()) error {
	sequence, err := ToKeySequence(accelerator)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.bindings[accelerator]; exists {
		return fmt.Errorf("accelerator %q already bound", accelerator)
	}
	if err := b.connect(sequence, callback); err != nil {
		return fmt.Errorf("failed to grab %q: %w", sequence, err)
	}
	b.bindings[accelerator] = binding{sequence: sequence, callback: callback}
	return nil
}

// Unbind releases the grab for accelerator. keybind can only detach every
// key callback of a window at once, so the remaining bindings are
// reconnected afterwards.
func (b *X11Binder) Unbind(accelerator string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	removed, ok := b.bindings[accelerator]
	if !ok {
		return nil
	}
	delete(b.bindings, accelerator)

	keybind.Detach(b.xu, b.root)
	if mods, keycodes, err := keybind.ParseString(b.xu, removed.sequence); err == nil {
		for _, keycode := range keycodes {
			keybind.Ungrab(b.xu, b.root, mods, keycode)
		}
	}

	var firstErr error
	for acc, bnd := range b.bindings {
		if err := b.connect(bnd.sequence, bnd.callback); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to restore %q: %w", acc, err)
		}
	}
	return firstErr
}

func (b *X11Binder) connect(sequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(b.xu, b.root, sequence, true)
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	// Always ignore CapsLock.
	caps := uint16(xproto.ModMaskLock)

	numLock := modMaskForKeysym(xu, "Num_Lock")
	scrollLock := modMaskForKeysym(xu, "Scroll_Lock")

	unique := make(map[uint16]struct{})
	add := func(mask uint16) {
		unique[mask] = struct{}{}
	}

	add(0)
	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		add(mask)
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}

	xevent.IgnoreMods = ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
