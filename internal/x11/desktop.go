package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
)

// ActiveWindow returns the window named by _NET_ACTIVE_WINDOW.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// We build the message manually because the xgbutil ewmh helpers panic on
// this library version.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	const sourceIndication = 2 // pager/direct action
	if err := c.sendRootMessage(windowID, "_NET_ACTIVE_WINDOW", []uint32{sourceIndication}); err != nil {
		return fmt.Errorf("failed to activate window %d: %w", windowID, err)
	}
	return nil
}

// BlurWindow moves input focus off the window and back to the root.
func (c *Connection) BlurWindow(windowID xproto.Window) error {
	active, err := c.ActiveWindow()
	if err == nil && active != windowID {
		return nil
	}
	return xproto.SetInputFocusChecked(
		c.XUtil.Conn(),
		xproto.InputFocusPointerRoot,
		c.Root,
		xproto.TimeCurrentTime,
	).Check()
}
