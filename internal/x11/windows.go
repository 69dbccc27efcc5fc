package x11

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

const (
	stateMaxVert     = "_NET_WM_STATE_MAXIMIZED_VERT"
	stateMaxHorz     = "_NET_WM_STATE_MAXIMIZED_HORZ"
	stateHidden      = "_NET_WM_STATE_HIDDEN"
	stateSkipTaskbar = "_NET_WM_STATE_SKIP_TASKBAR"
	stateSkipPager   = "_NET_WM_STATE_SKIP_PAGER"

	stateRemove = 0
	stateAdd    = 1
)

// ClientList returns the EWMH managed client windows.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	clients, err := ewmh.ClientListGet(c.XUtil)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}
	return clients, nil
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	return len(types) == 0
}

// WindowClass returns the WM_CLASS class name, or "" when unset.
func (c *Connection) WindowClass(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// WindowTitle prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) WindowTitle(windowID xproto.Window) string {
	if title, err := ewmh.WmNameGet(c.XUtil, windowID); err == nil {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	if title, err := icccm.WmNameGet(c.XUtil, windowID); err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// WindowPID returns _NET_WM_PID, or 0 when the client does not set it.
func (c *Connection) WindowPID(windowID xproto.Window) int {
	pid, err := ewmh.WmPidGet(c.XUtil, windowID)
	if err != nil {
		return 0
	}
	return int(pid)
}

// Exists reports whether the server still knows the window.
func (c *Connection) Exists(windowID xproto.Window) bool {
	_, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	return err == nil
}

func (c *Connection) states(windowID xproto.Window) map[string]bool {
	set := make(map[string]bool)
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return set
	}
	for _, s := range states {
		set[s] = true
	}
	return set
}

// IsMaximized reports whether both maximized states are set.
func (c *Connection) IsMaximized(windowID xproto.Window) bool {
	s := c.states(windowID)
	return s[stateMaxVert] && s[stateMaxHorz]
}

// IsViewable reports whether the window is mapped and not iconified.
func (c *Connection) IsViewable(windowID xproto.Window) bool {
	attrs, err := xproto.GetWindowAttributes(c.XUtil.Conn(), windowID).Reply()
	if err != nil || attrs.MapState != xproto.MapStateViewable {
		return false
	}
	return !c.states(windowID)[stateHidden]
}

// MapWindow maps (shows) a window.
func (c *Connection) MapWindow(windowID xproto.Window) {
	xwindow.New(c.XUtil, windowID).Map()
}

// UnmapWindow withdraws a window. ICCCM requires a synthetic UnmapNotify on
// the root so the window manager releases the frame.
func (c *Connection) UnmapWindow(windowID xproto.Window) error {
	xwindow.New(c.XUtil, windowID).Unmap()

	ev := xproto.UnmapNotifyEvent{
		Event:  c.Root,
		Window: windowID,
	}
	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		c.Root,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		string(ev.Bytes()),
	).Check()
}

// Iconify minimizes a window via WM_CHANGE_STATE.
func (c *Connection) Iconify(windowID xproto.Window) error {
	const iconicState = 3
	return c.sendRootMessage(windowID, "WM_CHANGE_STATE", []uint32{iconicState})
}

// Maximize asks the window manager to maximize both axes.
func (c *Connection) Maximize(windowID xproto.Window) error {
	if err := ewmh.WmStateReq(c.XUtil, windowID, stateAdd, stateMaxVert); err != nil {
		return err
	}
	return ewmh.WmStateReq(c.XUtil, windowID, stateAdd, stateMaxHorz)
}

// SetSkipTaskbar toggles the taskbar and pager hints.
func (c *Connection) SetSkipTaskbar(windowID xproto.Window, skip bool) error {
	action := stateRemove
	if skip {
		action = stateAdd
	}
	if err := ewmh.WmStateReq(c.XUtil, windowID, action, stateSkipTaskbar); err != nil {
		return err
	}
	return ewmh.WmStateReq(c.XUtil, windowID, action, stateSkipPager)
}

// RequestClose requests graceful window close via WM_DELETE_WINDOW.
func (c *Connection) RequestClose(windowID xproto.Window) error {
	deleteAtom, err := c.internAtom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	protocolsAtom, err := c.internAtom("WM_PROTOCOLS")
	if err != nil {
		return err
	}

	ev := xproto.ClientMessageEvent{
		Format: 32,
		Window: windowID,
		Type:   protocolsAtom,
		Data:   xproto.ClientMessageDataUnionData32New([]uint32{uint32(deleteAtom), 0, 0, 0, 0}),
	}

	return xproto.SendEventChecked(
		c.XUtil.Conn(),
		false,
		windowID,
		xproto.EventMaskNoEvent,
		string(ev.Bytes()),
	).Check()
}

// hiddenMarker flags windows a vaulttray daemon withdrew. Withdrawn windows
// leave _NET_CLIENT_LIST, so sibling daemons find them through this property.
const hiddenMarker = "_VAULTTRAY_HIDDEN"

// MarkHidden sets or clears the hidden marker on a window.
func (c *Connection) MarkHidden(windowID xproto.Window, hidden bool) error {
	if hidden {
		return xprop.ChangeProp32(c.XUtil, windowID, hiddenMarker, "CARDINAL", 1)
	}
	atom, err := xprop.Atm(c.XUtil, hiddenMarker)
	if err != nil {
		return err
	}
	return xproto.DeletePropertyChecked(c.XUtil.Conn(), windowID, atom).Check()
}

// IsMarkedHidden reports whether a daemon withdrew the window.
func (c *Connection) IsMarkedHidden(windowID xproto.Window) bool {
	v, err := xprop.PropValNum(xprop.GetProperty(c.XUtil, windowID, hiddenMarker))
	return err == nil && v != 0
}

// MarkedHiddenWindows returns the top-level windows carrying the hidden
// marker. The window manager reparents withdrawn clients back to the root, so
// the root's children are enough.
func (c *Connection) MarkedHiddenWindows() ([]xproto.Window, error) {
	tree, err := xproto.QueryTree(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query root children: %w", err)
	}
	var out []xproto.Window
	for _, w := range tree.Children {
		if c.IsMarkedHidden(w) {
			out = append(out, w)
		}
	}
	return out, nil
}
