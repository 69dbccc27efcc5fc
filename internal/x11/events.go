package x11

import (
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WatchWindow selects structure and property events on a client window and
// forwards destroy and property changes. Callbacks run on the event loop.
func (c *Connection) WatchWindow(windowID xproto.Window, onDestroy func(), onProperty func(atom string)) error {
	win := xwindow.New(c.XUtil, windowID)
	if err := win.Listen(xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange); err != nil {
		return err
	}

	xevent.DestroyNotifyFun(func(_ *xgbutil.XUtil, ev xevent.DestroyNotifyEvent) {
		if ev.Window == windowID && onDestroy != nil {
			onDestroy()
		}
	}).Connect(c.XUtil, windowID)

	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if onProperty == nil {
			return
		}
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		onProperty(name)
	}).Connect(c.XUtil, windowID)

	return nil
}

// UnwatchWindow drops every event callback attached to the window.
func (c *Connection) UnwatchWindow(windowID xproto.Window) {
	xevent.Detach(c.XUtil, windowID)
}

// WatchRoot forwards root window property changes (_NET_CLIENT_LIST,
// _NET_ACTIVE_WINDOW).
func (c *Connection) WatchRoot(onProperty func(atom string)) error {
	root := xwindow.New(c.XUtil, c.Root)
	if err := root.Listen(xproto.EventMaskPropertyChange); err != nil {
		return err
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		name, err := xprop.AtomName(xu, ev.Atom)
		if err != nil {
			return
		}
		onProperty(name)
	}).Connect(c.XUtil, c.Root)
	return nil
}
