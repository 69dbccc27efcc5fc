//go:build linux

package platform

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/1broseidon/vaulttray/internal/x11"
	"github.com/BurntSushi/xgb/xproto"
)

// LinuxHostConfig selects the windows a LinuxHost manages.
type LinuxHostConfig struct {
	Display string
	// AppClass is the WM_CLASS class of the host application.
	AppClass string
	// TitlePattern is a regular expression; {{vault}} is replaced by the
	// quoted vault name.
	TitlePattern string
	Vault        string
}

// LinuxHost drives the X11 windows of an externally running application.
type LinuxHost struct {
	conn     *x11.Connection
	appClass string
	title    *regexp.Regexp
	loop     *dispatchQueue
	tracked  *windowTracker

	mu         sync.Mutex
	nextID     int
	created    map[int]func(WindowID)
	focus      map[int]func(WindowID)
	destroyed  map[WindowID]map[int]func()
	maximize   map[WindowID]map[int]func(bool)
	watched    map[WindowID]bool
	maxState   map[WindowID]bool
	known      map[WindowID]bool
	lastActive WindowID
}

var _ Host = (*LinuxHost)(nil)

// NewLinuxHost connects to the display and starts tracking the client list.
func NewLinuxHost(cfg LinuxHostConfig) (*LinuxHost, error) {
	title, err := CompileTitlePattern(cfg.TitlePattern, cfg.Vault)
	if err != nil {
		return nil, err
	}

	conn, err := x11.NewConnectionDisplay(cfg.Display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	h := &LinuxHost{
		conn:      conn,
		appClass:  strings.ToLower(strings.TrimSpace(cfg.AppClass)),
		title:     title,
		loop:      newDispatchQueue(64),
		tracked:   newWindowTracker(),
		created:   make(map[int]func(WindowID)),
		focus:     make(map[int]func(WindowID)),
		destroyed: make(map[WindowID]map[int]func()),
		maximize:  make(map[WindowID]map[int]func(bool)),
		watched:   make(map[WindowID]bool),
		maxState:  make(map[WindowID]bool),
		known:     make(map[WindowID]bool),
	}

	if clients, err := conn.ClientList(); err == nil {
		for _, c := range clients {
			h.known[WindowID(c)] = true
		}
	}
	if active, err := conn.ActiveWindow(); err == nil {
		h.lastActive = WindowID(active)
	}

	if err := conn.WatchRoot(h.onRootProperty); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to watch root window: %w", err)
	}
	return h, nil
}

// Connection exposes the X11 connection for hotkey registration.
func (h *LinuxHost) Connection() *x11.Connection {
	return h.conn
}

// Run starts the event loop (blocking). Dispatch drops functions once it
// returns.
func (h *LinuxHost) Run() {
	h.conn.EventLoop(h.loop.ch)
	h.loop.close()
}

// Quit stops the event loop.
func (h *LinuxHost) Quit() {
	h.loop.close()
	h.conn.Quit()
}

// Disconnect closes the X11 connection.
func (h *LinuxHost) Disconnect() {
	h.conn.Close()
}

func (h *LinuxHost) Flags() Flags {
	return CurrentFlags()
}

func (h *LinuxHost) Dispatch(fn func()) {
	h.loop.send(fn)
}

func (h *LinuxHost) FocusedWindow() (WindowID, bool) {
	active, err := h.conn.ActiveWindow()
	if err != nil || active == 0 {
		return 0, false
	}
	return WindowID(active), true
}

func (h *LinuxHost) isAppWindow(w xproto.Window) bool {
	if !h.conn.IsNormalWindow(w) {
		return false
	}
	return h.appClass == "" || strings.ToLower(h.conn.WindowClass(w)) == h.appClass
}

func (h *LinuxHost) isInstanceWindow(w xproto.Window) bool {
	return h.isAppWindow(w) && h.title.MatchString(h.conn.WindowTitle(w))
}

func (h *LinuxHost) InstanceWindows() ([]WindowID, error) {
	return h.windows(h.isInstanceWindow)
}

func (h *LinuxHost) AllWindows() ([]WindowID, error) {
	return h.windows(h.isAppWindow)
}

// windows lists managed clients plus withdrawn ones. Hidden windows drop out
// of _NET_CLIENT_LIST, so they come from this host's record and from the
// marker sibling daemons leave on the windows they hid.
func (h *LinuxHost) windows(match func(xproto.Window) bool) ([]WindowID, error) {
	clients, err := h.conn.ClientList()
	if err != nil {
		return nil, err
	}
	listed := make([]WindowID, 0, len(clients))
	for _, c := range clients {
		listed = append(listed, WindowID(c))
	}
	var marked []WindowID
	if ws, err := h.conn.MarkedHiddenWindows(); err == nil {
		for _, w := range ws {
			marked = append(marked, WindowID(w))
		}
	}

	var out []WindowID
	for _, id := range mergeWindowIDs(listed, h.tracked.hiddenIDs(), marked) {
		w := xproto.Window(id)
		if h.conn.Exists(w) && match(w) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (h *LinuxHost) Describe(windowID WindowID) (Window, error) {
	w := xproto.Window(windowID)
	if !h.conn.Exists(w) {
		return Window{}, ErrWindowGone
	}
	return Window{
		ID:    windowID,
		PID:   h.conn.WindowPID(w),
		AppID: h.conn.WindowClass(w),
		Title: h.conn.WindowTitle(w),
	}, nil
}

func (h *LinuxHost) Show(windowID WindowID) error {
	w := xproto.Window(windowID)
	h.tracked.setHidden(windowID, false)
	if err := h.conn.MarkHidden(w, false); err != nil && h.conn.Exists(w) {
		return err
	}
	h.conn.MapWindow(w)
	return nil
}

func (h *LinuxHost) Hide(windowID WindowID) error {
	w := xproto.Window(windowID)
	h.tracked.rememberPID(windowID, h.conn.WindowPID(w))
	h.tracked.setHidden(windowID, true)
	if err := h.conn.MarkHidden(w, true); err != nil {
		return err
	}
	return h.conn.UnmapWindow(w)
}

func (h *LinuxHost) Minimize(windowID WindowID) error {
	return h.conn.Iconify(xproto.Window(windowID))
}

func (h *LinuxHost) Maximize(windowID WindowID) error {
	return h.conn.Maximize(xproto.Window(windowID))
}

func (h *LinuxHost) Focus(windowID WindowID) error {
	return h.conn.FocusWindow(xproto.Window(windowID))
}

func (h *LinuxHost) Blur(windowID WindowID) error {
	return h.conn.BlurWindow(xproto.Window(windowID))
}

func (h *LinuxHost) IsVisible(windowID WindowID) bool {
	return h.conn.IsViewable(xproto.Window(windowID))
}

func (h *LinuxHost) IsFocused(windowID WindowID) bool {
	active, ok := h.FocusedWindow()
	return ok && active == windowID
}

func (h *LinuxHost) IsMaximized(windowID WindowID) bool {
	return h.conn.IsMaximized(xproto.Window(windowID))
}

func (h *LinuxHost) SetSkipTaskbar(windowID WindowID, skip bool) error {
	return h.conn.SetSkipTaskbar(xproto.Window(windowID), skip)
}

// SetDockHidden is unsupported: X11 has no dock presence separate from the
// windows' taskbar entries.
func (h *LinuxHost) SetDockHidden(bool) error {
	return ErrUnsupported
}

func (h *LinuxHost) Destroy(windowID WindowID) error {
	if !h.conn.Exists(xproto.Window(windowID)) {
		return ErrWindowGone
	}
	return h.conn.RequestClose(xproto.Window(windowID))
}

func (h *LinuxHost) appPID() (int, error) {
	windows, err := h.AllWindows()
	if err != nil {
		return 0, err
	}
	pid := h.tracked.firstPID(windows, func(w WindowID) int {
		return h.conn.WindowPID(xproto.Window(w))
	})
	if pid > 0 {
		return pid, nil
	}
	return 0, fmt.Errorf("no window of class %q advertises _NET_WM_PID", h.appClass)
}

func (h *LinuxHost) Terminate() error {
	pid, err := h.appPID()
	if err != nil {
		return err
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to terminate pid %d: %w", pid, err)
	}
	return nil
}

// Relaunch terminates the application and starts it again with the same
// command line once the old process has exited.
func (h *LinuxHost) Relaunch() error {
	pid, err := h.appPID()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", pid))
	if err != nil {
		return fmt.Errorf("failed to read command line of pid %d: %w", pid, err)
	}
	args := strings.Split(strings.TrimRight(string(raw), "\x00"), "\x00")
	if len(args) == 0 || args[0] == "" {
		return fmt.Errorf("empty command line for pid %d", pid)
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to terminate pid %d: %w", pid, err)
	}

	go func() {
		deadline := time.Now().Add(10 * time.Second)
		for time.Now().Before(deadline) {
			if err := syscall.Kill(pid, 0); err != nil {
				break
			}
			time.Sleep(100 * time.Millisecond)
		}
		cmd := exec.Command(args[0], args[1:]...)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		if err := cmd.Start(); err == nil {
			go cmd.Wait()
		}
	}()
	return nil
}

func (h *LinuxHost) subscriptionID() int {
	h.nextID++
	return h.nextID
}

func (h *LinuxHost) OnWindowCreated(fn func(WindowID)) Disposer {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.subscriptionID()
	h.created[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.created, id)
		h.mu.Unlock()
	}
}

func (h *LinuxHost) OnFocusGained(fn func(WindowID)) Disposer {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.subscriptionID()
	h.focus[id] = fn
	return func() {
		h.mu.Lock()
		delete(h.focus, id)
		h.mu.Unlock()
	}
}

func (h *LinuxHost) OnWindowDestroyed(windowID WindowID, fn func()) (Disposer, error) {
	if err := h.watch(windowID); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.subscriptionID()
	if h.destroyed[windowID] == nil {
		h.destroyed[windowID] = make(map[int]func())
	}
	h.destroyed[windowID][id] = fn
	return func() {
		h.mu.Lock()
		delete(h.destroyed[windowID], id)
		h.mu.Unlock()
	}, nil
}

func (h *LinuxHost) OnMaximizeChanged(windowID WindowID, fn func(bool)) (Disposer, error) {
	if err := h.watch(windowID); err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.subscriptionID()
	if h.maximize[windowID] == nil {
		h.maximize[windowID] = make(map[int]func(bool))
	}
	h.maximize[windowID][id] = fn
	return func() {
		h.mu.Lock()
		delete(h.maximize[windowID], id)
		h.mu.Unlock()
	}, nil
}

// OnBeforeUnload is unsupported: close requests for foreign X11 windows go
// straight from the window manager to the owning client.
func (h *LinuxHost) OnBeforeUnload(WindowID, func(*UnloadEvent)) (Disposer, error) {
	return nil, ErrUnsupported
}

// OnCloseRequested is unsupported for the same reason as OnBeforeUnload.
func (h *LinuxHost) OnCloseRequested(WindowID, func(*CloseEvent)) (Disposer, error) {
	return nil, ErrUnsupported
}

func (h *LinuxHost) watch(windowID WindowID) error {
	h.mu.Lock()
	if h.watched[windowID] {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	w := xproto.Window(windowID)
	if !h.conn.Exists(w) {
		return ErrWindowGone
	}
	maximized := h.conn.IsMaximized(w)
	h.tracked.rememberPID(windowID, h.conn.WindowPID(w))
	err := h.conn.WatchWindow(w,
		func() { h.windowDestroyed(windowID) },
		func(atom string) {
			if atom == "_NET_WM_STATE" {
				h.stateChanged(windowID)
			}
		},
	)
	if err != nil {
		return fmt.Errorf("failed to watch window %d: %w", windowID, err)
	}

	h.mu.Lock()
	h.watched[windowID] = true
	h.maxState[windowID] = maximized
	h.mu.Unlock()
	return nil
}

// stateChanged reports maximize changes. Window managers strip _NET_WM_STATE
// from withdrawn clients, so changes on windows this host hid are ignored.
func (h *LinuxHost) stateChanged(windowID WindowID) {
	if h.tracked.isHidden(windowID) {
		return
	}
	maximized := h.conn.IsMaximized(xproto.Window(windowID))

	h.mu.Lock()
	if h.maxState[windowID] == maximized {
		h.mu.Unlock()
		return
	}
	h.maxState[windowID] = maximized
	listeners := make([]func(bool), 0, len(h.maximize[windowID]))
	for _, fn := range h.maximize[windowID] {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(maximized)
	}
}

func (h *LinuxHost) windowDestroyed(windowID WindowID) {
	h.mu.Lock()
	listeners := make([]func(), 0, len(h.destroyed[windowID]))
	for _, fn := range h.destroyed[windowID] {
		listeners = append(listeners, fn)
	}
	delete(h.destroyed, windowID)
	delete(h.maximize, windowID)
	delete(h.watched, windowID)
	delete(h.maxState, windowID)
	delete(h.known, windowID)
	h.mu.Unlock()

	h.tracked.forget(windowID)
	h.conn.UnwatchWindow(xproto.Window(windowID))
	for _, fn := range listeners {
		fn()
	}
}

func (h *LinuxHost) onRootProperty(atom string) {
	switch atom {
	case "_NET_CLIENT_LIST":
		h.clientListChanged()
	case "_NET_ACTIVE_WINDOW":
		h.activeWindowChanged()
	}
}

func (h *LinuxHost) clientListChanged() {
	clients, err := h.conn.ClientList()
	if err != nil {
		return
	}

	current := make(map[WindowID]bool, len(clients))
	var fresh []WindowID
	h.mu.Lock()
	for _, c := range clients {
		id := WindowID(c)
		current[id] = true
		if !h.known[id] {
			fresh = append(fresh, id)
		}
	}
	h.known = current
	listeners := make([]func(WindowID), 0, len(h.created))
	for _, fn := range h.created {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, id := range fresh {
		if !h.isInstanceWindow(xproto.Window(id)) {
			continue
		}
		for _, fn := range listeners {
			fn(id)
		}
	}
}

func (h *LinuxHost) activeWindowChanged() {
	active, ok := h.FocusedWindow()
	if !ok {
		return
	}

	h.mu.Lock()
	if active == h.lastActive {
		h.mu.Unlock()
		return
	}
	h.lastActive = active
	listeners := make([]func(WindowID), 0, len(h.focus))
	for _, fn := range h.focus {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(active)
	}
}
