// Package platformtest provides an in-memory platform.Host for tests.
package platformtest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/1broseidon/vaulttray/internal/platform"
)

// Window is the simulated state of one window.
type Window struct {
	ID          platform.WindowID
	Title       string
	Instance    bool
	Visible     bool
	Minimized   bool
	Maximized   bool
	SkipTaskbar bool
}

// Host is a single-threaded fake of a desktop runtime. Callbacks run
// synchronously from the call that triggers them.
type Host struct {
	// Unsupported makes close-interception subscriptions fail like LinuxHost.
	Unsupported bool

	mu         sync.Mutex
	flags      platform.Flags
	windows    map[platform.WindowID]*Window
	order      []platform.WindowID
	nextWindow platform.WindowID
	focused    platform.WindowID
	dockHidden bool
	terminated bool
	relaunched int
	calls      []string

	nextSub   int
	created   map[int]func(platform.WindowID)
	focus     map[int]func(platform.WindowID)
	destroyed map[platform.WindowID]map[int]func()
	maximize  map[platform.WindowID]map[int]func(bool)
	unload    map[platform.WindowID]map[int]func(*platform.UnloadEvent)
	closeReq  map[platform.WindowID]map[int]func(*platform.CloseEvent)
}

var _ platform.Host = (*Host)(nil)

// New creates an empty host with the given platform flags.
func New(flags platform.Flags) *Host {
	return &Host{
		flags:     flags,
		windows:   make(map[platform.WindowID]*Window),
		created:   make(map[int]func(platform.WindowID)),
		focus:     make(map[int]func(platform.WindowID)),
		destroyed: make(map[platform.WindowID]map[int]func()),
		maximize:  make(map[platform.WindowID]map[int]func(bool)),
		unload:    make(map[platform.WindowID]map[int]func(*platform.UnloadEvent)),
		closeReq:  make(map[platform.WindowID]map[int]func(*platform.CloseEvent)),
	}
}

func (h *Host) record(format string, args ...any) {
	h.calls = append(h.calls, fmt.Sprintf(format, args...))
}

// Calls returns the recorded window operations ("focus:1", "hide:2", ...).
func (h *Host) Calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.calls...)
}

// ResetCalls clears the operation log.
func (h *Host) ResetCalls() {
	h.mu.Lock()
	h.calls = nil
	h.mu.Unlock()
}

// AddWindow opens a visible window. Instance windows are reported to
// window-created listeners.
func (h *Host) AddWindow(title string, instance bool) platform.WindowID {
	return h.addWindow(title, instance, true)
}

// AddWindowQuiet adds a window without notifying created listeners, as when
// the host misses an event.
func (h *Host) AddWindowQuiet(title string, instance bool) platform.WindowID {
	return h.addWindow(title, instance, false)
}

func (h *Host) addWindow(title string, instance, notify bool) platform.WindowID {
	h.mu.Lock()
	h.nextWindow++
	id := h.nextWindow
	h.windows[id] = &Window{ID: id, Title: title, Instance: instance, Visible: true}
	h.order = append(h.order, id)
	var listeners []func(platform.WindowID)
	if instance && notify {
		listeners = sortedValues(h.created)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(id)
	}
	return id
}

// Vanish removes a window without firing its destroy listeners.
func (h *Host) Vanish(id platform.WindowID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.windows, id)
	for i, w := range h.order {
		if w == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	if h.focused == id {
		h.focused = 0
	}
}

// Window returns a copy of a window's state.
func (h *Host) Window(id platform.WindowID) (Window, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return Window{}, false
	}
	return *w, true
}

// SetFocused gives input focus to id, or clears focus for 0.
func (h *Host) SetFocused(id platform.WindowID) {
	h.mu.Lock()
	h.focused = id
	listeners := sortedValues(h.focus)
	h.mu.Unlock()
	if id == 0 {
		return
	}
	for _, fn := range listeners {
		fn(id)
	}
}

// SetVisible changes visibility without going through the host API.
func (h *Host) SetVisible(id platform.WindowID, visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if w, ok := h.windows[id]; ok {
		w.Visible = visible
		if !visible && h.focused == id {
			h.focused = 0
		}
	}
}

// UserMaximize simulates the user toggling maximize on a window.
func (h *Host) UserMaximize(id platform.WindowID, maximized bool) {
	h.mu.Lock()
	w, ok := h.windows[id]
	if !ok || w.Maximized == maximized {
		h.mu.Unlock()
		return
	}
	w.Maximized = maximized
	listeners := sortedValues(h.maximize[id])
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(maximized)
	}
}

// UserClose simulates pressing the close button. It reports whether the
// window was destroyed.
func (h *Host) UserClose(id platform.WindowID) bool {
	h.mu.Lock()
	unload := sortedValues(h.unload[id])
	h.mu.Unlock()

	ue := &platform.UnloadEvent{Window: id}
	for _, fn := range unload {
		fn(ue)
	}
	if ue.Canceled() && ue.Handled() {
		return false
	}

	h.mu.Lock()
	closeReq := sortedValues(h.closeReq[id])
	h.mu.Unlock()

	ce := &platform.CloseEvent{Window: id}
	for _, fn := range closeReq {
		fn(ce)
	}
	if ce.Canceled() || ue.Canceled() {
		return false
	}
	h.destroy(id)
	return true
}

// CloseListeners counts installed before-unload and close-request listeners.
func (h *Host) CloseListeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, m := range h.unload {
		n += len(m)
	}
	for _, m := range h.closeReq {
		n += len(m)
	}
	return n
}

// DockHidden reports the process-wide dock suppression state.
func (h *Host) DockHidden() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dockHidden
}

// ForceDockHidden changes dock suppression behind the controller's back,
// as another instance would.
func (h *Host) ForceDockHidden(hidden bool) {
	h.mu.Lock()
	h.dockHidden = hidden
	h.mu.Unlock()
}

// Terminated reports whether Terminate was called.
func (h *Host) Terminated() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.terminated
}

// Relaunches counts Relaunch calls.
func (h *Host) Relaunches() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.relaunched
}

func (h *Host) Flags() platform.Flags { return h.flags }

func (h *Host) Dispatch(fn func()) { fn() }

func (h *Host) FocusedWindow() (platform.WindowID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused, h.focused != 0
}

func (h *Host) InstanceWindows() ([]platform.WindowID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []platform.WindowID
	for _, id := range h.order {
		if h.windows[id].Instance {
			out = append(out, id)
		}
	}
	return out, nil
}

func (h *Host) AllWindows() ([]platform.WindowID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]platform.WindowID(nil), h.order...), nil
}

func (h *Host) Describe(id platform.WindowID) (platform.Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return platform.Window{}, platform.ErrWindowGone
	}
	return platform.Window{ID: id, AppID: "fake", Title: w.Title}, nil
}

func (h *Host) lookup(op string, id platform.WindowID) (*Window, error) {
	w, ok := h.windows[id]
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", op, id, platform.ErrWindowGone)
	}
	h.record("%s:%d", op, id)
	return w, nil
}

func (h *Host) Show(id platform.WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.lookup("show", id)
	if err != nil {
		return err
	}
	w.Visible, w.Minimized = true, false
	return nil
}

func (h *Host) Hide(id platform.WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.lookup("hide", id)
	if err != nil {
		return err
	}
	w.Visible = false
	if h.focused == id {
		h.focused = 0
	}
	return nil
}

func (h *Host) Minimize(id platform.WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, err := h.lookup("minimize", id)
	if err != nil {
		return err
	}
	w.Visible, w.Minimized = false, true
	if h.focused == id {
		h.focused = 0
	}
	return nil
}

func (h *Host) Maximize(id platform.WindowID) error {
	h.mu.Lock()
	w, err := h.lookup("maximize", id)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	w.Visible, w.Minimized = true, false
	changed := !w.Maximized
	w.Maximized = true
	var listeners []func(bool)
	if changed {
		listeners = sortedValues(h.maximize[id])
	}
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(true)
	}
	return nil
}

func (h *Host) Focus(id platform.WindowID) error {
	h.mu.Lock()
	w, err := h.lookup("focus", id)
	if err != nil {
		h.mu.Unlock()
		return err
	}
	w.Visible, w.Minimized = true, false
	h.focused = id
	listeners := sortedValues(h.focus)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(id)
	}
	return nil
}

func (h *Host) Blur(id platform.WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.lookup("blur", id); err != nil {
		return err
	}
	if h.focused == id {
		h.focused = 0
	}
	return nil
}

func (h *Host) IsVisible(id platform.WindowID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	return ok && w.Visible
}

func (h *Host) IsFocused(id platform.WindowID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused == id && id != 0
}

func (h *Host) IsMaximized(id platform.WindowID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	return ok && w.Maximized
}

func (h *Host) SetSkipTaskbar(id platform.WindowID, skip bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return platform.ErrWindowGone
	}
	w.SkipTaskbar = skip
	return nil
}

func (h *Host) SetDockHidden(hidden bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.flags.SeparateDock {
		return platform.ErrUnsupported
	}
	h.dockHidden = hidden
	return nil
}

func (h *Host) Destroy(id platform.WindowID) error {
	h.mu.Lock()
	_, err := h.lookup("destroy", id)
	h.mu.Unlock()
	if err != nil {
		return err
	}
	h.destroy(id)
	return nil
}

// ReportDestroyed fires the destroy listeners of a window that stays open,
// as a host does when a forced close is turned into a hide.
func (h *Host) ReportDestroyed(id platform.WindowID) {
	h.mu.Lock()
	listeners := sortedValues(h.destroyed[id])
	h.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (h *Host) destroy(id platform.WindowID) {
	h.mu.Lock()
	if _, ok := h.windows[id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.windows, id)
	for i, w := range h.order {
		if w == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	if h.focused == id {
		h.focused = 0
	}
	listeners := sortedValues(h.destroyed[id])
	delete(h.destroyed, id)
	delete(h.maximize, id)
	delete(h.unload, id)
	delete(h.closeReq, id)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (h *Host) Terminate() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("terminate")
	h.terminated = true
	return nil
}

func (h *Host) Relaunch() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.record("relaunch")
	h.relaunched++
	return nil
}

func (h *Host) OnWindowCreated(fn func(platform.WindowID)) platform.Disposer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return subscribe(h, h.created, fn)
}

func (h *Host) OnFocusGained(fn func(platform.WindowID)) platform.Disposer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return subscribe(h, h.focus, fn)
}

func (h *Host) OnWindowDestroyed(id platform.WindowID, fn func()) (platform.Disposer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[id]; !ok {
		return nil, platform.ErrWindowGone
	}
	return subscribe(h, perWindow(h.destroyed, id), fn), nil
}

func (h *Host) OnMaximizeChanged(id platform.WindowID, fn func(bool)) (platform.Disposer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[id]; !ok {
		return nil, platform.ErrWindowGone
	}
	return subscribe(h, perWindow(h.maximize, id), fn), nil
}

func (h *Host) OnBeforeUnload(id platform.WindowID, fn func(*platform.UnloadEvent)) (platform.Disposer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Unsupported {
		return nil, platform.ErrUnsupported
	}
	if _, ok := h.windows[id]; !ok {
		return nil, platform.ErrWindowGone
	}
	return subscribe(h, perWindow(h.unload, id), fn), nil
}

func (h *Host) OnCloseRequested(id platform.WindowID, fn func(*platform.CloseEvent)) (platform.Disposer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.Unsupported {
		return nil, platform.ErrUnsupported
	}
	if _, ok := h.windows[id]; !ok {
		return nil, platform.ErrWindowGone
	}
	return subscribe(h, perWindow(h.closeReq, id), fn), nil
}

func perWindow[F any](m map[platform.WindowID]map[int]F, id platform.WindowID) map[int]F {
	if m[id] == nil {
		m[id] = make(map[int]F)
	}
	return m[id]
}

func subscribe[F any](h *Host, m map[int]F, fn F) platform.Disposer {
	h.nextSub++
	id := h.nextSub
	m[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(m, id)
			h.mu.Unlock()
		})
	}
}

func sortedValues[F any](m map[int]F) []F {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]F, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}
