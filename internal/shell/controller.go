package shell

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/1broseidon/vaulttray/internal/hotkeys"
	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/settings"
	"github.com/1broseidon/vaulttray/internal/tray"
)

// NoteCreator creates and opens a quick note.
type NoteCreator interface {
	Create(folder, pattern string) (string, error)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	Host       platform.Host
	Binder     hotkeys.Binder
	Tray       tray.Factory
	LoginItems LoginItems
	Notes      NoteCreator
	Settings   *settings.Store
	Vault      string
	Logger     *slog.Logger
	// LaunchHidden is set when the daemon was started by a hidden login item.
	LaunchHidden bool
	// OnExit is called once the vault is closed or the host quit.
	OnExit func()
}

// Controller owns every component of one activation. All methods must run
// on the host event loop.
type Controller struct {
	id    string
	vault string
	deps  Deps
	env   *Env

	reg         *Registry
	vis         *Visibility
	interceptor *Interceptor
	presence    *Presence
	tray        *tray.Manager
	hotkeys     *hotkeys.Manager
	shutdown    *Shutdown

	mu          sync.Mutex
	started     bool
	exited      bool
	lastFocused platform.WindowID
	detach      []func()
}

// New wires the components. Nothing touches the host until Start.
func New(deps Deps) *Controller {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.NewString()
	env := &Env{
		Host:     deps.Host,
		Flags:    deps.Host.Flags(),
		Settings: deps.Settings,
		Logger:   logger.With("vault", deps.Vault, "instance", id[:8]),
	}

	c := &Controller{id: id, vault: deps.Vault, deps: deps, env: env}
	c.reg = NewRegistry(env)
	c.vis = NewVisibility(env, c.reg)
	c.interceptor = NewInterceptor(env, c.reg)
	c.presence = NewPresence(env, c.reg, deps.LoginItems)
	c.hotkeys = hotkeys.NewManager(deps.Binder, env.Logger)
	c.tray = tray.NewManager(tray.Config{
		Factory: deps.Tray,
		Flags:   env.Flags,
		Vault:   deps.Vault,
		Actions: tray.Actions{
			QuickNote: c.QuickNote,
			Show:      c.ShowAll,
			Hide:      c.HideAll,
			Relaunch:  c.Relaunch,
			Quit:      c.Quit,
			Toggle:    func() { c.vis.Toggle(false) },
		},
		Dispatch: deps.Host.Dispatch,
		Logger:   env.Logger,
	})
	c.shutdown = &Shutdown{
		env:         env,
		reg:         c.reg,
		hotkeys:     c.hotkeys,
		presence:    c.presence,
		interceptor: c.interceptor,
		tray:        c.tray,
	}
	c.reg.KeepOnDestroy(c.keepOnDestroy)
	return c
}

// ID returns the random identifier of this activation.
func (c *Controller) ID() string { return c.id }

// Vault returns the vault name.
func (c *Controller) Vault() string { return c.vault }

// Start registers the instance windows and applies the settings.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = true
	c.mu.Unlock()

	host := c.env.Host
	c.reg.Watch()
	windows, err := host.InstanceWindows()
	if err != nil {
		c.env.warn("failed to list instance windows", err)
	}
	if focused, ok := host.FocusedWindow(); ok {
		for _, w := range windows {
			if w == focused {
				c.reg.Register(w)
				c.setLastFocused(w)
			}
		}
	}
	for _, w := range windows {
		c.reg.Register(w)
	}
	focusSub := host.OnFocusGained(func(w platform.WindowID) {
		if c.reg.Contains(w) {
			c.setLastFocused(w)
		}
	})

	s := c.env.Settings.Snapshot()
	c.registerHotkeys(s)
	c.presence.SetTaskbarHidden(s.HideTaskbarIcon)
	c.presence.SetLaunchOnStartup(s.LaunchOnStartup, s.HiddenAtLaunch())
	c.tray.Rebuild(tray.FromSettings(s))
	if s.RunInBackground {
		c.interceptor.Enable()
	}
	c.attachReactions()

	c.mu.Lock()
	c.detach = append(c.detach, focusSub)
	c.mu.Unlock()

	if s.HideOnLaunch || c.deps.LaunchHidden {
		c.vis.HideAll(s.RunInBackground)
	}
	c.env.Logger.Info("controller started", "windows", c.reg.Len())
	return nil
}

func (c *Controller) setLastFocused(w platform.WindowID) {
	c.mu.Lock()
	c.lastFocused = w
	c.mu.Unlock()
}

// keepOnDestroy keeps the last window registered when it goes away while
// close interception is active: the close was meant to hide it. A window the
// host already tore down is evicted like any other.
func (c *Controller) keepOnDestroy(w platform.WindowID) bool {
	if !c.interceptor.Active() {
		return false
	}
	if _, err := c.env.Host.Describe(w); errors.Is(err, platform.ErrWindowGone) {
		return false
	}
	windows := c.reg.Windows()
	c.mu.Lock()
	focused := c.lastFocused == w
	c.mu.Unlock()
	if !focused || len(windows) != 1 || windows[0] != w {
		return false
	}
	c.env.warn("failed to hide window", c.env.Host.Hide(w), "window", w)
	c.reg.setHidden(w, true)
	return true
}

func (c *Controller) registerHotkeys(s settings.Settings) {
	if s.ToggleWindowFocusHotkey != "" {
		c.hotkeys.Register(s.ToggleWindowFocusHotkey, func() { c.vis.Toggle(true) })
	}
	if s.QuickNoteHotkey != "" {
		c.hotkeys.Register(s.QuickNoteHotkey, c.QuickNote)
	}
}

func (c *Controller) unregisterHotkeys(s settings.Settings) {
	c.hotkeys.Unregister(s.ToggleWindowFocusHotkey)
	c.hotkeys.Unregister(s.QuickNoteHotkey)
}

func (c *Controller) attachReactions() {
	store := c.env.Settings
	var detach []func()
	on := func(key settings.Key, hook settings.Hook) {
		detach = append(detach, store.OnChange(key, hook))
	}

	loginItem := func(s settings.Settings) {
		c.presence.SetLaunchOnStartup(s.LaunchOnStartup, s.HiddenAtLaunch())
	}
	on(settings.LaunchOnStartup, loginItem)
	on(settings.HideOnLaunch, loginItem)
	on(settings.RunInBackground, func(s settings.Settings) {
		loginItem(s)
		if s.RunInBackground {
			c.interceptor.Enable()
			return
		}
		c.interceptor.Disable()
		c.vis.ShowAll()
	})
	on(settings.HideTaskbarIcon, func(s settings.Settings) {
		c.presence.SetTaskbarHidden(s.HideTaskbarIcon)
	})
	for _, key := range []settings.Key{settings.ToggleWindowFocusHotkey, settings.QuickNoteHotkey} {
		detach = append(detach, store.OnBeforeChange(key, c.unregisterHotkeys))
		on(key, c.registerHotkeys)
	}
	for _, key := range tray.Keys {
		on(key, func(s settings.Settings) { c.tray.Rebuild(tray.FromSettings(s)) })
	}

	c.mu.Lock()
	c.detach = append(c.detach, detach...)
	c.mu.Unlock()
}

func (c *Controller) detachReactions() {
	c.mu.Lock()
	detach := c.detach
	c.detach = nil
	c.mu.Unlock()
	for _, fn := range detach {
		fn()
	}
}

// ShowAll shows every window of the vault.
func (c *Controller) ShowAll() { c.vis.ShowAll() }

// HideAll hides or minimizes every window according to runInBackground.
func (c *Controller) HideAll() {
	c.vis.HideAll(c.env.Settings.Snapshot().RunInBackground)
}

// Toggle flips window visibility.
func (c *Controller) Toggle(checkFocus bool) { c.vis.Toggle(checkFocus) }

// QuickNote creates the quick note for now and shows the vault.
func (c *Controller) QuickNote() {
	if c.deps.Notes == nil {
		return
	}
	s := c.env.Settings.Snapshot()
	file, err := c.deps.Notes.Create(s.QuickNoteLocation, s.QuickNoteDateFormat)
	if err != nil {
		c.env.warn("failed to create quick note", err)
	} else {
		c.env.Logger.Info("quick note opened", "file", file)
	}
	c.vis.ShowAll()
}

// Relaunch restarts the host application.
func (c *Controller) Relaunch() {
	c.env.Logger.Info("relaunching host")
	c.env.warn("failed to relaunch host", c.env.Host.Relaunch())
}

// Quit unloads and terminates the host application.
func (c *Controller) Quit() {
	c.Stop()
	c.env.warn("failed to terminate host", c.env.Host.Terminate())
	c.exit()
}

// CloseVault closes this vault's windows, or the whole host when no other
// vault has windows open.
func (c *Controller) CloseVault() {
	c.detachReactions()
	c.shutdown.CloseInstance()
	c.exit()
}

// Detach stops managing the vault while the host keeps running. Windows
// hidden to the tray are shown first; nothing could bring them back later.
func (c *Controller) Detach() {
	c.vis.ShowHidden()
	c.Stop()
}

// Stop unloads every component. The host keeps running.
func (c *Controller) Stop() {
	c.detachReactions()
	c.shutdown.ProcessUnload()
}

func (c *Controller) exit() {
	c.mu.Lock()
	exited := c.exited
	c.exited = true
	c.mu.Unlock()
	if !exited && c.deps.OnExit != nil {
		c.deps.OnExit()
	}
}

// WindowStatus describes one registered window.
type WindowStatus struct {
	ID        uint32 `json:"id"`
	Title     string `json:"title"`
	Visible   bool   `json:"visible"`
	Focused   bool   `json:"focused"`
	Maximized bool   `json:"maximized"`
}

// Status is a point-in-time view of the controller.
type Status struct {
	ID            string         `json:"id"`
	Vault         string         `json:"vault"`
	Windows       []WindowStatus `json:"windows"`
	Intercepted   bool           `json:"intercepted"`
	TaskbarHidden bool           `json:"taskbar_hidden"`
	Hotkeys       []string       `json:"hotkeys"`
	Tray          tray.State     `json:"tray"`
}

// Status reports the current state.
func (c *Controller) Status() Status {
	host := c.env.Host
	st := Status{
		ID:            c.id,
		Vault:         c.vault,
		Windows:       []WindowStatus{},
		Intercepted:   c.interceptor.Active(),
		TaskbarHidden: c.presence.TaskbarHidden(),
		Hotkeys:       c.hotkeys.Active(),
		Tray:          c.tray.State(),
	}
	for _, w := range c.reg.Windows() {
		ws := WindowStatus{
			ID:        uint32(w),
			Visible:   host.IsVisible(w),
			Focused:   host.IsFocused(w),
			Maximized: c.reg.IsMaximized(w),
		}
		if info, err := host.Describe(w); err == nil {
			ws.Title = info.Title
		}
		st.Windows = append(st.Windows, ws)
	}
	return st
}
