// Package tray owns the system tray icon of a vault daemon.
package tray

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/1broseidon/vaulttray/internal/hotkeys"
	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/settings"
)

// Settings is the tray-affecting subset of the vault settings.
type Settings struct {
	Enabled         bool
	Image           string
	Tooltip         string
	ToggleHotkey    string
	QuickNoteHotkey string
}

// FromSettings extracts the tray settings from a settings snapshot.
func FromSettings(s settings.Settings) Settings {
	return Settings{
		Enabled:         s.CreateTrayIcon,
		Image:           s.TrayIconImage,
		Tooltip:         s.TrayIconTooltip,
		ToggleHotkey:    s.ToggleWindowFocusHotkey,
		QuickNoteHotkey: s.QuickNoteHotkey,
	}
}

// Keys lists the settings whose change requires a rebuild.
var Keys = []settings.Key{
	settings.CreateTrayIcon,
	settings.TrayIconImage,
	settings.TrayIconTooltip,
	settings.ToggleWindowFocusHotkey,
	settings.QuickNoteHotkey,
}

// Actions are the callbacks behind the menu entries and the icon click.
type Actions struct {
	QuickNote func()
	Show      func()
	Hide      func()
	Relaunch  func()
	Quit      func()
	// Toggle is called on click where a click is not a menu trigger.
	Toggle func()
}

// MenuItem is one context menu entry. Accelerator is a display label only.
type MenuItem struct {
	Label       string
	Accelerator string
	Separator   bool
	Action      func()
}

// Icon is a native tray handle.
type Icon interface {
	SetImage(png []byte)
	SetTooltip(tooltip string)
	SetMenu(items []MenuItem)
	// OnClick installs the primary click handler; openMenu pops up the
	// context menu.
	OnClick(fn func(openMenu func()))
	Destroy()
}

// Factory creates native tray handles.
type Factory interface {
	Create() (Icon, error)
}

// State is a comparable snapshot of the tray.
type State struct {
	Present        bool   `json:"present"`
	Tooltip        string `json:"tooltip,omitempty"`
	Icon           string `json:"icon,omitempty"`
	DefaultIcon    bool   `json:"default_icon,omitempty"`
	ClickOpensMenu bool   `json:"click_opens_menu,omitempty"`
	Menu           string `json:"menu,omitempty"`
}

// Config wires a Manager.
type Config struct {
	Factory Factory
	Flags   platform.Flags
	Vault   string
	Actions Actions
	// Dispatch runs callbacks on the host event loop; nil runs them inline.
	Dispatch func(func())
	Logger   *slog.Logger
}

// Manager rebuilds the tray from settings. At most one Icon is alive.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	handle Icon
	state  State
}

// NewManager creates a Manager without a tray icon.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// Tooltip substitutes the vault name into a tooltip template.
func Tooltip(template, vault string) string {
	if template == "" {
		template = settings.DefaultTooltip
	}
	return strings.ReplaceAll(template, "{{vault}}", vault)
}

// Menu returns the context menu for the given settings.
func Menu(s Settings, actions Actions) []MenuItem {
	return []MenuItem{
		{Label: "Add quick note", Accelerator: hotkeys.Display(s.QuickNoteHotkey), Action: actions.QuickNote},
		{Label: "Show windows", Accelerator: hotkeys.Display(s.ToggleHotkey), Action: actions.Show},
		{Label: "Hide windows", Accelerator: hotkeys.Display(s.ToggleHotkey), Action: actions.Hide},
		{Separator: true},
		{Label: "Relaunch", Action: actions.Relaunch},
		{Label: "Quit", Action: actions.Quit},
	}
}

func menuSignature(items []MenuItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		switch {
		case item.Separator:
			parts[i] = "---"
		case item.Accelerator != "":
			parts[i] = item.Label + " [" + item.Accelerator + "]"
		default:
			parts[i] = item.Label
		}
	}
	return strings.Join(parts, "|")
}

func (m *Manager) dispatched(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	if m.cfg.Dispatch == nil {
		return fn
	}
	return func() { m.cfg.Dispatch(fn) }
}

// Rebuild destroys the current tray and, if enabled, creates a new one
// reflecting s.
func (m *Manager) Rebuild(s Settings) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.destroyLocked()
	if !s.Enabled {
		return
	}

	image, usedDefault := defaultIcon, true
	if s.Image != "" {
		decoded, err := DecodeIcon(s.Image)
		if err != nil {
			m.logger.Warn("tray icon image invalid, using built-in icon", "error", err)
		} else {
			image, usedDefault = decoded, false
		}
	}

	actions := m.cfg.Actions
	items := Menu(s, actions)
	for i := range items {
		if !items[i].Separator {
			items[i].Action = m.dispatched(items[i].Action)
		}
	}
	tooltip := Tooltip(s.Tooltip, m.cfg.Vault)
	clickOpensMenu := m.cfg.Flags.TrayClickOpensMenu

	handle, err := m.cfg.Factory.Create()
	if err != nil {
		m.logger.Error("failed to create tray icon", "error", err)
		return
	}
	handle.SetImage(image)
	handle.SetTooltip(tooltip)
	handle.SetMenu(items)
	toggle := m.dispatched(actions.Toggle)
	handle.OnClick(func(openMenu func()) {
		if clickOpensMenu {
			openMenu()
			return
		}
		toggle()
	})

	m.handle = handle
	m.state = State{
		Present:        true,
		Tooltip:        tooltip,
		Icon:           iconDigest(image),
		DefaultIcon:    usedDefault,
		ClickOpensMenu: clickOpensMenu,
		Menu:           menuSignature(items),
	}
	m.logger.Debug("tray rebuilt", "tooltip", tooltip)
}

// Destroy removes the tray icon. Safe to call when no icon exists.
func (m *Manager) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyLocked()
}

func (m *Manager) destroyLocked() {
	if m.handle != nil {
		m.handle.Destroy()
		m.handle = nil
	}
	m.state = State{}
}

// State returns the current tray snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
