package shell

import (
	"sync"

	"github.com/1broseidon/vaulttray/internal/platform"
)

// LoginItems registers the app to launch at login.
type LoginItems interface {
	SetLoginItem(enabled, hidden bool) error
}

// Presence controls the taskbar and dock presence of the instance.
type Presence struct {
	env    *Env
	reg    *Registry
	logins LoginItems

	mu       sync.Mutex
	hidden   bool
	focusSub platform.Disposer
}

// NewPresence creates a presence controller. Windows registered later get
// the current taskbar setting applied.
func NewPresence(env *Env, reg *Registry, logins LoginItems) *Presence {
	p := &Presence{env: env, reg: reg, logins: logins}
	reg.OnRegister(func(w platform.WindowID) {
		if p.TaskbarHidden() {
			env.warn("failed to hide taskbar icon", env.Host.SetSkipTaskbar(w, true), "window", w)
		}
	})
	return p
}

// TaskbarHidden reports the last applied setting.
func (p *Presence) TaskbarHidden() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hidden
}

// SetTaskbarHidden applies the taskbar setting to every window and, where
// the platform has a process-wide dock icon, to the dock.
func (p *Presence) SetTaskbarHidden(hidden bool) {
	p.mu.Lock()
	p.hidden = hidden
	p.mu.Unlock()

	host := p.env.Host
	for _, w := range p.reg.Windows() {
		p.env.warn("failed to update taskbar icon", host.SetSkipTaskbar(w, hidden), "window", w)
	}
	if !p.env.Flags.SeparateDock {
		return
	}

	p.env.warn("failed to update dock icon", host.SetDockHidden(hidden))
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case hidden && p.focusSub == nil:
		// Dock suppression is process wide, so another instance may undo it.
		p.focusSub = host.OnFocusGained(p.reassertDock)
	case !hidden && p.focusSub != nil:
		p.focusSub()
		p.focusSub = nil
	}
}

func (p *Presence) reassertDock(w platform.WindowID) {
	if !p.reg.Contains(w) || !p.TaskbarHidden() {
		return
	}
	p.env.warn("failed to re-hide dock icon", p.env.Host.SetDockHidden(true))
}

// SetLaunchOnStartup updates the login item.
func (p *Presence) SetLaunchOnStartup(enabled, hiddenAtLaunch bool) {
	if p.logins == nil {
		return
	}
	p.env.warn("failed to update login item", p.logins.SetLoginItem(enabled, hiddenAtLaunch),
		"enabled", enabled, "hidden", hiddenAtLaunch)
}

// Restore makes the windows and the dock icon visible again.
func (p *Presence) Restore() {
	p.mu.Lock()
	wasHidden := p.hidden
	p.mu.Unlock()
	if wasHidden {
		p.SetTaskbarHidden(false)
	}
}
