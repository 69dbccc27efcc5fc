package shell

import (
	"sync"

	"github.com/1broseidon/vaulttray/internal/hotkeys"
	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/tray"
)

// Shutdown tears the controller down in dependency order.
type Shutdown struct {
	env         *Env
	reg         *Registry
	hotkeys     *hotkeys.Manager
	presence    *Presence
	interceptor *Interceptor
	tray        *tray.Manager

	once sync.Once
}

// ProcessUnload unregisters hotkeys, restores taskbar/dock presence,
// removes close interception, destroys the tray and releases registry
// subscriptions. Later calls are no-ops.
func (s *Shutdown) ProcessUnload() {
	s.once.Do(func() {
		s.env.Logger.Info("unloading")
		s.hotkeys.UnregisterAll()
		s.presence.Restore()
		s.interceptor.Disable()
		s.tray.Destroy()
		s.reg.Close()
	})
}

// CloseInstance unloads and then closes this vault. It reports whether the
// whole host process was terminated.
func (s *Shutdown) CloseInstance() bool {
	owned := s.reg.Windows()
	s.ProcessUnload()

	host := s.env.Host
	all, err := host.AllWindows()
	if err != nil {
		s.env.warn("failed to list host windows", err)
	} else if len(owned) > 0 && sameSet(owned, all) {
		s.env.Logger.Info("closing last vault, terminating host")
		err := host.Terminate()
		if err == nil {
			return true
		}
		s.env.warn("failed to terminate host", err)
	}

	s.env.Logger.Info("closing vault windows", "count", len(owned))
	for _, w := range owned {
		s.env.warn("failed to destroy window", host.Destroy(w), "window", w)
		s.reg.Evict(w)
	}
	return false
}

func sameSet(a, b []platform.WindowID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[platform.WindowID]bool, len(a))
	for _, w := range a {
		set[w] = true
	}
	for _, w := range b {
		if !set[w] {
			return false
		}
	}
	return true
}
