package shell

import (
	"sync"

	"github.com/1broseidon/vaulttray/internal/platform"
)

// Interceptor turns window close into hide while active. Both listeners of
// a window are installed and removed together.
type Interceptor struct {
	env *Env
	reg *Registry

	mu        sync.Mutex
	active    bool
	listeners map[platform.WindowID][2]platform.Disposer
}

// NewInterceptor creates an inactive interceptor and hooks it into reg so
// that windows registered while active are covered as well.
func NewInterceptor(env *Env, reg *Registry) *Interceptor {
	i := &Interceptor{
		env:       env,
		reg:       reg,
		listeners: make(map[platform.WindowID][2]platform.Disposer),
	}
	reg.OnRegister(func(w platform.WindowID) {
		if i.Active() {
			i.install(w)
		}
	})
	reg.OnEvict(i.remove)
	return i
}

// Active reports whether close interception is on.
func (i *Interceptor) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}

// Installed returns the number of windows with listeners installed.
func (i *Interceptor) Installed() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.listeners)
}

// Enable installs listeners on every registered window. Calling it while
// active is a no-op.
func (i *Interceptor) Enable() {
	i.mu.Lock()
	if i.active {
		i.mu.Unlock()
		return
	}
	i.active = true
	i.mu.Unlock()

	i.env.Logger.Info("intercepting window close")
	for _, w := range i.reg.Windows() {
		i.install(w)
	}
}

// Disable removes every installed listener. Safe to call when inactive.
func (i *Interceptor) Disable() {
	i.mu.Lock()
	if !i.active && len(i.listeners) == 0 {
		i.mu.Unlock()
		return
	}
	i.active = false
	listeners := i.listeners
	i.listeners = make(map[platform.WindowID][2]platform.Disposer)
	i.mu.Unlock()

	for _, pair := range listeners {
		pair[0]()
		pair[1]()
	}
	i.env.Logger.Info("window close interception removed")
}

func (i *Interceptor) install(w platform.WindowID) {
	i.mu.Lock()
	_, installed := i.listeners[w]
	i.mu.Unlock()
	if installed {
		return
	}

	host := i.env.Host
	unload, err := host.OnBeforeUnload(w, func(ev *platform.UnloadEvent) {
		ev.PreventDefault()
		i.env.Logger.Debug("intercepting window close", "window", w)
		i.env.warn("failed to hide window", host.Hide(w), "window", w)
		ev.StopPropagation()
	})
	if err != nil {
		i.env.warn("failed to intercept window close", err, "window", w)
		return
	}
	closeReq, err := host.OnCloseRequested(w, func(ev *platform.CloseEvent) {
		ev.PreventDefault()
	})
	if err != nil {
		unload()
		i.env.warn("failed to intercept window close", err, "window", w)
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if !i.active {
		unload()
		closeReq()
		return
	}
	i.listeners[w] = [2]platform.Disposer{unload, closeReq}
}

func (i *Interceptor) remove(w platform.WindowID) {
	i.mu.Lock()
	pair, ok := i.listeners[w]
	delete(i.listeners, w)
	i.mu.Unlock()
	if ok {
		pair[0]()
		pair[1]()
	}
}
