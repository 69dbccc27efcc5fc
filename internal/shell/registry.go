package shell

import (
	"errors"
	"sync"

	"github.com/1broseidon/vaulttray/internal/platform"
)

// Registry tracks the live windows of this instance, which of them are
// maximized and which the controller hid to the tray. It holds membership
// records only; the host owns the windows.
type Registry struct {
	env *Env

	mu         sync.Mutex
	order      []platform.WindowID
	members    map[platform.WindowID][]platform.Disposer
	maximized  map[platform.WindowID]bool
	hidden     map[platform.WindowID]bool
	onRegister []func(platform.WindowID)
	onEvict    []func(platform.WindowID)
	keep       func(platform.WindowID) bool
	createdSub platform.Disposer
	closed     bool
}

// NewRegistry creates an empty registry.
func NewRegistry(env *Env) *Registry {
	return &Registry{
		env:       env,
		members:   make(map[platform.WindowID][]platform.Disposer),
		maximized: make(map[platform.WindowID]bool),
		hidden:    make(map[platform.WindowID]bool),
	}
}

// OnRegister adds a hook that runs after a window joins the registry.
func (r *Registry) OnRegister(fn func(platform.WindowID)) {
	r.mu.Lock()
	r.onRegister = append(r.onRegister, fn)
	r.mu.Unlock()
}

// OnEvict adds a hook that runs after a window leaves the registry.
func (r *Registry) OnEvict(fn func(platform.WindowID)) {
	r.mu.Lock()
	r.onEvict = append(r.onEvict, fn)
	r.mu.Unlock()
}

// KeepOnDestroy sets the predicate deciding whether a destroy notification
// is turned into a hide instead of an eviction.
func (r *Registry) KeepOnDestroy(fn func(platform.WindowID) bool) {
	r.mu.Lock()
	r.keep = fn
	r.mu.Unlock()
}

// Watch registers every window the host reports as created for this
// instance.
func (r *Registry) Watch() {
	r.mu.Lock()
	if r.createdSub != nil {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	sub := r.env.Host.OnWindowCreated(r.Register)
	r.mu.Lock()
	r.createdSub = sub
	r.mu.Unlock()
}

// Register adds a window. Registering a known window is a no-op.
func (r *Registry) Register(w platform.WindowID) {
	r.mu.Lock()
	_, known := r.members[w]
	closed := r.closed
	r.mu.Unlock()
	if known || closed {
		return
	}

	host := r.env.Host
	onDestroy, err := host.OnWindowDestroyed(w, func() { r.destroyed(w) })
	if err != nil {
		if errors.Is(err, platform.ErrWindowGone) {
			r.env.Logger.Debug("window vanished before registration", "window", w)
			return
		}
		r.env.warn("failed to watch window destruction", err, "window", w)
	}
	onMaximize, err := host.OnMaximizeChanged(w, func(maximized bool) { r.setMaximized(w, maximized) })
	r.env.warn("failed to watch window maximize state", err, "window", w)

	var disposers []platform.Disposer
	for _, d := range []platform.Disposer{onDestroy, onMaximize} {
		if d != nil {
			disposers = append(disposers, d)
		}
	}

	r.mu.Lock()
	r.order = append(r.order, w)
	r.members[w] = disposers
	if host.IsMaximized(w) {
		r.maximized[w] = true
	}
	hooks := append([]func(platform.WindowID){}, r.onRegister...)
	r.mu.Unlock()

	r.env.Logger.Debug("window registered", "window", w)
	for _, fn := range hooks {
		fn(w)
	}
}

func (r *Registry) setMaximized(w platform.WindowID, maximized bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[w]; !ok {
		return
	}
	switch {
	case maximized:
		r.maximized[w] = true
	case r.hidden[w]:
		// Withdrawing a window clears its window manager state; the window
		// is still maximized once shown again.
	default:
		delete(r.maximized, w)
	}
}

func (r *Registry) setHidden(w platform.WindowID, hidden bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[w]; !ok {
		return
	}
	if hidden {
		r.hidden[w] = true
	} else {
		delete(r.hidden, w)
	}
}

func (r *Registry) destroyed(w platform.WindowID) {
	r.mu.Lock()
	keep := r.keep
	r.mu.Unlock()
	if keep != nil && keep(w) {
		r.env.Logger.Debug("keeping last window on close", "window", w)
		return
	}
	r.Evict(w)
}

// Evict removes a window unconditionally and releases its subscriptions.
func (r *Registry) Evict(w platform.WindowID) {
	r.mu.Lock()
	disposers, ok := r.members[w]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.members, w)
	delete(r.maximized, w)
	delete(r.hidden, w)
	for i, id := range r.order {
		if id == w {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	hooks := append([]func(platform.WindowID){}, r.onEvict...)
	r.mu.Unlock()

	for _, d := range disposers {
		d()
	}
	r.env.Logger.Debug("window evicted", "window", w)
	for _, fn := range hooks {
		fn(w)
	}
}

// Windows returns the registered windows in registration order.
func (r *Registry) Windows() []platform.WindowID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]platform.WindowID(nil), r.order...)
}

// Contains reports membership.
func (r *Registry) Contains(w platform.WindowID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.members[w]
	return ok
}

// IsMaximized reports whether w was maximized when last observed.
func (r *Registry) IsMaximized(w platform.WindowID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maximized[w]
}

// Hidden returns the windows hidden to the tray, in registration order.
func (r *Registry) Hidden() []platform.WindowID {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []platform.WindowID
	for _, w := range r.order {
		if r.hidden[w] {
			out = append(out, w)
		}
	}
	return out
}

// Len returns the number of registered windows.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// Close releases every host subscription. Membership is kept so the
// shutdown path can still act on the windows.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	created := r.createdSub
	r.createdSub = nil
	var disposers []platform.Disposer
	for w, ds := range r.members {
		disposers = append(disposers, ds...)
		r.members[w] = nil
	}
	r.mu.Unlock()

	if created != nil {
		created()
	}
	for _, d := range disposers {
		d()
	}
}
