package hotkeys

import (
	"log/slog"
	"sort"
	"sync"
)

// Binder is the platform global-shortcut primitive.
type Binder interface {
	Bind(accelerator string, callback func()) error
	Unbind(accelerator string) error
}

// Manager owns the lifecycle of global accelerators registered against a
// Binder. At most one binding exists per accelerator string.
type Manager struct {
	binder Binder
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// NewManager creates a Manager.
func NewManager(binder Binder, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		binder: binder,
		logger: logger,
		active: make(map[string]struct{}),
	}
}

// Register binds callback to accelerator, replacing any previous binding
// for the same accelerator. Failures are logged and the hotkey stays
// inactive.
func (m *Manager) Register(accelerator string, callback func()) {
	if accelerator == "" {
		return
	}
	m.Unregister(accelerator)

	if err := m.binder.Bind(accelerator, callback); err != nil {
		m.logger.Warn("hotkey registration failed", "accelerator", accelerator, "error", err)
		return
	}

	m.mu.Lock()
	m.active[accelerator] = struct{}{}
	m.mu.Unlock()
	m.logger.Debug("hotkey registered", "accelerator", accelerator)
}

// Unregister removes the binding for accelerator. Unknown accelerators are
// a no-op.
func (m *Manager) Unregister(accelerator string) {
	m.mu.Lock()
	_, ok := m.active[accelerator]
	delete(m.active, accelerator)
	m.mu.Unlock()
	if !ok {
		return
	}

	if err := m.binder.Unbind(accelerator); err != nil {
		m.logger.Debug("hotkey unregister failed", "accelerator", accelerator, "error", err)
	}
}

// UnregisterAll removes every binding owned by the manager.
func (m *Manager) UnregisterAll() {
	for _, accelerator := range m.Active() {
		m.Unregister(accelerator)
	}
}

// Active returns the registered accelerators, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.active))
	for accelerator := range m.active {
		out = append(out, accelerator)
	}
	sort.Strings(out)
	return out
}
