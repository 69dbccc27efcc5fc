package daemon

import (
	"context"

	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/settings"
	"github.com/1broseidon/vaulttray/internal/shell"
)

// Controller is the part of the shell controller the daemon serves.
type Controller interface {
	Status() shell.Status
	Commands() []shell.Command
	RunCommand(id string) error
	Reconcile() (added, removed []platform.WindowID)
}

// Daemon serves IPC requests by running them on the host event loop.
type Daemon struct {
	controller Controller
	store      *settings.Store
	dispatch   func(func())
}

// New creates a Daemon. dispatch must schedule functions on the loop that
// owns controller.
func New(controller Controller, store *settings.Store, dispatch func(func())) *Daemon {
	return &Daemon{controller: controller, store: store, dispatch: dispatch}
}

func (d *Daemon) Status(ctx context.Context) (shell.Status, error) {
	return Call(ctx, d.dispatch, d.controller.Status)
}

func (d *Daemon) Commands() []shell.Command {
	return d.controller.Commands()
}

func (d *Daemon) RunCommand(ctx context.Context, id string) error {
	return Do(ctx, d.dispatch, func() error { return d.controller.RunCommand(id) })
}

func (d *Daemon) Settings() (string, map[string]string) {
	return d.store.Path(), d.store.Snapshot().Map()
}

// SetSetting validates the key off the loop and applies the change on it,
// since change hooks touch windows.
func (d *Daemon) SetSetting(ctx context.Context, key, value string) error {
	if _, err := settings.Lookup(settings.Key(key)); err != nil {
		return err
	}
	return Do(ctx, d.dispatch, func() error { return d.store.Set(settings.Key(key), value) })
}

func (d *Daemon) Reconcile(ctx context.Context) ([]uint32, []uint32, error) {
	type result struct{ added, removed []platform.WindowID }
	res, err := Call(ctx, d.dispatch, func() result {
		added, removed := d.controller.Reconcile()
		return result{added, removed}
	})
	if err != nil {
		return nil, nil, err
	}
	return ids(res.added), ids(res.removed), nil
}

func ids(windows []platform.WindowID) []uint32 {
	out := make([]uint32, len(windows))
	for i, w := range windows {
		out[i] = uint32(w)
	}
	return out
}
