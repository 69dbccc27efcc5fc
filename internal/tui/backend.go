package tui

import (
	"log/slog"

	"github.com/1broseidon/vaulttray/internal/ipc"
	"github.com/1broseidon/vaulttray/internal/settings"
	"github.com/1broseidon/vaulttray/internal/shell"
)

// Backend reads and writes vault settings for the editor.
type Backend interface {
	// Live reports whether changes reach a running daemon.
	Live() bool
	Values() (map[string]string, error)
	Set(key, value string) error
	Commands() ([]shell.Command, error)
	RunCommand(id string) error
}

type ipcBackend struct {
	client *ipc.Client
}

// NewIPCBackend edits settings through the running daemon.
func NewIPCBackend(client *ipc.Client) Backend {
	return &ipcBackend{client: client}
}

func (b *ipcBackend) Live() bool { return true }

func (b *ipcBackend) Values() (map[string]string, error) {
	data, err := b.client.GetSettings()
	if err != nil {
		return nil, err
	}
	return data.Values, nil
}

func (b *ipcBackend) Set(key, value string) error { return b.client.SetSetting(key, value) }

func (b *ipcBackend) Commands() ([]shell.Command, error) { return b.client.ListCommands() }

func (b *ipcBackend) RunCommand(id string) error { return b.client.RunCommand(id) }

type storeBackend struct {
	store *settings.Store
}

// NewStoreBackend edits the settings file directly; used when no daemon is
// running. Changes apply on the next daemon start.
func NewStoreBackend(path string, logger *slog.Logger) (Backend, error) {
	store, err := settings.Open(path, logger)
	if err != nil {
		return nil, err
	}
	return &storeBackend{store: store}, nil
}

func (b *storeBackend) Live() bool { return false }

func (b *storeBackend) Values() (map[string]string, error) {
	return b.store.Snapshot().Map(), nil
}

func (b *storeBackend) Set(key, value string) error {
	if err := b.store.Set(settings.Key(key), value); err != nil {
		return err
	}
	b.store.Flush()
	return nil
}

func (b *storeBackend) Commands() ([]shell.Command, error) { return nil, nil }

func (b *storeBackend) RunCommand(id string) error {
	return errDaemonRequired
}
