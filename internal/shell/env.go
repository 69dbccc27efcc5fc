// Package shell keeps the windows of one vault behaving like a tray
// resident application: it tracks the vault's windows, hides instead of
// closing, owns the tray icon and global hotkeys, and tears everything down
// on vault close.
package shell

import (
	"log/slog"

	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/settings"
)

// Env is the context shared by the components of one controller
// activation. It is created by New and lives until shutdown.
type Env struct {
	Host     platform.Host
	Flags    platform.Flags
	Settings *settings.Store
	Logger   *slog.Logger
}

// warn logs a swallowed error. Nothing in this package propagates host
// failures to its caller.
func (e *Env) warn(msg string, err error, args ...any) {
	if err == nil {
		return
	}
	e.Logger.Warn(msg, append(args, "error", err)...)
}
