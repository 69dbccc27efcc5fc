//go:build !windows

package autostart

import "errors"

var errRegistryUnavailable = errors.New("registry login items are only available on windows")

func (m *Manager) isEnabledWindows() bool { return false }

func (m *Manager) enableWindows(bool) error { return errRegistryUnavailable }

func (m *Manager) disableWindows() error { return errRegistryUnavailable }
