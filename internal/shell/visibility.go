package shell

import (
	"maps"
	"slices"

	"github.com/1broseidon/vaulttray/internal/platform"
)

// Visibility implements show/hide/toggle over the registered windows.
type Visibility struct {
	env *Env
	reg *Registry

	// last records the visibility around the previous toggle so that a
	// second toggle with no change in between restores it exactly.
	last *toggleRecord
}

type toggleRecord struct {
	windows []platform.WindowID
	before  map[platform.WindowID]bool
	after   map[platform.WindowID]bool
}

// NewVisibility creates a controller over reg.
func NewVisibility(env *Env, reg *Registry) *Visibility {
	return &Visibility{env: env, reg: reg}
}

// focusTarget returns the window that should end up focused.
func (v *Visibility) focusTarget(windows []platform.WindowID) (platform.WindowID, bool) {
	if len(windows) == 0 {
		return 0, false
	}
	if focused, ok := v.env.Host.FocusedWindow(); ok && v.reg.Contains(focused) {
		return focused, true
	}
	return windows[0], true
}

// ShowAll shows every registered window, re-maximizing and focusing the
// ones that were maximized, and focuses the target window last.
func (v *Visibility) ShowAll() {
	v.last = nil
	v.show(v.reg.Windows())
}

// ShowHidden shows only the windows hidden to the tray.
func (v *Visibility) ShowHidden() {
	v.last = nil
	if hidden := v.reg.Hidden(); len(hidden) > 0 {
		v.show(hidden)
	}
}

func (v *Visibility) show(windows []platform.WindowID) {
	target, ok := v.focusTarget(windows)
	if !ok {
		return
	}
	v.env.Logger.Debug("showing windows", "count", len(windows))

	host := v.env.Host
	for _, w := range windows {
		v.env.warn("failed to show window", host.Show(w), "window", w)
		v.reg.setHidden(w, false)
		if !v.reg.IsMaximized(w) {
			continue
		}
		v.env.warn("failed to maximize window", host.Maximize(w), "window", w)
		if w != target {
			v.env.warn("failed to focus window", host.Focus(w), "window", w)
		}
	}
	v.env.warn("failed to focus window", host.Focus(target), "window", target)
}

// HideAll blurs the focused windows and hides them to the tray when
// runInBackground is set, or minimizes them otherwise.
func (v *Visibility) HideAll(runInBackground bool) {
	v.last = nil
	v.hide(v.reg.Windows(), runInBackground)
}

func (v *Visibility) hide(windows []platform.WindowID, runInBackground bool) {
	v.env.Logger.Debug("hiding windows", "count", len(windows), "background", runInBackground)

	host := v.env.Host
	for _, w := range windows {
		if host.IsFocused(w) {
			v.env.warn("failed to blur window", host.Blur(w), "window", w)
		}
		if runInBackground {
			v.env.warn("failed to hide window", host.Hide(w), "window", w)
			v.reg.setHidden(w, true)
		} else {
			v.env.warn("failed to minimize window", host.Minimize(w), "window", w)
		}
	}
}

func (v *Visibility) snapshot(windows []platform.WindowID) map[platform.WindowID]bool {
	out := make(map[platform.WindowID]bool, len(windows))
	for _, w := range windows {
		out[w] = v.env.Host.IsVisible(w)
	}
	return out
}

// Toggle hides every window if one of them is visible (and focused, when
// checkFocus is set), and shows them otherwise. Tray clicks pass
// checkFocus=false because the tray itself holds focus at that point.
func (v *Visibility) Toggle(checkFocus bool) {
	windows := v.reg.Windows()
	if len(windows) == 0 {
		return
	}
	runInBackground := v.env.Settings.Snapshot().RunInBackground
	before := v.snapshot(windows)

	if v.restore(windows, before, runInBackground) {
		return
	}

	open := false
	for _, w := range windows {
		if before[w] && (!checkFocus || v.env.Host.IsFocused(w)) {
			open = true
			break
		}
	}
	if open {
		v.hide(windows, runInBackground)
	} else {
		v.show(windows)
	}
	v.last = &toggleRecord{windows: windows, before: before, after: v.snapshot(windows)}
}

// restore undoes the previous toggle when nothing changed since it ran.
func (v *Visibility) restore(windows []platform.WindowID, current map[platform.WindowID]bool, runInBackground bool) bool {
	last := v.last
	v.last = nil
	if last == nil || !slices.Equal(last.windows, windows) || !maps.Equal(last.after, current) {
		return false
	}

	var reshow, rehide []platform.WindowID
	for _, w := range windows {
		switch {
		case last.before[w] && !current[w]:
			reshow = append(reshow, w)
		case !last.before[w] && current[w]:
			rehide = append(rehide, w)
		}
	}
	if len(rehide) > 0 {
		v.hide(rehide, runInBackground)
	}
	if len(reshow) > 0 {
		v.show(reshow)
	}
	return true
}
