package shell

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1broseidon/vaulttray/internal/platform"
	"github.com/1broseidon/vaulttray/internal/platform/platformtest"
	"github.com/1broseidon/vaulttray/internal/settings"
	"github.com/1broseidon/vaulttray/internal/tray"
)

type fakeBinder struct {
	bound map[string]func()
}

func (f *fakeBinder) Bind(accelerator string, callback func()) error {
	if _, ok := f.bound[accelerator]; ok {
		return errors.New("accelerator already grabbed")
	}
	f.bound[accelerator] = callback
	return nil
}

func (f *fakeBinder) Unbind(accelerator string) error {
	delete(f.bound, accelerator)
	return nil
}

type fakeIcon struct {
	tooltip   string
	destroyed bool
}

func (f *fakeIcon) SetImage([]byte) {}
func (f *fakeIcon) SetTooltip(tooltip string) { f.tooltip = tooltip }
func (f *fakeIcon) SetMenu([]tray.MenuItem) {}
func (f *fakeIcon) OnClick(func(openMenu func())) {}
func (f *fakeIcon) Destroy() { f.destroyed = true }

type fakeTray struct {
	icons []*fakeIcon
}

func (f *fakeTray) Create() (tray.Icon, error) {
	icon := &fakeIcon{}
	f.icons = append(f.icons, icon)
	return icon, nil
}

func (f *fakeTray) live() int {
	n := 0
	for _, icon := range f.icons {
		if !icon.destroyed {
			n++
		}
	}
	return n
}

type loginCall struct{ enabled, hidden bool }

type fakeLogins struct {
	calls []loginCall
}

func (f *fakeLogins) SetLoginItem(enabled, hidden bool) error {
	f.calls = append(f.calls, loginCall{enabled, hidden})
	return nil
}

func (f *fakeLogins) last() loginCall {
	return f.calls[len(f.calls)-1]
}

type fakeNotes struct {
	folder, pattern string
	created         int
}

func (f *fakeNotes) Create(folder, pattern string) (string, error) {
	f.folder, f.pattern = folder, pattern
	f.created++
	return folder + "/note.md", nil
}

type harness struct {
	host   *platformtest.Host
	store  *settings.Store
	binder *fakeBinder
	tray   *fakeTray
	logins *fakeLogins
	notes  *fakeNotes
	exits  int
	c      *Controller
}

func newHarness(t *testing.T, flags platform.Flags, s settings.Settings) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := &harness{
		host:   platformtest.New(flags),
		store:  settings.NewStore(s, logger),
		binder: &fakeBinder{bound: make(map[string]func())},
		tray:   &fakeTray{},
		logins: &fakeLogins{},
		notes:  &fakeNotes{},
	}
	return h
}

func (h *harness) start(t *testing.T) *Controller {
	t.Helper()
	h.c = New(Deps{
		Host:       h.host,
		Binder:     h.binder,
		Tray:       h.tray,
		LoginItems: h.logins,
		Notes:      h.notes,
		Settings:   h.store,
		Vault:      "Personal",
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnExit:     func() { h.exits++ },
	})
	require.NoError(t, h.c.Start())
	return h.c
}

func (h *harness) visible(ids ...platform.WindowID) []bool {
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = h.host.IsVisible(id)
	}
	return out
}

func background() settings.Settings {
	s := settings.Defaults()
	s.RunInBackground = true
	return s
}

func TestStartRegistersFocusedWindowFirst(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	a := h.host.AddWindow("a - Personal", true)
	b := h.host.AddWindow("b - Personal", true)
	h.host.AddWindow("c - Work", false)
	h.host.SetFocused(b)

	c := h.start(t)
	assert.Equal(t, []platform.WindowID{b, a}, c.reg.Windows())
}

func TestRegistryFollowsHostEvents(t *testing.T) {
	s := settings.Defaults()
	s.HideTaskbarIcon = true
	h := newHarness(t, platform.Flags{}, s)
	a := h.host.AddWindow("a", true)
	c := h.start(t)

	b := h.host.AddWindow("b", true)
	sibling := h.host.AddWindow("other vault", false)
	assert.Equal(t, []platform.WindowID{a, b}, c.reg.Windows())
	assert.False(t, c.reg.Contains(sibling))

	win, _ := h.host.Window(b)
	assert.True(t, win.SkipTaskbar, "new windows honour the taskbar setting")

	h.host.UserMaximize(b, true)
	assert.True(t, c.reg.IsMaximized(b))
	h.host.UserMaximize(b, false)
	assert.False(t, c.reg.IsMaximized(b))

	h.host.UserMaximize(b, true)
	require.NoError(t, h.host.Destroy(b))
	assert.Equal(t, []platform.WindowID{a}, c.reg.Windows())
	assert.False(t, c.reg.IsMaximized(b), "maximized set stays a subset of members")
}

func TestShowAllFocusesEachWindowAtMostOnceAndTargetLast(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	c3 := h.host.AddWindow("c", true)
	h.host.UserMaximize(b, true)
	h.host.UserMaximize(c3, true)
	c := h.start(t)

	for _, w := range []platform.WindowID{a, b, c3} {
		h.host.SetVisible(w, false)
	}
	h.host.SetFocused(c3)
	h.host.ResetCalls()

	c.ShowAll()

	calls := h.host.Calls()
	focusCount := map[string]int{}
	for _, call := range calls {
		if len(call) > 6 && call[:6] == "focus:" {
			focusCount[call]++
		}
	}
	for call, n := range focusCount {
		assert.Equal(t, 1, n, "%s focused more than once", call)
	}
	assert.Equal(t, "focus:3", calls[len(calls)-1])
	assert.Equal(t, 1, focusCount["focus:2"])
	assert.Zero(t, focusCount["focus:1"], "normal windows are only shown")
	assert.Equal(t, []bool{true, true, true}, h.visible(a, b, c3))
}

func TestShowAllFallsBackToFirstWindow(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	a := h.host.AddWindow("a", true)
	h.host.AddWindow("b", true)
	c := h.start(t)

	h.host.SetFocused(0)
	c.ShowAll()
	focused, ok := h.host.FocusedWindow()
	require.True(t, ok)
	assert.Equal(t, a, focused)
}

func TestHideAll(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	h.host.SetFocused(a)
	c := h.start(t)
	h.host.ResetCalls()

	c.vis.HideAll(false)
	assert.Equal(t, []string{"blur:1", "minimize:1", "minimize:2"}, h.host.Calls())

	c.ShowAll()
	h.host.ResetCalls()
	c.vis.HideAll(true)
	assert.Contains(t, h.host.Calls(), "hide:2")
	win, _ := h.host.Window(b)
	assert.False(t, win.Minimized)
	assert.Equal(t, []bool{false, false}, h.visible(a, b))
}

func TestToggleTwiceRestoresVisibilityAfterHide(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	hidden := h.host.AddWindow("c", true)
	h.host.SetVisible(hidden, false)
	h.host.SetFocused(a)
	c := h.start(t)

	original := h.visible(a, b, hidden)
	c.Toggle(true)
	assert.Equal(t, []bool{false, false, false}, h.visible(a, b, hidden))
	c.Toggle(true)
	assert.Equal(t, original, h.visible(a, b, hidden))
}

func TestToggleTwiceRestoresVisibilityAfterShow(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	h.host.SetVisible(b, false)
	h.host.SetFocused(0)
	c := h.start(t)

	original := h.visible(a, b)
	c.Toggle(true)
	assert.Equal(t, []bool{true, true}, h.visible(a, b), "visible but unfocused windows are shown")
	c.Toggle(true)
	assert.Equal(t, original, h.visible(a, b))
}

func TestToggleAfterExternalChangeUsesPlainSemantics(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	h.host.SetVisible(b, false)
	h.host.SetFocused(a)
	c := h.start(t)

	c.Toggle(true)
	h.host.SetVisible(a, true)
	h.host.SetVisible(a, false)
	h.host.SetVisible(b, true)
	h.host.SetVisible(b, false)
	// Same visibility as after the first toggle, so this restores.
	c.Toggle(true)
	assert.Equal(t, []bool{true, false}, h.visible(a, b))

	c.Toggle(false)
	assert.Equal(t, []bool{false, false}, h.visible(a, b))
	h.host.SetVisible(b, true)
	c.Toggle(false)
	assert.Equal(t, []bool{false, false}, h.visible(a, b), "visible window hides on tray click")
}

func TestTrayClickTogglesOnVisibilityAlone(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	h.host.SetFocused(0)
	c := h.start(t)

	c.Toggle(true)
	assert.True(t, h.host.IsVisible(a), "unfocused window is shown by the hotkey")
	c.vis.last = nil
	h.host.SetFocused(0)
	c.Toggle(false)
	assert.False(t, h.host.IsVisible(a), "visible window is hidden by a tray click")
}

func TestRunInBackgroundOnOffLeavesNoListeners(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	c := h.start(t)

	require.NoError(t, h.store.Set(settings.RunInBackground, "true"))
	assert.True(t, c.interceptor.Active())
	assert.Equal(t, 4, h.host.CloseListeners())
	assert.False(t, h.host.UserClose(a), "close is turned into hide")
	assert.False(t, h.host.IsVisible(a))
	assert.True(t, c.reg.Contains(a))

	require.NoError(t, h.store.Set(settings.RunInBackground, "false"))
	assert.False(t, c.interceptor.Active())
	assert.Zero(t, h.host.CloseListeners())
	assert.True(t, h.host.IsVisible(a), "disabling run in background shows windows")
	assert.True(t, h.host.UserClose(b), "close goes through once interception is off")
	assert.False(t, c.reg.Contains(b))

	c.interceptor.Disable()
	assert.Zero(t, h.host.CloseListeners())
}

func TestInterceptionCoversLaterWindows(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	h.host.AddWindow("a", true)
	c := h.start(t)

	b := h.host.AddWindow("b", true)
	assert.Equal(t, 2, c.interceptor.Installed())
	assert.False(t, h.host.UserClose(b))

	c.interceptor.Enable()
	assert.Equal(t, 4, h.host.CloseListeners(), "enable is idempotent")
}

func TestInterceptionInstallErrorsAreSwallowed(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	h.host.Unsupported = true
	a := h.host.AddWindow("a", true)
	c := h.start(t)

	assert.True(t, c.interceptor.Active())
	assert.Zero(t, c.interceptor.Installed())
	assert.True(t, h.host.UserClose(a))
}

func TestForcedCloseOfLastFocusedWindowKeepsIt(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	h.host.SetFocused(a)
	c := h.start(t)

	h.host.ReportDestroyed(a)
	assert.True(t, c.reg.Contains(a))
	assert.Equal(t, []platform.WindowID{a}, c.reg.Hidden())
	assert.Equal(t, []bool{false}, h.visible(a))
}

func TestDestroyedLastWindowIsEvictedWhenGone(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	h.host.SetFocused(a)
	c := h.start(t)
	h.host.ResetCalls()

	require.NoError(t, h.host.Destroy(a))
	assert.False(t, c.reg.Contains(a))
	assert.NotContains(t, h.host.Calls(), "hide:1")
}

func TestShowAllRemaximizesAfterWithdrawClearsState(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	c := h.start(t)
	h.host.UserMaximize(a, true)

	c.vis.HideAll(true)
	// The window manager drops _NET_WM_STATE from withdrawn windows.
	h.host.UserMaximize(a, false)
	assert.True(t, c.reg.IsMaximized(a))

	h.host.ResetCalls()
	c.ShowAll()
	assert.Contains(t, h.host.Calls(), "maximize:1")
	win, _ := h.host.Window(a)
	assert.True(t, win.Maximized)
	assert.Empty(t, c.reg.Hidden())

	// Once shown, an unmaximize is the user's again.
	h.host.UserMaximize(a, false)
	assert.False(t, c.reg.IsMaximized(a))
	assert.Equal(t, []bool{true, true}, h.visible(a, b))
}

func TestDetachShowsHiddenWindows(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	c := h.start(t)

	c.HideAll()
	require.Equal(t, []bool{false, false}, h.visible(a, b))
	require.Equal(t, []platform.WindowID{a, b}, c.reg.Hidden())

	c.Detach()
	assert.Equal(t, []bool{true, true}, h.visible(a, b))
	assert.Zero(t, h.tray.live())
	assert.False(t, h.host.Terminated())
	assert.Zero(t, h.exits)
}

func TestCloseInstanceTerminatesWhenOnlyVault(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	h.host.AddWindow("a", true)
	h.host.AddWindow("b", true)
	h.start(t)

	require.NoError(t, h.c.RunCommand("close-vault"))
	assert.True(t, h.host.Terminated())
	assert.Equal(t, 1, h.exits)
}

func TestCloseInstanceKeepsSiblings(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	sibling := h.host.AddWindow("other", false)
	c := h.start(t)

	c.CloseVault()
	assert.False(t, h.host.Terminated())
	all, _ := h.host.AllWindows()
	assert.Equal(t, []platform.WindowID{sibling}, all)
	_, aliveA := h.host.Window(a)
	_, aliveB := h.host.Window(b)
	assert.False(t, aliveA || aliveB)
	assert.Zero(t, c.reg.Len())
	assert.Equal(t, 1, h.exits)
}

func TestCloseInstanceKeepsHiddenSiblings(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	h.host.AddWindow("a", true)
	sibling := h.host.AddWindow("other", false)
	require.NoError(t, h.host.Hide(sibling))
	c := h.start(t)
	c.HideAll()

	c.CloseVault()
	assert.False(t, h.host.Terminated())
	_, alive := h.host.Window(sibling)
	assert.True(t, alive)
}

func TestQuitTerminatesWhileEveryWindowIsHidden(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	c := h.start(t)
	c.HideAll()
	require.Equal(t, []bool{false}, h.visible(a))

	c.Quit()
	assert.True(t, h.host.Terminated())
	assert.Equal(t, 1, h.exits)
}

func TestProcessUnloadTearsEverythingDown(t *testing.T) {
	s := background()
	s.HideTaskbarIcon = true
	h := newHarness(t, platform.Flags{SeparateDock: true}, s)
	a := h.host.AddWindow("a", true)
	c := h.start(t)

	require.Len(t, h.binder.bound, 2)
	require.True(t, h.host.DockHidden())

	c.Stop()
	c.Stop()

	assert.Empty(t, h.binder.bound)
	assert.False(t, h.host.DockHidden())
	win, _ := h.host.Window(a)
	assert.False(t, win.SkipTaskbar)
	assert.False(t, c.interceptor.Active())
	assert.Zero(t, h.host.CloseListeners())
	assert.Zero(t, h.tray.live())
	assert.False(t, c.Status().Tray.Present)

	// Reactions are detached.
	require.NoError(t, h.store.Set(settings.CreateTrayIcon, "true"))
	assert.Zero(t, h.tray.live())
}

func TestHotkeyChangeNeverDoubleBinds(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	h.host.AddWindow("a", true)
	c := h.start(t)

	require.NoError(t, h.store.Set(settings.ToggleWindowFocusHotkey, "Alt+T"))
	assert.Equal(t, []string{"Alt+T", "CmdOrCtrl+Shift+Q"}, c.hotkeys.Active())
	assert.NotContains(t, h.binder.bound, "CmdOrCtrl+Shift+Tab")

	require.NoError(t, h.store.Set(settings.ToggleWindowFocusHotkey, "Alt+T"))
	assert.Equal(t, []string{"Alt+T", "CmdOrCtrl+Shift+Q"}, c.hotkeys.Active())
	assert.Len(t, h.binder.bound, 2)

	require.NoError(t, h.store.Set(settings.QuickNoteHotkey, ""))
	assert.Equal(t, []string{"Alt+T"}, c.hotkeys.Active())
}

func TestHotkeysDriveActions(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	h.host.SetFocused(a)
	h.start(t)

	h.binder.bound["CmdOrCtrl+Shift+Tab"]()
	assert.False(t, h.host.IsVisible(a))

	require.NoError(t, h.store.Set(settings.QuickNoteLocation, "notes/quick"))
	h.binder.bound["CmdOrCtrl+Shift+Q"]()
	assert.Equal(t, 1, h.notes.created)
	assert.Equal(t, "notes/quick", h.notes.folder)
	assert.Equal(t, "YYYY-MM-DD", h.notes.pattern)
	assert.True(t, h.host.IsVisible(a), "quick note shows the vault")
}

func TestTrayFollowsSettings(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	h.host.AddWindow("a", true)
	c := h.start(t)
	require.Equal(t, 1, h.tray.live())

	require.NoError(t, h.store.Set(settings.TrayIconTooltip, "{{vault}} | Notes"))
	assert.Equal(t, 1, h.tray.live())
	assert.Equal(t, "Personal | Notes", c.Status().Tray.Tooltip)

	require.NoError(t, h.store.Set(settings.CreateTrayIcon, "false"))
	assert.Zero(t, h.tray.live())
	assert.False(t, c.Status().Tray.Present)
}

func TestDockSuppressionReassertedOnFocus(t *testing.T) {
	h := newHarness(t, platform.Flags{SeparateDock: true}, settings.Defaults())
	a := h.host.AddWindow("a", true)
	sibling := h.host.AddWindow("other", false)
	h.start(t)

	require.NoError(t, h.store.Set(settings.HideTaskbarIcon, "true"))
	assert.True(t, h.host.DockHidden())

	h.host.ForceDockHidden(false)
	h.host.SetFocused(sibling)
	assert.False(t, h.host.DockHidden())
	h.host.SetFocused(a)
	assert.True(t, h.host.DockHidden())

	require.NoError(t, h.store.Set(settings.HideTaskbarIcon, "false"))
	assert.False(t, h.host.DockHidden())
	h.host.SetFocused(a)
	assert.False(t, h.host.DockHidden())
}

func TestLoginItemFollowsSettings(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	h.start(t)
	assert.Equal(t, loginCall{false, false}, h.logins.last())

	require.NoError(t, h.store.Set(settings.LaunchOnStartup, "true"))
	assert.Equal(t, loginCall{true, false}, h.logins.last())
	require.NoError(t, h.store.Set(settings.HideOnLaunch, "true"))
	assert.Equal(t, loginCall{true, false}, h.logins.last())
	require.NoError(t, h.store.Set(settings.RunInBackground, "true"))
	assert.Equal(t, loginCall{true, true}, h.logins.last())
}

func TestHideOnLaunch(t *testing.T) {
	s := background()
	s.HideOnLaunch = true
	h := newHarness(t, platform.Flags{}, s)
	a := h.host.AddWindow("a", true)
	h.start(t)

	assert.False(t, h.host.IsVisible(a))
	win, _ := h.host.Window(a)
	assert.False(t, win.Minimized, "run in background hides instead of minimizing")
}

func TestCommands(t *testing.T) {
	h := newHarness(t, platform.Flags{}, settings.Defaults())
	h.host.AddWindow("a", true)
	c := h.start(t)

	names := map[string]bool{}
	for _, cmd := range c.Commands() {
		names[cmd.Name] = true
	}
	assert.True(t, names["Relaunch"])
	assert.True(t, names["Close Vault"])

	require.NoError(t, c.RunCommand("relaunch"))
	assert.Equal(t, 1, h.host.Relaunches())
	assert.ErrorIs(t, c.RunCommand("nope"), ErrUnknownCommand)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a - Personal", true)
	h.host.SetFocused(a)
	c := h.start(t)

	st := c.Status()
	assert.Equal(t, "Personal", st.Vault)
	assert.Len(t, st.ID, 36)
	require.Len(t, st.Windows, 1)
	assert.Equal(t, "a - Personal", st.Windows[0].Title)
	assert.True(t, st.Windows[0].Focused)
	assert.True(t, st.Intercepted)
	assert.Len(t, st.Hotkeys, 2)
	assert.True(t, st.Tray.Present)
}

func TestReconcileRepairsMissedEvents(t *testing.T) {
	h := newHarness(t, platform.Flags{}, background())
	a := h.host.AddWindow("a", true)
	b := h.host.AddWindow("b", true)
	c := h.start(t)

	require.NoError(t, h.host.Hide(a))
	missed := h.host.AddWindowQuiet("late", true)
	h.host.AddWindowQuiet("other vault", false)
	h.host.Vanish(b)

	added, removed := c.Reconcile()
	assert.Equal(t, []platform.WindowID{missed}, added)
	assert.Equal(t, []platform.WindowID{b}, removed)
	assert.Equal(t, []platform.WindowID{a, missed}, c.reg.Windows())
	assert.Equal(t, 2, c.interceptor.Installed(), "late window is intercepted too")

	added, removed = c.Reconcile()
	assert.Empty(t, added)
	assert.Empty(t, removed)
}
