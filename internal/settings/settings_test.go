package settings

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.True(t, d.CreateTrayIcon)
	assert.False(t, d.RunInBackground)
	assert.Equal(t, "CmdOrCtrl+Shift+Tab", d.ToggleWindowFocusHotkey)
	assert.Equal(t, "CmdOrCtrl+Shift+Q", d.QuickNoteHotkey)
	assert.Equal(t, "YYYY-MM-DD", d.QuickNoteDateFormat)
	assert.Equal(t, "{{vault}}", d.TrayIconTooltip)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Run in background", Label(RunInBackground))
	assert.Equal(t, "Toggle window focus hotkey", Label(ToggleWindowFocusHotkey))
	assert.Equal(t, "Launch on startup", Label(LaunchOnStartup))
}

func TestSectionsCoverEveryKey(t *testing.T) {
	secs := Sections()
	require.Len(t, secs, 2)
	assert.Equal(t, "Window management", secs[0].Heading)
	assert.Equal(t, "Quick notes", secs[1].Heading)
	assert.Len(t, Options(), 11)
	for _, opt := range Options() {
		_, err := Defaults().Get(opt.Key)
		assert.NoError(t, err, opt.Key)
	}
}

func TestHotkeyPlaceholderFromDefault(t *testing.T) {
	opt, err := Lookup(QuickNoteHotkey)
	require.NoError(t, err)
	assert.Equal(t, KindHotkey, opt.Kind)
	assert.Equal(t, "Example: CmdOrCtrl+Shift+Q", opt.Placeholder)
}

func TestParseByKind(t *testing.T) {
	toggle, _ := Lookup(RunInBackground)
	v, err := toggle.Parse("true")
	require.NoError(t, err)
	assert.True(t, v.Bool)
	_, err = toggle.Parse("maybe")
	assert.Error(t, err)

	hotkey, _ := Lookup(ToggleWindowFocusHotkey)
	_, err = hotkey.Parse("Hyper+Nope+X")
	assert.Error(t, err)
	v, err = hotkey.Parse("")
	require.NoError(t, err)
	assert.Equal(t, "", v.String)

	moment, _ := Lookup(QuickNoteDateFormat)
	v, err = moment.Parse("  ")
	require.NoError(t, err)
	assert.Equal(t, DefaultDateFormat, v.String)
}

func TestSetOrdersHooksAroundCommit(t *testing.T) {
	store := NewStore(Defaults(), quietLogger())

	var events []string
	store.OnBeforeChange(RunInBackground, func(s Settings) {
		events = append(events, "before:"+boolString(s.RunInBackground))
	})
	store.OnChange(RunInBackground, func(s Settings) {
		events = append(events, "after:"+boolString(s.RunInBackground))
		assert.True(t, store.Snapshot().RunInBackground, "reaction must observe the committed value")
	})

	require.NoError(t, store.Set(RunInBackground, "true"))
	assert.Equal(t, []string{"before:false", "after:true"}, events)
}

func TestSetUnknownKey(t *testing.T) {
	store := NewStore(Defaults(), quietLogger())
	err := store.Set(Key("nope"), "1")
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestHookDisposer(t *testing.T) {
	store := NewStore(Defaults(), quietLogger())
	calls := 0
	dispose := store.OnChange(HideTaskbarIcon, func(Settings) { calls++ })
	require.NoError(t, store.Set(HideTaskbarIcon, "true"))
	dispose()
	require.NoError(t, store.Set(HideTaskbarIcon, "false"))
	assert.Equal(t, 1, calls)
}

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "missing.yaml"), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, Defaults(), store.Snapshot())
}

func TestOpenRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("runInBackgroud: true\n"), 0644))
	_, err := Open(path, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestSetPersistsAsynchronously(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vault.settings.yaml")
	store, err := Open(path, quietLogger())
	require.NoError(t, err)

	require.NoError(t, store.Set(QuickNoteLocation, "notes/quick"))
	require.NoError(t, store.Set(RunInBackground, "true"))
	store.Flush()

	reopened, err := Open(path, quietLogger())
	require.NoError(t, err)
	got := reopened.Snapshot()
	assert.Equal(t, "notes/quick", got.QuickNoteLocation)
	assert.True(t, got.RunInBackground)
	assert.True(t, got.CreateTrayIcon)
}

func TestOptionDisplay(t *testing.T) {
	s := Defaults()
	hotkey, _ := Lookup(ToggleWindowFocusHotkey)
	assert.Equal(t, "Ctrl+Shift+Tab", hotkey.Display(s))
	image, _ := Lookup(TrayIconImage)
	assert.Equal(t, "(built-in)", image.Display(s))
	toggle, _ := Lookup(CreateTrayIcon)
	assert.Equal(t, "on", toggle.Display(s))
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
