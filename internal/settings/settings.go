package settings

import (
	"errors"
	"fmt"
	"strconv"
)

// Key names a setting. The string form is the key used in the settings file.
type Key string

const (
	LaunchOnStartup         Key = "launchOnStartup"
	HideOnLaunch            Key = "hideOnLaunch"
	RunInBackground         Key = "runInBackground"
	HideTaskbarIcon         Key = "hideTaskbarIcon"
	CreateTrayIcon          Key = "createTrayIcon"
	TrayIconImage           Key = "trayIconImage"
	TrayIconTooltip         Key = "trayIconTooltip"
	ToggleWindowFocusHotkey Key = "toggleWindowFocusHotkey"
	QuickNoteHotkey         Key = "quickNoteHotkey"
	QuickNoteLocation       Key = "quickNoteLocation"
	QuickNoteDateFormat     Key = "quickNoteDateFormat"
)

const (
	DefaultDateFormat   = "YYYY-MM-DD"
	DefaultToggleHotkey = "CmdOrCtrl+Shift+Tab"
	DefaultQuickHotkey  = "CmdOrCtrl+Shift+Q"
	DefaultTooltip      = "{{vault}}"
)

// ErrUnknownKey is returned for keys that are not settings.
var ErrUnknownKey = errors.New("unknown setting")

// Settings is the flat key/value configuration of one vault.
type Settings struct {
	LaunchOnStartup         bool   `yaml:"launchOnStartup" json:"launchOnStartup"`
	HideOnLaunch            bool   `yaml:"hideOnLaunch" json:"hideOnLaunch"`
	RunInBackground         bool   `yaml:"runInBackground" json:"runInBackground"`
	HideTaskbarIcon         bool   `yaml:"hideTaskbarIcon" json:"hideTaskbarIcon"`
	CreateTrayIcon          bool   `yaml:"createTrayIcon" json:"createTrayIcon"`
	TrayIconImage           string `yaml:"trayIconImage,omitempty" json:"trayIconImage,omitempty"`
	TrayIconTooltip         string `yaml:"trayIconTooltip" json:"trayIconTooltip"`
	ToggleWindowFocusHotkey string `yaml:"toggleWindowFocusHotkey" json:"toggleWindowFocusHotkey"`
	QuickNoteHotkey         string `yaml:"quickNoteHotkey" json:"quickNoteHotkey"`
	QuickNoteLocation       string `yaml:"quickNoteLocation" json:"quickNoteLocation"`
	QuickNoteDateFormat     string `yaml:"quickNoteDateFormat" json:"quickNoteDateFormat"`
}

// Defaults returns the settings of a vault that has never been configured.
func Defaults() Settings {
	return Settings{
		CreateTrayIcon:          true,
		TrayIconTooltip:         DefaultTooltip,
		ToggleWindowFocusHotkey: DefaultToggleHotkey,
		QuickNoteHotkey:         DefaultQuickHotkey,
		QuickNoteDateFormat:     DefaultDateFormat,
	}
}

// HiddenAtLaunch reports whether a login-item launch should start fully
// suppressed.
func (s Settings) HiddenAtLaunch() bool {
	return s.RunInBackground && s.HideOnLaunch
}

func (s *Settings) boolField(key Key) *bool {
	switch key {
	case LaunchOnStartup:
		return &s.LaunchOnStartup
	case HideOnLaunch:
		return &s.HideOnLaunch
	case RunInBackground:
		return &s.RunInBackground
	case HideTaskbarIcon:
		return &s.HideTaskbarIcon
	case CreateTrayIcon:
		return &s.CreateTrayIcon
	}
	return nil
}

func (s *Settings) stringField(key Key) *string {
	switch key {
	case TrayIconImage:
		return &s.TrayIconImage
	case TrayIconTooltip:
		return &s.TrayIconTooltip
	case ToggleWindowFocusHotkey:
		return &s.ToggleWindowFocusHotkey
	case QuickNoteHotkey:
		return &s.QuickNoteHotkey
	case QuickNoteLocation:
		return &s.QuickNoteLocation
	case QuickNoteDateFormat:
		return &s.QuickNoteDateFormat
	}
	return nil
}

// Get returns the string form of a setting.
func (s Settings) Get(key Key) (string, error) {
	if b := s.boolField(key); b != nil {
		return strconv.FormatBool(*b), nil
	}
	if str := s.stringField(key); str != nil {
		return *str, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Value is a parsed setting value: a bool for toggles, a string otherwise.
type Value struct {
	Bool   bool
	String string
}

func (s *Settings) set(key Key, v Value) error {
	if b := s.boolField(key); b != nil {
		*b = v.Bool
		return nil
	}
	if str := s.stringField(key); str != nil {
		*str = v.String
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Map returns every setting in string form, keyed by setting name.
func (s Settings) Map() map[string]string {
	out := make(map[string]string)
	for _, opt := range Options() {
		v, _ := s.Get(opt.Key)
		out[string(opt.Key)] = v
	}
	return out
}
