package settings

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/1broseidon/vaulttray/internal/hotkeys"
)

// Kind is the variant tag of an option.
type Kind int

const (
	KindToggle Kind = iota
	KindText
	KindHotkey
	KindImage
	KindMoment
)

func (k Kind) String() string {
	switch k {
	case KindToggle:
		return "toggle"
	case KindText:
		return "text"
	case KindHotkey:
		return "hotkey"
	case KindImage:
		return "image"
	case KindMoment:
		return "moment"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Option describes one setting for editors and validation.
type Option struct {
	Key         Key
	Kind        Kind
	Description string
	Placeholder string
	// RestartRequired marks options that only apply after the daemon restarts.
	RestartRequired bool
}

// Section groups options under a heading.
type Section struct {
	Heading string
	Options []Option
}

const (
	acceleratorHelp = "This hotkey is registered globally and will be detected even if the app does not have keyboard focus. Format: Electron accelerator, for example CmdOrCtrl+Shift+Tab."
	momentHelp      = "Format: Moment.js format string."
)

var sections = []Section{
	{
		Heading: "Window management",
		Options: []Option{
			{Key: LaunchOnStartup, Kind: KindToggle, Description: "Open the app automatically whenever you log into your computer."},
			{Key: HideOnLaunch, Kind: KindToggle, Description: "Minimises the app automatically whenever it is launched. If \"Run in background\" is enabled, windows are hidden to the system tray instead of minimised to the taskbar."},
			{Key: RunInBackground, Kind: KindToggle, Description: "Hides the app and keeps it running in the background instead of quitting it when pressing the window close button or the toggle focus hotkey."},
			{Key: HideTaskbarIcon, Kind: KindToggle, Description: "Hides the window's icon from the dock/taskbar. Enabling the tray icon first is recommended. This may not work on all Linux desktops."},
			{Key: CreateTrayIcon, Kind: KindToggle, Description: "Adds an icon to the system tray to bring hidden windows back into focus on click or force a full quit/relaunch through its menu."},
			{Key: TrayIconImage, Kind: KindImage, Description: "Tray icon image: a data URL, base64 encoded PNG or a path to an image file. Leave empty for the built-in icon.", Placeholder: "data:image/png;base64,..."},
			{Key: TrayIconTooltip, Kind: KindText, Description: "Tooltip shown when hovering the tray icon. {{vault}} is replaced with the vault name."},
			{Key: ToggleWindowFocusHotkey, Kind: KindHotkey, Description: acceleratorHelp},
		},
	},
	{
		Heading: "Quick notes",
		Options: []Option{
			{Key: QuickNoteLocation, Kind: KindText, Description: "New quick notes will be placed in this folder.", Placeholder: "Example: notes/quick"},
			{Key: QuickNoteDateFormat, Kind: KindMoment, Description: "New quick notes will use a filename of this pattern. " + momentHelp},
			{Key: QuickNoteHotkey, Kind: KindHotkey, Description: acceleratorHelp},
		},
	},
}

func init() {
	defaults := Defaults()
	for si := range sections {
		for oi := range sections[si].Options {
			opt := &sections[si].Options[oi]
			if opt.Placeholder != "" {
				continue
			}
			if v, _ := defaults.Get(opt.Key); v != "" && opt.Kind != KindToggle {
				opt.Placeholder = "Example: " + v
			}
		}
	}
}

// Sections returns the options grouped by heading, in display order.
func Sections() []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		out[i] = Section{Heading: s.Heading, Options: append([]Option(nil), s.Options...)}
	}
	return out
}

// Options returns every option in display order.
func Options() []Option {
	var out []Option
	for _, s := range sections {
		out = append(out, s.Options...)
	}
	return out
}

// Lookup finds the option for key.
func Lookup(key Key) (Option, error) {
	for _, s := range sections {
		for _, opt := range s.Options {
			if opt.Key == key {
				return opt, nil
			}
		}
	}
	return Option{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Label turns a camelCase key into a sentence-case label:
// "runInBackground" becomes "Run in background".
func Label(key Key) string {
	s := string(key)
	if s == "" {
		return ""
	}
	var words []string
	start := 0
	runes := []rune(s)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	words = append(words, string(runes[start:]))
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	label := strings.Join(words, " ")
	first := []rune(label)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}

// Label returns the display label of the option.
func (o Option) Label() string {
	return Label(o.Key)
}

// Parse validates raw input for the option and returns the typed value.
func (o Option) Parse(raw string) (Value, error) {
	switch o.Kind {
	case KindToggle:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("%s: expected true or false, got %q", o.Key, raw)
		}
		return Value{Bool: b}, nil
	case KindHotkey:
		accelerator := strings.TrimSpace(raw)
		if accelerator == "" {
			return Value{}, nil
		}
		if _, err := hotkeys.ToKeySequence(accelerator); err != nil {
			return Value{}, fmt.Errorf("%s: %w", o.Key, err)
		}
		return Value{String: accelerator}, nil
	case KindMoment:
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			pattern = DefaultDateFormat
		}
		return Value{String: pattern}, nil
	case KindImage:
		// Invalid image data is accepted here; the tray falls back to the
		// built-in icon when it cannot decode it.
		return Value{String: strings.TrimSpace(raw)}, nil
	case KindText:
		return Value{String: raw}, nil
	default:
		return Value{}, fmt.Errorf("%s: unsupported option kind %s", o.Key, o.Kind)
	}
}

// Display returns the current value formatted for an editor.
func (o Option) Display(s Settings) string {
	v, _ := s.Get(o.Key)
	return o.DisplayValue(v)
}

// DisplayValue renders the string form of a value of this option.
func (o Option) DisplayValue(v string) string {
	switch o.Kind {
	case KindToggle:
		if v == "true" {
			return "on"
		}
		return "off"
	case KindHotkey:
		if v == "" {
			return "(disabled)"
		}
		return hotkeys.Display(v)
	case KindImage:
		if v == "" {
			return "(built-in)"
		}
		if len(v) > 32 {
			return v[:29] + "..."
		}
		return v
	default:
		return v
	}
}
