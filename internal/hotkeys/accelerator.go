package hotkeys

import (
	"fmt"
	"strings"
)

// modifierTokens maps accelerator modifiers to xgbutil modifier names.
var modifierTokens = map[string]string{
	"cmdorctrl":        "control",
	"commandorcontrol": "control",
	"ctrl":             "control",
	"control":          "control",
	"shift":            "shift",
	"alt":              "mod1",
	"option":           "mod1",
	"altgr":            "mod5",
	"super":            "mod4",
	"meta":             "mod4",
	"cmd":              "mod4",
	"command":          "mod4",
}

// keyTokens maps accelerator key names to X keysym names.
var keyTokens = map[string]string{
	"plus":      "plus",
	"space":     "space",
	"tab":       "Tab",
	"enter":     "Return",
	"return":    "Return",
	"esc":       "Escape",
	"escape":    "Escape",
	"backspace": "BackSpace",
	"delete":    "Delete",
	"insert":    "Insert",
	"home":      "Home",
	"end":       "End",
	"pageup":    "Prior",
	"pagedown":  "Next",
	"up":        "Up",
	"down":      "Down",
	"left":      "Left",
	"right":     "Right",
	",":         "comma",
	".":         "period",
	"/":         "slash",
	";":         "semicolon",
	"'":         "apostrophe",
	"[":         "bracketleft",
	"]":         "bracketright",
	"\\":        "backslash",
	"-":         "minus",
	"=":         "equal",
	"`":         "grave",
}

func splitAccelerator(accelerator string) []string {
	accelerator = strings.TrimSpace(accelerator)
	if accelerator == "" {
		return nil
	}
	// "Ctrl++" binds the plus key.
	if strings.HasSuffix(accelerator, "++") {
		parts := strings.Split(strings.TrimSuffix(accelerator, "++"), "+")
		return append(parts, "Plus")
	}
	return strings.Split(accelerator, "+")
}

// ToKeySequence converts an accelerator such as "CmdOrCtrl+Shift+Tab" into
// the xgbutil key sequence "control-shift-Tab".
func ToKeySequence(accelerator string) (string, error) {
	parts := splitAccelerator(accelerator)
	if len(parts) == 0 {
		return "", fmt.Errorf("empty accelerator")
	}

	var mods []string
	key := ""
	for i, raw := range parts {
		token := strings.TrimSpace(raw)
		lower := strings.ToLower(token)
		if token == "" {
			return "", fmt.Errorf("invalid accelerator %q", accelerator)
		}
		if mod, ok := modifierTokens[lower]; ok && i < len(parts)-1 {
			mods = append(mods, mod)
			continue
		}
		if i != len(parts)-1 {
			return "", fmt.Errorf("invalid accelerator %q: unknown modifier %q", accelerator, token)
		}
		key = keysymFor(token)
	}
	if key == "" {
		return "", fmt.Errorf("invalid accelerator %q: missing key", accelerator)
	}
	return strings.Join(append(mods, key), "-"), nil
}

func keysymFor(token string) string {
	lower := strings.ToLower(token)
	if sym, ok := keyTokens[lower]; ok {
		return sym
	}
	if len(token) == 1 {
		return lower
	}
	// Function keys and anything else already named like a keysym.
	if len(lower) >= 2 && lower[0] == 'f' && strings.Trim(lower[1:], "0123456789") == "" {
		return "F" + lower[1:]
	}
	return token
}

// Display returns the label shown next to a menu entry. On Linux
// "CmdOrCtrl" is shown as "Ctrl".
func Display(accelerator string) string {
	parts := splitAccelerator(accelerator)
	for i, p := range parts {
		switch strings.ToLower(strings.TrimSpace(p)) {
		case "cmdorctrl", "commandorcontrol", "control", "ctrl":
			parts[i] = "Ctrl"
		case "super", "meta", "cmd", "command":
			parts[i] = "Super"
		case "option":
			parts[i] = "Alt"
		default:
			parts[i] = strings.TrimSpace(p)
		}
	}
	return strings.Join(parts, "+")
}
