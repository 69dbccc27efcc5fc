package palette

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os/exec"
	"strconv"
	"strings"
)

type launcher struct {
	command string
	// indexOutput is set for launchers that can print the selected row
	// index instead of its text.
	indexOutput bool
	markup      bool

	run func(cmd *exec.Cmd) ([]byte, error)
}

func newLauncher(name string) *launcher {
	l := &launcher{command: name, run: (*exec.Cmd).Output}
	switch name {
	case "rofi":
		l.indexOutput, l.markup = true, true
	case "fuzzel":
		l.indexOutput = true
	}
	return l
}

func (l *launcher) Name() string { return l.command }

func (l *launcher) Show(prompt string, items []Item) (Item, error) {
	if len(items) == 0 {
		return Item{}, fmt.Errorf("palette: no items to show")
	}

	input, selected := l.formatInput(items)
	cmd := exec.Command(l.command, l.buildArgs(prompt, selected)...)
	cmd.Stdin = strings.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := l.run(cmd)
	selection := strings.TrimSpace(string(out))
	if err != nil {
		if selection == "" && isCancelExit(err) {
			return Item{}, ErrCancelled
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Item{}, fmt.Errorf("%s failed: %s", l.command, msg)
		}
		return Item{}, fmt.Errorf("%s failed: %w", l.command, err)
	}
	if selection == "" {
		return Item{}, ErrCancelled
	}
	return l.parseSelection(selection, items)
}

func (l *launcher) buildArgs(prompt string, selected int) []string {
	var args []string
	switch l.command {
	case "rofi":
		args = []string{"-dmenu", "-i", "-format", "i", "-no-custom", "-markup-rows"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
		if selected >= 0 {
			args = append(args, "-a", strconv.Itoa(selected), "-selected-row", strconv.Itoa(selected))
		}
	case "fuzzel":
		args = []string{"--dmenu", "--index"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	case "wofi":
		args = []string{"--dmenu"}
		if prompt != "" {
			args = append(args, "--prompt", prompt)
		}
	default:
		args = []string{"-i"}
		if prompt != "" {
			args = append(args, "-p", prompt)
		}
	}
	return args
}

// formatInput renders one line per item and returns the index of the first
// active item, or -1.
func (l *launcher) formatInput(items []Item) (string, int) {
	lines := make([]string, 0, len(items))
	selected := -1
	for i, item := range items {
		if item.Active && selected == -1 {
			selected = i
		}
		lines = append(lines, l.formatItem(item))
	}
	return strings.Join(lines, "\n"), selected
}

func (l *launcher) formatItem(item Item) string {
	display := sanitizeLabel(item.Label)
	if l.markup {
		display = html.EscapeString(display)
	}
	if l.command != "rofi" || item.Meta == "" {
		return display
	}
	// rofi row properties: a single NUL, then key\x1fvalue pairs.
	return display + "\x00meta\x1f" + sanitizeRofiField(item.Meta)
}

func (l *launcher) parseSelection(selection string, items []Item) (Item, error) {
	if l.indexOutput {
		if idx, err := strconv.Atoi(selection); err == nil {
			if idx < 0 || idx >= len(items) {
				return Item{}, fmt.Errorf("palette: index %d out of range", idx)
			}
			return items[idx], nil
		}
	}
	for _, item := range items {
		if sanitizeLabel(item.Label) == selection {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("palette: unknown selection %q", selection)
}

func sanitizeLabel(label string) string {
	label = strings.ReplaceAll(label, "\r", " ")
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.TrimSpace(label)
}

func sanitizeRofiField(value string) string {
	value = strings.ReplaceAll(value, "\x00", " ")
	value = strings.ReplaceAll(value, "\x1f", " ")
	return sanitizeLabel(value)
}

func isCancelExit(err error) bool {
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return false
	}
	// 1 is "no selection", 130 is Ctrl+C.
	switch exitErr.ExitCode() {
	case 1, 130:
		return true
	default:
		return false
	}
}
