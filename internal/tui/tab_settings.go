package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/vaulttray/internal/notes"
	"github.com/1broseidon/vaulttray/internal/settings"
)

// editState holds the value bound to the open form. It lives behind a pointer
// so copies of the tab keep writing to the same value.
type editState struct {
	opt   settings.Option
	value string
}

// setMsg asks the root model to store a setting.
type setMsg struct {
	key   string
	value string
}

// SettingsTab lists the options of one settings section.
type SettingsTab struct {
	section settings.Section
	values  map[string]string
	cursor  int
	now     func() time.Time

	width  int
	height int

	form *huh.Form
	edit *editState
}

// NewSettingsTab creates a tab for section.
func NewSettingsTab(section settings.Section) SettingsTab {
	return SettingsTab{section: section, now: time.Now}
}

// SetValues updates the displayed values.
func (s *SettingsTab) SetValues(values map[string]string) {
	s.values = values
}

// Editing reports whether a form captures input.
func (s SettingsTab) Editing() bool {
	return s.form != nil
}

func (s SettingsTab) selected() settings.Option {
	return s.section.Options[s.cursor]
}

// Update implements tea.Model.
func (s SettingsTab) Update(msg tea.Msg) (SettingsTab, tea.Cmd) {
	if s.form != nil {
		return s.updateEditing(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			s.cursor = (s.cursor + 1) % len(s.section.Options)
		case "k", "up":
			s.cursor = (s.cursor - 1 + len(s.section.Options)) % len(s.section.Options)
		case "enter", " ", "e":
			opt := s.selected()
			if opt.Kind == settings.KindToggle {
				next := "true"
				if s.values[string(opt.Key)] == "true" {
					next = "false"
				}
				return s, setCmd(string(opt.Key), next)
			}
			s.startEditing(opt)
			return s, s.form.Init()
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}
	return s, nil
}

func setCmd(key, value string) tea.Cmd {
	return func() tea.Msg { return setMsg{key: key, value: value} }
}

func (s SettingsTab) updateEditing(msg tea.Msg) (SettingsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "esc" {
			s.form = nil
			s.edit = nil
			return s, nil
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		key, value := string(s.edit.opt.Key), s.edit.value
		s.form = nil
		s.edit = nil
		return s, setCmd(key, value)
	case huh.StateAborted:
		s.form = nil
		s.edit = nil
		return s, nil
	}
	return s, cmd
}

func (s *SettingsTab) startEditing(opt settings.Option) {
	s.edit = &editState{opt: opt, value: s.values[string(opt.Key)]}
	edit := s.edit

	input := huh.NewInput().
		Key(string(opt.Key)).
		Title(opt.Label()).
		Placeholder(opt.Placeholder).
		Validate(func(v string) error {
			_, err := opt.Parse(v)
			return err
		}).
		Value(&edit.value)

	if opt.Kind == settings.KindMoment {
		preview := s.momentPreview
		input = input.DescriptionFunc(func() string {
			return preview(edit.value)
		}, &edit.value)
	} else {
		input = input.Description(opt.Description)
	}

	w := s.width - 4
	if w < 40 {
		w = 40
	}
	s.form = huh.NewForm(huh.NewGroup(input)).WithWidth(w).WithShowHelp(true).WithShowErrors(true)
}

func (s SettingsTab) momentPreview(format string) string {
	return "Preview: " + notes.FormatMoment(format, s.now())
}

// View implements tea.Model.
func (s SettingsTab) View() string {
	if s.form != nil {
		return s.viewEditing()
	}

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250")).
		Width(30).
		PaddingRight(2)
	cursorStyle := labelStyle.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62"))
	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("15")).
		Bold(true)
	dimStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	var lines []string
	for i, opt := range s.section.Options {
		label := labelStyle.Render(opt.Label())
		if i == s.cursor {
			label = cursorStyle.Render(opt.Label())
		}
		value := opt.DisplayValue(s.values[string(opt.Key)])
		if opt.RestartRequired {
			value += dimStyle.Render("  (restart required)")
		}
		lines = append(lines, label+valueStyle.Render(value))
	}
	lines = append(lines, "", dimStyle.Render(s.selected().Description))

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(strings.Join(lines, "\n"))
}

func (s SettingsTab) viewEditing() string {
	header := lipgloss.NewStyle().
		Foreground(lipgloss.Color("62")).
		Bold(true).
		Render("Editing "+s.edit.opt.Label()) +
		lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Render("  (esc to cancel)")

	return lipgloss.NewStyle().
		Width(s.width).
		Height(s.height).
		Padding(1, 2).
		Render(header + "\n\n" + s.form.View())
}
