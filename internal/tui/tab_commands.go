package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/vaulttray/internal/shell"
)

// runMsg asks the root model to run a command.
type runMsg struct {
	id string
}

// CommandsTab lists the daemon commands.
type CommandsTab struct {
	commands []shell.Command
	cursor   int

	width  int
	height int
}

// SetCommands replaces the listed commands.
func (c *CommandsTab) SetCommands(commands []shell.Command) {
	c.commands = commands
	if c.cursor >= len(commands) {
		c.cursor = 0
	}
}

// Update implements tea.Model.
func (c CommandsTab) Update(msg tea.Msg) (CommandsTab, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if len(c.commands) == 0 {
			return c, nil
		}
		switch msg.String() {
		case "j", "down":
			c.cursor = (c.cursor + 1) % len(c.commands)
		case "k", "up":
			c.cursor = (c.cursor - 1 + len(c.commands)) % len(c.commands)
		case "enter":
			id := c.commands[c.cursor].ID
			return c, func() tea.Msg { return runMsg{id: id} }
		}
	case tea.WindowSizeMsg:
		c.width = msg.Width
		c.height = msg.Height
	}
	return c, nil
}

// View implements tea.Model.
func (c CommandsTab) View() string {
	style := lipgloss.NewStyle().
		Width(c.width).
		Height(c.height).
		Padding(1, 2)

	if len(c.commands) == 0 {
		return style.
			Foreground(lipgloss.Color("241")).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Commands need a running daemon")
	}

	nameStyle := lipgloss.NewStyle().Width(20).PaddingRight(2)
	cursorStyle := nameStyle.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("62"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	lines := make([]string, 0, len(c.commands))
	for i, cmd := range c.commands {
		name := nameStyle.Render(cmd.Name)
		if i == c.cursor {
			name = cursorStyle.Render(cmd.Name)
		}
		lines = append(lines, name+dimStyle.Render(cmd.Description))
	}
	return style.Render(strings.Join(lines, "\n"))
}
