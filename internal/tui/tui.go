package tui

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

// Run opens the settings editor for vault.
func Run(vault string, backend Backend) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("settings editor requires an interactive terminal (stdin/stdout must be TTYs)")
	}

	_, err := tea.NewProgram(newModel(vault, backend), tea.WithAltScreen()).Run()
	return err
}
