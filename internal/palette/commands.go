package palette

import (
	"github.com/1broseidon/vaulttray/internal/shell"
)

// CommandItems turns controller commands into palette rows labelled
// "<vault>: <name>".
func CommandItems(vault string, commands []shell.Command) []Item {
	items := make([]Item, 0, len(commands))
	for _, cmd := range commands {
		label := cmd.Name
		if vault != "" {
			label = vault + ": " + cmd.Name
		}
		items = append(items, Item{
			ID:     cmd.ID,
			Label:  label,
			Meta:   cmd.ID + " " + cmd.Description,
			Active: cmd.ID == "toggle",
		})
	}
	return items
}

// Choose shows the commands and returns the chosen command ID.
func Choose(backend Backend, vault string, commands []shell.Command) (string, error) {
	item, err := backend.Show(vault, CommandItems(vault, commands))
	if err != nil {
		return "", err
	}
	return item.ID, nil
}
