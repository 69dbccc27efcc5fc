package shell

import (
	"errors"
	"fmt"
)

// ErrUnknownCommand is returned by RunCommand for unknown command IDs.
var ErrUnknownCommand = errors.New("unknown command")

// Command is a zero-argument action exposed to the command palette, IPC
// and MCP.
type Command struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	run         func()
}

// Commands lists the commands of the controller.
func (c *Controller) Commands() []Command {
	return []Command{
		{ID: "relaunch", Name: "Relaunch", Description: "Restart the application.", run: c.Relaunch},
		{ID: "close-vault", Name: "Close Vault", Description: "Close this vault's windows, quitting the application if no other vault is open.", run: c.CloseVault},
		{ID: "show", Name: "Show windows", Description: "Show and focus every window of the vault.", run: c.ShowAll},
		{ID: "hide", Name: "Hide windows", Description: "Hide every window of the vault.", run: c.HideAll},
		{ID: "toggle", Name: "Toggle windows", Description: "Hide the vault if it has focus, show it otherwise.", run: func() { c.Toggle(true) }},
		{ID: "quick-note", Name: "Add quick note", Description: "Create a quick note and show the vault.", run: c.QuickNote},
	}
}

// RunCommand runs the command with the given ID.
func (c *Controller) RunCommand(id string) error {
	for _, cmd := range c.Commands() {
		if cmd.ID == id {
			c.env.Logger.Info("running command", "command", id)
			cmd.run()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownCommand, id)
}
