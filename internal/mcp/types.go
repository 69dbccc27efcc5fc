package mcp

import (
	"github.com/1broseidon/vaulttray/internal/ipc"
	"github.com/1broseidon/vaulttray/internal/shell"
)

// StatusInput is the input for the get_status tool.
type StatusInput struct{}

// StatusOutput is the output for the get_status tool.
type StatusOutput struct {
	UptimeSeconds int64        `json:"uptime_seconds"`
	Controller    shell.Status `json:"controller"`
}

// ListCommandsInput is the input for the list_commands tool.
type ListCommandsInput struct{}

// ListCommandsOutput is the output for the list_commands tool.
type ListCommandsOutput struct {
	Commands []shell.Command `json:"commands"`
}

// RunCommandInput is the input for the run_command tool.
type RunCommandInput struct {
	ID string `json:"id" jsonschema:"required,Command ID as returned by list_commands (e.g. show, hide, toggle, quick-note, relaunch, close-vault)"`
}

// RunCommandOutput is the output for the run_command tool.
type RunCommandOutput struct {
	ID  string `json:"id"`
	Ran bool   `json:"ran"`
}

// GetSettingsInput is the input for the get_settings tool.
type GetSettingsInput struct{}

// SettingInfo describes one setting and its current value.
type SettingInfo struct {
	Key             string `json:"key"`
	Label           string `json:"label"`
	Kind            string `json:"kind"`
	Section         string `json:"section"`
	Description     string `json:"description"`
	Value           string `json:"value"`
	RestartRequired bool   `json:"restart_required,omitempty"`
}

// GetSettingsOutput is the output for the get_settings tool.
type GetSettingsOutput struct {
	Path     string        `json:"path,omitempty"`
	Settings []SettingInfo `json:"settings"`
}

// SetSettingInput is the input for the set_setting tool.
type SetSettingInput struct {
	Key   string `json:"key" jsonschema:"required,Setting key as returned by get_settings (e.g. runInBackground)"`
	Value string `json:"value" jsonschema:"New value. Toggles take true/false, hotkeys take accelerators like CmdOrCtrl+Shift+Tab (empty disables)."`
}

// SetSettingOutput is the output for the set_setting tool.
type SetSettingOutput struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ReconcileInput is the input for the reconcile_windows tool.
type ReconcileInput struct{}

// ReconcileOutput is the output for the reconcile_windows tool.
type ReconcileOutput = ipc.ReconcileData

// PreviewQuickNoteInput is the input for the preview_quick_note tool.
type PreviewQuickNoteInput struct {
	Folder string `json:"folder,omitempty" jsonschema:"Folder inside the vault (default: the quickNoteLocation setting)"`
	Format string `json:"format,omitempty" jsonschema:"Moment.js date format (default: the quickNoteDateFormat setting)"`
}

// PreviewQuickNoteOutput is the output for the preview_quick_note tool.
type PreviewQuickNoteOutput struct {
	Path string `json:"path"`
}
