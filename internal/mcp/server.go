package mcp

import (
	"context"

	"github.com/jonboulle/clockwork"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/vaulttray/internal/ipc"
	"github.com/1broseidon/vaulttray/internal/shell"
)

const (
	ServerName    = "vaulttray"
	ServerVersion = "0.1.0"
)

// Daemon is the IPC surface the tools call.
type Daemon interface {
	GetStatus() (*ipc.StatusData, error)
	ListCommands() ([]shell.Command, error)
	RunCommand(id string) error
	GetSettings() (*ipc.SettingsData, error)
	SetSetting(key, value string) error
	Reconcile() (*ipc.ReconcileData, error)
}

// Server is the MCP server exposing one vault daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	clock     clockwork.Clock
}

// NewServer creates an MCP server that forwards to daemon.
func NewServer(daemon Daemon) *Server {
	s := &Server{daemon: daemon, clock: clockwork.NewRealClock()}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Report the vault daemon state: registered windows with their visibility, focus and maximized flags, whether close interception is active, the bound hotkeys and the tray icon.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_commands",
		Description: "List the commands the vault daemon can run with run_command.",
	}, s.handleListCommands)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_command",
		Description: "Run a vault command by ID. close-vault and relaunch end the current daemon session.",
	}, s.handleRunCommand)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_settings",
		Description: "List every vault setting with its kind, description and current value.",
	}, s.handleGetSettings)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "set_setting",
		Description: "Change a vault setting. The daemon applies the change immediately and persists it.",
	}, s.handleSetSetting)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reconcile_windows",
		Description: "Re-scan the vault's windows and repair the registry: register windows the daemon missed and drop windows that no longer exist.",
	}, s.handleReconcile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "preview_quick_note",
		Description: "Show the vault-relative path the next quick note would be created at, without creating it.",
	}, s.handlePreviewQuickNote)
}
