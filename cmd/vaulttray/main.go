package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/1broseidon/vaulttray/internal/config"
	"github.com/1broseidon/vaulttray/internal/ipc"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printMainUsage(stdout)
		return 0
	}

	switch args[0] {
	case "daemon":
		return runDaemon(args[1:])
	case "status":
		return runStatus(args[1:], stdout, stderr)
	case "show", "hide", "toggle", "quick-note", "relaunch", "close-vault":
		return runControllerCommand(args[0], args[1:], stderr)
	case "commands":
		return runCommands(args[1:], stdout, stderr)
	case "palette":
		return runPalette(args[1:], stderr)
	case "reconcile":
		return runReconcile(args[1:], stdout, stderr)
	case "settings":
		return runSettings(args[1:], stdout, stderr)
	case "config":
		return runConfig(args[1:], stdout, stderr)
	case "mcp":
		return runMCP(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		printMainUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printMainUsage(stderr)
		return 2
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaulttray <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Manage the windows of a vault (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  show                Show and focus every window of the vault")
	fmt.Fprintln(w, "  hide                Hide every window of the vault")
	fmt.Fprintln(w, "  toggle              Hide the vault if focused, show it otherwise")
	fmt.Fprintln(w, "  quick-note          Create a quick note and show the vault")
	fmt.Fprintln(w, "  relaunch            Restart the application")
	fmt.Fprintln(w, "  close-vault         Close the vault's windows")
	fmt.Fprintln(w, "  commands            List daemon commands")
	fmt.Fprintln(w, "  palette             Pick a command from rofi, fuzzel, wofi or dmenu")
	fmt.Fprintln(w, "  reconcile           Resync tracked windows with the display")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  settings            Edit vault settings (interactive)")
	fmt.Fprintln(w, "  settings list       Print vault settings")
	fmt.Fprintln(w, "  settings get        Print one setting")
	fmt.Fprintln(w, "  settings set        Change one setting")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate config file")
	fmt.Fprintln(w, "  config print        Print effective config")
	fmt.Fprintln(w, "  config explain      Show where a value came from")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start the MCP server (stdio)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Most commands accept --vault NAME and --config PATH.")
	fmt.Fprintln(w, "Run 'vaulttray <command> --help' for command-specific options.")
}

// vaultFlags are shared by every command that talks to one vault.
type vaultFlags struct {
	config *string
	vault  *string
}

func addVaultFlags(fs *flag.FlagSet) vaultFlags {
	return vaultFlags{
		config: fs.String("config", "", "Config file path (default: ~/.config/vaulttray/config.yaml)"),
		vault:  fs.String("vault", "", "Vault name (overrides the config file)"),
	}
}

func (f vaultFlags) load(overrides ...config.Override) (*config.LoadResult, error) {
	overrides = append([]config.Override{{Key: "vault", Value: *f.vault}}, overrides...)
	if *f.config == "" {
		return config.Load(overrides...)
	}
	return config.LoadFromPath(*f.config, overrides...)
}

// vaultName resolves the vault a client command addresses. An explicit
// --vault is enough, so clients work without a config file.
func (f vaultFlags) vaultName() (string, error) {
	if name := strings.TrimSpace(*f.vault); name != "" && *f.config == "" {
		return name, nil
	}
	res, err := f.load()
	if err != nil {
		return "", err
	}
	return res.Config.VaultName(), nil
}

func (f vaultFlags) client() (*ipc.Client, error) {
	vault, err := f.vaultName()
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(vault), nil
}

// parseFlags returns a non-negative exit code when the command should stop.
func parseFlags(fs *flag.FlagSet, args []string) int {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	return -1
}

func runStatus(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vf := addVaultFlags(fs)
	asJSON := fs.Bool("json", false, "Print the full status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: vaulttray status [--vault NAME] [--json]")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Show the state of the vault daemon.")
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := vf.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(stdout, stderr, status)
	}

	ctrl := status.Controller
	fmt.Fprintf(stdout, "daemon_running: %v\n", status.DaemonRunning)
	fmt.Fprintf(stdout, "vault:          %s\n", ctrl.Vault)
	fmt.Fprintf(stdout, "uptime_seconds: %d\n", status.UptimeSeconds)
	fmt.Fprintf(stdout, "windows:        %d\n", len(ctrl.Windows))
	fmt.Fprintf(stdout, "intercepting:   %v\n", ctrl.Intercepted)
	fmt.Fprintf(stdout, "taskbar_hidden: %v\n", ctrl.TaskbarHidden)
	fmt.Fprintf(stdout, "tray:           %v\n", ctrl.Tray.Present)
	if len(ctrl.Hotkeys) > 0 {
		fmt.Fprintf(stdout, "hotkeys:        %s\n", strings.Join(ctrl.Hotkeys, ", "))
	}
	for _, w := range ctrl.Windows {
		state := "hidden"
		if w.Visible {
			state = "visible"
		}
		if w.Focused {
			state += ",focused"
		}
		if w.Maximized {
			state += ",maximized"
		}
		fmt.Fprintf(stdout, "  0x%08x  %-18s %s\n", w.ID, state, w.Title)
	}
	return 0
}

func runControllerCommand(id string, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet(id, flag.ContinueOnError)
	fs.SetOutput(stderr)
	vf := addVaultFlags(fs)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: vaulttray %s [--vault NAME]\n", id)
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "%s takes no arguments\n", id)
		fs.Usage()
		return 2
	}

	client, err := vf.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := client.RunCommand(id); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func runCommands(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("commands", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vf := addVaultFlags(fs)
	asJSON := fs.Bool("json", false, "Print as JSON")
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	client, err := vf.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	commands, err := client.ListCommands()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(stdout, stderr, commands)
	}
	for _, cmd := range commands {
		fmt.Fprintf(stdout, "%-12s %s\n", cmd.ID, cmd.Description)
	}
	return 0
}

func runReconcile(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("reconcile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vf := addVaultFlags(fs)
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	client, err := vf.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	data, err := client.Reconcile()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintf(stdout, "added:   %d\n", len(data.Added))
	fmt.Fprintf(stdout, "removed: %d\n", len(data.Removed))
	return 0
}

func printJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
