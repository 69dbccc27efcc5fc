package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/1broseidon/vaulttray/internal/ipc"
	"github.com/1broseidon/vaulttray/internal/settings"
	"github.com/1broseidon/vaulttray/internal/tui"
)

func printSettingsUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vaulttray settings [--vault NAME]          Open the settings editor")
	fmt.Fprintln(w, "  vaulttray settings list [--vault NAME]")
	fmt.Fprintln(w, "  vaulttray settings get [--vault NAME] <key>")
	fmt.Fprintln(w, "  vaulttray settings set [--vault NAME] <key> <value>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Changes go through the daemon when it is running and are written to")
	fmt.Fprintln(w, "the settings file otherwise.")
}

func runSettings(args []string, stdout, stderr io.Writer) int {
	sub := ""
	if len(args) > 0 {
		switch args[0] {
		case "list", "get", "set":
			sub, args = args[0], args[1:]
		case "help":
			printSettingsUsage(stdout)
			return 0
		}
	}

	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vf := addVaultFlags(fs)
	fs.Usage = func() { printSettingsUsage(stderr) }
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	want := map[string]int{"": 0, "list": 0, "get": 1, "set": 2}[sub]
	if fs.NArg() != want {
		fs.Usage()
		return 2
	}

	res, err := vf.load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	vault := res.Config.VaultName()
	path, err := res.Config.SettingsPath()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	backend, err := settingsBackend(vault, path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	switch sub {
	case "":
		if err := tui.Run(vault, backend); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0

	case "list":
		values, err := backend.Values()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		for _, key := range sortedKeys(values) {
			fmt.Fprintf(stdout, "%s: %s\n", key, values[key])
		}
		return 0

	case "get":
		key := fs.Arg(0)
		if _, err := settings.Lookup(settings.Key(key)); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		values, err := backend.Values()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintln(stdout, values[key])
		return 0

	default:
		if err := backend.Set(fs.Arg(0), fs.Arg(1)); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if !backend.Live() {
			fmt.Fprintln(stdout, "saved; the daemon applies it on next start")
		}
		return 0
	}
}

// settingsBackend prefers the running daemon so changes apply immediately.
func settingsBackend(vault, path string) (tui.Backend, error) {
	client := ipc.NewClient(vault)
	if client.Ping() == nil {
		return tui.NewIPCBackend(client), nil
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return tui.NewStoreBackend(path, logger)
}
