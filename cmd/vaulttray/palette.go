package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/1broseidon/vaulttray/internal/config"
	"github.com/1broseidon/vaulttray/internal/ipc"
	"github.com/1broseidon/vaulttray/internal/palette"
)

func runPalette(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("palette", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vf := addVaultFlags(fs)
	launcher := fs.String("launcher", "", "auto, rofi, fuzzel, wofi or dmenu (default: config palette)")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: vaulttray palette [--vault NAME] [--launcher NAME]")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Pick a daemon command from a launcher menu and run it.")
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(stderr, "palette takes no arguments")
		fs.Usage()
		return 2
	}

	res, err := vf.load(config.Override{Key: "palette", Value: *launcher})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	backend, err := palette.NewBackend(res.Config.Palette)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	vault := res.Config.VaultName()
	client := ipc.NewClient(vault)
	commands, err := client.ListCommands()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	id, err := palette.Choose(backend, vault, commands)
	if errors.Is(err, palette.ErrCancelled) {
		return 0
	}
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
