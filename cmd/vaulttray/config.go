package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/1broseidon/vaulttray/internal/config"
)

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  vaulttray config validate [--config PATH] [--vault NAME]")
	fmt.Fprintln(w, "  vaulttray config print [--config PATH] [--vault NAME] [--defaults]")
	fmt.Fprintln(w, "  vaulttray config explain [--config PATH] [--vault NAME] <key>")
}

func runConfig(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printConfigUsage(stderr)
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(stderr)
		vf := addVaultFlags(fs)
		if code := parseFlags(fs, args[1:]); code >= 0 {
			return code
		}
		res, err := vf.load()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if res.File == "" {
			fmt.Fprintln(stdout, "config: ok (defaults, no file)")
			return 0
		}
		fmt.Fprintf(stdout, "config: ok (%s)\n", res.File)
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(stderr)
		vf := addVaultFlags(fs)
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if code := parseFlags(fs, args[1:]); code >= 0 {
			return code
		}

		cfg := config.DefaultConfig()
		if !*printDefaults {
			res, err := vf.load()
			if err != nil {
				fmt.Fprintln(stderr, err)
				return 1
			}
			cfg = res.Config
			if res.File != "" {
				fmt.Fprintf(stdout, "# file: %s\n", res.File)
			}
			if path, err := cfg.SettingsPath(); err == nil {
				fmt.Fprintf(stdout, "# settings: %s\n", path)
			}
		}
		data, err := cfg.YAML()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprint(stdout, string(data))
		return 0

	case "explain":
		fs := flag.NewFlagSet("explain", flag.ContinueOnError)
		fs.SetOutput(stderr)
		vf := addVaultFlags(fs)
		if code := parseFlags(fs, args[1:]); code >= 0 {
			return code
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "Usage: vaulttray config explain <key>")
			return 2
		}
		res, err := vf.load()
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		key := fs.Arg(0)
		fmt.Fprintf(stdout, "%s: %s\n", key, res.Explain(key))
		return 0

	case "help", "-h", "--help":
		printConfigUsage(stdout)
		return 0

	default:
		fmt.Fprintf(stderr, "Unknown config command: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}
