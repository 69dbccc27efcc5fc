package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/vaulttray/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: vaulttray mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'vaulttray mcp <command> --help' for command-specific options.")
}

func runMCP(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printMCPUsage(stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:], stderr)
	case "help", "-h", "--help":
		printMCPUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(stderr)
		return 2
	}
}

func runMCPServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	vf := addVaultFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "Usage: vaulttray mcp serve [--vault NAME]")
		fmt.Fprintln(stderr, "")
		fmt.Fprintln(stderr, "Start the MCP server on stdio. The tools talk to the vault daemon,")
		fmt.Fprintln(stderr, "which must be running for everything except preview_quick_note.")
	}
	if code := parseFlags(fs, args); code >= 0 {
		return code
	}

	client, err := vf.client()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := mcp.NewServer(client).Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}
	return 0
}
