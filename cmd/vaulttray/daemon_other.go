//go:build !linux

package main

import (
	"fmt"
	"os"
	"runtime"
)

func runDaemon(args []string) int {
	fmt.Fprintf(os.Stderr, "vaulttray daemon is not supported on %s\n", runtime.GOOS)
	return 1
}
