// Package main is the entry point for the bob orchestrator.
package main

import (
	"fmt"
	"os"

	"github.com/dioko-ai/bob/cmd"
)

// Build information injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// exitCoder is implemented by internal/transport/cli's exitError, letting
// a capability error code (see internal/capability.Code.ExitCode) flow
// through as the process's actual exit status instead of a bare 1.
type exitCoder interface {
	ExitCode() int
}

func main() {
	versionString := fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	cmd.SetVersion(versionString)

	err := cmd.Execute()
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err)

	if ec, ok := err.(exitCoder); ok {
		os.Exit(ec.ExitCode())
	}
	os.Exit(1)
}
