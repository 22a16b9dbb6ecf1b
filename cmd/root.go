// Package cmd wires bob's process-wide configuration and the static
// capability registry into the scripted transport, and exposes Execute
// for main to call.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/pflag"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/config"
	"github.com/dioko-ai/bob/internal/log"
	"github.com/dioko-ai/bob/internal/transport/cli"
)

func init() {
	// Force lipgloss/termenv to query terminal background color before
	// any rendering happens, so a later OSC 11 response racing the first
	// write never shows up as garbage in the output stream.
	_ = lipgloss.HasDarkBackground()
}

var version = "dev"

// SetVersion sets the version string, called from main with ldflags values.
func SetVersion(ver string) { version = ver }

// Execute builds bob's command tree and runs it against os.Args.
//
// Config must be resolved before the tree is built: every subcommand
// closes over a cli.Deps value fixed at construction, so a --config or
// --backend flag has to be known ahead of cobra's own parse pass. A
// small prescan flag set reads just those flags, plus --debug (ignoring every
// other flag and positional argument) before config.LoadWith and
// cli.New run; the same flags are re-registered on the built root
// command afterward so --help and normal parsing see them.
func Execute() error {
	var cfgFile, backendFlag string
	var debug bool

	prescan := pflag.NewFlagSet("bob-prescan", pflag.ContinueOnError)
	prescan.ParseErrorsWhitelist.UnknownFlags = true
	prescan.Usage = func() {}
	prescan.StringVarP(&cfgFile, "config", "c", "", "")
	prescan.StringVar(&backendFlag, "backend", "", "")
	prescan.BoolVarP(&debug, "debug", "d", false, "")
	_ = prescan.Parse(os.Args[1:])

	if os.Getenv("BOB_DEBUG") != "" {
		debug = true
	}
	if debug {
		logPath := os.Getenv("BOB_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.Init(logPath)
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		defer cleanup()
		log.Info(log.CatConfig, "bob starting", "version", version, "debug", true, "log_path", logPath)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if backendFlag != "" {
		if err := config.ValidateBackend(backendFlag); err != nil {
			return err
		}
		cfg.Backend = backendFlag
	}

	capability.Wire()

	deps := cli.Deps{Config: cfg, Backend: config.NewBackendSelector(cfg.Backend)}
	root := cli.New(deps)
	root.Version = version
	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", cfgFile,
		"config file (default: ./.bob/config.yaml or ~/.config/bob/config.yaml)")
	root.PersistentFlags().StringVar(&backendFlag, "backend", backendFlag,
		"override the configured backend for this invocation")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", debug,
		"enable debug mode with logging (also: BOB_DEBUG=1)")

	return root.Execute()
}
