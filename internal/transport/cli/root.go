package cli

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
	"github.com/dioko-ai/bob/internal/config"
)

// Deps is everything a command needs beyond its own arguments: the
// resolved configuration and the process-wide backend selection. Built
// once in cmd/ and threaded into New.
type Deps struct {
	Config  config.Config
	Backend *config.BackendSelector
}

var jsonOutput bool

// New builds the root "bob" command with every subcommand attached.
// Capability.Wire() must already have been called before any command
// runs Execute.
func New(deps Deps) *cobra.Command {
	root := &cobra.Command{
		Use:           "bob",
		Short:         "Decomposes a change request into a task graph and drives it to completion",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "render responses as JSON envelopes instead of human-readable text")

	root.AddCommand(
		newSessionCmd(),
		newTasksCmd(),
		newGraphCmd(),
		newAdvanceCmd(deps),
		newAppCmd(),
		newCapabilityCmd(),
		newBackendCmd(deps),
		newReplCmd(deps),
	)
	return root
}

// newRequest builds a RequestEnvelope for capabilityName carrying
// payload, stamped with a fresh request ID and cli transport metadata.
func newRequest(capabilityName string, payload any) capability.RequestEnvelope {
	return capability.RequestEnvelope{
		RequestID:  uuid.NewString(),
		Capability: capabilityName,
		Metadata:   capability.Metadata{Transport: "cli", Actor: actor()},
		Payload:    payload,
	}
}

func actor() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "cli"
}

func dispatch(ctx context.Context, capabilityName string, payload any) capability.ResponseEnvelope {
	return capability.Dispatch(ctx, newRequest(capabilityName, payload))
}
