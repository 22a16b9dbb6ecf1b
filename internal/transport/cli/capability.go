package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dioko-ai/bob/internal/capability"
)

func newCapabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capability",
		Short: "List and inspect the registered capability surface",
	}
	cmd.AddCommand(newCapabilityListCmd(), newCapabilityGetCmd())
	return cmd
}

func newCapabilityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "capability.list", nil)
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				descriptors := resp.Result.Data.([]capability.Descriptor)
				for _, d := range descriptors {
					fmt.Fprintf(w, "%-34s %s\n", d.Name, d.Operation)
				}
				return nil
			})
		},
	}
}

func newCapabilityGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print one capability's descriptor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := dispatch(cmd.Context(), "capability.get", capability.CapabilityGetPayload{Name: args[0]})
			return printResult(cmd.OutOrStdout(), jsonOutput, resp, func(w io.Writer, resp capability.ResponseEnvelope) error {
				d := resp.Result.Data.(capability.Descriptor)
				label(w, "Name", d.Name)
				label(w, "Operation", string(d.Operation))
				return nil
			})
		},
	}
}
