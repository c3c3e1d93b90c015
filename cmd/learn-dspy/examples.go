package main

import (
	"github.com/spf13/cobra"

	"github.com/longregen/learn-dspy/internal/examples"
)

// welcomeCmd prints the walkthrough banner
func welcomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "welcome",
		Short: "List the available walkthroughs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runner.Welcome()
		},
	}
}

// walkthroughCmd runs one narrated example. A missing credential or a
// failing question is reported on the console and still exits 0.
func walkthroughCmd(w examples.Walkthrough) *cobra.Command {
	short := w.Description
	if w.NeedsCredential {
		short += " (requires API key)"
	}

	return &cobra.Command{
		Use:   w.Name,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runner.Run(cmd.Context(), w)
		},
	}
}
