package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the authgate CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authgate",
		Short: "authgate - session gateway for a hosted identity provider",
		Long: `authgate fronts a GoTrue-compatible identity provider and exposes
sign-up, sign-in, OAuth sign-in, and sign-out to a browser UI, with
retry-with-backoff on transient network failures and display-safe
error messages.`,
	}

	cmd.AddCommand(newServeCmd())

	return cmd
}
