// Package main provides the microtales command: the API server and its
// maintenance tasks.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "microtales",
		Short: "MicroTales short-story service",
		Long: `MicroTales serves a JSON API for publishing short stories, either from an
account or as a guest who keeps a secret code to edit the story later.

Configuration is read from the environment (LOG_LEVEL, LISTEN_ADDR,
METRICS_LISTEN_ADDR, DATABASE_PATH, SESSION_SECRET, SECURE_COOKIES,
CORS_ALLOWED_ORIGINS, MAX_BODY_BYTES, ADMIN_NAME, ADMIN_EMAIL, ADMIN_PASSWORD).`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newSeedCmd(),
		newSweepTokensCmd(),
		newHealthCheckCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "microtales %s\n", version)
		},
	}
}
