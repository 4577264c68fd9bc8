package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sipico/microtales/internal/config"
	"github.com/sipico/microtales/internal/seed"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load accounts, stories and ratings from YAML",
		Long: `Loads seed data into the database. Without --file the built-in development
data set is used. Accounts that already exist are skipped together with their
stories.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, _, err := newLogger(cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}

			var data *seed.Data
			if file != "" {
				data, err = seed.LoadFile(file)
			} else {
				data, err = seed.Default()
			}
			if err != nil {
				return err
			}

			store, svc, err := openService(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			res, err := seed.Apply(cmd.Context(), svc, data, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"seeded %d accounts (%d skipped), %d stories, %d guest stories, %d ratings\n",
				res.Accounts, res.SkippedAccounts, res.Stories, res.GuestStories, res.Ratings)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file (default: built-in data set)")
	return cmd
}

func newSweepTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-tokens",
		Short: "Delete expired edit and claim tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, _, err := newLogger(cfg.LogLevel, os.Stderr)
			if err != nil {
				return err
			}

			store, svc, err := openService(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			n, err := svc.SweepExpiredTokens(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired tokens\n", n)
			return nil
		},
	}
}

func newHealthCheckCmd() *cobra.Command {
	var url string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running server, for container health checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if code := doHealthCheck(url); code != 0 {
				return fmt.Errorf("health check of %s failed", url)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/health", "health endpoint to probe")
	return cmd
}

// doHealthCheck returns 0 when url answers 200 OK and 1 otherwise.
func doHealthCheck(url string) int {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url) //nolint:gosec // URL comes from the operator
	if err != nil {
		return 1
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}
