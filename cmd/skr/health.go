package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type healthReport struct {
	Server    string `json:"server"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that the server and its storage backend are up",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		start := time.Now()
		status, err := recordsClient.Health(ctx)
		if err != nil {
			return fmt.Errorf("checking health of %s: %w", serverURL, err)
		}
		report := healthReport{Server: serverURL, Status: status, LatencyMS: time.Since(start).Milliseconds()}

		out := cmd.OutOrStdout()
		if jsonOutput {
			if err := printJSON(out, report); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "Health: %s\n", report.Status)
		}
		if report.Status != "ok" {
			return fmt.Errorf("server reports %q", report.Status)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Duration("timeout", 5*time.Second, "give up after this long")
}
