package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/spf13/cobra"
)

var aliasCmd = &cobra.Command{
	Use:     "alias",
	Short:   "Inspect and record network address aliases",
	GroupID: "records",
}

var aliasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List aliases updated at or after a time bucket",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := aliasSince(cmd, time.Now())
		if err != nil {
			return err
		}
		aliases, err := recordsClient.ListAliases(context.Background(), since)
		if err != nil {
			return fmt.Errorf("listing aliases: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), aliases)
		}
		printAliasListTable(cmd.OutOrStdout(), aliases)
		return nil
	},
}

var aliasPutCmd = &cobra.Command{
	Use:   "put <address> <service-id> <instance-id>",
	Short: "Record that an address represents a service instance",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, _ := cmd.Flags().GetInt64("bucket")
		alias := &model.NetworkAddressAlias{
			Address:                    args[0],
			RepresentServiceID:         args[1],
			RepresentServiceInstanceID: args[2],
			LastUpdateTimeBucket:       bucket,
			TimeBucket:                 bucket,
		}
		saved, err := recordsClient.SaveAlias(context.Background(), alias)
		if err != nil {
			return fmt.Errorf("saving alias: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), saved)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "saved alias %s -> %s (bucket %d)\n",
			saved.Address, saved.RepresentServiceInstanceID, saved.LastUpdateTimeBucket)
		return nil
	},
}

// aliasSince resolves the lower bound from --since (a raw bucket) or
// --within (a duration back from now). --since wins when both are set.
func aliasSince(cmd *cobra.Command, now time.Time) (int64, error) {
	since, _ := cmd.Flags().GetInt64("since")
	within, _ := cmd.Flags().GetDuration("within")
	if since < 0 || within < 0 {
		return 0, fmt.Errorf("--since and --within must not be negative")
	}
	if since > 0 || within == 0 {
		return since, nil
	}
	return model.TimeBucket(now.Add(-within)), nil
}

func init() {
	aliasListCmd.Flags().Int64("since", 0, "time bucket lower bound (yyyyMMddHHmm)")
	aliasListCmd.Flags().Duration("within", 0, "only aliases updated within this duration")

	aliasPutCmd.Flags().Int64("bucket", 0, "time bucket (defaults to the server's current minute)")

	aliasCmd.AddCommand(aliasListCmd)
	aliasCmd.AddCommand(aliasPutCmd)
}
