package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/spf13/cobra"
)

var templateCmd = &cobra.Command{
	Use:     "template",
	Aliases: []string{"tpl"},
	Short:   "Manage UI dashboard templates",
	GroupID: "records",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		templates, err := recordsClient.ListTemplates(context.Background(), all)
		if err != nil {
			return fmt.Errorf("listing templates: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), templates)
		}
		printTemplateListTable(cmd.OutOrStdout(), templates)
		return nil
	},
}

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := recordsClient.GetTemplate(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting template: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		printTemplateTable(cmd.OutOrStdout(), t)
		return nil
	},
}

var templateCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a template, replacing any with the same name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting, err := readSetting(cmd, args[0])
		if err != nil {
			return err
		}
		st, err := recordsClient.CreateTemplate(context.Background(), setting)
		if err != nil {
			return fmt.Errorf("creating template: %w", err)
		}
		return printChangeStatus(cmd.OutOrStdout(), "created", setting.ID, st)
	},
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Replace the configuration of an existing template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting, err := readSetting(cmd, args[0])
		if err != nil {
			return err
		}
		st, err := recordsClient.ChangeTemplate(context.Background(), setting)
		if err != nil {
			return fmt.Errorf("updating template: %w", err)
		}
		return printChangeStatus(cmd.OutOrStdout(), "updated", setting.ID, st)
	},
}

var templateDisableCmd = &cobra.Command{
	Use:   "disable <name>",
	Short: "Disable a template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := recordsClient.DisableTemplate(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("disabling template: %w", err)
		}
		return printChangeStatus(cmd.OutOrStdout(), "disabled", args[0], st)
	},
}

// readSetting builds the setting for name from --config, or from --file
// ("-" reads stdin).
func readSetting(cmd *cobra.Command, name string) (*model.DashboardSetting, error) {
	config, _ := cmd.Flags().GetString("config")
	file, _ := cmd.Flags().GetString("file")

	switch {
	case config != "" && file != "":
		return nil, fmt.Errorf("--config and --file are mutually exclusive")
	case file == "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		config = string(data)
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		config = string(data)
	}
	if config == "" {
		return nil, fmt.Errorf("one of --config or --file is required")
	}
	return &model.DashboardSetting{ID: name, Configuration: config}, nil
}

func init() {
	templateListCmd.Flags().BoolP("all", "a", false, "include disabled templates")

	for _, c := range []*cobra.Command{templateCreateCmd, templateUpdateCmd} {
		c.Flags().StringP("config", "c", "", "dashboard configuration JSON")
		c.Flags().StringP("file", "f", "", "read the configuration from a file (- for stdin)")
	}

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateUpdateCmd)
	templateCmd.AddCommand(templateDisableCmd)
}
