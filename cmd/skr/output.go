package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/alfredjeanlab/skyrecords/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04:05")
}

func templateState(disabled bool) string {
	if disabled {
		return ui.RenderMuted("disabled")
	}
	return ui.RenderAccent("enabled")
}

func printTemplateListTable(w io.Writer, templates []*model.DashboardConfiguration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATE\tUPDATED\tSIZE")
	for _, t := range templates {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", t.ID, templateState(t.Disabled), formatMillis(t.UpdateTime), len(t.Configuration))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d templates\n", len(templates))
}

func printTemplateTable(w io.Writer, t *model.DashboardConfiguration) {
	fmt.Fprintf(w, "Name:     %s\n", t.ID)
	fmt.Fprintf(w, "State:    %s\n", templateState(t.Disabled))
	fmt.Fprintf(w, "Updated:  %s\n", formatMillis(t.UpdateTime))
	fmt.Fprintf(w, "Configuration:\n%s\n", t.Configuration)
}

func printChangeStatus(w io.Writer, action, name string, st *model.TemplateChangeStatus) error {
	if jsonOutput {
		if err := printJSON(w, st); err != nil {
			return err
		}
	} else if st.Status {
		fmt.Fprintf(w, "%s template %s\n", action, ui.RenderAccent(name))
	}
	if !st.Status {
		return fmt.Errorf("%s template %q: %s", action, name, st.Message)
	}
	return nil
}

func printAliasListTable(w io.Writer, aliases []*model.NetworkAddressAlias) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ADDRESS\tSERVICE\tINSTANCE\tLAST UPDATE")
	for _, a := range aliases {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.Address, a.RepresentServiceID, a.RepresentServiceInstanceID, a.LastUpdateTimeBucket)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d aliases\n", len(aliases))
}
