package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/skyrecords/internal/ui"
)

// helpRule restyles every match of re in cobra's help text. Capture groups
// other than the styled one are kept verbatim.
type helpRule struct {
	re    *regexp.Regexp
	group int // submatch to style; 0 styles the whole match
	style ui.Style
}

var helpRules = []helpRule{
	// Group headings such as "Records:" and "Flags:".
	{regexp.MustCompile(`(?m)^[A-Z][^\n]*:[ \t]*$`), 0, ui.Accent},
	// Subcommand names in the command lists.
	{regexp.MustCompile(`(?m)^  (\S+)  `), 1, ui.Command},
	// Flag value types: "--since int64", "--within duration".
	{regexp.MustCompile(`--?\S+\s+(string|int|int64|duration)\b`), 1, ui.Muted},
	{regexp.MustCompile(`\(default "[^"]*"\)`), 0, ui.Muted},
}

// colorizedHelpFunc renders cobra's usage text and restyles it when colour
// is on.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, _ []string) {
		if !ui.ShouldUseColor() {
			_ = cmd.Usage()
			return
		}
		out := cmd.OutOrStdout()
		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)
		fmt.Fprint(out, colorizeHelpOutput(buf.String()))
	}
}

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.apply(s)
	}
	return s
}

func (r helpRule) apply(s string) string {
	var b bytes.Buffer
	last := 0
	for _, m := range r.re.FindAllStringSubmatchIndex(s, -1) {
		start, end := m[2*r.group], m[2*r.group+1]
		b.WriteString(s[last:start])
		b.WriteString(r.style.Render(s[start:end]))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}
