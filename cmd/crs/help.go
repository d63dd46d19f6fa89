package main

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/raderre/cresite/internal/ui"
)

// helpStyle colors one capture group of every match of re.
type helpStyle struct {
	re     *regexp.Regexp
	group  int
	render func(string) string
}

// Rules applied, in order, to Cobra's plain-text help.
var helpStyles = []helpStyle{
	// Section headers such as "Listings:" or "Flags:".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), 1, ui.RenderAccent},
	// Command names in a command list: two-space indent, name, gap.
	{regexp.MustCompile(`(?m)^  ([a-z][\w-]*)  `), 1, ui.RenderCommand},
	// Flag value types, e.g. "--url string".
	{regexp.MustCompile(`--[\w-]+ (string|int|duration|strings|stringSlice)\b`), 1, ui.RenderMuted},
	// Defaults, e.g. (default "http://localhost:8080").
	{regexp.MustCompile(`(\(default [^)]*\))`), 1, ui.RenderMuted},
}

// colorizedHelpFunc returns a Cobra help function that styles the default
// help text when color output is enabled.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.ColorEnabled() {
			_ = cmd.Usage()
			return
		}

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)

		fmt.Fprint(out, colorizeHelp(buf.String()))
	}
}

func colorizeHelp(s string) string {
	for _, st := range helpStyles {
		s = st.re.ReplaceAllStringFunc(s, func(match string) string {
			loc := st.re.FindStringSubmatchIndex(match)
			if loc == nil || loc[2*st.group] < 0 {
				return match
			}
			start, end := loc[2*st.group], loc[2*st.group+1]
			return match[:start] + st.render(match[start:end]) + match[end:]
		})
	}
	return s
}
