package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"dconfsync.dev/cli/internal/application/services"
	"dconfsync.dev/cli/internal/interfaces/di"
)

// NewValidateCommand builds the validate command, which checks
// configuration files without touching the store.
func NewValidateCommand(c *di.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "validate CONFIG [CONFIG...]",
		Short: "Check configuration files without touching the store",
		Long: `Validate parses and merges the given configuration files exactly as
the reconcile command would, reporting either the first syntax error or
a summary of the merged document. The store is never read.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := services.LoadManifest(args...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, path := range doc.Shadowed() {
				fmt.Fprintf(out, "warning: declared entry %s is shadowed by an exclusion\n", path)
			}

			purges, entries := 0, 0
			for _, sec := range doc.Sections {
				if sec.IsPurge() {
					purges++
				}
				entries += len(sec.Entries)
			}

			summary := fmt.Sprintf("ok: %s, %s", count(len(args), "file", "files"),
				count(len(doc.Sections), "section", "sections"))
			if purges > 0 {
				summary += fmt.Sprintf(" (%d purge)", purges)
			}
			summary += ", " + count(entries, "entry", "entries")
			if n := len(doc.Exclusions); n > 0 {
				summary += ", " + count(n, "exclusion", "exclusions")
			}
			fmt.Fprintln(out, summary)
			return nil
		},
	}
}

func count(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, plural)
}
