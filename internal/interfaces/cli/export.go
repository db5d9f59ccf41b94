package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"dconfsync.dev/cli/internal/application/services"
	"dconfsync.dev/cli/internal/interfaces/di"
)

// NewExportCommand builds the export command, which dumps the current
// store contents as a configuration document.
func NewExportCommand(c *di.Container) *cobra.Command {
	var (
		root   string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Dump the current store contents as a configuration file",
		Long: `Export reads the settings store and prints it in the same INI-style
format the reconcile command consumes, so the output can be saved and
used as a declared configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := c.NewStore(resolveRoot(root, c))
			if err != nil {
				return err
			}
			svc := services.NewReconcileService(st, c.Debug)
			text, err := svc.Export(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}
			if err := os.WriteFile(output, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "store path to export from (default from settings)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")

	return cmd
}
