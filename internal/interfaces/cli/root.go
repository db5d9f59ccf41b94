package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dconfsync.dev/cli/internal/application/services"
	"dconfsync.dev/cli/internal/core/apply"
	"dconfsync.dev/cli/internal/core/diff"
	"dconfsync.dev/cli/internal/interfaces/di"
)

var (
	Version   = "dev"     // Overridden by ldflags
	BuildTime = "unknown" // Overridden by ldflags
)

// runFlags collects the root command's flags. Empty string flags fall
// back to the loaded settings.
type runFlags struct {
	apply       bool
	showIgnored bool
	unified     bool
	keepGoing   bool
	root        string
	backup      string
	color       string
}

// NewRootCommand builds the root command, which reconciles the given
// configuration files against the settings store.
func NewRootCommand(c *di.Container) *cobra.Command {
	var flags runFlags

	rootCmd := &cobra.Command{
		Use:   "dconfsync [flags] CONFIG [CONFIG...]",
		Short: "Reconcile declarative configuration with a dconf settings store",
		Long: `dconfsync compares declared configuration files with the current
contents of a dconf settings store and reports the difference as a
minimal list of changes. With --apply it writes those changes back.

Each CONFIG file is an INI-style document. A [section] header names a
settings directory and its key=value lines declare values. A section
left empty declares that everything under it is removed. A [-section]
header excludes a subtree from management entirely. Later files
override earlier ones key by key.`,
		Args:         cobra.MinimumNArgs(1),
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("config") {
				path, _ := cmd.Flags().GetString("config")
				if err := c.ReloadSettings(path); err != nil {
					return fmt.Errorf("failed to load settings: %w", err)
				}
			}
			if debugMode, _ := cmd.Flags().GetBool("debug"); debugMode {
				c.EnableDebug()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, c, args, flags)
		},
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf("{{.Name}} version {{.Version}}\nBuild time: %s\nGo version: %s\nPlatform: %s/%s\n",
		BuildTime, goVersion(), runtime.GOOS, runtime.GOARCH))

	rootCmd.Flags().BoolVarP(&flags.apply, "apply", "a", false, "apply the computed changes to the store")
	rootCmd.Flags().BoolVarP(&flags.showIgnored, "show-ignored", "i", false, "also list store entries the configuration does not manage")
	rootCmd.Flags().BoolVarP(&flags.unified, "unified", "u", false, "report as a unified diff of the store contents")
	rootCmd.Flags().BoolVar(&flags.keepGoing, "keep-going", false, "keep applying after a failed operation")
	rootCmd.Flags().StringVar(&flags.root, "root", "", "store path the configuration is relative to (default from settings)")
	rootCmd.Flags().StringVar(&flags.backup, "backup", "", "write the pre-apply snapshot to this file")
	rootCmd.Flags().StringVar(&flags.color, "color", "", "colorize output: auto, always or never (default from settings)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug output")
	rootCmd.PersistentFlags().String("config", "", "settings file path (default is ~/.config/dconfsync/config.json)")

	rootCmd.AddCommand(NewExportCommand(c))
	rootCmd.AddCommand(NewValidateCommand(c))

	return rootCmd
}

// runReconcile loads and merges the configuration files, plans against
// the store snapshot, prints the report and optionally applies.
func runReconcile(cmd *cobra.Command, c *di.Container, args []string, flags runFlags) error {
	doc, err := services.LoadManifest(args...)
	if err != nil {
		return err
	}
	if shadowed := doc.Shadowed(); len(shadowed) > 0 {
		c.Debug.Printf("declarations shadowed by exclusions: %v", shadowed)
	}

	st, err := c.NewStore(resolveRoot(flags.root, c))
	if err != nil {
		return err
	}
	svc := services.NewReconcileService(st, c.Debug)

	plan, err := svc.Plan(cmd.Context(), doc)
	if err != nil {
		return err
	}

	colored, err := resolveColor(flags.color, c.Settings.Color, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	reporter := NewReporter(colored)

	out := cmd.OutOrStdout()
	if flags.unified {
		text, err := reporter.RenderUnified(plan.Snapshot, plan.Changes.ApplyTo(plan.Snapshot))
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
	} else {
		var unmanaged []diff.UnmanagedEntry
		if flags.showIgnored {
			unmanaged = plan.Unmanaged
		}
		fmt.Fprint(out, reporter.Render(plan.Changes, unmanaged))
	}

	if !flags.apply || plan.Changes.Empty() {
		return nil
	}

	opts, err := resolveApplyOptions(flags, c)
	if err != nil {
		return err
	}
	result, err := svc.Apply(cmd.Context(), plan, opts)
	if err != nil {
		return err
	}
	if !result.OK() {
		fmt.Fprint(out, reporter.RenderResult(result))
		return fmt.Errorf("apply incomplete: %d of %d operations failed, %d not attempted",
			result.Failed(), len(result.Ops), result.Skipped())
	}
	return nil
}

func resolveRoot(root string, c *di.Container) string {
	if root != "" {
		return root
	}
	return c.Settings.Root
}

func resolveApplyOptions(flags runFlags, c *di.Container) (services.ApplyOptions, error) {
	opts := services.ApplyOptions{BackupPath: flags.backup}

	if flags.keepGoing {
		opts.Policy = apply.PolicyKeepGoing
	} else {
		policy, err := apply.ParsePolicy(c.Settings.ApplyPolicy)
		if err != nil {
			return opts, err
		}
		opts.Policy = policy
	}

	if opts.BackupPath == "" && c.Settings.BackupDir != "" {
		opts.BackupPath = services.BackupFilename(c.Settings.BackupDir, time.Now())
	}
	return opts, nil
}

// resolveColor decides whether to colorize. Mode "auto" colors only a
// terminal and respects NO_COLOR.
func resolveColor(mode, fallback string, out io.Writer) (bool, error) {
	if mode == "" {
		mode = fallback
	}
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		if os.Getenv("NO_COLOR") != "" {
			return false, nil
		}
		f, ok := out.(*os.File)
		return ok && isatty.IsTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("invalid color mode %q (expected auto, always or never)", mode)
	}
}

// goVersion returns the Go version used to build the binary
func goVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.GoVersion
	}
	return "unknown"
}

// Execute runs the root command and exits non-zero on error.
func Execute(ctx context.Context, c *di.Container) {
	rootCmd := NewRootCommand(c)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
