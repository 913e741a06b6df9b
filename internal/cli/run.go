package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/concierge/firstrun/internal/bootstrap"
	"github.com/concierge/firstrun/internal/defaults"
	"github.com/concierge/firstrun/internal/extension"
	"github.com/concierge/firstrun/internal/host"
	"github.com/concierge/firstrun/internal/installer"
)

var (
	runForce  bool
	runDryRun bool
)

// newCloner is swapped out in tests.
var newCloner = func(depth int) extension.Cloner { return extension.NewGitCloner(depth) }

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Install the default modules into an empty installation",
	Long: `Resolve the default module list and install every entry.

The list is taken from the first source that has one: the bundled
defaults.json, the "defaults" config section, this unit's config section,
the CONCIERGE_DEFAULTS environment variable, and finally the remote defaults
page. Nothing happens if modules other than this unit are already installed,
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runForce, "force", false, "Run even if modules are already installed")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Resolve and print the defaults list without installing")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logDir := cfg.LogDir
	if runDryRun {
		logDir = ""
	}
	logger, err := newLogger(cmd, cfg, logDir)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx := cmd.Context()
	fsys := afero.NewOsFs()
	loader := host.NewLoader(fsys, cfg.ModulesRoot, logger.Logger)

	installed, err := loader.Count(cfg.UnitName)
	if err != nil {
		return err
	}
	if installed > 0 && !runForce {
		fmt.Fprintf(cmd.OutOrStdout(), "%d module(s) already installed; nothing to do. Use --force to install defaults anyway.\n", installed)
		return nil
	}

	if err := loader.LoadAllModules(ctx); err != nil {
		return err
	}
	loader.Load(host.Module{Name: cfg.UnitName, Dir: cfg.UnitDir})

	ctrl := bootstrap.New(bootstrap.Options{
		Resolver: defaults.NewResolver(logger.Logger, defaultSources(cfg).Lookups()...),
		Installer: installer.New(installer.Options{
			Cloner:       newCloner(cfg.CloneDepth),
			FS:           fsys,
			ModulesRoot:  cfg.ModulesRoot,
			Logger:       logger.Logger,
			CloneTimeout: cfg.CloneTimeout,
		}),
		Host:     loader,
		FS:       fsys,
		UnitName: cfg.UnitName,
		UnitDir:  cfg.UnitDir,
		Adapter:  cfg.Adapter,
		DryRun:   runDryRun,
		Logger:   logger.Logger,
	})

	report, err := ctrl.Run(ctx)
	if errors.Is(err, bootstrap.ErrNoDefaults) {
		fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("No defaults list is available to install."))
		return err
	}
	if report != nil {
		printReport(cmd, report, runDryRun)
	}
	if path := logger.Path(); path != "" {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Log written to "+filepath.ToSlash(path)))
	}
	return err
}

func printReport(cmd *cobra.Command, r *bootstrap.Report, dryRun bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Defaults from "+r.Source))

	if dryRun {
		for _, e := range r.Entries {
			fmt.Fprintf(out, "  %s  %s\n", e.Name, mutedStyle.Render(e.Source))
		}
		return
	}

	for _, o := range r.Outcomes {
		switch {
		case !o.Success:
			fmt.Fprintf(out, "  %s %s  %s\n", errorStyle.Render("✗"), o.Entry.Name, mutedStyle.Render(o.Err.Error()))
		case o.Version == "":
			fmt.Fprintf(out, "  %s %s  %s\n", successStyle.Render("✓"), o.Entry.Name, warningStyle.Render("version unknown"))
		default:
			fmt.Fprintf(out, "  %s %s  %s\n", successStyle.Render("✓"), o.Entry.Name, o.Version)
		}
	}
	fmt.Fprintf(out, "%d installed, %d failed\n", r.Installed(), len(r.Outcomes)-r.Installed())
}
