package cli

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/concierge/firstrun/internal/defaults"
	"github.com/concierge/firstrun/internal/userdata"
)

var doctorFix bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the installation layout before a first run",
	Args:  cobra.NoArgs,
	RunE:  runDoctor,
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "Create missing directories and fix .env permissions")
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	home, err := userdata.GetHomeRoot()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	problems := userdata.CheckInstallation(out, userdata.Layout{
		Home:        home,
		RootPath:    cfg.RootPath,
		ModulesRoot: cfg.ModulesRoot,
		LogsDir:     cfg.LogDir,
	}, doctorFix)

	if cfg.File != "" {
		fmt.Fprintf(out, "  [ OK ] %s parsed\n", cfg.File)
	}

	bundled := userdata.BundledDefaultsPath(cfg.RootPath)
	res, err := defaults.LintFile(afero.NewOsFs(), bundled)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		problems++
	case !res.Valid:
		for _, issue := range res.Issues {
			fmt.Fprintf(out, "  [FAIL] %s %s\n", bundled, issue)
		}
		problems++
	default:
		fmt.Fprintf(out, "  [ OK ] %s is a valid defaults list\n", bundled)
	}

	if problems > 0 {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("%d problem(s) found", problems)))
		return fmt.Errorf("%d problem(s) found", problems)
	}
	fmt.Fprintln(out, successStyle.Render("No problems found"))
	return nil
}
