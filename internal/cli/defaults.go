package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/concierge/firstrun/internal/defaults"
)

var defaultsJSON bool

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show which defaults list would be installed",
	Long: `Walk the defaults source chain and print the winning source and its
entries. The remote page is only fetched if every local source is empty.`,
	Args: cobra.NoArgs,
	RunE: runDefaults,
}

var defaultsLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Validate a defaults.json file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefaultsLint,
}

func init() {
	defaultsCmd.Flags().BoolVar(&defaultsJSON, "json", false, "Output in JSON format")
	defaultsCmd.AddCommand(defaultsLintCmd)
	rootCmd.AddCommand(defaultsCmd)
}

type defaultsOutput struct {
	Source  string     `json:"source"`
	Entries [][]string `json:"entries"`
}

func runDefaults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd, cfg, "")
	if err != nil {
		return err
	}
	defer logger.Close()

	res, err := defaults.NewResolver(logger.Logger, defaultSources(cfg).Lookups()...).Resolve(cmd.Context())
	if err != nil {
		if errors.Is(err, defaults.ErrNoDefaults) {
			fmt.Fprintln(cmd.OutOrStdout(), "No defaults list is available to install.")
		}
		return err
	}

	if defaultsJSON {
		data, err := json.MarshalIndent(defaultsOutput{Source: res.Source, Entries: defaults.Rows(res.Entries)}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling defaults: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render("Defaults from "+res.Source))
	for _, e := range res.Entries {
		fmt.Fprintf(out, "  %s  %s\n", e.Name, mutedStyle.Render(e.Source))
	}
	return nil
}

func runDefaultsLint(cmd *cobra.Command, args []string) error {
	res, err := defaults.LintFile(afero.NewOsFs(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Valid {
		fmt.Fprintln(out, successStyle.Render("✓ "+args[0]+" is valid"))
		return nil
	}
	fmt.Fprintln(out, errorStyle.Render("✗ "+args[0]+" is invalid"))
	for _, issue := range res.Issues {
		fmt.Fprintf(out, "  %s\n", issue)
	}
	return fmt.Errorf("%s: %d issue(s)", args[0], len(res.Issues))
}
