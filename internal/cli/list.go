package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/concierge/firstrun/internal/host"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed modules",
	Long:  `List the modules under the modules root with their declared versions.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an installed module for display.
type listEntry struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version"`
	Semver  bool   `json:"semver"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mods, err := host.NewLoader(afero.NewOsFs(), cfg.ModulesRoot, nil).Modules()
	if err != nil {
		return fmt.Errorf("discovering modules: %w", err)
	}

	if len(mods) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No modules installed yet.")
		return nil
	}

	entries := make([]listEntry, 0, len(mods))
	for _, m := range mods {
		e := listEntry{Name: m.Name, Path: m.Dir, Version: m.Version()}
		if m.Descriptor != nil {
			if _, err := m.Descriptor.Version.Semver(); err == nil {
				e.Semver = true
			}
		}
		entries = append(entries, e)
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	return printListTable(cmd, entries)
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSEMVER")
	for _, e := range entries {
		version := e.Version
		if version == "" {
			version = "-"
		}
		semver := "no"
		if e.Semver {
			semver = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, version, semver)
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
