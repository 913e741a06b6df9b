package cli

import (
	"github.com/concierge/firstrun/internal/branding"
	"github.com/concierge/firstrun/internal/config"
	"github.com/concierge/firstrun/internal/defaults"
	"github.com/concierge/firstrun/internal/userdata"
)

// defaultSources builds the standard defaults chain from cfg.
func defaultSources(cfg *config.Config) defaults.Sources {
	return defaults.Sources{
		BundledFile: userdata.BundledDefaultsPath(cfg.RootPath),
		Global:      cfg.GlobalScope(),
		Module:      cfg.ModuleScope(),
		Fetcher: defaults.NewHTTPFetcher(
			defaults.WithTimeout(cfg.FetchTimeout),
			defaults.WithUserAgent(branding.CLIName()+"/"+buildVersion),
		),
	}
}
