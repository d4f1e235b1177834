package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/gfsync"
	"github.com/etnz/gfsync/app"
	"github.com/etnz/gfsync/platform"
	"github.com/google/subcommands"
)

type configsCmd struct{}

func (*configsCmd) Name() string     { return "configs" }
func (*configsCmd) Synopsis() string { return "show the asset and platform configs" }
func (*configsCmd) Usage() string {
	return `gfs configs

  Shows the symbol of each asset and the Ghostfolio account of each
  platform account. Placeholders are added for the ones found missing while
  processing responses.
`
}
func (*configsCmd) SetFlags(f *flag.FlagSet) {}
func (*configsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		ctl.RenderAll()
		return nil
	}, app.TargetConfigs)
}

type setSymbolCmd struct{}

func (*setSymbolCmd) Name() string     { return "set-symbol" }
func (*setSymbolCmd) Synopsis() string { return "set the symbol of an asset" }
func (*setSymbolCmd) Usage() string {
	return `gfs set-symbol <asset> <symbol>

  Sets the Ghostfolio symbol (by default a Yahoo Finance ticker) of an asset,
  named as the platform displays it. Use 'gfs lookup' to search symbols.
`
}
func (*setSymbolCmd) SetFlags(f *flag.FlagSet) {}
func (c *setSymbolCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(ctl *app.Controller) error {
		return ctl.SetSymbol(ctx, f.Arg(0), f.Arg(1))
	})
}

type setAccountCmd struct {
	label string
}

func (*setAccountCmd) Name() string { return "set-account" }
func (*setAccountCmd) Synopsis() string {
	return "set the Ghostfolio account of a platform account"
}
func (*setAccountCmd) Usage() string {
	return `gfs set-account [-label <label>] <platform> <account ID>

  Maps an account of a platform, e.g. "PEE" on Amundi, to the ID of a
  Ghostfolio account. Without -label, the default account of the platform is
  set, used for the labels not configured.
`
}
func (c *setAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.label, "label", gfsync.DefaultAccount, "Account label, as the platform names it.")
}
func (c *setAccountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	return withApp(ctx, func(ctl *app.Controller) error {
		return ctl.SetAccount(ctx, f.Arg(0), c.label, f.Arg(1))
	})
}

type settingsCmd struct {
	dataSource string
	currency   string
	exportDir  string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or update the settings" }
func (*settingsCmd) Usage() string {
	return `gfs settings [-data-source YAHOO] [-currency EUR] [-export-dir <dir>]

  Updates the given settings, and shows them.
`
}
func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataSource, "data-source", "", "Ghostfolio data source of the symbols.")
	f.StringVar(&c.currency, "currency", "", "Currency of platforms that do not tell.")
	f.StringVar(&c.exportDir, "export-dir", "", "Folder receiving the exported files.")
}
func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		if c.dataSource == "" && c.currency == "" && c.exportDir == "" {
			ctl.RenderAll()
			return nil
		}
		settings := ctl.State().Settings
		if c.dataSource != "" {
			settings.DataSource = c.dataSource
		}
		if c.currency != "" {
			settings.Currency = c.currency
		}
		if c.exportDir != "" {
			settings.ExportDir = c.exportDir
		}
		return ctl.SaveSettings(ctx, settings)
	}, app.TargetSettings)
}

type addPlatformCmd struct{}

func (*addPlatformCmd) Name() string { return "add-platform" }
func (*addPlatformCmd) Synopsis() string {
	return "add or replace a platform config, with its scrape rules"
}
func (*addPlatformCmd) Usage() string {
	return `gfs add-platform <platform.json>

  Reads a platform config: its name, currency, accounts and the JSONPath
  rules extracting transactions from its responses. See 'gfs topic
  custom-platforms'. Accounts already configured are kept.
`
}
func (*addPlatformCmd) SetFlags(f *flag.FlagSet) {}
func (c *addPlatformCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	var cfg gfsync.PlatformConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid platform config: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.Name == "" {
		fmt.Fprintln(os.Stderr, "Error: the platform name is missing")
		return subcommands.ExitFailure
	}
	if cfg.Rules != nil {
		if _, err := platform.Custom(cfg.Name, *cfg.Rules); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	return withApp(ctx, func(ctl *app.Controller) error {
		platforms := ctl.State().Platforms
		if old, ok := platforms.Get(cfg.Name); ok {
			for label, id := range old.Accounts {
				if _, set := cfg.Accounts[label]; !set {
					if cfg.Accounts == nil {
						cfg.Accounts = make(map[string]string)
					}
					cfg.Accounts[label] = id
				}
			}
		}
		platforms.Set(cfg)
		return ctl.SavePlatformConfigs(ctx, platforms)
	}, app.TargetPlatforms)
}
