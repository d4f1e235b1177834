package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/gfsync"
	"github.com/etnz/gfsync/app"
	"github.com/etnz/gfsync/ghostfolio"
	"github.com/etnz/gfsync/renderer"
	"github.com/google/subcommands"
)

type ghostfolioLoginCmd struct {
	host  string
	token string
}

func (*ghostfolioLoginCmd) Name() string { return "ghostfolio-login" }
func (*ghostfolioLoginCmd) Synopsis() string {
	return "connect to a Ghostfolio instance and list its accounts"
}
func (*ghostfolioLoginCmd) Usage() string {
	return `gfs ghostfolio-login [-host https://ghostfol.io] -token <security token>

  Checks and saves the connection to Ghostfolio, used by 'gfs sync' and
  'gfs lookup'. The security token is the one Ghostfolio gave at sign up.
  Lists the accounts, their IDs go in 'gfs set-account'.
`
}
func (c *ghostfolioLoginCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.host, "host", "https://ghostfol.io", "Base URL of the Ghostfolio instance.")
	f.StringVar(&c.token, "token", "", "Security token of the Ghostfolio user.")
}
func (c *ghostfolioLoginCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := gfsync.GhostfolioConfig{Host: strings.TrimSuffix(c.host, "/"), AccessToken: c.token}
	client, err := ghostfolio.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	accounts, err := client.Accounts(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to %s: %v\n", cfg.Host, err)
		return subcommands.ExitFailure
	}
	return withApp(ctx, func(ctl *app.Controller) error {
		if err := ctl.SaveGhostfolioConfig(ctx, cfg); err != nil {
			return err
		}
		view := make([]renderer.Account, 0, len(accounts))
		for _, a := range accounts {
			view = append(view, renderer.Account{ID: a.ID, Name: a.Name, Currency: a.Currency})
		}
		printMarkdown(renderer.RenderAccounts(view))
		return nil
	})
}

type lookupCmd struct{}

func (*lookupCmd) Name() string     { return "lookup" }
func (*lookupCmd) Synopsis() string { return "search symbols in Ghostfolio" }
func (*lookupCmd) Usage() string {
	return `gfs lookup <query>

  Searches the symbols Ghostfolio knows by name, ISIN or ticker.
`
}
func (*lookupCmd) SetFlags(f *flag.FlagSet) {}
func (c *lookupCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	query := strings.Join(f.Args(), " ")
	return withApp(ctx, func(ctl *app.Controller) error {
		client, err := ghostfolioClient(ctl)
		if err != nil {
			return err
		}
		symbols, err := client.Lookup(ctx, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return err
		}
		view := make([]renderer.Symbol, 0, len(symbols))
		for _, s := range symbols {
			view = append(view, renderer.Symbol{Symbol: s.Symbol, Name: s.Name, Currency: s.Currency, DataSource: s.DataSource})
		}
		printMarkdown(renderer.RenderSymbols(query, view))
		return nil
	})
}

// ghostfolioClient returns the client of the saved Ghostfolio connection.
func ghostfolioClient(ctl *app.Controller) (*ghostfolio.Client, error) {
	cfg := ctl.State().Ghostfolio
	if !cfg.Configured() {
		fmt.Fprintln(os.Stderr, "Ghostfolio is not connected, run 'gfs ghostfolio-login' first.")
		return nil, fmt.Errorf("ghostfolio is not connected")
	}
	client, err := ghostfolio.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, err
	}
	return client, nil
}
