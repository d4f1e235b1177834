package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/gfsync/app"
	"github.com/google/subcommands"
)

type platformsCmd struct{}

func (*platformsCmd) Name() string     { return "platforms" }
func (*platformsCmd) Synopsis() string { return "list the supported platforms" }
func (*platformsCmd) Usage() string {
	return `gfs platforms

  Lists the built-in platforms, and the platforms configured with scrape
  rules, with the page listing their transactions.
`
}
func (*platformsCmd) SetFlags(f *flag.FlagSet) {}
func (*platformsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		ctl.RenderAll()
		return nil
	}, app.TargetPlatforms)
}

type openCmd struct{}

func (*openCmd) Name() string     { return "open" }
func (*openCmd) Synopsis() string { return "print the transactions page of a platform" }
func (*openCmd) Usage() string {
	return `gfs open <platform>

  Prints the page to visit, with the browser developer tools open, to
  record the responses listing the transactions of the platform.
`
}
func (*openCmd) SetFlags(f *flag.FlagSet) {}
func (*openCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		if err := selectPlatform(ctx, ctl, f); err != nil {
			return err
		}
		p, _ := ctl.Table().ByName(ctl.State().Current)
		fmt.Println(p.TxnPageURL)
		return nil
	})
}

type lastCmd struct{}

func (*lastCmd) Name() string     { return "last" }
func (*lastCmd) Synopsis() string { return "show the last imported transaction of a platform" }
func (*lastCmd) Usage() string {
	return `gfs last <platform>

  Shows the last transaction marked as imported, and the pending new
  transactions of the last processing.
`
}
func (*lastCmd) SetFlags(f *flag.FlagSet) {}
func (*lastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		return selectPlatform(ctx, ctl, f)
	}, app.TargetLastTxn, app.TargetNewTxns)
}

type resetCmd struct{}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "forget the last imported transaction of a platform" }
func (*resetCmd) Usage() string {
	return `gfs reset <platform>

  Forgets the last imported transaction: the next processing finds every
  listed transaction new.
`
}
func (*resetCmd) SetFlags(f *flag.FlagSet) {}
func (*resetCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		if err := selectPlatform(ctx, ctl, f); err != nil {
			return err
		}
		return ctl.ResetLastTxn(ctx)
	})
}

type exportCmd struct{}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string {
	return "export the new transactions of a platform as a Ghostfolio import file"
}
func (*exportCmd) Usage() string {
	return `gfs export <platform>

  Writes the pending new transactions to <export dir>/<platform>-transactions.json.
  Import it in Ghostfolio, then run 'gfs imported <platform>'.
`
}
func (*exportCmd) SetFlags(f *flag.FlagSet) {}
func (*exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		if err := selectPlatform(ctx, ctl, f); err != nil {
			return err
		}
		_, err := ctl.Export(ctx)
		return err
	})
}

type importedCmd struct{}

func (*importedCmd) Name() string { return "imported" }
func (*importedCmd) Synopsis() string {
	return "mark the new transactions of a platform as imported"
}
func (*importedCmd) Usage() string {
	return `gfs imported <platform>

  Records the newest transaction of the last processing as the last
  imported one. Run it only once the import succeeded in Ghostfolio.
`
}
func (*importedCmd) SetFlags(f *flag.FlagSet) {}
func (*importedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		if err := selectPlatform(ctx, ctl, f); err != nil {
			return err
		}
		latest, ok := ctl.Latest()
		if !ok {
			fmt.Fprintln(os.Stderr, "No new transaction to mark as imported, process the platform responses first.")
			return errors.New("no pending transaction")
		}
		return ctl.MarkImported(ctx, latest)
	}, app.TargetLastTxn)
}

type syncCmd struct {
	dryRun bool
}

func (*syncCmd) Name() string { return "sync" }
func (*syncCmd) Synopsis() string {
	return "push the new transactions of a platform to Ghostfolio"
}
func (*syncCmd) Usage() string {
	return `gfs sync [-dry-run] <platform>

  Posts the pending new transactions to the import API of the Ghostfolio
  instance set with 'gfs ghostfolio-login'. Check them in Ghostfolio, then
  run 'gfs imported <platform>'.
`
}
func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "dry-run", false, "Only validate the transactions.")
}
func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		if err := selectPlatform(ctx, ctl, f); err != nil {
			return err
		}
		return ctl.Sync(ctx, c.dryRun)
	})
}
