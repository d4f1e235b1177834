package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/etnz/gfsync/app"
	"github.com/etnz/gfsync/intercept"
	"github.com/google/subcommands"
)

type processCmd struct {
	url string
}

func (*processCmd) Name() string { return "process" }
func (*processCmd) Synopsis() string {
	return "find the new transactions in intercepted platform responses"
}
func (*processCmd) Usage() string {
	return `gfs process <file.har>...
gfs process -url <url> <body.json>

  Reads the responses recorded in HAR files (save them from the browser
  developer tools, Network tab, "Save all as HAR"), or a single response
  body with the URL it was fetched from. Responses of a supported platform
  are reconciled with its last imported transaction, the new transactions
  are kept pending until exported or synced.

  Missing asset symbols or platform accounts are added to the configs, fill
  them in and process again.
`
}

func (c *processCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.url, "url", "", "URL the single body file was fetched from.")
}

func (c *processCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 || (c.url != "" && f.NArg() != 1) {
		fmt.Fprintln(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	var responses []intercept.Response
	if c.url != "" {
		body, err := os.ReadFile(f.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		responses = append(responses, intercept.Response{URL: c.url, Status: 200, Body: body})
	} else {
		for _, name := range f.Args() {
			rs, err := readHARFile(name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				return subcommands.ExitFailure
			}
			responses = append(responses, rs...)
		}
	}

	return withApp(ctx, func(ctl *app.Controller) error {
		if err := intercept.ProcessAll(ctx, ctl, responses); err != nil {
			return err
		}
		if ctl.State().Current == "" {
			fmt.Fprintln(os.Stderr, "No response of a supported platform found.")
			return errors.New("nothing processed")
		}
		return nil
	}, app.TargetLastTxn, app.TargetNewTxns, app.TargetConfigs)
}

func readHARFile(name string) ([]intercept.Response, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	responses, err := intercept.ReadHAR(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return responses, nil
}

type serveCmd struct {
	addr string
}

func (*serveCmd) Name() string { return "serve" }
func (*serveCmd) Synopsis() string {
	return "receive intercepted responses from the browser and serve the views"
}
func (*serveCmd) Usage() string {
	return `gfs serve [-addr localhost:8377]

  Starts a local server. A browser-side script posts every intercepted
  platform response to POST /api/responses as {"url": ..., "body": ...};
  the views are served as an HTML page on / and as JSON on /api/views.

  Actions: POST /api/actions/{reset,export,imported,sync} and
  POST /api/platforms/<name>/open. HAR files can be posted to /api/har.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "localhost:8377", "Address to listen on.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	views := intercept.NewViews()
	ctl, release, err := openApp(ctx, views)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer release()

	fmt.Printf("Serving on http://%s\n", c.addr)
	if err := intercept.NewServer(ctl, views).ListenAndServe(ctx, c.addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
