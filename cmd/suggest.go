package cmd

import (
	"context"
	"flag"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/etnz/gfsync/agent"
	"github.com/etnz/gfsync/app"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type suggestCmd struct {
	apply bool
	model string
}

func (*suggestCmd) Name() string { return "suggest" }
func (*suggestCmd) Synopsis() string {
	return "ask Gemini for the symbols of the assets without one"
}
func (*suggestCmd) Usage() string {
	return `gfs suggest [-apply] [asset...]

  Asks a Gemini model, grounded with Google Search and Ghostfolio symbol
  lookup when connected, for the Yahoo Finance symbol of the given assets,
  or of every asset without symbol. Set GEMINI_API_KEY first.

  Suggestions are printed, and saved with -apply. Check them: a wrong symbol
  imports wrong prices.
`
}
func (c *suggestCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.apply, "apply", false, "Save the suggested symbols.")
	f.StringVar(&c.model, "model", agent.Model, "Gemini model.")
}
func (c *suggestCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return withApp(ctx, func(ctl *app.Controller) error {
		names := f.Args()
		if len(names) == 0 {
			names = ctl.State().Assets.Unresolved()
		}
		if len(names) == 0 {
			fmt.Println("Every asset has a symbol.")
			return nil
		}

		client, err := genai.NewClient(ctx, nil)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error initializing Gemini's client:", err)
			return err
		}
		var lookup agent.Lookuper
		if cfg := ctl.State().Ghostfolio; cfg.Configured() {
			if lookup, err = ghostfolioClient(ctl); err != nil {
				return err
			}
		}

		agent.Model = c.model
		suggestions, err := agent.SuggestSymbols(ctx, client, lookup, names)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Suggestion failed:", err)
			return err
		}

		var md strings.Builder
		md.WriteString("| Asset | Suggested symbol |\n|-------|------------------|\n")
		for _, name := range names {
			symbol, ok := suggestions[name]
			if !ok {
				symbol = "-"
			}
			fmt.Fprintf(&md, "| %s | %s |\n", name, symbol)
		}
		printMarkdown(md.String())

		if !c.apply {
			return nil
		}
		for _, name := range slices.Sorted(maps.Keys(suggestions)) {
			if err := ctl.SetSymbol(ctx, name, suggestions[name]); err != nil {
				return err
			}
		}
		return nil
	})
}
