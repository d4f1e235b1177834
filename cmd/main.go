package cmd

import (
	"flag"

	"github.com/etnz/gfsync/docs"
	"github.com/etnz/gfsync/platform"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// groups lists the commands by group, in help order.
var groups = []struct {
	name     string
	commands []subcommands.Command
}{
	{"transactions", []subcommands.Command{
		&processCmd{}, &serveCmd{}, &platformsCmd{}, &openCmd{}, &lastCmd{},
		&exportCmd{}, &importedCmd{}, &syncCmd{}, &resetCmd{},
	}},
	{"configs", []subcommands.Command{
		&configsCmd{}, &setSymbolCmd{}, &setAccountCmd{}, &addPlatformCmd{}, &settingsCmd{},
	}},
	{"ghostfolio", []subcommands.Command{
		&ghostfolioLoginCmd{}, &lookupCmd{}, &suggestCmd{},
	}},
	{"help", []subcommands.Command{&topicCmd{}}},
}

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
}

// Known reports whether name is a built-in subcommand.
func Known(name string) bool {
	switch name {
	case "help", "flags", "commands":
		return true
	}
	for _, g := range groups {
		for _, cmd := range g.commands {
			if cmd.Name() == name {
				return true
			}
		}
	}
	return false
}

// Completion returns the shell completion of the gfs command.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	var platforms predict.Set
	for _, p := range platform.Builtins() {
		platforms = append(platforms, p.ID)
	}
	topics, _ := docs.GetAllTopics()
	for _, g := range groups {
		for _, cmd := range g.commands {
			f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
			cmd.SetFlags(f)
			sub := &complete.Command{Flags: flagPredictors(f)}
			switch cmd.(type) {
			case *processCmd, *addPlatformCmd:
				sub.Args = predict.Files("*")
			case *openCmd, *lastCmd, *exportCmd, *importedCmd, *syncCmd, *resetCmd, *setAccountCmd:
				sub.Args = platforms
			case *topicCmd:
				sub.Args = predict.Set(topics)
			}
			root.Sub[cmd.Name()] = sub
		}
	}
	return root
}

func flagPredictors(f *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	f.VisitAll(func(fl *flag.Flag) {
		if b, ok := fl.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[fl.Name] = predict.Nothing
			return
		}
		flags[fl.Name] = predict.Something
	})
	return flags
}
