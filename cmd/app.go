// Package cmd implements the gfs command line application.
//
// Every command opens the store, runs one action of the application
// controller and prints the views it renders.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync/app"
	"github.com/etnz/gfsync/store"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

// Environment variables backing the global flags. They are also passed to
// extensions.
const (
	EnvStore       = "GFS_STORE"
	EnvStoreDriver = "GFS_STORE_DRIVER"
	EnvVerbose     = "GFS_VERBOSE"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	storeFlag   = flag.String("store", "", "Location of the store: a folder, or a database file with -store-driver=sqlite. Defaults to $"+EnvStore+" or .gfsync")
	driverFlag  = flag.String("store-driver", "", "Store driver, \"dir\" or \"sqlite\". Defaults to $"+EnvStoreDriver+" or dir")
	verboseFlag = flag.Bool("v", false, "Verbose logging. Defaults to $"+EnvVerbose)
)

// LoadEnv loads the .env file of the current directory, if any, into the
// environment. Variables already set are kept.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cannot load .env: %w", err)
	}
	return nil
}

// SetupLogging configures the logger from the global flags.
func SetupLogging() {
	log.SetLevel(log.WarnLevel)
	if Verbose() {
		log.SetLevel(log.DebugLevel)
	}
}

// StoreLocation returns the store location from the flags or the environment.
func StoreLocation() string {
	return flagOrEnv(*storeFlag, EnvStore, ".gfsync")
}

// StoreDriver returns the store driver from the flags or the environment.
func StoreDriver() string {
	return flagOrEnv(*driverFlag, EnvStoreDriver, store.DriverDir)
}

// Verbose reports whether verbose logging is requested.
func Verbose() bool {
	if *verboseFlag {
		return true
	}
	v, _ := strconv.ParseBool(os.Getenv(EnvVerbose))
	return v
}

func flagOrEnv(value, env, def string) string {
	if value != "" {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// openApp opens the store and the controller rendering into ui. release must
// be called once done.
func openApp(ctx context.Context, ui app.UI) (ctl *app.Controller, release func(), err error) {
	s, err := store.Open(StoreDriver(), StoreLocation())
	if err != nil {
		return nil, nil, err
	}
	release = func() {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Error("cannot close store", "err", err)
			}
		}
	}
	ctl, err = app.New(ctx, app.Deps{Store: s, UI: ui})
	if err != nil {
		release()
		return nil, nil, err
	}
	return ctl, release, nil
}

// withApp runs fn with a controller printing the targets to stdout.
func withApp(ctx context.Context, fn func(ctl *app.Controller) error, targets ...app.Target) subcommands.ExitStatus {
	ctl, release, err := openApp(ctx, newTerminalUI(os.Stdout, os.Stderr, targets...))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer release()
	if err := fn(ctl); err != nil {
		log.Debug("command failed", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// selectPlatform returns the first argument of f as the selected platform.
func selectPlatform(ctx context.Context, ctl *app.Controller, f *flag.FlagSet) error {
	if f.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: expecting exactly one platform name, got %q\n", f.Args())
		return errors.New("invalid arguments")
	}
	if err := ctl.SelectPlatform(ctx, f.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
