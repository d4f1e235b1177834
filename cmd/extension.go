package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"github.com/charmbracelet/log"
)

// RunExtension attempts to find and execute an external gfs-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// Extensions receive the global flags as GFS_* environment variables, so
// that they can open the same store.
func RunExtension(subcommand string, args []string) (bool, int) {
	externalCmdName := "gfs-" + subcommand

	lp, err := exec.LookPath(externalCmdName)
	if err != nil {
		log.Debug("external command not found in PATH", "command", externalCmdName, "err", err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvStore+"="+StoreLocation(),
		EnvStoreDriver+"="+StoreDriver(),
		EnvVerbose+"="+strconv.FormatBool(Verbose()),
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", externalCmdName, err)
		return true, 1
	}
	return true, 0
}
