package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/gfsync/app"
)

// terminalUI prints some render targets and every notice.
type terminalUI struct {
	out, err io.Writer
	targets  []app.Target
}

func newTerminalUI(out, err io.Writer, targets ...app.Target) *terminalUI {
	return &terminalUI{out: out, err: err, targets: targets}
}

func (u *terminalUI) Render(target app.Target, markdown string) {
	if markdown == "" || !slices.Contains(u.targets, target) {
		return
	}
	printMarkdownTo(u.out, markdown)
}

func (u *terminalUI) Success(msg string) { fmt.Fprintln(u.out, msg) }
func (u *terminalUI) Error(msg string)   { fmt.Fprintln(u.err, msg) }

// printMarkdown prints md to stdout.
func printMarkdown(md string) { printMarkdownTo(os.Stdout, md) }

// printMarkdownTo renders md with glamour on terminals, and prints it as is
// otherwise.
func printMarkdownTo(w io.Writer, md string) {
	if f, ok := w.(*os.File); !ok || !isTerminal(f) {
		fmt.Fprintln(w, md)
		return
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Fprintln(w, md)
		return
	}
	fmt.Fprint(w, out)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
