package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tsukumogami/verse/internal/errmsg"
)

// errPartialRefresh is returned when refresh finished but some projects failed.
var errPartialRefresh = errors.New("some projects failed to refresh")

// errorContext carries the project the current command was about, so that
// error suggestions can name it.
var errorContext *errmsg.ErrorContext

type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func isUsageError(err error) bool {
	var u usageError
	return errors.As(err, &u)
}

// usageArgs wraps a cobra argument validator so its failures exit with
// ExitUsage.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// printInfo prints an informational message unless quiet mode is enabled
func printInfo(a ...any) {
	if !quietFlag {
		fmt.Println(a...)
	}
}

// printInfof prints a formatted informational message unless quiet mode is enabled
func printInfof(format string, a ...any) {
	if !quietFlag {
		fmt.Printf(format, a...)
	}
}

// printJSON marshals the given value to JSON and prints it to stdout
func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		exitWithCode(ExitGeneral)
	}
}

// printError prints an error to stderr with causes and suggestions.
func printError(err error) {
	if isUsageError(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\nRun 'verse --help' for usage.\n", err)
		return
	}
	errmsg.FprintContext(os.Stderr, err, errorContext)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// table prints rows aligned under a header on a terminal, and as bare
// tab-separated rows otherwise so that output pipes cleanly into cut or awk.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) print() {
	t.write(os.Stdout, isTerminal(os.Stdout), terminalWidth())
}

func (t *table) write(w io.Writer, tty bool, width int) {
	if !tty {
		for _, row := range t.rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()

	// Lines that would wrap are cut; the last column is the one that loses out.
	for _, line := range strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n") {
		if width > 1 && len(line) > width {
			line = line[:width-1] + "~"
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return 0
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0
	}
	return width
}
