package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset     = "\x1b[0m"
	ansiUnderline = "\x1b[4m"
	ansiDim       = "\x1b[2m"
)

// Print writes a snapshot as plain text. Labels are dimmed and underlined
// when styled is true.
func Print(w io.Writer, s Snapshot, styled bool) error {
	if _, err := fmt.Fprintln(w, s.Status); err != nil {
		return err
	}
	if !s.ListVisible {
		return nil
	}
	for _, e := range s.Entries {
		label := e.Label
		if styled {
			label = ansiDim + ansiUnderline + label + ansiReset
		}
		if _, err := fmt.Fprintf(w, "  %s %s\n", label, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// IsTerminal reports whether f is an interactive terminal, the condition
// for styled output.
func IsTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
