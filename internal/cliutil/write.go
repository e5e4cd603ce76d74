// Package cliutil provides output helpers shared by the vers subcommands.
package cliutil

import (
	"fmt"
	"io"
	"os"
)

// ErrOutput receives write failures reported by Writef.
var ErrOutput io.Writer = os.Stderr

// Writef writes formatted output to w. A failed write is reported on ErrOutput
// instead of being returned.
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(ErrOutput, "write error: %v\n", err)
	}
}

// WriteList writes a "Title (n):" header followed by one indented line per item.
// Nothing but the header is written for an empty list.
func WriteList(w io.Writer, title string, items []string) {
	Writef(w, "%s (%d):\n", title, len(items))
	for _, item := range items {
		Writef(w, "  %s\n", item)
	}
}
