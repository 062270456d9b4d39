package cli

import (
	"fmt"
	"io"
)

// Output helpers keep icons and indentation consistent across commands.
//
//   ✓  success
//   ○  nothing to show

func printOK(w io.Writer, msg string) {
	fmt.Fprintf(w, "  ✓  %s\n", msg)
}

func printEmpty(w io.Writer, msg string) {
	fmt.Fprintf(w, "  ○  %s\n", msg)
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "=== %s ===\n", title)
}
