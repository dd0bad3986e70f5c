package ui

import (
	"io"
	"os"

	"golang.org/x/term"
)

// ColorEnabled reports whether styled output should be written to w.
//
// Returns false if:
//   - NO_COLOR is set (https://no-color.org)
//   - w is not a terminal (file, pipe, buffer)
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsInteractive reports whether a human can be prompted on in.
//
// Returns false if:
//   - CREDPROBE_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - in is not a terminal
func IsInteractive(in *os.File) bool {
	if os.Getenv("CREDPROBE_NON_INTERACTIVE") == "1" {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	return in != nil && term.IsTerminal(int(in.Fd()))
}
