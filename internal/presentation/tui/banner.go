// Package tui styles command output for terminals.
package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the onboard banner with its version.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{"   ___        _                         _ ", "#818cf8"},
		{"  / _ \\ _ __ | |__   ___   __ _ _ __ __| |", "#a78bfa"},
		{" | | | | '_ \\| '_ \\ / _ \\ / _` | '__/ _` |", "#c084fc"},
		{" | |_| | | | | |_) | (_) | (_| | | | (_| |", "#e879f9"},
		{"  \\___/|_| |_|_.__/ \\___/ \\__,_|_|  \\__,_|", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  v"+version).Faint())
	fmt.Fprintln(w)
}
