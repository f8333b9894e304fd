package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the optpath banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct {
		text  string
		color string
	}{
		{"              _               _   _     ", "#38bdf8"},
		{"   ___  _ __ | |_ _ __   __ _| |_| |__  ", "#22d3ee"},
		{"  / _ \\| '_ \\| __| '_ \\ / _` | __| '_ \\ ", "#2dd4bf"},
		{" | (_) | |_) | |_| |_) | (_| | |_| | | |", "#34d399"},
		{"  \\___/| .__/ \\__| .__/ \\__,_|\\__|_| |_|", "#4ade80"},
		{"       |_|       |_|                    ", "#a3e635"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  optical path manager "+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
