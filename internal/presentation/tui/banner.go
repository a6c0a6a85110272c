package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"  _                 _      _ _",
	" | |_ ___ _ __   __| |_ __(_) |",
	" | __/ _ \\ '_ \\ / _` | '__| | |",
	" | ||  __/ | | | (_| | |  | | |",
	"  \\__\\___|_| |_|\\__,_|_|  |_|_|",
}

// Green to teal.
var bannerColors = []string{"#4ade80", "#34d399", "#2dd4bf", "#22d3ee", "#38bdf8"}

// PrintBanner writes the tendril banner to w, colored when w is a color terminal.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(out.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
