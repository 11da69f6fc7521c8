package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ___  __  __ _  _ ___ ___   _   ___ ___ `, "#818cf8"},
	{`  / _ \|  \/  | \| |_ _| _ ) /_\ / __| __|`, "#a78bfa"},
	{` | (_) | |\/| | .' || || _ \/ _ \\__ \ _| `, "#c084fc"},
	{`  \___/|_|  |_|_|\_|___|___/_/ \_\___/___|`, "#e879f9"},
}

// PrintBanner writes the ASCII banner to w using the terminal's color profile.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
