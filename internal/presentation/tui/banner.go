package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the brief banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct{ text, color string }{
		{" _          _       __ ", "#818cf8"},
		{"| |__  _ __(_) ___ / _|", "#a78bfa"},
		{"| '_ \\| '__| |/ _ \\ |_ ", "#c084fc"},
		{"| |_) | |  | |  __/  _|", "#e879f9"},
		{"|_.__/|_|  |_|\\___|_|  ", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
