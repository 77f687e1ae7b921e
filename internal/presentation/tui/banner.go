package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	` __        __              __`,
	` \ \      / /_ _ _   _  / _| __ _ _ __ ___ _ __`,
	`  \ \ /\ / / _' | | | || |_ / _' | '__/ _ \ '__|`,
	`   \ V  V / (_| | |_| ||  _| (_| | | |  __/ |`,
	`    \_/\_/ \__,_|\__, ||_|  \__,_|_|  \___|_|`,
	`                 |___/`,
}

// Sunset gradient, one color per line.
var bannerColors = []string{"#fbbf24", "#f59e0b", "#f97316", "#ef4444", "#ec4899", "#a855f7"}

// PrintBanner writes the Wayfarer banner to w, colored when w is a terminal
// that supports it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
