package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/pageflow"
	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"                        __ _               ",
	"  _ __   __ _  __ _  ___/ _| | _____      __",
	" | '_ \\ / _` |/ _` |/ _ \\ |_| |/ _ \\ \\ /\\ / /",
	" | |_) | (_| | (_| |  __/  _| | (_) \\ V  V / ",
	" | .__/ \\__,_|\\__, |\\___|_| |_|\\___/ \\_/\\_/  ",
	" |_|          |___/                          ",
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the ASCII art banner and the version to w.
func PrintBanner(w io.Writer, profile termenv.Profile) {
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, profile.String(line).Foreground(profile.Color(bannerColors[i])))
	}
	fmt.Fprintln(w, profile.String("  v"+strings.TrimSpace(pageflow.Version)).Faint())
	fmt.Fprintln(w)
}
