package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the Androfit ASCII art banner for console mode.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Energetic warm gradient (amber to red), gym vibes.
	lines := []string{
		"    _              _            __ _ _   ",
		"   / \\   _ __   __| |_ __ ___  / _(_) |_ ",
		"  / _ \\ | '_ \\ / _` | '__/ _ \\| |_| | __|",
		" / ___ \\| | | | (_| | | | (_) |  _| | |_ ",
		"/_/   \\_\\_| |_|\\__,_|_|  \\___/|_| |_|\\__|",
	}
	colors := []string{"#fbbf24", "#f59e0b", "#f97316", "#ea580c", "#ef4444"}

	fmt.Println()
	for i, line := range lines {
		fmt.Println(termenv.String(line).Foreground(p.Color(colors[i])))
	}
	fmt.Println()
	fmt.Println(termenv.String(" AI gym coach " + strings.TrimSpace(version)).Foreground(p.Color("#9ca3af")))
	fmt.Println()
}
