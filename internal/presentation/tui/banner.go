package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the listflow ASCII art banner.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Teal-to-green gradient.
	s1 := termenv.String(` _ _     _   __ _`).Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String(`| (_)___| |_ / _| | _____      __`).Foreground(p.Color("#34d399"))
	s3 := termenv.String(`| | / __| __| |_| |/ _ \ \ /\ / /`).Foreground(p.Color("#4ade80"))
	s4 := termenv.String(`| | \__ \ |_|  _| | (_) \ V  V /`).Foreground(p.Color("#86efac"))
	s5 := termenv.String(`|_|_|___/\__|_| |_|\___/ \_/\_/`).Foreground(p.Color("#bbf7d0"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
