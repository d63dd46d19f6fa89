// Package ui holds the CLI's ANSI styling helpers.
package ui

import "fmt"

// ANSI256 color codes.
const (
	colorAccent   = 74  // blue
	colorCmd      = 250 // light gray
	colorMuted    = 245 // medium gray
	colorFeatured = 179 // gold
	colorPrice    = 114 // green
	colorError    = 167 // red
)

var noColor = !ShouldUseColor()

func render(code int, s string) string {
	if noColor || s == "" {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(colorAccent, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(colorMuted, s) }

// RenderCommand returns s styled as a command name.
func RenderCommand(s string) string { return render(colorCmd, s) }

// RenderFeatured marks featured listings.
func RenderFeatured(s string) string { return render(colorFeatured, s) }

// RenderPrice returns a display price.
func RenderPrice(s string) string { return render(colorPrice, s) }

// RenderError returns s in the error color.
func RenderError(s string) string { return render(colorError, s) }

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}

// ForceColor enables color output even without a terminal.
func ForceColor() {
	noColor = false
}

// ColorEnabled reports whether Render* functions emit escape codes.
func ColorEnabled() bool {
	return !noColor
}
