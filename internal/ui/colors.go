// Package ui holds the ANSI styling used by CLI help and run summaries.
package ui

import "strings"

// ANSI color and style constants for CLI output
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorCyan   = "\033[36m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorWhite  = "\033[97m"
	ColorRed    = "\033[31m"
)

// Enabled turns styling on or off, e.g. when output is not a terminal
var Enabled = true

// Style wraps s in the given codes followed by a reset
func Style(s string, codes ...string) string {
	if !Enabled || len(codes) == 0 {
		return s
	}
	return strings.Join(codes, "") + s + ColorReset
}

func Bold(s string) string {
	return Style(s, ColorBold)
}

func Success(s string) string {
	return Style(s, ColorGreen)
}

func Info(s string) string {
	return Style(s, ColorDim, ColorYellow)
}

func Warn(s string) string {
	return Style(s, ColorYellow)
}

func Error(s string) string {
	return Style(s, ColorRed)
}
