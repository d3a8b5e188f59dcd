// Package ui styles terminal output. Styling follows the NO_COLOR
// convention and can be switched off at runtime.
package ui

import (
	"os"
	"strings"
)

// ANSI sequences used for CLI output. They are empty while styling is off,
// so callers can concatenate them unconditionally.
var (
	ColorReset string
	ColorBold  string
	ColorDim   string

	ColorCyan   string
	ColorGreen  string
	ColorYellow string
	ColorWhite  string
	ColorRed    string
)

var enabled bool

func init() {
	SetEnabled(os.Getenv("NO_COLOR") == "")
}

// SetEnabled switches styling on or off. Call it before output starts.
func SetEnabled(on bool) {
	enabled = on
	set := func(code string) string {
		if !on {
			return ""
		}
		return code
	}
	ColorReset = set("\033[0m")
	ColorBold = set("\033[1m")
	ColorDim = set("\033[2m")
	ColorCyan = set("\033[36m")
	ColorGreen = set("\033[32m")
	ColorYellow = set("\033[33m")
	ColorWhite = set("\033[97m")
	ColorRed = set("\033[31m")
}

// Enabled reports whether styling is on
func Enabled() bool {
	return enabled
}

func paint(s string, codes ...string) string {
	if !enabled {
		return s
	}
	return strings.Join(codes, "") + s + ColorReset
}

func Bold(s string) string { return paint(s, ColorBold) }
func Success(s string) string { return paint(s, ColorGreen) }
func Info(s string) string { return paint(s, ColorDim, ColorYellow) }
func Error(s string) string { return paint(s, ColorRed) }
func Warn(s string) string { return paint(s, ColorYellow) }

// Label styles the left column of a "Label: value" line
func Label(s string) string { return paint(s, ColorBold) }

// Value styles user data such as URLs, paths and counts
func Value(s string) string { return paint(s, ColorWhite) }

// Dim styles secondary text
func Dim(s string) string { return paint(s, ColorDim) }

// Command styles a command line the user can copy
func Command(s string) string { return paint(s, ColorCyan) }

// Rule is the separator printed under section titles
func Rule() string {
	return Dim(strings.Repeat("━", 50))
}
