package output

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto   ColorMode = iota // Auto-detect based on TTY
	ColorAlways                  // Always use colors
	ColorNever                   // Never use colors
)

// ParseColorMode converts a flag value to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q (must be auto, always or never)", s)
	}
}

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// shouldColorize determines if output should be colorized based on mode and TTY detection.
func shouldColorize(mode ColorMode, w interface{}) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	case ColorAuto:
		if f, ok := w.(*os.File); ok {
			return isTerminal(f)
		}
		return false
	}
	return false
}

// ColorizeLabel colors text green for the good bucket and red for any other
// label.
func ColorizeLabel(label, text string) string {
	if label == goodLabel {
		return colorGreen + text + colorReset
	}
	return colorRed + text + colorReset
}

// colorizeCount colors a count of good or bad records; zero is grayed out.
func colorizeCount(good bool, n int) string {
	text := fmt.Sprintf("%d", n)
	if n == 0 {
		return colorGray + text + colorReset
	}
	if good {
		return colorGreen + text + colorReset
	}
	return colorRed + text + colorReset
}

func bold(text string) string {
	return colorBold + text + colorReset
}
