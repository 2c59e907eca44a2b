// Package colors provides ANSI terminal coloring for dirtabase's pipeline
// log output: cache hit/miss indicators, op headers, and command echoes.
package colors

import (
	"os"
	"runtime"
	"strings"
)

// ANSI color codes.
const (
	ColorReset = "\033[0m"
	ColorBold  = "\033[1m"
	ColorDim   = "\033[2m"

	ColorGray = "\033[90m"

	BrightRed    = "\033[91m"
	BrightGreen  = "\033[92m"
	BrightYellow = "\033[93m"
	BrightCyan   = "\033[96m"
)

// colorEnabled determines if color output should be used.
var colorEnabled = shouldUseColor()

// shouldUseColor determines if the terminal supports colors.
func shouldUseColor() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	if runtime.GOOS == "windows" {
		term := strings.ToLower(os.Getenv("TERM"))
		wt := os.Getenv("WT_SESSION")
		vscode := os.Getenv("VSCODE_PID")
		if wt != "" || vscode != "" || strings.Contains(term, "color") || strings.Contains(term, "xterm") {
			return true
		}
		return false
	}

	term := strings.ToLower(os.Getenv("TERM"))
	if term == "dumb" || term == "" {
		return false
	}

	if fileInfo, err := os.Stdout.Stat(); err == nil {
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return true
}

// SetColorEnabled allows manual override, e.g. from a config or CLI flag.
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

// IsColorEnabled reports whether colors are currently enabled.
func IsColorEnabled() bool {
	return colorEnabled
}

func colorize(text, color string) string {
	if !colorEnabled {
		return text
	}
	return color + text + ColorReset
}

// Hit colors a cache-hit indicator.
func Hit(text string) string {
	return colorize(text, BrightGreen)
}

// Miss colors a cache-miss indicator.
func Miss(text string) string {
	return colorize(text, BrightYellow)
}

// Cmd colors an echoed shell command line.
func Cmd(text string) string {
	return colorize(text, BrightCyan)
}

// ErrorText colors a failure message.
func ErrorText(text string) string {
	return colorize(text, BrightRed)
}

// Dim colors de-emphasized text, such as a stack dump between op headers.
func Dim(text string) string {
	return colorize(text, ColorDim)
}

// Bold colors emphasized text, such as an op header.
func Bold(text string) string {
	return colorize(text, ColorBold)
}

// Gray colors muted, supplementary text.
func Gray(text string) string {
	return colorize(text, ColorGray)
}
