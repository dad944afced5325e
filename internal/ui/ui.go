// Package ui styles CLI output with 256-colour ANSI sequences.
package ui

import (
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/term"
)

// Style is an ANSI 256-colour foreground.
type Style uint8

// Palette, drawn from Ayu.
const (
	Accent  Style = 74  // blue
	Command Style = 250 // light gray
	Muted   Style = 245 // medium gray
)

var disabled atomic.Bool

// Render wraps s in the style's escape sequence unless colour is off.
func (c Style) Render(s string) string {
	if disabled.Load() || s == "" {
		return s
	}
	return "\x1b[38;5;" + strconv.Itoa(int(c)) + "m" + s + "\x1b[0m"
}

func RenderAccent(s string) string  { return Accent.Render(s) }
func RenderCommand(s string) string { return Command.Render(s) }
func RenderMuted(s string) string   { return Muted.Render(s) }

// ForceNoColor turns colour off for the rest of the process.
func ForceNoColor() { disabled.Store(true) }

// ShouldUseColor reports whether stdout should be coloured, honouring
// NO_COLOR, CLICOLOR_FORCE and CLICOLOR before falling back to TTY
// detection.
func ShouldUseColor() bool {
	switch {
	case os.Getenv("NO_COLOR") != "":
		return false
	case envIs("CLICOLOR_FORCE", "1"):
		return true
	case envIs("CLICOLOR", "0"):
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func envIs(key, want string) bool {
	return strings.TrimSpace(os.Getenv(key)) == want
}
