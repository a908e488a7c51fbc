package printer

import (
	"fmt"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a success message in green with a checkmark prefix.
func Success(format string, a ...any) {
	green.Printf("✓ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a warning message in yellow.
func Warning(format string, a ...any) {
	yellow.Printf("! %s\n", fmt.Sprintf(format, a...))
}

// Pass prints a passing check line.
func Pass(name, detail string) {
	green.Print("PASS")
	fmt.Printf("  %s (%s)\n", name, detail)
}

// Fail prints a failing check line.
func Fail(name, detail string) {
	red.Print("FAIL")
	fmt.Printf("  %s (%s)\n", name, detail)
}

// Step prints a step message with emphasis (used in multi-step operations).
func Step(format string, a ...any) {
	cyan.Printf("→ %s\n", fmt.Sprintf(format, a...))
}

// Printf prints a plain formatted message.
func Printf(format string, a ...any) {
	fmt.Printf(format, a...)
}

// Println prints a plain message.
func Println(a ...any) {
	fmt.Println(a...)
}
