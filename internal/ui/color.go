// Package ui provides colored, leveled console output.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

var (
	// Colors
	Red    = color.New(color.FgRed)
	Green  = color.New(color.FgGreen)
	Yellow = color.New(color.FgYellow)
	Blue   = color.New(color.FgBlue)
	Cyan   = color.New(color.FgCyan)
	Bold   = color.New(color.Bold)
)

// Output levels. Error output is always printed; Info and Debug are gated
// by the verbosity set with SetVerbosity.
const (
	LevelError = iota
	LevelInfo
	LevelDebug
)

var level = LevelError

// SetVerbosity maps a -v flag count onto an output level.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		level = LevelInfo
	default:
		level = LevelDebug
	}
}

// Quiet restricts output to errors only.
func Quiet() {
	level = LevelError
}

// Debug prints a dimmed debug message when verbosity allows it.
func Debug(format string, args ...any) {
	if level >= LevelDebug {
		fmt.Printf(format+"\n", args...)
	}
}

// Info prints a plain informational message.
func Info(format string, args ...any) {
	if level >= LevelInfo {
		fmt.Printf(format+"\n", args...)
	}
}

// Success prints a green success message with checkmark.
func Success(format string, args ...any) {
	if level >= LevelInfo {
		Green.Printf("✓ "+format+"\n", args...)
	}
}

// Warning prints a yellow warning message.
func Warning(format string, args ...any) {
	if level >= LevelInfo {
		Yellow.Printf("⚠ "+format+"\n", args...)
	}
}

// Error prints a red error message to stderr.
func Error(format string, args ...any) {
	Red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// Fatal prints an error to stderr and exits.
func Fatal(format string, args ...any) {
	Red.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
	os.Exit(1)
}
