package util

import (
	"fmt"
	"io"
	"os"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLogLevel           = LevelInfo
	useColors                 = true
	logOutput       io.Writer = os.Stderr
)

// SetLogLevel sets the minimum log level to display
func SetLogLevel(level LogLevel) {
	currentLogLevel = level
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		currentLogLevel = LevelDebug
	}
}

// SetQuiet enables quiet mode (errors only)
func SetQuiet(quiet bool) {
	if quiet {
		currentLogLevel = LevelError
	}
}

// SetColors enables or disables colored output
func SetColors(enabled bool) {
	useColors = enabled
}

// SetOutput redirects log output, mainly for capturing lines in tests
func SetOutput(w io.Writer) {
	logOutput = w
}

const colorReset = "\033[0m"

func colorize(color, text string) string {
	if !useColors {
		return text
	}
	return color + text + colorReset
}

func logf(level LogLevel, tag, color, format string, args ...any) {
	if currentLogLevel > level {
		return
	}
	stamp := colorize(color, time.Now().Format("15:04:05"))
	fmt.Fprintf(logOutput, "%s %-7s %s\n", stamp, tag, fmt.Sprintf(format, args...))
}

// DebugLog logs debug messages
func DebugLog(format string, args ...any) {
	logf(LevelDebug, "[DEBUG]", "\033[90m", format, args...)
}

// InfoLog logs informational messages
func InfoLog(format string, args ...any) {
	logf(LevelInfo, "[INFO]", "\033[36m", format, args...)
}

// WarnLog logs warning messages
func WarnLog(format string, args ...any) {
	logf(LevelWarn, "[WARN]", "\033[33m", format, args...)
}

// ErrorLog logs error messages
func ErrorLog(format string, args ...any) {
	logf(LevelError, "[ERROR]", "\033[31m", format, args...)
}

// SuccessLog logs success messages (always shown unless quiet)
func SuccessLog(format string, args ...any) {
	logf(LevelInfo, "[OK]", "\033[32m", format, args...)
}
