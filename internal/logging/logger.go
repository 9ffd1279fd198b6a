// Package logging provides the leveled logger used by every processing
// stage, plus a category-prefix wrapper so call sites read like
// logging.Warn(log, logging.CategoryMesh, "...").
package logging

import "fmt"

// Verbosity is the minimum severity a Logger will emit.
type Verbosity int

const (
	// VerbosityInfo logs info, warning, and error messages.
	VerbosityInfo Verbosity = iota
	// VerbosityWarning logs warning and error messages.
	VerbosityWarning
	// VerbosityError only logs error messages.
	VerbosityError
)

// Logger is implemented by every log sink this module ships.
type Logger interface {
	GetVerbosity() Verbosity
	SetVerbosity(verbosity Verbosity)

	LogInfo(message string)
	LogWarning(message string)
	LogError(message string)
}

// NullLogger discards every message. Useful as a default when the caller
// hasn't configured a sink.
type NullLogger struct {
	verbosity Verbosity
}

// NewNullLogger returns a logger that discards all messages.
func NewNullLogger() *NullLogger {
	return &NullLogger{verbosity: VerbosityError}
}

func (n *NullLogger) GetVerbosity() Verbosity          { return n.verbosity }
func (n *NullLogger) SetVerbosity(verbosity Verbosity) { n.verbosity = verbosity }
func (n *NullLogger) LogInfo(message string)           {}
func (n *NullLogger) LogWarning(message string)        {}
func (n *NullLogger) LogError(message string)          {}

var _ Logger = (*NullLogger)(nil)

// ConsoleLogger writes to stdout.
type ConsoleLogger struct {
	verbosity Verbosity
}

// NewConsoleLogger returns a console logger at the given verbosity.
func NewConsoleLogger(verbosity Verbosity) *ConsoleLogger {
	return &ConsoleLogger{verbosity: verbosity}
}

func (c *ConsoleLogger) GetVerbosity() Verbosity          { return c.verbosity }
func (c *ConsoleLogger) SetVerbosity(verbosity Verbosity) { c.verbosity = verbosity }

func (c *ConsoleLogger) LogInfo(message string) {
	if c.verbosity <= VerbosityInfo {
		fmt.Println("[INFO]", message)
	}
}

func (c *ConsoleLogger) LogWarning(message string) {
	if c.verbosity <= VerbosityWarning {
		fmt.Println("[WARN]", message)
	}
}

func (c *ConsoleLogger) LogError(message string) {
	fmt.Println("[ERROR]", message)
}

var _ Logger = (*ConsoleLogger)(nil)
