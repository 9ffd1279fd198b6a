package logging

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// FileLogger writes messages to a text file, flushing after every line.
type FileLogger struct {
	verbosity Verbosity
	file      *os.File
	writer    *bufio.Writer
	mu        sync.Mutex
}

// NewFileLogger creates (truncating) the file at logFilePath and returns a
// logger that writes to it.
func NewFileLogger(logFilePath string, verbosity Verbosity) (*FileLogger, error) {
	file, err := os.Create(logFilePath)
	if err != nil {
		return nil, fmt.Errorf("logging: failed to create log file: %w", err)
	}

	return &FileLogger{
		verbosity: verbosity,
		file:      file,
		writer:    bufio.NewWriter(file),
	}, nil
}

func (l *FileLogger) GetVerbosity() Verbosity          { return l.verbosity }
func (l *FileLogger) SetVerbosity(verbosity Verbosity) { l.verbosity = verbosity }

func (l *FileLogger) LogInfo(message string) {
	if l.verbosity > VerbosityInfo {
		return
	}
	l.writeLine("<INFO> " + message)
}

func (l *FileLogger) LogWarning(message string) {
	if l.verbosity > VerbosityWarning {
		return
	}
	l.writeLine("<WARN> " + message)
}

func (l *FileLogger) LogError(message string) {
	l.writeLine("<ERROR> " + message)
}

func (l *FileLogger) writeLine(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.writer.WriteString(line + "\n")
	l.writer.Flush()
}

// Close flushes and closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writer.Flush(); err != nil {
		return fmt.Errorf("logging: failed to flush log buffer: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("logging: failed to close log file: %w", err)
	}
	return nil
}

var _ Logger = (*FileLogger)(nil)
