package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingLogger struct {
	NullLogger
	lines []string
}

func (r *recordingLogger) LogInfo(message string)    { r.lines = append(r.lines, message) }
func (r *recordingLogger) LogWarning(message string) { r.lines = append(r.lines, message) }
func (r *recordingLogger) LogError(message string)   { r.lines = append(r.lines, message) }

func TestCategoryPrefix(t *testing.T) {
	tests := []struct {
		name string
		fn   func(Logger, Category, string, ...any)
		want string
	}{
		{"info", Info, "[Mesh] building 4 strips"},
		{"warn", Warn, "[Bones] skipping unused bone"},
		{"error", Error, "[Sequence] missing animation"},
	}

	for _, test := range tests {
		r := &recordingLogger{}
		switch test.name {
		case "info":
			Info(r, CategoryMesh, "building %d strips", 4)
		case "warn":
			Warn(r, CategoryBones, "skipping unused bone")
		case "error":
			Error(r, CategorySequence, "missing animation")
		}
		if len(r.lines) != 1 || r.lines[0] != test.want {
			t.Errorf("%s: expected %q, got %v", test.name, test.want, r.lines)
		}
	}
}

func TestConsoleLoggerReportsVerbosity(t *testing.T) {
	c := NewConsoleLogger(VerbosityWarning)
	if c.GetVerbosity() != VerbosityWarning {
		t.Errorf("expected VerbosityWarning, got %v", c.GetVerbosity())
	}
}

func TestFileLoggerWritesLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "log.txt")

	fl, err := NewFileLogger(path, VerbosityInfo)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fl.LogInfo("hello")
	fl.LogError("boom")
	if err := fl.Close(); err != nil {
		t.Fatalf("unexpected error closing: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error reading: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "<INFO> hello") || !strings.Contains(content, "<ERROR> boom") {
		t.Errorf("expected log contents to contain both lines, got %q", content)
	}
}
