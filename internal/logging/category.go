package logging

import "fmt"

// Category prefixes a log line with the pipeline stage that produced it,
// matching the error taxonomy's per-stage grouping.
type Category string

const (
	CategoryImport      Category = "Import"
	CategoryFileManager Category = "FileManager"
	CategoryBones       Category = "Bones"
	CategoryAnimation   Category = "Anim"
	CategoryMesh        Category = "Mesh"
	CategorySequence    Category = "Sequence"
)

// Info logs an informational message prefixed with its category.
func Info(l Logger, c Category, format string, args ...any) {
	l.LogInfo(fmt.Sprintf("[%s] %s", c, fmt.Sprintf(format, args...)))
}

// Warn logs a warning message prefixed with its category.
func Warn(l Logger, c Category, format string, args ...any) {
	l.LogWarning(fmt.Sprintf("[%s] %s", c, fmt.Sprintf(format, args...)))
}

// Error logs an error message prefixed with its category.
func Error(l Logger, c Category, format string, args ...any) {
	l.LogError(fmt.Sprintf("[%s] %s", c, fmt.Sprintf(format, args...)))
}
