package input

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a CompilationData description from path, choosing the decoder
// by file extension (.yaml/.yml vs anything else, which is treated as
// JSON).
func Load(path string) (*CompilationData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input: failed to read %s: %w", path, err)
	}

	var out CompilationData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("input: failed to parse %s as YAML: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("input: failed to parse %s as JSON: %w", path, err)
		}
	}
	return &out, nil
}
