// Package importer dispatches a source file to the format-specific parser
// that produces the pipeline's common asset.FileData representation.
package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/quinnarbor/modelwrench/internal/asset"
	"github.com/quinnarbor/modelwrench/internal/importer/dmx"
)

// UnsupportedFormatError is returned for any extension this build does not
// know how to import.
type UnsupportedFormatError struct {
	Extension string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("importer: unsupported source format %q", e.Extension)
}

// Load reads src (the raw file contents) and dispatches on path's
// extension to the matching format parser.
func Load(path string, src []byte) (*asset.FileData, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), ext)

	switch ext {
	case ".dmx":
		return dmx.Load(src, name)
	case ".smd":
		return nil, fmt.Errorf("importer: SMD import is not implemented")
	case ".obj":
		return nil, fmt.Errorf("importer: OBJ import is not implemented")
	default:
		return nil, &UnsupportedFormatError{Extension: ext}
	}
}
