// Package config surfaces the pipeline's tunable constants as a settings
// struct rather than bare constants, per spec §9's note that section
// windowing and similar should become configurable in future work.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings holds the pipeline's configurable caps and tuning constants.
// MaxSequences and VertexMergeTolerance record the values the sequence and
// mesh stages have built in; those stages do not read them from Settings.
// The animation-count cap (32768) is built into the animation stage and has
// no field here.
type Settings struct {
	// AnimationSectionFrameCount is S: frames per section for a long
	// animation.
	AnimationSectionFrameCount int `json:"animation_section_frame_count"`
	// AnimationSectionThreshold is T: an animation at or above this
	// frame count gets sectioned; shorter ones are a single section.
	AnimationSectionThreshold int `json:"animation_section_threshold"`

	// MaxBones is the hard cap on the processed skeleton's bone count.
	MaxBones int `json:"max_bones"`
	// MaxHardwareBonesPerStrip is the per-strip distinct-bone cap that
	// triggers a strip/stripgroup/mesh split when exceeded.
	MaxHardwareBonesPerStrip int `json:"max_hardware_bones_per_strip"`
	// MaxUniqueVerticesPerStripGroup is the per-strip-group unique local
	// vertex cap that triggers the same split.
	MaxUniqueVerticesPerStripGroup int `json:"max_unique_vertices_per_strip_group"`
	// VertexCacheSize is the simulated post-transform cache size used by
	// the vertex-cache optimization pass.
	VertexCacheSize int `json:"vertex_cache_size"`

	// MaxSequences, MaxMaterials, MaxMeshes mirror the original
	// compiler's hard caps on exported counts.
	MaxSequences   int `json:"max_sequences"`
	MaxMaterials   int `json:"max_materials"`
	MaxMeshes      int `json:"max_meshes"`
	MaxModelGroups int `json:"max_model_groups"`

	// VertexMergeTolerance is the spatial tolerance used when folding
	// duplicate vertices together.
	VertexMergeTolerance float64 `json:"vertex_merge_tolerance"`
}

// Default returns the settings the original compiler hard-codes.
func Default() Settings {
	return Settings{
		AnimationSectionFrameCount:     30,
		AnimationSectionThreshold:      120,
		MaxBones:                       128,
		MaxHardwareBonesPerStrip:       53,
		MaxUniqueVerticesPerStripGroup: 65536,
		VertexCacheSize:                16,
		MaxSequences:                   1 << 31,
		MaxMaterials:                   1 << 15,
		MaxMeshes:                      1 << 31,
		MaxModelGroups:                 1 << 31,
		VertexMergeTolerance:           1.1920929e-7, // float32.Epsilon widened to float64
	}
}

// Load reads settings from a JSON file decoded on top of Default(): fields
// the file omits keep their default values, and fields it sets (including
// to zero) override them.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return s, nil
}
