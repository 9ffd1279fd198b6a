// Package input defines the compilation-description contract (§6): the
// shape a calling GUI hands to the pipeline to describe what to compile.
package input

import "github.com/quinnarbor/modelwrench/internal/mathutil"

// CompilationData is the top-level description of one compile job.
type CompilationData struct {
	ModelGroups []ModelGroup `json:"model_groups" yaml:"model_groups"`
	DefineBones []DefineBone `json:"define_bones" yaml:"define_bones"`

	AnimationIdentifierGenerator string      `json:"animation_identifier_generator" yaml:"animation_identifier_generator"`
	Animations                   []Animation `json:"animations" yaml:"animations"`

	Sequences []Sequence `json:"sequences" yaml:"sequences"`
}

// ModelGroup is one exported group of model sources, matching the
// body-group concept of the original compiler (kept under the name the
// working implementation itself used: model_groups).
type ModelGroup struct {
	Name   string  `json:"name" yaml:"name"`
	Models []Model `json:"models" yaml:"models"`
}

// Model is one source-file reference within a model group, with the
// subset of its parts enabled for compilation.
type Model struct {
	Name         string   `json:"name" yaml:"name"`
	SourceFile   string   `json:"source_file" yaml:"source_file"`
	EnabledParts []string `json:"enabled_parts" yaml:"enabled_parts"`
}

// DefineBone lets a compilation description introduce a bone that isn't
// present in any source file, or override a source-file bone's parent or
// rest pose. NOTE: the processing pipeline currently never consults this
// list (see DESIGN.md OQ-1) — it is decoded and carried for forward
// compatibility with a future bone-processor revision.
type DefineBone struct {
	Name     string         `json:"name" yaml:"name"`
	Parent   *string        `json:"parent,omitempty" yaml:"parent,omitempty"`
	Location *mathutil.Vec3 `json:"location,omitempty" yaml:"location,omitempty"`
	Rotation *mathutil.Quat `json:"rotation,omitempty" yaml:"rotation,omitempty"`
}

// Animation names one imported animation (by source file + the name it
// carries there) to make available to sequences under a new identifier.
type Animation struct {
	Identifier     string `json:"identifier" yaml:"identifier"`
	SourceFile     string `json:"source_file" yaml:"source_file"`
	SourceAnimName string `json:"source_animation_name" yaml:"source_animation_name"`
}

// Sequence names an exported sequence and an N-by-M grid of animation
// identifiers (from Animations) it blends between — a single-row grid is
// just a linear sequence.
type Sequence struct {
	Name       string     `json:"name" yaml:"name"`
	Animations [][]string `json:"animations" yaml:"animations"`
}
