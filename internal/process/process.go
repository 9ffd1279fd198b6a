package process

import (
	"fmt"

	"github.com/quinnarbor/modelwrench/internal/config"
	"github.com/quinnarbor/modelwrench/internal/input"
	"github.com/quinnarbor/modelwrench/internal/logging"
)

// ProcessedData is everything the driver produces: the collapsed
// skeleton, baked animations, translated sequences, and processed mesh
// geometry.
type ProcessedData struct {
	Bones      *BoneData
	Animations *AnimationData
	Sequences  []Sequence
	Meshes     *ModelData
}

// DataError wraps whichever stage failed along with the originating stage
// name, matching the top-level error taxonomy's grouping by pipeline
// stage.
type DataError struct {
	Stage string
	Err   error
}

func (e *DataError) Error() string { return fmt.Sprintf("process: %s: %v", e.Stage, e.Err) }
func (e *DataError) Unwrap() error { return e.Err }

// Run executes the full pipeline in order: bones, animations, sequences,
// meshes. Bones, animations, and sequences must each produce a non-empty
// result or the whole compile fails before meshes are attempted.
func Run(data *input.CompilationData, files FileDataSource, settings config.Settings, log logging.Logger) (*ProcessedData, error) {
	logging.Info(log, logging.CategoryBones, "processing bones")
	bones, err := Bones(data, files, settings, log)
	if err != nil {
		return nil, &DataError{Stage: "bones", Err: err}
	}
	logging.Info(log, logging.CategoryBones, "model uses %d bones", len(bones.ProcessedBones))
	if len(bones.ProcessedBones) == 0 {
		return nil, &DataError{Stage: "bones", Err: fmt.Errorf("model has no bones")}
	}

	logging.Info(log, logging.CategoryAnimation, "processing animations")
	animations, err := Animations(data, files, bones, settings, log)
	if err != nil {
		return nil, &DataError{Stage: "animations", Err: err}
	}
	if len(animations.ProcessedAnimations) == 0 {
		return nil, &DataError{Stage: "animations", Err: fmt.Errorf("model has no animations")}
	}

	logging.Info(log, logging.CategorySequence, "processing sequences")
	sequences, err := Sequences(data, animations.RemappedAnimations)
	if err != nil {
		return nil, &DataError{Stage: "sequences", Err: err}
	}
	if len(sequences) == 0 {
		return nil, &DataError{Stage: "sequences", Err: fmt.Errorf("model has no sequences")}
	}

	logging.Info(log, logging.CategoryMesh, "processing meshes")
	meshes, err := Meshes(data, files, bones, settings, log)
	if err != nil {
		return nil, &DataError{Stage: "meshes", Err: err}
	}

	return &ProcessedData{
		Bones:      bones,
		Animations: animations,
		Sequences:  sequences,
		Meshes:     meshes,
	}, nil
}
