package process

import (
	"fmt"

	"github.com/quinnarbor/modelwrench/internal/input"
)

// Sequence is a processed sequence: an N-by-M grid of indices into the
// animation processor's ProcessedAnimations.
type Sequence struct {
	Name       string
	Animations [][]int
}

// SequenceError is returned by Sequences on any unrecoverable condition.
type SequenceError struct {
	Op  string
	Err error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("process: sequence: %s: %v", e.Op, e.Err)
}
func (e *SequenceError) Unwrap() error { return e.Err }

// Sequences translates every input sequence's grid of animation
// identifiers into a grid of processed-animation indices, failing on any
// identifier absent from the animation processor's remap table rather than
// silently dropping it.
func Sequences(data *input.CompilationData, remappedAnimations map[string]int) ([]Sequence, error) {
	out := make([]Sequence, 0, len(data.Sequences))

	for _, inputSequence := range data.Sequences {
		grid := make([][]int, len(inputSequence.Animations))
		for row, identifiers := range inputSequence.Animations {
			grid[row] = make([]int, len(identifiers))
			for col, identifier := range identifiers {
				mapped, ok := remappedAnimations[identifier]
				if !ok {
					return nil, &SequenceError{Op: "translate", Err: fmt.Errorf("sequence %q references unmapped animation identifier %q", inputSequence.Name, identifier)}
				}
				grid[row][col] = mapped
			}
		}

		out = append(out, Sequence{Name: inputSequence.Name, Animations: grid})
	}

	if len(out) > 1<<31 {
		return nil, &SequenceError{Op: "export", Err: fmt.Errorf("model has too many sequences: %d", len(out))}
	}

	return out, nil
}
