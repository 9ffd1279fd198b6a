package process

import (
	"fmt"

	"github.com/quinnarbor/modelwrench/internal/asset"
	"github.com/quinnarbor/modelwrench/internal/config"
	"github.com/quinnarbor/modelwrench/internal/input"
	"github.com/quinnarbor/modelwrench/internal/logging"
	"github.com/quinnarbor/modelwrench/internal/mathutil"
)

// FileDataSource resolves an already-loaded source file's parsed contents
// by path. internal/filemanager.Manager satisfies this.
type FileDataSource interface {
	GetFileData(path string) (*asset.FileData, bool)
}

// BoneError is returned by Bones on any unrecoverable condition.
type BoneError struct {
	Op  string
	Err error
}

func (e *BoneError) Error() string { return fmt.Sprintf("process: bones: %s: %v", e.Op, e.Err) }
func (e *BoneError) Unwrap() error { return e.Err }

// Bones unions every model and animation source's skeleton by bone name,
// flags bones actually used by a vertex link, collapses every unused bone,
// and returns the result with a name-sorted index permutation.
func Bones(data *input.CompilationData, files FileDataSource, settings config.Settings, log logging.Logger) (*BoneData, error) {
	processed := newBoneUnion()

	for _, group := range data.ModelGroups {
		for _, model := range group.Models {
			if model.SourceFile == "" {
				return nil, &BoneError{Op: "union", Err: fmt.Errorf("model %q in group %q has no file source", model.Name, group.Name)}
			}

			imported, ok := files.GetFileData(model.SourceFile)
			if !ok {
				return nil, &BoneError{Op: "union", Err: fmt.Errorf("file source not loaded: %s", model.SourceFile)}
			}

			enabled := make([]bool, len(imported.Parts))
			for _, name := range model.EnabledParts {
				if idx, ok := imported.PartIndex[name]; ok {
					enabled[idx] = true
				}
			}

			for importBoneIndex, importBone := range imported.Skeleton {
				var flags BoneFlags
				for partIndex, part := range imported.Parts {
					if !enabled[partIndex] {
						continue
					}
					for _, vertex := range part.Vertices {
						if _, ok := vertex.Links[importBoneIndex]; ok {
							flags |= BoneFlagUsedByVertex
							break
						}
					}
				}

				processed.unionBone(imported, importBone, flags)
			}
		}
	}

	for _, anim := range data.Animations {
		if anim.SourceFile == "" {
			return nil, &BoneError{Op: "union", Err: fmt.Errorf("animation %q has no file source", anim.Identifier)}
		}

		imported, ok := files.GetFileData(anim.SourceFile)
		if !ok {
			return nil, &BoneError{Op: "union", Err: fmt.Errorf("file source not loaded: %s", anim.SourceFile)}
		}

		for _, importBone := range imported.Skeleton {
			// Animated bones carry no flag today; only vertex links mark
			// a bone as kept (matches the upstream TODO to flag animated
			// bones in a future revision).
			processed.unionBone(imported, importBone, 0)
		}
	}

	logging.Info(log, logging.CategoryBones, "model uses %d source bones", len(processed.bones))

	computeWorldTransforms(processed.bones)

	collapsed := collapseUnusedBones(processed.bones, log)

	if len(collapsed) > settings.MaxBones {
		return nil, &BoneError{Op: "collapse", Err: fmt.Errorf("model has too many bones: %d > %d", len(collapsed), settings.MaxBones)}
	}

	relocalize(collapsed)

	byName := make(map[string]int, len(collapsed))
	for i, b := range collapsed {
		byName[b.Name] = i
	}

	sorted := make([]int, len(collapsed))
	for i := range sorted {
		sorted[i] = i
	}
	sortIndicesByBoneName(sorted, collapsed)

	return &BoneData{
		ProcessedBones:  collapsed,
		BoneIndexByName: byName,
		SortedByName:    sorted,
	}, nil
}

// boneUnion accumulates the union-by-name skeleton across all sources,
// preserving first-seen insertion order (an IndexMap stand-in: a slice plus
// a name->index map).
type boneUnion struct {
	bones   []Bone
	indexOf map[string]int
}

func newBoneUnion() *boneUnion {
	return &boneUnion{indexOf: map[string]int{}}
}

func (u *boneUnion) unionBone(source *asset.FileData, importBone asset.Bone, flags BoneFlags) {
	if idx, ok := u.indexOf[importBone.Name]; ok {
		u.bones[idx].Flags |= flags
		return
	}

	var parentIndex *int
	if importBone.Parent != nil {
		parentName := source.Skeleton[*importBone.Parent].Name
		pIdx, ok := u.indexOf[parentName]
		if !ok {
			// Sources are walked parent-before-child, so the parent must
			// already be present; if it's somehow missing, fall back to
			// a root bone rather than panicking on untrusted input.
			parentIndex = nil
		} else {
			parentIndex = &pIdx
		}
	}

	sourceTransform := mathutil.CreateSpaceTransform(source.Up, source.Forward)
	boneMatrix := mathutil.NewAffine3(importBone.Rotation, importBone.Location)

	boneTransform := boneMatrix
	if parentIndex == nil {
		boneTransform = boneMatrix.Mul(sourceTransform.Inverse())
	}

	idx := len(u.bones)
	u.bones = append(u.bones, Bone{
		Name:     importBone.Name,
		Parent:   parentIndex,
		Location: boneTransform.Translation,
		Rotation: boneTransform.Rotation,
		Flags:    flags,
	})
	u.indexOf[importBone.Name] = idx
}

// computeWorldTransforms fills WorldTransform top-down. Bone indices always
// satisfy parent < self (enforced by insertion order), so a single forward
// pass suffices.
func computeWorldTransforms(bones []Bone) {
	for i := range bones {
		local := bones[i].LocalTransform()
		if bones[i].Parent == nil {
			bones[i].WorldTransform = local
			continue
		}
		bones[i].WorldTransform = local.Mul(bones[*bones[i].Parent].WorldTransform)
	}
}

// collapseUnusedBones repeatedly removes any flagless bone, reparenting its
// children to its own parent and shifting every later index down by one.
// The cursor is NOT advanced after a removal: the next bone has slid into
// the same slot and must be re-examined.
func collapseUnusedBones(bones []Bone, log logging.Logger) []Bone {
	current := 0
	collapsedCount := 0

	for current < len(bones) {
		if !bones[current].Flags.Empty() {
			current++
			continue
		}

		collapsedCount++
		logging.Info(log, logging.CategoryBones, "collapsing %q", bones[current].Name)

		removedParent := bones[current].Parent
		bones = append(bones[:current], bones[current+1:]...)

		for i := current; i < len(bones); i++ {
			if bones[i].Parent == nil {
				continue
			}
			switch {
			case *bones[i].Parent == current:
				bones[i].Parent = removedParent
			case *bones[i].Parent >= current:
				v := *bones[i].Parent - 1
				bones[i].Parent = &v
			}
		}
	}

	logging.Info(log, logging.CategoryBones, "collapsed %d bones", collapsedCount)
	return bones
}

// relocalize recomputes each bone's local rotation/location from its
// (already-computed, pre-collapse-consistent) world transform.
func relocalize(bones []Bone) {
	for i := range bones {
		if bones[i].Parent == nil {
			bones[i].Rotation = bones[i].WorldTransform.Rotation
			bones[i].Location = bones[i].WorldTransform.Translation
			continue
		}
		parentWorld := bones[*bones[i].Parent].WorldTransform
		local := bones[i].WorldTransform.Mul(parentWorld.Inverse())
		bones[i].Rotation = local.Rotation
		bones[i].Location = local.Translation
	}
}

func sortIndicesByBoneName(indices []int, bones []Bone) {
	// Simple insertion sort: bone counts are capped at MaxBones (128),
	// so an O(n^2) sort is both correct and plenty fast.
	for i := 1; i < len(indices); i++ {
		j := i
		for j > 0 && bones[indices[j-1]].Name > bones[indices[j]].Name {
			indices[j-1], indices[j] = indices[j], indices[j-1]
			j--
		}
	}
}
