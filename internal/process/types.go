// Package process implements the bone, animation, mesh, and sequence
// processing stages, plus the driver that runs them in order.
package process

import (
	"github.com/quinnarbor/modelwrench/internal/mathutil"
)

// BoneFlags are bitflags recorded on a processed bone.
type BoneFlags uint32

const (
	// BoneFlagUsedByVertex marks a bone actually referenced by a vertex
	// link in an enabled model part. Bones that never gain any flag are
	// collapsed out of the skeleton.
	BoneFlagUsedByVertex BoneFlags = 1 << 10
)

// Empty reports whether no flag bit is set.
func (f BoneFlags) Empty() bool { return f == 0 }

// Bone is one joint in the processed, collapsed skeleton.
type Bone struct {
	Name           string
	Parent         *int
	Location       mathutil.Vec3
	Rotation       mathutil.Quat
	Flags          BoneFlags
	WorldTransform mathutil.Affine3
}

// LocalTransform is the bone's parent-relative rigid transform.
func (b Bone) LocalTransform() mathutil.Affine3 {
	return mathutil.NewAffine3(b.Rotation, b.Location)
}

// BoneData is the bone processor's output: the collapsed skeleton plus a
// permutation of its indices sorted by bone name.
type BoneData struct {
	ProcessedBones  []Bone
	BoneIndexByName map[string]int
	SortedByName    []int
}
