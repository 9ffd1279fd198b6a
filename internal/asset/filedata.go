// Package asset defines the common, format-neutral asset model that every
// importer (§4.C) produces and every processing stage (§4.E-H) consumes.
package asset

import "github.com/quinnarbor/modelwrench/internal/mathutil"

// FileData is the common representation a single source file (DMX, or any
// future SMD/OBJ importer) is parsed into. Up and Forward describe the
// coordinate convention the source authored its geometry in.
type FileData struct {
	Up      mathutil.AxisDirection
	Forward mathutil.AxisDirection

	// Skeleton preserves import order; bone index is its position here.
	Skeleton []Bone
	// BoneIndex maps a bone's name to its position in Skeleton, mirroring
	// an IndexMap's by-name lookup.
	BoneIndex map[string]int

	Animations     []Animation
	AnimationIndex map[string]int

	Parts     []Part
	PartIndex map[string]int
}

// NewFileData returns an empty FileData ready to be populated by an
// importer.
func NewFileData(up, forward mathutil.AxisDirection) *FileData {
	return &FileData{
		Up:             up,
		Forward:        forward,
		BoneIndex:      map[string]int{},
		AnimationIndex: map[string]int{},
		PartIndex:      map[string]int{},
	}
}

// AddBone appends a bone and indexes it by name, returning its index.
func (f *FileData) AddBone(name string, bone Bone) int {
	idx := len(f.Skeleton)
	f.Skeleton = append(f.Skeleton, bone)
	f.BoneIndex[name] = idx
	return idx
}

// AddAnimation appends an animation and indexes it by name.
func (f *FileData) AddAnimation(name string, anim Animation) int {
	idx := len(f.Animations)
	f.Animations = append(f.Animations, anim)
	f.AnimationIndex[name] = idx
	return idx
}

// AddPart appends a part and indexes it by name.
func (f *FileData) AddPart(name string, part Part) int {
	idx := len(f.Parts)
	f.Parts = append(f.Parts, part)
	f.PartIndex[name] = idx
	return idx
}

// Bone is one joint in an imported skeleton. Parent is nil for a root bone;
// when present it always refers to a bone already inserted, since sources
// are walked parent-before-child.
type Bone struct {
	Name     string
	Parent   *int
	Location mathutil.Vec3
	Rotation mathutil.Quat
}

// Animation is a set of per-bone channels sampled over a fixed frame count.
type Animation struct {
	FrameCount int
	// Channels is keyed by the source file's bone index (not the
	// processed skeleton's index — the animation processor maps channels
	// onto the processed skeleton by bone name).
	Channels map[int]Channel
}

// Channel holds the location and rotation keyframes recorded for one bone
// across one animation, keyed by frame index (clip-relative — see
// DESIGN.md OQ-2).
type Channel struct {
	Location map[int]mathutil.Vec3
	Rotation map[int]mathutil.Quat
}

// NewChannel returns an empty channel.
func NewChannel() Channel {
	return Channel{
		Location: map[int]mathutil.Vec3{},
		Rotation: map[int]mathutil.Quat{},
	}
}

// Part is one mesh/flex grouping from the source file (a DMX "shape").
type Part struct {
	Vertices []Vertex
	// Faces is keyed by material name; each face is a polygon as a list
	// of indices into Vertices.
	Faces map[string][][]int
	// Flexes is keyed by flex name, then by vertex index within
	// Vertices, giving the position/normal delta for that vertex.
	Flexes map[string]map[int]FlexVertex
}

// NewPart returns an empty part.
func NewPart() Part {
	return Part{
		Faces:  map[string][][]int{},
		Flexes: map[string]map[int]FlexVertex{},
	}
}

// Vertex is one bind-pose vertex with its bone-weight links as imported:
// any number of links, weights not normalized. The mesh processor later
// limits them to three, normalizes them, and sorts them by bone index.
type Vertex struct {
	Location           mathutil.Vec3
	Normal             mathutil.Vec3
	TextureCoordinate  mathutil.Vec2
	// Links maps source bone index to a weight; insertion order is not
	// significant post-import (the mesh processor remaps and resorts).
	Links map[int]float64
}

// FlexVertex is a per-vertex position/normal delta applied on top of the
// bind pose for one named flex.
type FlexVertex struct {
	Location mathutil.Vec3
	Normal   mathutil.Vec3
}
