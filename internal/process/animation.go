package process

import (
	"fmt"

	"github.com/quinnarbor/modelwrench/internal/asset"
	"github.com/quinnarbor/modelwrench/internal/config"
	"github.com/quinnarbor/modelwrench/internal/input"
	"github.com/quinnarbor/modelwrench/internal/logging"
	"github.com/quinnarbor/modelwrench/internal/mathutil"
)

// AnimatedBoneData is one bone's baked channel data within one animation
// section.
type AnimatedBoneData struct {
	Bone          int
	RawPosition   []mathutil.Vec3
	RawRotation   []mathutil.Quat
	DeltaPosition []mathutil.Vec3
	DeltaRotation []mathutil.Quat
}

// Animation is one processed animation, split into fixed-size sections.
type Animation struct {
	FrameCount int
	Sections   [][]AnimatedBoneData
}

// AnimationScale is the per-axis int16 quantization divisor discovered for
// a bone's position and rotation deltas.
type AnimationScale struct {
	Position mathutil.Vec3
	Rotation mathutil.Vec3
}

// AnimationData is the animation processor's output.
type AnimationData struct {
	ProcessedAnimations []Animation
	AnimationNames      []string
	AnimationScales     []AnimationScale
	// RemappedAnimations maps an input animation identifier to its index
	// in ProcessedAnimations; only animations actually used by a
	// sequence are present.
	RemappedAnimations map[string]int
}

// AnimationError is returned by Animations on any unrecoverable condition.
type AnimationError struct {
	Op  string
	Err error
}

func (e *AnimationError) Error() string {
	return fmt.Sprintf("process: animation: %s: %v", e.Op, e.Err)
}
func (e *AnimationError) Unwrap() error { return e.Err }

// Animations bakes every input animation actually referenced by a sequence,
// projects it onto the processed/collapsed skeleton, sections it, and
// discovers per-bone-per-axis quantization scales.
func Animations(data *input.CompilationData, files FileDataSource, bones *BoneData, settings config.Settings, log logging.Logger) (*AnimationData, error) {
	remapped := map[string]int{}
	var processedAnimations []Animation
	var animationNames []string
	modelFrameCount := 0

	for _, anim := range data.Animations {
		if !usedBySequence(data, anim.Identifier) {
			logging.Warn(log, logging.CategoryAnimation, "animation %q not used", anim.Identifier)
			continue
		}
		remapped[anim.Identifier] = len(processedAnimations)

		if anim.SourceFile == "" {
			return nil, &AnimationError{Op: "resolve", Err: fmt.Errorf("no animation file selected for %q", anim.Identifier)}
		}
		importedFile, ok := files.GetFileData(anim.SourceFile)
		if !ok {
			return nil, &AnimationError{Op: "resolve", Err: fmt.Errorf("animation file source not loaded: %s", anim.SourceFile)}
		}
		srcIdx, ok := importedFile.AnimationIndex[anim.SourceAnimName]
		if !ok {
			return nil, &AnimationError{Op: "resolve", Err: fmt.Errorf("source animation %q not found in %s", anim.SourceAnimName, anim.SourceFile)}
		}
		importedAnimation := importedFile.Animations[srcIdx]

		frameCount := importedAnimation.FrameCount
		if frameCount <= 0 {
			frameCount = 1
		}
		modelFrameCount += frameCount

		importTransforms := bakeImportBoneTransforms(importedFile, importedAnimation, frameCount)
		processedGlobal := projectOntoProcessedSkeleton(importedFile, importTransforms, bones, frameCount)
		processedLocal := relocalizeAnimation(bones, processedGlobal, frameCount)

		section := buildSections(bones, processedLocal, frameCount, settings)
		processedAnimations = append(processedAnimations, section)
		animationNames = append(animationNames, anim.Identifier)
	}

	logging.Info(log, logging.CategoryAnimation, "model uses %d frames", modelFrameCount)

	if len(processedAnimations) > 1<<15 {
		return nil, &AnimationError{Op: "export", Err: fmt.Errorf("model has too many animations: %d", len(processedAnimations))}
	}

	scales := computeAnimationScales(bones, processedAnimations)

	return &AnimationData{
		ProcessedAnimations: processedAnimations,
		AnimationNames:      animationNames,
		AnimationScales:     scales,
		RemappedAnimations:  remapped,
	}, nil
}

func usedBySequence(data *input.CompilationData, identifier string) bool {
	for _, seq := range data.Sequences {
		for _, row := range seq.Animations {
			for _, id := range row {
				if id == identifier {
					return true
				}
			}
		}
	}
	return false
}

// bakeChannelLocation fills in every frame of a location channel, holding
// the last seen keyframe (or the bone's rest location) across gaps.
func bakeChannelLocation(channel map[int]mathutil.Vec3, frameCount int, def mathutil.Vec3) []mathutil.Vec3 {
	baked := make([]mathutil.Vec3, 0, frameCount)
	for frame := 0; frame < frameCount; frame++ {
		if v, ok := channel[frame]; ok {
			baked = append(baked, v)
			continue
		}
		if len(baked) > 0 {
			baked = append(baked, baked[len(baked)-1])
			continue
		}
		baked = append(baked, def)
	}
	return baked
}

func bakeChannelRotation(channel map[int]mathutil.Quat, frameCount int, def mathutil.Quat) []mathutil.Quat {
	baked := make([]mathutil.Quat, 0, frameCount)
	for frame := 0; frame < frameCount; frame++ {
		if v, ok := channel[frame]; ok {
			baked = append(baked, v)
			continue
		}
		if len(baked) > 0 {
			baked = append(baked, baked[len(baked)-1])
			continue
		}
		baked = append(baked, def)
	}
	return baked
}

// bakeImportBoneTransforms computes, for every bone in the imported file's
// own skeleton, its per-frame global transform in canonical space.
func bakeImportBoneTransforms(file *asset.FileData, anim asset.Animation, frameCount int) [][]mathutil.Affine3 {
	spaceTransform := mathutil.CreateSpaceTransform(file.Up, file.Forward)
	result := make([][]mathutil.Affine3, len(file.Skeleton))

	for boneIndex, bone := range file.Skeleton {
		var locationChannel []mathutil.Vec3
		var rotationChannel []mathutil.Quat
		if ch, ok := anim.Channels[boneIndex]; ok {
			locationChannel = bakeChannelLocation(ch.Location, frameCount, bone.Location)
			rotationChannel = bakeChannelRotation(ch.Rotation, frameCount, bone.Rotation)
		} else {
			locationChannel = make([]mathutil.Vec3, frameCount)
			rotationChannel = make([]mathutil.Quat, frameCount)
			for i := range locationChannel {
				locationChannel[i] = bone.Location
				rotationChannel[i] = bone.Rotation
			}
		}

		frames := make([]mathutil.Affine3, frameCount)
		for frame := 0; frame < frameCount; frame++ {
			local := mathutil.NewAffine3(rotationChannel[frame], locationChannel[frame])
			if bone.Parent != nil {
				frames[frame] = local.Mul(result[*bone.Parent][frame])
				continue
			}
			frames[frame] = local.Mul(spaceTransform.Inverse())
		}
		result[boneIndex] = frames
	}

	return result
}

// projectOntoProcessedSkeleton gives every processed bone a per-frame
// global transform, derived from: the same-named import bone if present,
// else propagated through an already-projected processed parent, else the
// bone's own constant world transform (for unrelated, unparented bones).
func projectOntoProcessedSkeleton(file *asset.FileData, importTransforms [][]mathutil.Affine3, bones *BoneData, frameCount int) [][]mathutil.Affine3 {
	result := make([][]mathutil.Affine3, len(bones.ProcessedBones))

	for i, bone := range bones.ProcessedBones {
		if importIdx, ok := file.BoneIndex[bone.Name]; ok {
			result[i] = importTransforms[importIdx]
			continue
		}

		if bone.Parent != nil && result[*bone.Parent] != nil {
			parentFrames := result[*bone.Parent]
			local := bone.LocalTransform()
			frames := make([]mathutil.Affine3, frameCount)
			for f := 0; f < frameCount; f++ {
				frames[f] = local.Mul(parentFrames[f])
			}
			result[i] = frames
			continue
		}

		frames := make([]mathutil.Affine3, frameCount)
		for f := range frames {
			frames[f] = bone.WorldTransform
		}
		result[i] = frames
	}

	return result
}

func relocalizeAnimation(bones *BoneData, global [][]mathutil.Affine3, frameCount int) [][]mathutil.Affine3 {
	local := make([][]mathutil.Affine3, len(bones.ProcessedBones))
	for i, bone := range bones.ProcessedBones {
		if bone.Parent == nil {
			local[i] = global[i]
			continue
		}
		parentFrames := global[*bone.Parent]
		frames := make([]mathutil.Affine3, frameCount)
		for f := 0; f < frameCount; f++ {
			frames[f] = global[i][f].Mul(parentFrames[f].Inverse())
		}
		local[i] = frames
	}
	return local
}

func buildSections(bones *BoneData, local [][]mathutil.Affine3, frameCount int, settings config.Settings) Animation {
	S := settings.AnimationSectionFrameCount
	T := settings.AnimationSectionThreshold

	sectionCount := 1
	sectionFrameCount := frameCount
	if frameCount >= T {
		sectionCount = frameCount/S + 2
		sectionFrameCount = S
	}

	sections := make([][]AnimatedBoneData, 0, sectionCount)

	for section := 0; section < sectionCount; section++ {
		start := clampMin(section*sectionFrameCount, frameCount-1)
		end := clampMin((section+1)*sectionFrameCount, frameCount-1)

		sectionData := make([]AnimatedBoneData, 0, len(bones.ProcessedBones))
		for boneIndex, channelData := range local {
			bone := bones.ProcessedBones[boneIndex]
			restEuler := bone.Rotation.ToEulerXYZ()

			var rawPos []mathutil.Vec3
			var rawRot []mathutil.Quat
			var deltaPos []mathutil.Vec3
			var deltaRot []mathutil.Quat

			for f := start; f <= end; f++ {
				frame := channelData[f]
				rawPos = append(rawPos, frame.Translation)
				rawRot = append(rawRot, frame.Rotation)
				deltaPos = append(deltaPos, frame.Translation.Sub(bone.Location))

				frameEuler := frame.Rotation.ToEulerXYZ()
				deltaEuler := mathutil.EulerXYZ{
					X: frameEuler.X - restEuler.X,
					Y: frameEuler.Y - restEuler.Y,
					Z: frameEuler.Z - restEuler.Z,
				}
				deltaRot = append(deltaRot, mathutil.QuatFromEulerXYZ(deltaEuler))
			}

			sectionData = append(sectionData, AnimatedBoneData{
				Bone:          boneIndex,
				RawPosition:   rawPos,
				RawRotation:   rawRot,
				DeltaPosition: deltaPos,
				DeltaRotation: deltaRot,
			})
		}
		sections = append(sections, sectionData)
	}

	return Animation{FrameCount: frameCount, Sections: sections}
}

func clampMin(v, max int) int {
	if v > max {
		return max
	}
	return v
}

// computeAnimationScales finds, per bone and per axis, the maximum absolute
// delta across every animation and section, then converts it to an int16
// quantization divisor. A zero max (an unanimated axis) is substituted with
// 1 so the scale always remains safe to divide by.
func computeAnimationScales(bones *BoneData, animations []Animation) []AnimationScale {
	scales := make([]AnimationScale, len(bones.ProcessedBones))

	for _, anim := range animations {
		for _, section := range anim.Sections {
			for _, boneData := range section {
				for _, pos := range boneData.DeltaPosition {
					maxAbsVec3(&scales[boneData.Bone].Position, pos)
				}
				for _, rot := range boneData.DeltaRotation {
					e := rot.ToEulerXYZ()
					maxAbs(&scales[boneData.Bone].Rotation.X, e.X)
					maxAbs(&scales[boneData.Bone].Rotation.Y, e.Y)
					maxAbs(&scales[boneData.Bone].Rotation.Z, e.Z)
				}
			}
		}
	}

	const int16Max = 32767.0
	for i := range scales {
		scales[i].Position = divideOrOne(scales[i].Position, int16Max)
		scales[i].Rotation = divideOrOne(scales[i].Rotation, int16Max)
	}

	return scales
}

func maxAbsVec3(dst *mathutil.Vec3, v mathutil.Vec3) {
	maxAbs(&dst.X, v.X)
	maxAbs(&dst.Y, v.Y)
	maxAbs(&dst.Z, v.Z)
}

func maxAbs(dst *float64, v float64) {
	if v < 0 {
		v = -v
	}
	if v > *dst {
		*dst = v
	}
}

func divideOrOne(v mathutil.Vec3, divisor float64) mathutil.Vec3 {
	out := mathutil.Vec3{X: v.X / divisor, Y: v.Y / divisor, Z: v.Z / divisor}
	if out.X == 0 {
		out.X = 1
	}
	if out.Y == 0 {
		out.Y = 1
	}
	if out.Z == 0 {
		out.Z = 1
	}
	return out
}
