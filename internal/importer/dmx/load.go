package dmx

import (
	"fmt"
	"math"

	"github.com/quinnarbor/modelwrench/internal/asset"
	"github.com/quinnarbor/modelwrench/internal/mathutil"
)

// ImportError wraps the stage at which a DMX document failed to resolve
// into FileData, alongside the underlying cause.
type ImportError struct {
	Op  string
	Err error
}

func (e *ImportError) Error() string { return fmt.Sprintf("dmx: %s: %v", e.Op, e.Err) }
func (e *ImportError) Unwrap() error { return e.Err }

// Load parses a DMX document's bytes and walks its element graph into the
// pipeline's common FileData shape: skeleton, mesh parts, and animation
// clips.
func Load(src []byte, fileName string) (*asset.FileData, error) {
	doc, err := Parse(src)
	if err != nil {
		return nil, &ImportError{Op: "parse", Err: err}
	}
	root := doc.Root
	if root == nil {
		return nil, &ImportError{Op: "validate", Err: fmt.Errorf("empty document")}
	}

	format := root.StringOr("format", doc.Format)
	if format != "model" {
		return nil, &ImportError{Op: "validate", Err: fmt.Errorf("dmx file format is not a model: got %q", format)}
	}

	version := parseIntOr(root.String("formatVersion"), doc.Version)
	if version < 1 || version > 18 {
		return nil, &ImportError{Op: "validate", Err: fmt.Errorf("dmx file format version is not supported: supported versions 1-18, got %d", version)}
	}

	fileData := asset.NewFileData(mathutil.AxisPositiveZ, mathutil.AxisNegativeY)

	skeletonRef, ok := root.Child("skeleton")
	if !ok {
		return nil, &ImportError{Op: "validate", Err: fmt.Errorf("missing required attribute %q", "skeleton")}
	}
	skeletonEl, ok := doc.Resolve(skeletonRef)
	if !ok {
		return nil, &ImportError{Op: "validate", Err: fmt.Errorf("skeleton element did not resolve")}
	}

	modelRef, hasModel := root.Child("model")
	var modelEl *Element
	var joints []*Element
	if hasModel {
		modelEl, ok = doc.Resolve(modelRef)
		if !ok {
			return nil, &ImportError{Op: "validate", Err: fmt.Errorf("model element did not resolve")}
		}

		jointListName := "jointList"
		if version < 8 {
			jointListName = "jointTransforms"
		}
		jointRefs := modelEl.Children(jointListName)
		if jointRefs == nil {
			return nil, &ImportError{Op: "validate", Err: fmt.Errorf("missing required attribute %q", jointListName)}
		}
		joints = doc.ResolveAll(jointRefs)
	}

	for _, ref := range skeletonEl.Children("children") {
		child, ok := doc.Resolve(ref)
		if !ok {
			continue
		}
		var jointSet []*Element
		if hasModel {
			jointSet = joints
		}
		if err := loadJoint(doc, child, nil, jointSet, hasModel, fileData, version); err != nil {
			return nil, err
		}
	}

	if hasModel {
		for _, ref := range modelEl.Children("children") {
			child, ok := doc.Resolve(ref)
			if !ok {
				continue
			}
			if err := loadMesh(doc, child, mathutil.Affine3Identity, joints, fileData); err != nil {
				return nil, err
			}
		}
	}

	animListRef, hasAnim := root.Child("animationList")
	if hasAnim {
		animList, ok := doc.Resolve(animListRef)
		if !ok {
			return nil, &ImportError{Op: "validate", Err: fmt.Errorf("animationList element did not resolve")}
		}
		for _, clip := range doc.ResolveAll(animList.Children("animations")) {
			if err := loadAnimationClip(doc, clip, fileData, version); err != nil {
				return nil, err
			}
		}
	} else {
		fileData.AddAnimation(fileName, asset.Animation{FrameCount: 1, Channels: map[int]asset.Channel{}})
	}

	return fileData, nil
}

// loadJoint recursively walks a skeleton joint chain, inserting one bone
// per element and recursing into its children. jointSet, when non-nil,
// gates every joint against the model's declared joint list.
func loadJoint(doc *Document, el *Element, parentIndex *int, jointSet []*Element, checkJointList bool, fileData *asset.FileData, version int) error {
	if _, exists := fileData.BoneIndex[el.Name]; exists {
		return &ImportError{Op: "joint", Err: fmt.Errorf("duplicate joint name %q", el.Name)}
	}

	transformRef, ok := el.Child("transform")
	if !ok {
		return &ImportError{Op: "joint", Err: fmt.Errorf("joint %q missing transform", el.Name)}
	}
	transform, ok := doc.Resolve(transformRef)
	if !ok {
		return &ImportError{Op: "joint", Err: fmt.Errorf("joint %q transform did not resolve", el.Name)}
	}

	position := parseVec3(transform.String("position"))
	rotation := parseQuat(transform.String("orientation"))

	if checkJointList {
		compareName := el.Name
		if version < 8 {
			compareName = transform.Name
		}
		if !jointListContains(jointSet, compareName, version) {
			return &ImportError{Op: "joint", Err: fmt.Errorf("joint %q was not in joint list", el.Name)}
		}
	}

	boneIndex := len(fileData.Skeleton)
	fileData.AddBone(el.Name, asset.Bone{
		Name:     el.Name,
		Parent:   parentIndex,
		Location: position,
		Rotation: rotation,
	})

	children := el.Children("children")
	if children == nil {
		return nil
	}

	idx := boneIndex
	for _, ref := range children {
		child, ok := doc.Resolve(ref)
		if !ok {
			continue
		}
		if err := loadJoint(doc, child, &idx, jointSet, checkJointList, fileData, version); err != nil {
			return err
		}
	}
	return nil
}

func jointListContains(joints []*Element, compareName string, version int) bool {
	// Before version 8 the list (jointTransforms) holds the joints' transform
	// elements and compareName is a transform name; from version 8 on it
	// holds the joint elements themselves. Either way the entry's own name
	// is what is compared.
	for _, j := range joints {
		if j.Name == compareName {
			return true
		}
	}
	return false
}

type uniqueVertexKey struct {
	position, normal, textureCoordinate int
}

// loadMesh recursively walks a model's shape-node hierarchy, composing
// the accumulated affine transform, materializing one asset.Part per
// shape with a "bind" base state, and recursing into children.
func loadMesh(doc *Document, el *Element, parentTransform mathutil.Affine3, joints []*Element, fileData *asset.FileData) error {
	transformRef, ok := el.Child("transform")
	if !ok {
		return &ImportError{Op: "mesh", Err: fmt.Errorf("mesh node %q missing transform", el.Name)}
	}
	transform, ok := doc.Resolve(transformRef)
	if !ok {
		return &ImportError{Op: "mesh", Err: fmt.Errorf("mesh node %q transform did not resolve", el.Name)}
	}
	local := mathutil.NewAffine3(parseQuat(transform.String("orientation")), parseVec3(transform.String("position")))
	current := local.Mul(parentTransform)

	if shapeRef, ok := el.Child("shape"); ok {
		shape, ok := doc.Resolve(shapeRef)
		if ok {
			if err := loadShape(doc, el, shape, current, joints, fileData); err != nil {
				return err
			}
		}
	}

	for _, ref := range el.Children("children") {
		child, ok := doc.Resolve(ref)
		if !ok {
			continue
		}
		if err := loadMesh(doc, child, current, joints, fileData); err != nil {
			return err
		}
	}
	return nil
}

func loadShape(doc *Document, meshNode, shape *Element, current mathutil.Affine3, joints []*Element, fileData *asset.FileData) error {
	baseStates := doc.ResolveAll(shape.Children("baseStates"))
	var bindState *Element
	for _, state := range baseStates {
		if state.Name == "bind" {
			bindState = state
			break
		}
	}
	if bindState == nil {
		return nil
	}

	positionIndices := parseIntArray(bindState.Attributes["positionsIndices"].Array)
	positions := parseVec3Array(bindState.Attributes["positions"].Array)
	normalIndices := parseIntArray(bindState.Attributes["normalsIndices"].Array)
	normals := parseVec3Array(bindState.Attributes["normals"].Array)
	texCoordIndices := parseIntArray(bindState.Attributes["textureCoordinatesIndices"].Array)
	texCoords := parseVec2Array(bindState.Attributes["textureCoordinates"].Array)

	if len(normalIndices) != len(positionIndices) {
		return &ImportError{Op: "mesh", Err: fmt.Errorf("normalsIndices length does not match positionsIndices")}
	}
	if len(texCoordIndices) != len(positionIndices) {
		return &ImportError{Op: "mesh", Err: fmt.Errorf("textureCoordinatesIndices length does not match positionsIndices")}
	}

	if _, exists := fileData.PartIndex[shape.Name]; exists {
		return &ImportError{Op: "mesh", Err: fmt.Errorf("duplicate part name %q", shape.Name)}
	}
	part := asset.NewPart()

	unique := make(map[uniqueVertexKey]int)
	vertexRemap := make([]int, len(positionIndices))

	jointCount := 0
	if jc, ok := bindState.Attributes["jointCount"]; ok {
		jointCount = parseIntOr(jc.String, 0)
		if jointCount < 0 {
			jointCount = 0
		}
	}

	var jointIndices []int
	var jointWeights []float64
	if jointCount > 0 {
		jointIndices = parseIntArray(bindState.Attributes["jointIndices"].Array)
		jointWeights = parseFloatArray(bindState.Attributes["jointWeights"].Array)
		if len(jointIndices) != len(positions)*jointCount {
			return &ImportError{Op: "mesh", Err: fmt.Errorf("jointIndices length does not match positions*jointCount")}
		}
		if len(jointWeights) != len(jointIndices) {
			return &ImportError{Op: "mesh", Err: fmt.Errorf("jointWeights length does not match jointIndices")}
		}
	}

	for i := range positionIndices {
		key := uniqueVertexKey{position: positionIndices[i], normal: normalIndices[i], textureCoordinate: texCoordIndices[i]}
		if idx, ok := unique[key]; ok {
			vertexRemap[i] = idx
			continue
		}
		idx := len(unique)
		unique[key] = idx
		vertexRemap[i] = idx

		if key.position < 0 || key.position >= len(positions) || key.normal < 0 || key.normal >= len(normals) ||
			key.textureCoordinate < 0 || key.textureCoordinate >= len(texCoords) {
			return &ImportError{Op: "mesh", Err: fmt.Errorf("vertex index out of range in shape %q", shape.Name)}
		}

		vertex := asset.Vertex{
			Location:          positions[key.position],
			Normal:            normals[key.normal],
			TextureCoordinate: texCoords[key.textureCoordinate],
			Links:             map[int]float64{},
		}

		if jointCount == 0 {
			parentBone := fileData.BoneIndex[meshNode.Name]
			vertex.Links[parentBone] = 1.0
		} else {
			base := positionIndices[i] * jointCount
			for j := 0; j < jointCount; j++ {
				jointIndex := jointIndices[base+j]
				if jointIndex < 0 || jointIndex >= len(joints) {
					return &ImportError{Op: "mesh", Err: fmt.Errorf("joint index out of range in shape %q", shape.Name)}
				}
				joint := joints[jointIndex]
				link := fileData.BoneIndex[joint.Name]
				vertex.Links[link] = jointWeights[base+j]
			}
		}
		part.Vertices = append(part.Vertices, vertex)
	}

	faceSets := doc.ResolveAll(shape.Children("faceSets"))
	for _, faceSet := range faceSets {
		faceIndices := parseIntArray(faceSet.Attributes["faces"].Array)
		materialRef, ok := faceSet.Child("material")
		if !ok {
			return &ImportError{Op: "mesh", Err: fmt.Errorf("face set missing material")}
		}
		material, ok := doc.Resolve(materialRef)
		if !ok {
			return &ImportError{Op: "mesh", Err: fmt.Errorf("face set material did not resolve")}
		}
		materialName := material.String("mtlName")

		var faces [][]int
		var face []int
		for _, faceIndex := range faceIndices {
			if faceIndex == -1 {
				if len(face) < 3 {
					return &ImportError{Op: "mesh", Err: fmt.Errorf("face in face set has fewer than 3 indices")}
				}
				reversed := make([]int, len(face))
				for i, v := range face {
					reversed[len(face)-1-i] = v
				}
				faces = append(faces, reversed)
				face = nil
				continue
			}
			if faceIndex < 0 || faceIndex >= len(vertexRemap) {
				return &ImportError{Op: "mesh", Err: fmt.Errorf("face index out of range")}
			}
			face = append(face, vertexRemap[faceIndex])
		}
		part.Faces[materialName] = faces
	}

	for _, deltaState := range doc.ResolveAll(shape.Children("deltaStates")) {
		if _, exists := part.Flexes[deltaState.Name]; exists {
			return &ImportError{Op: "mesh", Err: fmt.Errorf("duplicate flex name %q", deltaState.Name)}
		}
		flex := map[int]asset.FlexVertex{}
		part.Flexes[deltaState.Name] = flex

		if posIdxAttr, ok := deltaState.Attributes["positionsIndices"]; ok {
			posIndices := parseIntArray(posIdxAttr.Array)
			deltaPositions := parseVec3Array(deltaState.Attributes["positions"].Array)
			if len(deltaPositions) != len(posIndices) {
				return &ImportError{Op: "mesh", Err: fmt.Errorf("positionsIndices length does not match positions")}
			}
			for i, vi := range posIndices {
				if vi < 0 || vi >= len(vertexRemap) {
					return &ImportError{Op: "mesh", Err: fmt.Errorf("positionsIndices out of range")}
				}
				remapped := vertexRemap[vi]
				base := part.Vertices[remapped].Location
				delta := base.Add(deltaPositions[i])
				fv := flex[remapped]
				fv.Location = current.TransformPoint(delta)
				flex[remapped] = fv
			}
		}

		if normIdxAttr, ok := deltaState.Attributes["normalsIndices"]; ok {
			normIndices := parseIntArray(normIdxAttr.Array)
			deltaNormals := parseVec3Array(deltaState.Attributes["normals"].Array)
			if len(deltaNormals) != len(normIndices) {
				return &ImportError{Op: "mesh", Err: fmt.Errorf("normalsIndices length does not match normals")}
			}
			for i, vi := range normIndices {
				if vi < 0 || vi >= len(vertexRemap) {
					return &ImportError{Op: "mesh", Err: fmt.Errorf("normalsIndices out of range")}
				}
				remapped := vertexRemap[vi]
				base := part.Vertices[remapped].Normal
				delta := base.Add(deltaNormals[i])
				fv := flex[remapped]
				fv.Normal = current.TransformVector(delta)
				flex[remapped] = fv
			}
		}
	}

	for i := range part.Vertices {
		part.Vertices[i].Location = current.TransformPoint(part.Vertices[i].Location)
		part.Vertices[i].Normal = current.TransformVector(part.Vertices[i].Normal)
	}

	fileData.AddPart(shape.Name, part)
	return nil
}

// loadAnimationClip materializes one animation element into FileData,
// translating its per-channel logged keyframes into frame-indexed
// location/rotation samples on the targeted bone.
func loadAnimationClip(doc *Document, clip *Element, fileData *asset.FileData, version int) error {
	if _, exists := fileData.AnimationIndex[clip.Name]; exists {
		return &ImportError{Op: "animation", Err: fmt.Errorf("duplicate animation name %q", clip.Name)}
	}

	frameRate := float64(parseIntOr(clip.String("frameRate"), 30))
	timeFrameRef, ok := clip.Child("timeFrame")
	if !ok {
		return &ImportError{Op: "animation", Err: fmt.Errorf("animation %q missing timeFrame", clip.Name)}
	}
	timeFrame, ok := doc.Resolve(timeFrameRef)
	if !ok {
		return &ImportError{Op: "animation", Err: fmt.Errorf("animation %q timeFrame did not resolve", clip.Name)}
	}

	var start, duration float64
	if version < 2 {
		start = float64(parseIntOr(timeFrame.String("startTime"), 0)) / 10000.0
		duration = float64(parseIntOr(timeFrame.String("durationTime"), 0)) / 10000.0
	} else {
		start = parseTimeOrSeconds(timeFrame.String("start"), version)
		duration = parseTimeOrSeconds(timeFrame.String("duration"), version)
	}

	startFrame := int(math.Ceil(start * frameRate))
	endFrame := int(math.Ceil((start + duration) * frameRate))
	frameCount := endFrame - startFrame + 1
	if frameCount < 1 {
		frameCount = 1
	}

	animation := asset.Animation{FrameCount: frameCount, Channels: map[int]asset.Channel{}}

	channels := doc.ResolveAll(clip.Children("channels"))
	for _, channel := range channels {
		jointRef, ok := channel.Child("toElement")
		if !ok {
			return &ImportError{Op: "animation", Err: fmt.Errorf("channel missing toElement")}
		}
		joint, ok := doc.Resolve(jointRef)
		if !ok {
			return &ImportError{Op: "animation", Err: fmt.Errorf("channel toElement did not resolve")}
		}
		targetAttribute := channel.String("toAttribute")

		logRef, ok := channel.Child("log")
		if !ok {
			return &ImportError{Op: "animation", Err: fmt.Errorf("channel missing log")}
		}
		logEl, ok := doc.Resolve(logRef)
		if !ok {
			return &ImportError{Op: "animation", Err: fmt.Errorf("channel log did not resolve")}
		}
		layers := doc.ResolveAll(logEl.Children("layers"))
		layerIndex := parseIntOr(channel.String("toIndex"), 0)
		if layerIndex < 0 || layerIndex >= len(layers) {
			return &ImportError{Op: "animation", Err: fmt.Errorf("toIndex out of range on channel")}
		}
		layer := layers[layerIndex]

		times := parseTimeArray(layer.Attributes["times"].Array, version)

		bone, ok := fileData.BoneIndex[joint.Name]
		if !ok {
			return &ImportError{Op: "animation", Err: fmt.Errorf("animation channel target %q was not a joint", joint.Name)}
		}

		switch targetAttribute {
		case "position":
			values := parseVec3Array(layer.Attributes["values"].Array)
			if len(values) != len(times) {
				return &ImportError{Op: "animation", Err: fmt.Errorf("times length does not match values")}
			}
			channelData := animation.Channels[bone]
			if channelData.Location == nil {
				channelData = asset.NewChannel()
			}
			for frame, t := range times {
				sampleFrame := int(math.Ceil(t * frameRate))
				if sampleFrame < startFrame || sampleFrame > endFrame {
					continue
				}
				channelData.Location[sampleFrame-startFrame] = values[frame]
			}
			animation.Channels[bone] = channelData
		case "orientation":
			values := make([]mathutil.Quat, 0, len(layer.Attributes["values"].Array))
			for _, s := range layer.Attributes["values"].Array {
				values = append(values, parseQuat(s))
			}
			if len(values) != len(times) {
				return &ImportError{Op: "animation", Err: fmt.Errorf("times length does not match values")}
			}
			channelData := animation.Channels[bone]
			if channelData.Rotation == nil {
				channelData = asset.NewChannel()
			}
			for frame, t := range times {
				sampleFrame := int(math.Ceil(t * frameRate))
				if sampleFrame < startFrame || sampleFrame > endFrame {
					continue
				}
				channelData.Rotation[sampleFrame-startFrame] = values[frame]
			}
			animation.Channels[bone] = channelData
		}
	}

	fileData.AddAnimation(clip.Name, animation)
	return nil
}
