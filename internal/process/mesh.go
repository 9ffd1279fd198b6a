package process

import (
	"fmt"
	"math"
	"sort"

	"github.com/quinnarbor/modelwrench/internal/asset"
	"github.com/quinnarbor/modelwrench/internal/config"
	"github.com/quinnarbor/modelwrench/internal/input"
	"github.com/quinnarbor/modelwrench/internal/logging"
	"github.com/quinnarbor/modelwrench/internal/mathutil"
)

// Vertex is one processed, hardware-ready vertex: up to three bone
// weights/indices, position, normal, UV, and tangent frame.
type Vertex struct {
	Weights           [3]float32
	Bones             [3]uint8
	BoneCount         uint8
	Position          mathutil.Vec3
	Normal            mathutil.Vec3
	TextureCoordinate mathutil.Vec2
	Tangent           mathutil.Vec4
}

// HardwareBone maps a strip-local hardware bone slot to the skeleton's bone
// index.
type HardwareBone struct {
	HardwareBone  int32
	BoneTableBone int32
}

// Strip is a run of triangle indices sharing one hardware bone table.
type Strip struct {
	IndicesCount  int32
	IndicesOffset int32
	VertexCount   int32
	VertexOffset  int32
	BoneCount     int16
	HardwareBones []HardwareBone
}

// StripGroup owns the vertex/index buffers a set of strips draw from.
type StripGroup struct {
	Vertices []MeshVertex
	Indices  []uint16
	Strips   []Strip
}

// MeshVertex is one strip-group-local vertex record pointing back at the
// mesh's vertex data and carrying the strip-local hardware bone slots.
type MeshVertex struct {
	BoneCount   uint8
	VertexIndex uint16
	Bones       [3]uint8
}

// Mesh is one material's worth of processed geometry.
type Mesh struct {
	Material    int32
	VertexData  []Vertex
	StripGroups []StripGroup
}

// ModelMesh is one processed model (one input.Model) within a model group.
type ModelMesh struct {
	Name   string
	Meshes []Mesh
}

// ModelGroupMesh is one processed model group.
type ModelGroupMesh struct {
	Name   string
	Models []ModelMesh
}

// ModelData is the mesh processor's output.
type ModelData struct {
	ModelGroups []ModelGroupMesh
	BoundingBox mathutil.BoundingBox
	// Hitboxes is keyed by processed bone index.
	Hitboxes  map[int]mathutil.BoundingBox
	Materials []string
}

// MeshError is returned by Meshes on any unrecoverable condition.
type MeshError struct {
	Op  string
	Err error
}

func (e *MeshError) Error() string { return fmt.Sprintf("process: mesh: %s: %v", e.Op, e.Err) }
func (e *MeshError) Unwrap() error { return e.Err }

const floatTolerance = 1.1920929e-7 // float32.Epsilon widened to float64

// Meshes triangulates, remaps, merges, reorders, and strip-partitions every
// enabled model part into hardware-ready geometry.
func Meshes(data *input.CompilationData, files FileDataSource, bones *BoneData, settings config.Settings, log logging.Logger) (*ModelData, error) {
	modelData := &ModelData{Hitboxes: map[int]mathutil.BoundingBox{}}
	materialIndex := map[string]int{}

	for _, group := range data.ModelGroups {
		processedGroup := ModelGroupMesh{Name: group.Name}

		for _, model := range group.Models {
			if model.SourceFile == "" {
				return nil, &MeshError{Op: "resolve", Err: fmt.Errorf("model %q in model group %q is missing a file path", model.Name, group.Name)}
			}
			importFile, ok := files.GetFileData(model.SourceFile)
			if !ok {
				return nil, &MeshError{Op: "resolve", Err: fmt.Errorf("model %q in model group %q: file is not loaded", model.Name, group.Name)}
			}

			triangleLists := createTriangleLists(importFile, model, modelData, materialIndex)
			if len(modelData.Materials) > settings.MaxMaterials {
				return nil, &MeshError{Op: "materials", Err: fmt.Errorf("model has too many materials")}
			}

			processedModel := ModelMesh{Name: model.Name}
			vertexLinkCullCount := 0
			vertexCount := 0
			triangleCount := 0

			for _, materialIdx := range sortedKeys(triangleLists) {
				tl := triangleLists[materialIdx]
				remapVertexLinks(tl, importFile, bones, &vertexLinkCullCount)
				mergeVertices(tl)
				optimizeVertexCache(tl, settings)
				updateBoundingBoxes(tl, modelData, bones)
				tangents := calculateVertexTangents(tl)
				meshes := finalizeTriangleList(materialIdx, tl, tangents, &vertexCount, &triangleCount, settings)
				processedModel.Meshes = append(processedModel.Meshes, meshes...)

				if len(processedModel.Meshes) > settings.MaxMeshes {
					return nil, &MeshError{Op: "meshes", Err: fmt.Errorf("model %q in model group %q has too many meshes", model.Name, group.Name)}
				}
			}

			if vertexLinkCullCount > 0 {
				logging.Warn(log, logging.CategoryMesh, "culled %d vertex weight links for model %q in model group %q", vertexLinkCullCount, model.Name, group.Name)
			}
			logging.Info(log, logging.CategoryMesh, "model %q in model group %q has %d triangles with %d vertices", model.Name, group.Name, triangleCount, vertexCount)

			processedGroup.Models = append(processedGroup.Models, processedModel)
		}

		modelData.ModelGroups = append(modelData.ModelGroups, processedGroup)
		if len(modelData.ModelGroups) > settings.MaxModelGroups {
			return nil, &MeshError{Op: "model groups", Err: fmt.Errorf("model has too many model groups")}
		}
	}

	for _, bone := range bones.ProcessedBones {
		modelData.BoundingBox = modelData.BoundingBox.AddPoint(bone.WorldTransform.Translation)
	}

	return modelData, nil
}

type triangleVertexLink struct {
	bone   int
	weight float64
}

type triangleVertex struct {
	location mathutil.Vec3
	normal   mathutil.Vec3
	texture  mathutil.Vec2
	links    []triangleVertexLink
}

type triangleList struct {
	vertices  []triangleVertex
	triangles [][3]int
}

func sortedKeys(m map[int]*triangleList) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func createTriangleLists(importFile *asset.FileData, model input.Model, modelData *ModelData, materialIndex map[string]int) map[int]*triangleList {
	enabled := make(map[string]bool, len(model.EnabledParts))
	for _, p := range model.EnabledParts {
		enabled[p] = true
	}

	lists := map[int]*triangleList{}
	spaceTransform := mathutil.CreateSpaceTransform(importFile.Up, importFile.Forward).Inverse()

	for partName, partIdx := range importFile.PartIndex {
		if !enabled[partName] {
			continue
		}
		part := importFile.Parts[partIdx]

		for material, faces := range part.Faces {
			idx, ok := materialIndex[material]
			if !ok {
				idx = len(modelData.Materials)
				materialIndex[material] = idx
				modelData.Materials = append(modelData.Materials, material)
			}

			list, ok := lists[idx]
			if !ok {
				list = &triangleList{}
				lists[idx] = list
			}

			for _, face := range faces {
				triangulated := triangulateFace(face, part.Vertices)
				for _, faceTriangle := range triangulated {
					var tri [3]int
					for i, vertexIndex := range faceTriangle {
						v := part.Vertices[vertexIndex]
						links := make([]triangleVertexLink, 0, len(v.Links))
						for bone, weight := range v.Links {
							links = append(links, triangleVertexLink{bone: bone, weight: weight})
						}
						tv := triangleVertex{
							location: spaceTransform.TransformPoint(v.Location),
							normal:   spaceTransform.TransformVector(v.Normal),
							texture:  mathutil.Vec2{X: v.TextureCoordinate.X, Y: 1.0 - v.TextureCoordinate.Y},
							links:    links,
						}
						tri[i] = len(list.vertices)
						list.vertices = append(list.vertices, tv)
					}
					list.triangles = append(list.triangles, tri)
				}
			}
		}
	}

	return lists
}

// triangulateFace splits an n-gon into triangles: a triangle is kept as is,
// a quad is split along its 0-2 diagonal, and anything larger fans out from
// whichever vertex has the smallest total distance to its non-adjacent
// vertices.
func triangulateFace(face []int, vertices []asset.Vertex) [][3]int {
	if len(face) == 3 {
		return [][3]int{{face[0], face[1], face[2]}}
	}
	if len(face) == 4 {
		return [][3]int{
			{face[0], face[1], face[2]},
			{face[2], face[3], face[0]},
		}
	}

	indexCount := len(face)
	minDistance := math.MaxFloat64
	minIndex := 0

	for loopIndex := 0; loopIndex < indexCount; loopIndex++ {
		distance := 0.0
		center := vertices[face[loopIndex]].Location
		for d := 2; d < indexCount-1; d++ {
			edgeIndex := (loopIndex + d) % indexCount
			edge := vertices[face[edgeIndex]].Location
			distance += edge.Sub(center).Length()
		}
		if distance < minDistance {
			minIndex = loopIndex
			minDistance = distance
		}
	}

	var triangles [][3]int
	for b := 1; b < indexCount-1; b++ {
		triangles = append(triangles, [3]int{
			face[minIndex],
			face[(minIndex+b)%indexCount],
			face[(minIndex+b+1)%indexCount],
		})
	}
	return triangles
}

// remapVertexLinks translates every vertex's source-bone links to processed
// bone indices: reuse-by-name when the import bone survived collapse, else
// climb the import bone's ancestor chain until one did, else fall back to
// bone 0. Duplicate links to the same processed bone are summed, then the
// links are sorted descending by weight, truncated to 3, renormalized, and
// finally sorted ascending by bone index.
func remapVertexLinks(tl *triangleList, importFile *asset.FileData, bones *BoneData, cullCount *int) {
	remap := make([]int, len(importFile.Skeleton))
	for i, b := range importFile.Skeleton {
		if processedIdx, ok := bones.BoneIndexByName[b.Name]; ok {
			remap[i] = processedIdx
			continue
		}

		parent := b.Parent
		found := -1
		for parent != nil {
			if processedIdx, ok := bones.BoneIndexByName[importFile.Skeleton[*parent].Name]; ok {
				found = processedIdx
				break
			}
			parent = importFile.Skeleton[*parent].Parent
		}
		if found == -1 {
			found = 0
		}
		remap[i] = found
	}

	for vi := range tl.vertices {
		v := &tl.vertices[vi]
		for i := range v.links {
			v.links[i].bone = remap[v.links[i].bone]
		}

		merged := map[int]float64{}
		order := []int{}
		for _, l := range v.links {
			if _, ok := merged[l.bone]; !ok {
				order = append(order, l.bone)
			}
			merged[l.bone] += l.weight
		}
		newLinks := make([]triangleVertexLink, 0, len(order))
		for _, bone := range order {
			newLinks = append(newLinks, triangleVertexLink{bone: bone, weight: merged[bone]})
		}

		sort.SliceStable(newLinks, func(a, b int) bool { return newLinks[a].weight > newLinks[b].weight })
		if len(newLinks) > 3 {
			*cullCount++
		}
		if len(newLinks) > 3 {
			newLinks = newLinks[:3]
		}

		weightSum := 0.0
		for _, l := range newLinks {
			weightSum += l.weight
		}
		if weightSum > floatTolerance {
			for i := range newLinks {
				newLinks[i].weight /= weightSum
			}
		}

		sort.SliceStable(newLinks, func(a, b int) bool { return newLinks[a].bone < newLinks[b].bone })
		v.links = newLinks
	}
}

// mergeVertices folds together vertices at (near-)identical positions that
// also match on normal, UV, and bone links, using a uniform spatial hash
// keyed on the position quantized to the merge tolerance.
func mergeVertices(tl *triangleList) {
	type bucketKey [3]int64

	keyFor := func(p mathutil.Vec3, tolerance float64) bucketKey {
		scale := 1.0 / tolerance
		return bucketKey{
			int64(math.Floor(p.X * scale)),
			int64(math.Floor(p.Y * scale)),
			int64(math.Floor(p.Z * scale)),
		}
	}

	buckets := map[bucketKey][]int{}
	var unique []triangleVertex
	remap := make([]int, len(tl.vertices))

	neighborOffsets := []bucketKey{}
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				neighborOffsets = append(neighborOffsets, bucketKey{int64(dx), int64(dy), int64(dz)})
			}
		}
	}

	for vi, vertex := range tl.vertices {
		key := keyFor(vertex.location, floatTolerance)
		found := -1
		for _, off := range neighborOffsets {
			neighborKey := bucketKey{key[0] + off[0], key[1] + off[1], key[2] + off[2]}
			for _, candidate := range buckets[neighborKey] {
				if vertexEquals(vertex, unique[candidate]) {
					found = candidate
					break
				}
			}
			if found != -1 {
				break
			}
		}

		if found != -1 {
			remap[vi] = found
			continue
		}

		idx := len(unique)
		unique = append(unique, vertex)
		buckets[key] = append(buckets[key], idx)
		remap[vi] = idx
	}

	tl.vertices = unique
	for ti, tri := range tl.triangles {
		tl.triangles[ti] = [3]int{remap[tri[0]], remap[tri[1]], remap[tri[2]]}
	}
}

func vertexEquals(from, to triangleVertex) bool {
	if !mathutil.ApproxEqual(from.normal.X, to.normal.X, floatTolerance) ||
		!mathutil.ApproxEqual(from.normal.Y, to.normal.Y, floatTolerance) ||
		!mathutil.ApproxEqual(from.normal.Z, to.normal.Z, floatTolerance) {
		return false
	}
	if !mathutil.ApproxEqual(from.texture.X, to.texture.X, floatTolerance) ||
		!mathutil.ApproxEqual(from.texture.Y, to.texture.Y, floatTolerance) {
		return false
	}
	if len(from.links) != len(to.links) {
		return false
	}
	for i := range from.links {
		if from.links[i].bone != to.links[i].bone || from.links[i].weight != to.links[i].weight {
			return false
		}
	}
	return true
}

// cacheSize, the post-transform vertex cache this pass simulates, and the
// exact score tables are a direct port of meshoptimizer's vcacheoptimizer.
var cacheScores = [17]float64{
	0.0, 0.779, 0.791, 0.789, 0.981, 0.843, 0.726, 0.847, 0.882, 0.867, 0.799, 0.642, 0.613, 0.600, 0.568, 0.372, 0.234,
}

var valenceScores = [9]float64{0.0, 0.995, 0.713, 0.450, 0.404, 0.059, 0.005, 0.147, 0.006}

const valenceSize = 8

func optimizeVertexCache(tl *triangleList, settings config.Settings) {
	triangleCount := len(tl.triangles)
	vertexCount := len(tl.vertices)
	if triangleCount == 0 {
		return
	}

	counts := make([]int, vertexCount)
	offsets := make([]int, vertexCount)
	for _, tri := range tl.triangles {
		for _, vi := range tri {
			counts[vi]++
		}
	}

	offset := 0
	for vi := 0; vi < vertexCount; vi++ {
		offsets[vi] = offset
		offset += counts[vi]
	}

	data := make([]int, triangleCount*3)
	writeCursor := append([]int(nil), offsets...)
	for ti, tri := range tl.triangles {
		for _, vi := range tri {
			data[writeCursor[vi]] = ti
			writeCursor[vi]++
		}
	}
	// offsets still hold each vertex's range start (only writeCursor was
	// advanced); remainingCounts tracks how much of each range is live.
	remainingCounts := append([]int(nil), counts...)

	vertexScores := make([]float64, vertexCount)
	for vi := 0; vi < vertexCount; vi++ {
		vertexScores[vi] = valenceScores[min(remainingCounts[vi], valenceSize)]
	}

	triangleScores := make([]float64, triangleCount)
	for ti, tri := range tl.triangles {
		for _, vi := range tri {
			triangleScores[ti] += vertexScores[vi]
		}
	}

	optimized := make([]bool, triangleCount)
	destination := make([][3]int, 0, triangleCount)

	cacheSize := settings.VertexCacheSize
	cache := make([]int, 0, cacheSize+4)

	currentTriangle := 0
	inputCursor := 1

	removeFromAdjacency := func(vi, triIdx int) {
		start := offsets[vi]
		end := start + remainingCounts[vi]
		last := data[end-1]
		for i := start; i < end; i++ {
			if data[i] == triIdx {
				data[i] = last
				remainingCounts[vi]--
				break
			}
		}
	}

	for {
		tri := tl.triangles[currentTriangle]
		destination = append(destination, tri)
		optimized[currentTriangle] = true
		triangleScores[currentTriangle] = 0

		newCache := make([]int, 0, cacheSize+4)
		newCache = append(newCache, tri[0], tri[1], tri[2])
		for _, cached := range cache {
			if cached != tri[0] && cached != tri[1] && cached != tri[2] {
				newCache = append(newCache, cached)
			}
		}
		if len(newCache) > cacheSize {
			newCache = newCache[:cacheSize]
		}
		cache = newCache

		for _, vi := range tri {
			removeFromAdjacency(vi, currentTriangle)
		}

		bestTriangle := -1
		bestScore := 0.0

		for cacheIndex, cachedIndex := range cache {
			if remainingCounts[cachedIndex] == 0 {
				continue
			}

			cachePosition := 0
			if cacheIndex < cacheSize {
				cachePosition = cacheIndex + 1
			}
			score := cacheScores[min(cachePosition, len(cacheScores)-1)] + valenceScores[min(remainingCounts[cachedIndex], valenceSize)]
			scoreDifference := score - vertexScores[cachedIndex]
			vertexScores[cachedIndex] = score

			start := offsets[cachedIndex]
			end := start + remainingCounts[cachedIndex]
			for i := start; i < end; i++ {
				neighbor := data[i]
				neighborScore := triangleScores[neighbor] + scoreDifference
				if bestScore < neighborScore {
					bestTriangle = neighbor
					bestScore = neighborScore
				}
				triangleScores[neighbor] = neighborScore
			}
		}

		if bestTriangle == -1 {
			for inputCursor < triangleCount {
				if !optimized[inputCursor] {
					bestTriangle = inputCursor
					break
				}
				inputCursor++
			}
		}

		if bestTriangle == -1 {
			break
		}
		currentTriangle = bestTriangle
	}

	tl.triangles = destination
}

func updateBoundingBoxes(tl *triangleList, modelData *ModelData, bones *BoneData) {
	for _, v := range tl.vertices {
		modelData.BoundingBox = modelData.BoundingBox.AddPoint(v.location)

		for _, link := range v.links {
			bone := bones.ProcessedBones[link.bone]
			localLocation := bone.WorldTransform.Inverse().TransformPoint(v.location)
			box := modelData.Hitboxes[link.bone]
			box = box.AddPoint(localLocation.Scale(link.weight))
			modelData.Hitboxes[link.bone] = box
		}
	}
}

func calculateVertexTangents(tl *triangleList) []mathutil.Vec4 {
	tangents := make([]mathutil.Vec3, len(tl.vertices))
	bitangents := make([]mathutil.Vec3, len(tl.vertices))

	for _, face := range tl.triangles {
		edge1 := tl.vertices[face[1]].location.Sub(tl.vertices[face[0]].location)
		edge2 := tl.vertices[face[2]].location.Sub(tl.vertices[face[0]].location)
		deltaUV1 := tl.vertices[face[1]].texture.Sub(tl.vertices[face[0]].texture)
		deltaUV2 := tl.vertices[face[2]].texture.Sub(tl.vertices[face[0]].texture)

		denominator := deltaUV1.X*deltaUV2.Y - deltaUV2.X*deltaUV1.Y

		if math.Abs(denominator) < mathutil.Epsilon {
			for _, vi := range face {
				tangents[vi] = tangents[vi].Add(mathutil.Vec3{X: 1, Y: 0, Z: 0})
				bitangents[vi] = bitangents[vi].Add(mathutil.Vec3{X: 0, Y: 1, Z: 0})
			}
			continue
		}

		area := 1.0 / denominator

		tangent := mathutil.Vec3{
			X: area * (deltaUV2.Y*edge1.X - deltaUV1.Y*edge2.X),
			Y: area * (deltaUV2.Y*edge1.Y - deltaUV1.Y*edge2.Y),
			Z: area * (deltaUV2.Y*edge1.Z - deltaUV1.Y*edge2.Z),
		}
		bitangent := mathutil.Vec3{
			X: area * (deltaUV1.X*edge2.X - deltaUV2.X*edge1.X),
			Y: area * (deltaUV1.X*edge2.Y - deltaUV2.X*edge1.Y),
			Z: area * (deltaUV1.X*edge2.Z - deltaUV2.X*edge1.Z),
		}

		for _, vi := range face {
			tangents[vi] = tangents[vi].Add(tangent)
			bitangents[vi] = bitangents[vi].Add(bitangent)
		}
	}

	result := make([]mathutil.Vec4, len(tl.vertices))
	for i := range tl.vertices {
		normTangent := tangents[i].Normalize()
		normBitangent := bitangents[i].Normalize()
		normal := tl.vertices[i].normal

		orthogonalized := normTangent.Sub(normal.Scale(normTangent.Dot(normal))).Normalize()

		cross := normal.Cross(normTangent)
		sign := 1.0
		if cross.Dot(normBitangent) < 0 {
			sign = -1.0
		}

		result[i] = mathutil.Vec4{X: orthogonalized.X, Y: orthogonalized.Y, Z: orthogonalized.Z, W: sign}
	}

	return result
}

// finalizeTriangleList partitions a material's triangles into
// strip/stripgroup/mesh units under two independent caps: 65536 unique
// local vertices per strip group and 53 distinct hardware bones per strip.
// Breaching either cap closes the current strip, strip group, and mesh and
// starts fresh — duplicating any vertex that straddles the boundary. This
// is the design the source pipeline ships, not the non-duplicating
// alternative it leaves commented out.
func finalizeTriangleList(materialIndex int, tl *triangleList, tangents []mathutil.Vec4, vertexCount, triangleCount *int, settings config.Settings) []Mesh {
	var meshes []Mesh

	mesh := Mesh{Material: int32(materialIndex)}
	stripGroup := StripGroup{}
	strip := Strip{}

	mappedIndices := map[int]int{}
	mappedOrder := []int{}
	hardwareBones := map[int]int{} // bone -> hardware slot
	hardwareBoneOrder := []int{}

	closeAndRestart := func() {
		stripGroup.Strips = append(stripGroup.Strips, strip)
		mesh.StripGroups = append(mesh.StripGroups, stripGroup)
		meshes = append(meshes, mesh)

		mappedIndices = map[int]int{}
		mappedOrder = nil
		hardwareBones = map[int]int{}
		hardwareBoneOrder = nil
		strip = Strip{}
		stripGroup = StripGroup{}
		mesh = Mesh{Material: int32(materialIndex)}
	}

	for _, tri := range tl.triangles {
		uniqueInTri := map[int]bool{tri[0]: true, tri[1]: true, tri[2]: true}
		newIndicesCount := 0
		for idx := range uniqueInTri {
			if _, ok := mappedIndices[idx]; !ok {
				newIndicesCount++
			}
		}
		if len(mappedIndices)+newIndicesCount > settings.MaxUniqueVerticesPerStripGroup {
			closeAndRestart()
		}

		newHardwareBoneCount := 0
		seenThisTri := map[int]bool{}
		for idx := range uniqueInTri {
			for _, l := range tl.vertices[idx].links {
				if seenThisTri[l.bone] {
					continue
				}
				seenThisTri[l.bone] = true
				if _, ok := hardwareBones[l.bone]; !ok {
					newHardwareBoneCount++
				}
			}
		}

		if len(hardwareBones)+newHardwareBoneCount > settings.MaxHardwareBonesPerStrip {
			closeAndRestart()
		}

		for _, index := range tri {
			if mappedIndex, ok := mappedIndices[index]; ok {
				stripGroup.Indices = append(stripGroup.Indices, uint16(mappedIndex))
				strip.IndicesCount++
				continue
			}

			vertexData := tl.vertices[index]
			weightCount := uint8(len(vertexData.links))
			var weights [3]float32
			var bonesArr [3]uint8
			for i, l := range vertexData.links {
				weights[i] = float32(l.weight)
				bonesArr[i] = uint8(l.bone)
			}

			processedVertex := Vertex{
				Weights:           weights,
				Bones:             bonesArr,
				BoneCount:         weightCount,
				Position:          vertexData.location,
				Normal:            vertexData.normal,
				TextureCoordinate: vertexData.texture,
				Tangent:           tangents[index],
			}

			meshVertex := MeshVertex{
				VertexIndex: uint16(len(stripGroup.Vertices)),
				BoneCount:   weightCount,
			}

			if int16(weightCount) > strip.BoneCount {
				strip.BoneCount = int16(weightCount)
			}

			for i, l := range vertexData.links {
				slot, ok := hardwareBones[l.bone]
				if !ok {
					slot = len(hardwareBoneOrder)
					hardwareBones[l.bone] = slot
					hardwareBoneOrder = append(hardwareBoneOrder, l.bone)
					strip.HardwareBones = append(strip.HardwareBones, HardwareBone{
						HardwareBone:  int32(slot),
						BoneTableBone: int32(l.bone),
					})
				}
				meshVertex.Bones[i] = uint8(slot)
			}

			stripGroup.Indices = append(stripGroup.Indices, uint16(len(stripGroup.Vertices)))
			mappedIndices[index] = len(stripGroup.Vertices)
			mappedOrder = append(mappedOrder, index)
			strip.IndicesCount++

			stripGroup.Vertices = append(stripGroup.Vertices, meshVertex)
			mesh.VertexData = append(mesh.VertexData, processedVertex)
			strip.VertexCount++
			*vertexCount++
		}
		*triangleCount++
	}

	stripGroup.Strips = append(stripGroup.Strips, strip)
	mesh.StripGroups = append(mesh.StripGroups, stripGroup)
	meshes = append(meshes, mesh)

	return meshes
}
