package process

import (
	"testing"

	"github.com/quinnarbor/modelwrench/internal/asset"
	"github.com/quinnarbor/modelwrench/internal/config"
	"github.com/quinnarbor/modelwrench/internal/input"
	"github.com/quinnarbor/modelwrench/internal/logging"
	"github.com/quinnarbor/modelwrench/internal/mathutil"
)

type fakeFiles struct {
	data map[string]*asset.FileData
}

func (f *fakeFiles) GetFileData(path string) (*asset.FileData, bool) {
	d, ok := f.data[path]
	return d, ok
}

func intPtr(v int) *int { return &v }

func twoBoneFile() *asset.FileData {
	fd := asset.NewFileData(mathutil.AxisPositiveZ, mathutil.AxisPositiveY)
	fd.AddBone("root", asset.Bone{Name: "root", Rotation: mathutil.QuatIdentity})
	fd.AddBone("child", asset.Bone{Name: "child", Parent: intPtr(0), Location: mathutil.Vec3{X: 1}, Rotation: mathutil.QuatIdentity})
	fd.AddBone("unused", asset.Bone{Name: "unused", Parent: intPtr(0), Rotation: mathutil.QuatIdentity})

	part := asset.NewPart()
	part.Vertices = []asset.Vertex{
		{Location: mathutil.Vec3{}, Links: map[int]float64{0: 0.5, 1: 0.5}},
	}
	part.Faces = map[string][][]int{"mat": {{0, 0, 0}}}
	fd.AddPart("body", part)

	return fd
}

func TestBonesCollapsesUnusedBone(t *testing.T) {
	fd := twoBoneFile()
	files := &fakeFiles{data: map[string]*asset.FileData{"model.dmx": fd}}

	data := &input.CompilationData{
		ModelGroups: []input.ModelGroup{
			{Name: "group", Models: []input.Model{
				{Name: "model", SourceFile: "model.dmx", EnabledParts: []string{"body"}},
			}},
		},
	}

	result, err := Bones(data, files, config.Default(), logging.NewNullLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.ProcessedBones) != 2 {
		t.Fatalf("expected 2 bones after collapse, got %d: %+v", len(result.ProcessedBones), result.ProcessedBones)
	}
	for _, b := range result.ProcessedBones {
		if b.Name == "unused" {
			t.Errorf("expected unused bone to be collapsed out")
		}
	}
}

func TestSequencesFailsOnUnmappedIdentifier(t *testing.T) {
	data := &input.CompilationData{
		Sequences: []input.Sequence{
			{Name: "idle", Animations: [][]string{{"missing"}}},
		},
	}

	_, err := Sequences(data, map[string]int{})
	if err == nil {
		t.Fatalf("expected an error for an unmapped animation identifier")
	}
}

func TestSequencesTranslatesGrid(t *testing.T) {
	data := &input.CompilationData{
		Sequences: []input.Sequence{
			{Name: "idle", Animations: [][]string{{"a", "b"}}},
		},
	}

	remap := map[string]int{"a": 0, "b": 1}
	result, err := Sequences(data, remap)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 1 || len(result[0].Animations) != 1 || result[0].Animations[0][0] != 0 || result[0].Animations[0][1] != 1 {
		t.Errorf("expected translated grid [[0 1]], got %+v", result)
	}
}

func TestTriangulateFacePolygon(t *testing.T) {
	vertices := []asset.Vertex{
		{Location: mathutil.Vec3{X: 0, Y: 0, Z: 0}},
		{Location: mathutil.Vec3{X: 1, Y: 0, Z: 0}},
		{Location: mathutil.Vec3{X: 1, Y: 1, Z: 0}},
		{Location: mathutil.Vec3{X: 0, Y: 1, Z: 0}},
		{Location: mathutil.Vec3{X: 0.5, Y: 2, Z: 0}},
	}
	face := []int{0, 1, 2, 3, 4}

	triangles := triangulateFace(face, vertices)
	if len(triangles) != 3 {
		t.Fatalf("expected 3 triangles for a pentagon, got %d", len(triangles))
	}
}

func TestTriangulateFaceQuad(t *testing.T) {
	vertices := []asset.Vertex{{}, {}, {}, {}}
	face := []int{0, 1, 2, 3}
	triangles := triangulateFace(face, vertices)
	want := [][3]int{{0, 1, 2}, {2, 3, 0}}
	if len(triangles) != 2 || triangles[0] != want[0] || triangles[1] != want[1] {
		t.Errorf("expected %v, got %v", want, triangles)
	}
}
