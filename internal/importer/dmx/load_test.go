package dmx

import "testing"

const fullDocument = `<!-- dmx encoding keyvalues2 1 format model 10 -->
"DmeModel"
{
	"id" "elementid" "root"
	"format" "string" "model"
	"formatVersion" "int" "10"
	"skeleton" "element" "skel"
	"model" "element" "mdl"
	"animationList" "element" "animlist"
}
"DmeBoneSkeleton"
{
	"id" "elementid" "skel"
	"children" "element_array"
	[
		"joint_root"
	]
}
"DmeJoint"
{
	"id" "elementid" "joint_root"
	"name" "string" "root_bone"
	"transform" "element" "xform_root"
}
"DmeTransform"
{
	"id" "elementid" "xform_root"
	"position" "vector3" "0 0 0"
	"orientation" "quaternion" "0 0 0 1"
}
"DmeModel"
{
	"id" "elementid" "mdl"
	"jointList" "element_array"
	[
		"joint_root"
	]
	"children" "element_array"
	[
		"mesh_root"
	]
}
"DmeDag"
{
	"id" "elementid" "mesh_root"
	"name" "string" "root_bone"
	"transform" "element" "xform_mesh"
	"shape" "element" "shape_body"
}
"DmeTransform"
{
	"id" "elementid" "xform_mesh"
	"position" "vector3" "0 0 0"
	"orientation" "quaternion" "0 0 0 1"
}
"DmeMesh"
{
	"id" "elementid" "shape_body"
	"name" "string" "body"
	"baseStates" "element_array"
	[
		"bind_state"
	]
	"faceSets" "element_array"
	[
		"face_set_0"
	]
}
"DmeVertexData"
{
	"id" "elementid" "bind_state"
	"name" "string" "bind"
	"jointCount" "int" "0"
	"positionsIndices" "int_array"
	[
		"0",
		"1",
		"2"
	]
	"positions" "vector3_array"
	[
		"0 0 0",
		"1 0 0",
		"0 1 0"
	]
	"normalsIndices" "int_array"
	[
		"0",
		"0",
		"0"
	]
	"normals" "vector3_array"
	[
		"0 0 1"
	]
	"textureCoordinatesIndices" "int_array"
	[
		"0",
		"1",
		"2"
	]
	"textureCoordinates" "vector2_array"
	[
		"0 0",
		"1 0",
		"0 1"
	]
}
"DmeFaceSet"
{
	"id" "elementid" "face_set_0"
	"faces" "int_array"
	[
		"0",
		"1",
		"2",
		"-1"
	]
	"material" "element" "mat0"
}
"DmeMaterial"
{
	"id" "elementid" "mat0"
	"mtlName" "string" "default"
}
"DmeAnimationList"
{
	"id" "elementid" "animlist"
	"animations" "element_array"
	[
		"clip_idle"
	]
}
"DmeChannelsClip"
{
	"id" "elementid" "clip_idle"
	"name" "string" "idle"
	"frameRate" "int" "30"
	"timeFrame" "element" "tf_idle"
	"channels" "element_array"
	[
		"chan_pos"
	]
}
"DmeTimeFrame"
{
	"id" "elementid" "tf_idle"
	"start" "float" "0.0"
	"duration" "float" "1.0"
}
"DmeChannel"
{
	"id" "elementid" "chan_pos"
	"toElement" "element" "joint_root"
	"toAttribute" "string" "position"
	"toIndex" "int" "0"
	"log" "element" "log_pos"
}
"DmeLog"
{
	"id" "elementid" "log_pos"
	"layers" "element_array"
	[
		"layer_pos_0"
	]
}
"DmeLogLayer"
{
	"id" "elementid" "layer_pos_0"
	"times" "float_array"
	[
		"0.0",
		"0.5"
	]
	"values" "vector3_array"
	[
		"0 0 0",
		"0 1 0"
	]
}
`

func TestLoadBuildsSkeletonMeshAndAnimation(t *testing.T) {
	fd, err := Load([]byte(fullDocument), "walk")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fd.Skeleton) != 1 || fd.Skeleton[0].Name != "root_bone" {
		t.Fatalf("expected a single root_bone, got %+v", fd.Skeleton)
	}

	partIdx, ok := fd.PartIndex["body"]
	if !ok {
		t.Fatalf("expected part %q", "body")
	}
	part := fd.Parts[partIdx]
	if len(part.Vertices) != 3 {
		t.Fatalf("expected part %q with 3 vertices, got %+v", "body", part)
	}
	for _, v := range part.Vertices {
		if v.Links[0] != 1.0 {
			t.Fatalf("expected every vertex bound to bone 0 at weight 1.0, got links %+v", v.Links)
		}
	}

	faces, ok := part.Faces["default"]
	if !ok || len(faces) != 1 || len(faces[0]) != 3 {
		t.Fatalf("expected one triangle face under material %q, got %+v", "default", part.Faces)
	}

	animIdx, ok := fd.AnimationIndex["idle"]
	if !ok {
		t.Fatalf("expected animation %q", "idle")
	}
	anim := fd.Animations[animIdx]
	channel, ok := anim.Channels[0]
	if !ok {
		t.Fatalf("expected a channel on bone 0")
	}
	if _, ok := channel.Location[0]; !ok {
		t.Errorf("expected a location sample at frame 0")
	}
	if _, ok := channel.Location[15]; !ok {
		t.Errorf("expected a location sample at frame 15")
	}
}

func TestLoadRejectsWrongFormat(t *testing.T) {
	doc := `"DmeModel"
{
	"id" "elementid" "root"
	"format" "string" "particle"
	"formatVersion" "int" "1"
}
`
	if _, err := Load([]byte(doc), "x"); err == nil {
		t.Fatalf("expected an error for a non-model format")
	}
}

func TestLoadFallsBackToSyntheticAnimationWithoutAnimationList(t *testing.T) {
	doc := `"DmeModel"
{
	"id" "elementid" "root"
	"format" "string" "model"
	"formatVersion" "int" "1"
	"skeleton" "element" "skel"
}
"DmeBoneSkeleton"
{
	"id" "elementid" "skel"
}
`
	fd, err := Load([]byte(doc), "fallback")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := fd.AnimationIndex["fallback"]; !ok {
		t.Fatalf("expected a synthetic animation named after the source file")
	}
}
