package filemanager

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/quinnarbor/modelwrench/internal/logging"
)

const sampleDMX = `<!-- dmx encoding keyvalues2 1 format model 10 -->
"DmeModel"
{
	"id" "elementid" "root"
	"format" "string" "model"
	"formatVersion" "int" "10"
	"skeleton" "element" "skel"
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
`

func waitForStatus(t *testing.T, m *Manager, path string, want Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if status, ok := m.GetFileStatus(path); ok && status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %q to reach status %v", path, want)
}

func TestManagerLoadsAndCachesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.dmx")
	if err := os.WriteFile(path, []byte(sampleDMX), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	m := NewManager(logging.NewNullLogger())
	m.LoadFile(path)
	waitForStatus(t, m, path, StatusLoaded)

	data, ok := m.GetFileData(path)
	if !ok {
		t.Fatalf("expected cached file data for %q", path)
	}
	if len(data.Skeleton) != 1 {
		t.Errorf("expected 1 bone, got %d", len(data.Skeleton))
	}
}

func TestManagerRefCountsSharedLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.dmx")
	if err := os.WriteFile(path, []byte(sampleDMX), 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	m := NewManager(logging.NewNullLogger())
	m.LoadFile(path)
	m.LoadFile(path)
	waitForStatus(t, m, path, StatusLoaded)

	m.UnloadFile(path)
	if _, ok := m.GetFileData(path); !ok {
		t.Fatalf("expected file to remain cached after a single unload of a double-loaded file")
	}

	m.UnloadFile(path)
	if _, ok := m.GetFileStatus(path); ok {
		t.Fatalf("expected file to be evicted after its reference count reached zero")
	}
}

func TestManagerFailsOnMissingFile(t *testing.T) {
	m := NewManager(logging.NewNullLogger())
	m.LoadFile("/nonexistent/path/model.dmx")
	waitForStatus(t, m, "/nonexistent/path/model.dmx", StatusFailed)
}
