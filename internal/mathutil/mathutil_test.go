package mathutil

import "testing"

func TestVec3Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want float64
	}{
		{"unit x", Vec3{1, 0, 0}, 1},
		{"scaled", Vec3{3, 4, 0}, 1},
		{"zero", Vec3{0, 0, 0}, 0},
	}

	for _, test := range tests {
		got := test.in.Normalize().Length()
		if !ApproxEqual(got, test.want, 1e-9) {
			t.Errorf("%s: expected length %v, got %v", test.name, test.want, got)
		}
	}
}

func TestAxisDirectionIsParallel(t *testing.T) {
	tests := []struct {
		name string
		a, b AxisDirection
		want bool
	}{
		{"same axis", AxisPositiveY, AxisPositiveY, true},
		{"opposite axis", AxisPositiveY, AxisNegativeY, true},
		{"orthogonal", AxisPositiveY, AxisPositiveX, false},
	}

	for _, test := range tests {
		got := test.a.IsParallel(test.b)
		if got != test.want {
			t.Errorf("%s: expected %v, got %v", test.name, test.want, got)
		}
	}
}

func TestAffine3InverseRoundTrip(t *testing.T) {
	a := NewAffine3(QuatFromAxisAngle(Vec3{0, 1, 0}, 1.2), Vec3{1, 2, 3})
	inv := a.Inverse()
	p := Vec3{5, -1, 2}
	got := inv.TransformPoint(a.TransformPoint(p))

	if !ApproxEqual(got.X, p.X, 1e-9) || !ApproxEqual(got.Y, p.Y, 1e-9) || !ApproxEqual(got.Z, p.Z, 1e-9) {
		t.Errorf("expected round trip %v, got %v", p, got)
	}
}

func TestBoundingBoxAddPoint(t *testing.T) {
	var b BoundingBox
	if b.IsValid() {
		t.Errorf("expected empty box to be invalid")
	}

	b = b.AddPoint(Vec3{1, 2, 3})
	b = b.AddPoint(Vec3{-1, 5, 0})

	if !b.IsValid() {
		t.Errorf("expected box to be valid after adding points")
	}
	want := Vec3{-1, 2, 0}
	if b.Minimum != want {
		t.Errorf("expected minimum %v, got %v", want, b.Minimum)
	}
}

func TestQuatEulerRoundTrip(t *testing.T) {
	e := EulerXYZ{X: 0.3, Y: 0.6, Z: -0.2}
	q := QuatFromEulerXYZ(e)
	got := q.ToEulerXYZ()

	if !ApproxEqual(got.X, e.X, 1e-6) || !ApproxEqual(got.Y, e.Y, 1e-6) || !ApproxEqual(got.Z, e.Z, 1e-6) {
		t.Errorf("expected euler %v, got %v", e, got)
	}
}
