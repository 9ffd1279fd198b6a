package mathutil

import "math"

// BoundingBox is an axis-aligned box. A box with no points added is
// invalid; validity tracks whether any point was added, not the values of
// Minimum/Maximum (which stay at zero until the first point).
type BoundingBox struct {
	Minimum Vec3
	Maximum Vec3
	set     bool
}

// IsValid reports whether at least one point has been folded in.
func (b BoundingBox) IsValid() bool { return b.set }

// AddPoint grows the box to include p. The first call bootstraps the box
// to a zero-volume box at p; subsequent calls widen it.
func (b BoundingBox) AddPoint(p Vec3) BoundingBox {
	if !b.set {
		return BoundingBox{Minimum: p, Maximum: p, set: true}
	}
	return BoundingBox{
		Minimum: b.Minimum.Min(p),
		Maximum: b.Maximum.Max(p),
		set:     true,
	}
}

// Center returns the midpoint between Minimum and Maximum.
func (b BoundingBox) Center() Vec3 {
	return b.Minimum.Add(b.Maximum).Scale(0.5)
}

// Merge folds another box's extent into b.
func (b BoundingBox) Merge(o BoundingBox) BoundingBox {
	if !o.set {
		return b
	}
	if !b.set {
		return o
	}
	return BoundingBox{
		Minimum: b.Minimum.Min(o.Minimum),
		Maximum: b.Maximum.Max(o.Maximum),
		set:     true,
	}
}

// ApproxEqual reports whether two float64s differ by no more than
// tolerance — used by the mesh processor's vertex-merge predicate.
func ApproxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
