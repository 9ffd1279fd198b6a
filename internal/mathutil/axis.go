package mathutil

import "math"

// AxisDirection names one of the six unit-axis directions used to describe
// a source asset's up/forward convention.
type AxisDirection int

const (
	AxisPositiveX AxisDirection = iota
	AxisNegativeX
	AxisPositiveY
	AxisNegativeY
	AxisPositiveZ
	AxisNegativeZ
)

// Vector returns the unit vector for the direction.
func (a AxisDirection) Vector() Vec3 {
	switch a {
	case AxisPositiveX:
		return Vec3{1, 0, 0}
	case AxisNegativeX:
		return Vec3{-1, 0, 0}
	case AxisPositiveY:
		return Vec3{0, 1, 0}
	case AxisNegativeY:
		return Vec3{0, -1, 0}
	case AxisPositiveZ:
		return Vec3{0, 0, 1}
	case AxisNegativeZ:
		return Vec3{0, 0, -1}
	default:
		return Vec3Zero
	}
}

// IsParallel reports whether two axis directions share (or exactly oppose)
// the same line, detected via a near-zero cross product.
func (a AxisDirection) IsParallel(o AxisDirection) bool {
	return a.Vector().Cross(o.Vector()).Length() < Epsilon
}

// CreateSpaceTransform builds the affine that converts a model authored
// with the given up/forward axes into the pipeline's canonical space.
// left is derived as up × forward, and the resulting basis columns are
// ordered (forward, left, up) to match the exact convention the import
// pipeline's source material was measured against.
func CreateSpaceTransform(up, forward AxisDirection) Affine3 {
	upV := up.Vector()
	fwdV := forward.Vector()
	leftV := upV.Cross(fwdV)

	// Columns of the basis matrix are (forward, left, up); build the
	// equivalent rotation quaternion from the orthonormal basis.
	m := [3][3]float64{
		{fwdV.X, leftV.X, upV.X},
		{fwdV.Y, leftV.Y, upV.Y},
		{fwdV.Z, leftV.Z, upV.Z},
	}
	return Affine3{Rotation: quatFromBasis(m), Translation: Vec3Zero}
}

// quatFromBasis converts an orthonormal 3x3 rotation matrix, indexed
// m[row][column], to a unit quaternion.
func quatFromBasis(m [3][3]float64) Quat {
	trace := m[0][0] + m[1][1] + m[2][2]
	if trace > 0 {
		s := 0.5 / math.Sqrt(trace+1.0)
		return Quat{
			W: 0.25 / s,
			X: (m[2][1] - m[1][2]) * s,
			Y: (m[0][2] - m[2][0]) * s,
			Z: (m[1][0] - m[0][1]) * s,
		}.Normalize()
	}
	if m[0][0] > m[1][1] && m[0][0] > m[2][2] {
		s := 2.0 * math.Sqrt(1.0+m[0][0]-m[1][1]-m[2][2])
		return Quat{
			W: (m[2][1] - m[1][2]) / s,
			X: 0.25 * s,
			Y: (m[0][1] + m[1][0]) / s,
			Z: (m[0][2] + m[2][0]) / s,
		}.Normalize()
	}
	if m[1][1] > m[2][2] {
		s := 2.0 * math.Sqrt(1.0+m[1][1]-m[0][0]-m[2][2])
		return Quat{
			W: (m[0][2] - m[2][0]) / s,
			X: (m[0][1] + m[1][0]) / s,
			Y: 0.25 * s,
			Z: (m[1][2] + m[2][1]) / s,
		}.Normalize()
	}
	s := 2.0 * math.Sqrt(1.0+m[2][2]-m[0][0]-m[1][1])
	return Quat{
		W: (m[1][0] - m[0][1]) / s,
		X: (m[0][2] + m[2][0]) / s,
		Y: (m[1][2] + m[2][1]) / s,
		Z: 0.25 * s,
	}.Normalize()
}
