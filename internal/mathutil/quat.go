package mathutil

import "math"

// Quat is a unit quaternion (X, Y, Z, W) representing a rotation.
type Quat struct {
	X, Y, Z, W float64
}

// QuatIdentity is the no-rotation quaternion.
var QuatIdentity = Quat{0, 0, 0, 1}

// Mul composes q then o: applying the result to a vector rotates by q first,
// then by o, matching Hamilton product order o*q.
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: o.W*q.X + o.X*q.W + o.Y*q.Z - o.Z*q.Y,
		Y: o.W*q.Y - o.X*q.Z + o.Y*q.W + o.Z*q.X,
		Z: o.W*q.Z + o.X*q.Y - o.Y*q.X + o.Z*q.W,
		W: o.W*q.W - o.X*q.X - o.Y*q.Y - o.Z*q.Z,
	}
}

// Conjugate returns the inverse rotation of a unit quaternion.
func (q Quat) Conjugate() Quat { return Quat{-q.X, -q.Y, -q.Z, q.W} }

func (q Quat) Normalize() Quat {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l < Epsilon {
		return QuatIdentity
	}
	return Quat{q.X / l, q.Y / l, q.Z / l, q.W / l}
}

// RotateVec3 rotates v by q.
func (q Quat) RotateVec3(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	s := q.W
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(s)).Add(u.Cross(t))
}

// QuatFromAxisAngle builds a rotation of angle radians about a unit axis.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	half := angle * 0.5
	s := math.Sin(half)
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, math.Cos(half)}.Normalize()
}

// EulerXYZ holds intrinsic Tait-Bryan angles applied in X (pitch), then
// Y (yaw), then Z (roll) order, matching the source pipeline's EULER_ROTATION
// convention.
type EulerXYZ struct {
	X, Y, Z float64
}

// QuatFromEulerXYZ composes the rotation for intrinsic X, then Y, then Z.
func QuatFromEulerXYZ(e EulerXYZ) Quat {
	qx := QuatFromAxisAngle(Vec3{1, 0, 0}, e.X)
	qy := QuatFromAxisAngle(Vec3{0, 1, 0}, e.Y)
	qz := QuatFromAxisAngle(Vec3{0, 0, 1}, e.Z)
	// Mul applies its receiver first, so this is the Hamilton product
	// qx*qy*qz: the intrinsic X, Y, Z sequence.
	return qz.Mul(qy).Mul(qx)
}

// ToEulerXYZ decomposes q into the same intrinsic X, Y, Z convention used by
// QuatFromEulerXYZ. Used by the animation processor to subtract rotations
// component-wise before re-composing a delta quaternion.
func (q Quat) ToEulerXYZ() EulerXYZ {
	// Equivalent rotation matrix elements needed for an XYZ intrinsic
	// (pitch-yaw-roll) extraction.
	x, y, z, w := q.X, q.Y, q.Z, q.W

	m20 := 2 * (x*z + y*w)
	var pitch, yaw, roll float64

	clamped := math.Max(-1, math.Min(1, m20))
	yaw = math.Asin(clamped)

	if math.Abs(clamped) < 1-1e-9 {
		m21 := 2 * (y*z - x*w)
		m22 := 1 - 2*(x*x+y*y)
		pitch = math.Atan2(-m21, m22)

		m10 := 2 * (x*y - z*w)
		m00 := 1 - 2*(y*y+z*z)
		roll = math.Atan2(-m10, m00)
	} else {
		// Gimbal lock: roll and pitch are coupled, collapse roll to 0.
		m01 := 2 * (x*y + z*w)
		m11 := 1 - 2*(x*x+z*z)
		pitch = math.Atan2(m01, m11)
		roll = 0
	}

	return EulerXYZ{X: pitch, Y: yaw, Z: roll}
}
