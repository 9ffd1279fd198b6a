package mathutil

// Affine3 is a rigid transform with rotation and translation only — no
// scale or shear is representable, matching the model's bone/skeleton
// space (scale is never part of a bone transform in this pipeline).
type Affine3 struct {
	Rotation    Quat
	Translation Vec3
}

// Affine3Identity is the no-op transform.
var Affine3Identity = Affine3{Rotation: QuatIdentity, Translation: Vec3Zero}

// NewAffine3 builds a transform from a rotation and translation.
func NewAffine3(rotation Quat, translation Vec3) Affine3 {
	return Affine3{Rotation: rotation, Translation: translation}
}

// TransformPoint applies rotation then translation to p.
func (a Affine3) TransformPoint(p Vec3) Vec3 {
	return a.Rotation.RotateVec3(p).Add(a.Translation)
}

// TransformVector applies rotation only (no translation), for normals and
// directions.
func (a Affine3) TransformVector(v Vec3) Vec3 {
	return a.Rotation.RotateVec3(v)
}

// Mul composes a then b: applying the result to a point is equivalent to
// applying a first, then b (b.Mul == b * a in row-vector-on-the-right
// convention).
func (a Affine3) Mul(b Affine3) Affine3 {
	return Affine3{
		Rotation:    a.Rotation.Mul(b.Rotation),
		Translation: b.Rotation.RotateVec3(a.Translation).Add(b.Translation),
	}
}

// Inverse returns the transform that undoes a.
func (a Affine3) Inverse() Affine3 {
	invRot := a.Rotation.Conjugate()
	invTrans := invRot.RotateVec3(a.Translation).Neg()
	return Affine3{Rotation: invRot, Translation: invTrans}
}
