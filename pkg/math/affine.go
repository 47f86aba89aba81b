package math

// Affine3 is a 3x4 affine transform in column-major order: three rotation
// columns followed by a translation column. This is the layout stored in
// scene files.
type Affine3 [12]float32

// IdentityAffine3 returns the identity transform.
func IdentityAffine3() Affine3 {
	return Affine3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
	}
}

// IsIdentity reports whether the transform is exactly the identity.
func (a Affine3) IsIdentity() bool {
	return a == IdentityAffine3()
}

// Translation returns the translation column.
func (a Affine3) Translation() Vec3 {
	return Vec3{a[9], a[10], a[11]}
}

// TransformPoint applies the full affine transform to a point.
func (a Affine3) TransformPoint(v Vec3) Vec3 {
	return Vec3{
		a[0]*v.X + a[3]*v.Y + a[6]*v.Z + a[9],
		a[1]*v.X + a[4]*v.Y + a[7]*v.Z + a[10],
		a[2]*v.X + a[5]*v.Y + a[8]*v.Z + a[11],
	}
}

// TransformDir applies only the rotation part to a direction.
func (a Affine3) TransformDir(v Vec3) Vec3 {
	return Vec3{
		a[0]*v.X + a[3]*v.Y + a[6]*v.Z,
		a[1]*v.X + a[4]*v.Y + a[7]*v.Z,
		a[2]*v.X + a[5]*v.Y + a[8]*v.Z,
	}
}
