package math

import "testing"

func TestAffine3_Identity(t *testing.T) {
	id := IdentityAffine3()

	if !id.IsIdentity() {
		t.Error("IdentityAffine3 should report IsIdentity")
	}

	moved := id
	moved[9] = 5
	if moved.IsIdentity() {
		t.Error("translated transform should not report IsIdentity")
	}

	p := Vec3{1, 2, 3}
	if got := id.TransformPoint(p); got != p {
		t.Errorf("identity TransformPoint = %v, want %v", got, p)
	}
}

func TestAffine3_TransformPoint(t *testing.T) {
	// Rotation of 90 degrees around Z plus a translation.
	a := Affine3{
		0, 1, 0, // x column
		-1, 0, 0, // y column
		0, 0, 1, // z column
		10, 0, 0, // translation
	}

	got := a.TransformPoint(Vec3{1, 0, 0})
	want := Vec3{10, 1, 0}
	if got != want {
		t.Errorf("TransformPoint = %v, want %v", got, want)
	}

	dir := a.TransformDir(Vec3{1, 0, 0})
	if dir != (Vec3{0, 1, 0}) {
		t.Errorf("TransformDir = %v, want {0 1 0}", dir)
	}

	if tr := a.Translation(); tr != (Vec3{10, 0, 0}) {
		t.Errorf("Translation = %v, want {10 0 0}", tr)
	}
}
