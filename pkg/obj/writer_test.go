package obj

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/objscene/pkg/math"
)

func near(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= 1e-5
}

func nearVec3(a, b math.Vec3) bool {
	return near(a.X, b.X) && near(a.Y, b.Y) && near(a.Z, b.Z)
}

func nearVec2(a, b math.Vec2) bool {
	return near(a.X, b.X) && near(a.Y, b.Y)
}

// compareScenes checks that two scenes are equal up to text round-trip
// precision.
func compareScenes(t *testing.T, got, want *Scene) {
	t.Helper()

	if len(got.Shapes) != len(want.Shapes) {
		t.Fatalf("got %d shapes, want %d", len(got.Shapes), len(want.Shapes))
	}
	for i := range want.Shapes {
		g, w := &got.Shapes[i], &want.Shapes[i]
		if g.Name != w.Name || g.GroupName != w.GroupName || g.MatName != w.MatName {
			t.Errorf("shape %d names = (%q, %q, %q), want (%q, %q, %q)",
				i, g.Name, g.GroupName, g.MatName, w.Name, w.GroupName, w.MatName)
		}
		if g.EType != w.EType || g.NElems != w.NElems || !elemsEqual(g.Elem, w.Elem) {
			t.Errorf("shape %d elements = (%v, %d, %v), want (%v, %d, %v)",
				i, g.EType, g.NElems, g.Elem, w.EType, w.NElems, w.Elem)
		}
		if g.NVerts != w.NVerts {
			t.Fatalf("shape %d NVerts = %d, want %d", i, g.NVerts, w.NVerts)
		}
		for j := range w.Pos {
			if !nearVec3(g.Pos[j], w.Pos[j]) {
				t.Errorf("shape %d Pos[%d] = %v, want %v", i, j, g.Pos[j], w.Pos[j])
			}
		}
		if len(g.Norm) != len(w.Norm) || len(g.TexCoord) != len(w.TexCoord) ||
			len(g.Color) != len(w.Color) || len(g.Radius) != len(w.Radius) {
			t.Fatalf("shape %d attribute lengths differ", i)
		}
		for j := range w.Norm {
			if !nearVec3(g.Norm[j], w.Norm[j]) {
				t.Errorf("shape %d Norm[%d] = %v, want %v", i, j, g.Norm[j], w.Norm[j])
			}
		}
		for j := range w.TexCoord {
			if !nearVec2(g.TexCoord[j], w.TexCoord[j]) {
				t.Errorf("shape %d TexCoord[%d] = %v, want %v", i, j, g.TexCoord[j], w.TexCoord[j])
			}
		}
		for j := range w.Color {
			if !nearVec3(g.Color[j], w.Color[j]) {
				t.Errorf("shape %d Color[%d] = %v, want %v", i, j, g.Color[j], w.Color[j])
			}
		}
		for j := range w.Radius {
			if !near(g.Radius[j], w.Radius[j]) {
				t.Errorf("shape %d Radius[%d] = %g, want %g", i, j, g.Radius[j], w.Radius[j])
			}
		}
		if g.Xformed != w.Xformed {
			t.Errorf("shape %d Xformed = %v, want %v", i, g.Xformed, w.Xformed)
		}
		if w.Xformed {
			for k := range w.Xform {
				if !near(g.Xform[k], w.Xform[k]) {
					t.Errorf("shape %d Xform[%d] = %g, want %g", i, k, g.Xform[k], w.Xform[k])
					break
				}
			}
		}
	}

	if len(got.Materials) != len(want.Materials) {
		t.Fatalf("got %d materials, want %d", len(got.Materials), len(want.Materials))
	}
	for i := range want.Materials {
		g, w := &got.Materials[i], &want.Materials[i]
		if g.Name != w.Name || g.Illum != w.Illum {
			t.Errorf("material %d header = (%q, %d), want (%q, %d)", i, g.Name, g.Illum, w.Name, w.Illum)
		}
		if !nearVec3(g.Kd, w.Kd) || !nearVec3(g.Ks, w.Ks) || !nearVec3(g.Kt, w.Kt) {
			t.Errorf("material %d colors differ", i)
		}
		if !near(g.Ns, w.Ns) || !near(g.Op, w.Op) || !near(g.IOR, w.IOR) {
			t.Errorf("material %d scalars = %g %g %g, want %g %g %g",
				i, g.Ns, g.Op, g.IOR, w.Ns, w.Op, w.IOR)
		}
		if g.KdTxt != w.KdTxt || g.BumpTxt != w.BumpTxt {
			t.Errorf("material %d maps differ", i)
		}
	}

	if len(got.Cameras) != len(want.Cameras) {
		t.Fatalf("got %d cameras, want %d", len(got.Cameras), len(want.Cameras))
	}
	for i := range want.Cameras {
		g, w := got.Cameras[i], want.Cameras[i]
		if g.Name != w.Name || !nearVec3(g.From, w.From) || !nearVec3(g.To, w.To) ||
			!nearVec3(g.Up, w.Up) || !near(g.Width, w.Width) ||
			!near(g.Height, w.Height) || !near(g.Aperture, w.Aperture) {
			t.Errorf("camera %d = %+v, want %+v", i, g, w)
		}
	}

	if len(got.Environments) != len(want.Environments) {
		t.Fatalf("got %d environments, want %d", len(got.Environments), len(want.Environments))
	}
	for i := range want.Environments {
		g, w := got.Environments[i], want.Environments[i]
		if g.Name != w.Name || g.MatName != w.MatName || !nearVec3(g.From, w.From) {
			t.Errorf("environment %d = %+v, want %+v", i, g, w)
		}
	}
}

const fullSceneObj = `mtllib full.mtl
v 0 5 2
v 0 0 0
vn 0 1 0
vt 0.1 0.1
vt 0.36 0.24
o cam1
c 1/1/1 2/2
v 0 0 0
v 0 0 1
o sky
usemtl glow
e 3 4
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
o quad
g main
usemtl red
xf 1 0 0 0 1 0 0 0 1 2 0 0
f 5/3/2 6/4/2 7/5/2 8/6/2
vc 1 0 0
vc 0 1 0
vr 0.5
vr 0.25
o strands
l 5///1/1 6///2/2
p 5 6
`

const fullSceneMTL = `newmtl red
  illum 2
  Kd 0.8 0.1 0.1
  Ks 0.4 0.4 0.4
  Ns 96
  d 0.9
  Ni 1.1
  map_Kd red.png
newmtl glow
  Ke 4 4 4
`

func loadFullScene(t *testing.T, triangulate bool) *Scene {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "full.mtl"), []byte(fullSceneMTL), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "full.obj")
	if err := os.WriteFile(path, []byte(fullSceneObj), 0644); err != nil {
		t.Fatal(err)
	}
	scene, err := Load(path, triangulate, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return scene
}

func TestSave_RoundTrip(t *testing.T) {
	for _, triangulate := range []bool{true, false} {
		name := "polygons"
		if triangulate {
			name = "triangulated"
		}
		t.Run(name, func(t *testing.T) {
			orig := loadFullScene(t, triangulate)

			out := filepath.Join(t.TempDir(), "out.obj")
			if err := Save(out, orig, true); err != nil {
				t.Fatalf("Save: %v", err)
			}
			reloaded, err := Load(out, triangulate, true)
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			compareScenes(t, reloaded, orig)
		})
	}
}

func TestSave_RoundTripNoExtensions(t *testing.T) {
	orig := loadFullScene(t, true)

	out := filepath.Join(t.TempDir(), "out.obj")
	if err := Save(out, orig, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := Load(out, true, true)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if len(reloaded.Cameras) != 0 || len(reloaded.Environments) != 0 {
		t.Errorf("extensions leaked: %d cameras, %d environments",
			len(reloaded.Cameras), len(reloaded.Environments))
	}
	for i := range reloaded.Shapes {
		s := &reloaded.Shapes[i]
		if len(s.Color) != 0 || len(s.Radius) != 0 || s.Xformed {
			t.Errorf("shape %d kept extension data", i)
		}
	}
}

func TestSave_MTLReference(t *testing.T) {
	scene := loadFullScene(t, true)

	dir := t.TempDir()
	out := filepath.Join(dir, "export.obj")
	if err := Save(out, scene, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "mtllib export.mtl") {
		t.Error("missing mtllib reference")
	}
	if _, err := os.Stat(filepath.Join(dir, "export.mtl")); err != nil {
		t.Errorf("side-car material library not written: %v", err)
	}
}

func TestSave_NoMaterialsNoMTL(t *testing.T) {
	scene := loadString(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n", true, false)

	dir := t.TempDir()
	out := filepath.Join(dir, "plain.obj")
	if err := Save(out, scene, false); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "mtllib") {
		t.Error("unexpected mtllib reference")
	}
	if _, err := os.Stat(filepath.Join(dir, "plain.mtl")); !os.IsNotExist(err) {
		t.Error("unexpected material library file")
	}
}

func TestSave_AnonymousShapesStayIndependent(t *testing.T) {
	// Two unnamed shapes with different element types must not merge on
	// reload; the writer emits a bare "o" per shape to reset state.
	scene := loadString(t, `
v 0 0 0
v 1 0 0
v 0 1 0
o named
usemtl dummy
f 1 2 3
o
l 1 2
`, true, false)
	if len(scene.Shapes) != 2 {
		t.Fatalf("fixture: got %d shapes, want 2", len(scene.Shapes))
	}

	out := filepath.Join(t.TempDir(), "out.obj")
	if err := Save(out, scene, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reloaded, err := Load(out, true, false)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Shapes) != 2 {
		t.Fatalf("got %d shapes after reload, want 2", len(reloaded.Shapes))
	}
	if got := reloaded.Shapes[1].MatName; got != "" {
		t.Errorf("material %q leaked into the anonymous shape", got)
	}
}
