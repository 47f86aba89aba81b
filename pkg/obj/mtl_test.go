package obj

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/objscene/pkg/math"
)

func loadMTLString(t *testing.T, content string) *Scene {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.mtl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	scene := &Scene{}
	if err := loadMTL(scene, path); err != nil {
		t.Fatalf("loadMTL: %v", err)
	}
	return scene
}

func TestLoadMTL_FullMaterial(t *testing.T) {
	scene := loadMTLString(t, `
# comment
newmtl glass
  illum 7
  Ke 0.1 0.2 0.3
  Ka 0.01 0.01 0.01
  Kd 0.2 0.3 0.4
  Ks 0.9 0.9 0.9
  Kr 0.5 0.5 0.5
  Kt 0.8 0.7 0.6
  Ns 250
  d 0.4
  Ni 1.5
  map_Kd albedo.png
  map_Ks spec.png
  map_bump bump.png
`)

	if len(scene.Materials) != 1 {
		t.Fatalf("got %d materials, want 1", len(scene.Materials))
	}
	mat := &scene.Materials[0]
	if mat.Name != "glass" || mat.Illum != 7 {
		t.Errorf("header = (%q, %d)", mat.Name, mat.Illum)
	}
	if mat.Ke != (math.Vec3{X: 0.1, Y: 0.2, Z: 0.3}) {
		t.Errorf("Ke = %v", mat.Ke)
	}
	if mat.Kt != (math.Vec3{X: 0.8, Y: 0.7, Z: 0.6}) {
		t.Errorf("Kt = %v", mat.Kt)
	}
	if mat.Ns != 250 || mat.Op != 0.4 || mat.IOR != 1.5 {
		t.Errorf("scalars = %g %g %g", mat.Ns, mat.Op, mat.IOR)
	}
	if mat.KdTxt != "albedo.png" || mat.KsTxt != "spec.png" || mat.BumpTxt != "bump.png" {
		t.Errorf("maps = %q %q %q", mat.KdTxt, mat.KsTxt, mat.BumpTxt)
	}
	if mat.KdTxtID != 0 || mat.KsTxtID != 1 || mat.BumpTxtID != 2 {
		t.Errorf("map ids = %d %d %d", mat.KdTxtID, mat.KsTxtID, mat.BumpTxtID)
	}
	if mat.KeTxtID != -1 {
		t.Errorf("unset map id = %d, want -1", mat.KeTxtID)
	}
}

func TestLoadMTL_Defaults(t *testing.T) {
	scene := loadMTLString(t, "newmtl bare\n")
	mat := &scene.Materials[0]
	if mat.Ns != 1 || mat.IOR != 1 || mat.Op != 1 {
		t.Errorf("defaults = %g %g %g, want 1 1 1", mat.Ns, mat.IOR, mat.Op)
	}
}

func TestLoadMTL_TrAliases(t *testing.T) {
	// Tr is an alias for Kt, and a single value spreads across channels.
	scene := loadMTLString(t, `
newmtl a
  Tr 0.25
newmtl b
  Tr 0.1 0.2 0.3
  map_Tr trans.png
`)
	if got := scene.Materials[0].Kt; got != (math.Vec3{X: 0.25, Y: 0.25, Z: 0.25}) {
		t.Errorf("scalar Tr = %v", got)
	}
	if got := scene.Materials[1].Kt; got != (math.Vec3{X: 0.1, Y: 0.2, Z: 0.3}) {
		t.Errorf("vector Tr = %v", got)
	}
	if scene.Materials[1].KtTxt != "trans.png" {
		t.Errorf("map_Tr = %q", scene.Materials[1].KtTxt)
	}
}

func TestLoadMTL_TextureDedup(t *testing.T) {
	scene := loadMTLString(t, `
newmtl a
  map_Kd shared.png
newmtl b
  map_Kd shared.png
  map_Ke other.png
`)
	if len(scene.Textures) != 2 {
		t.Fatalf("got %d textures, want 2", len(scene.Textures))
	}
	if scene.Materials[0].KdTxtID != scene.Materials[1].KdTxtID {
		t.Error("shared texture not deduplicated")
	}
}

func TestLoadMTL_UnknownKeysIgnored(t *testing.T) {
	scene := loadMTLString(t, `
newmtl m
  Tf 1 1 1
  sharpness 60
// slash comment
`)
	if len(scene.Materials) != 1 {
		t.Errorf("got %d materials, want 1", len(scene.Materials))
	}
}

func TestLoadMTL_PropertyBeforeNewmtl(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.mtl")
	if err := os.WriteFile(path, []byte("Kd 1 0 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	err := loadMTL(&Scene{}, path)
	if err == nil || !strings.Contains(err.Error(), "before newmtl") {
		t.Errorf("got %v, want property-before-newmtl error", err)
	}
}

func TestLoadMTL_MissingFile(t *testing.T) {
	if err := loadMTL(&Scene{}, filepath.Join(t.TempDir(), "nope.mtl")); err == nil {
		t.Fatal("expected error")
	}
}
