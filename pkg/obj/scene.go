// Package obj reads and writes Wavefront OBJ scenes, including the scene
// extensions for per-vertex color and radius, object transforms, cameras and
// environment lights, plus a binary dump of the same model for fast reload.
package obj

import (
	"strings"

	"github.com/Faultbox/objscene/pkg/math"
)

// ElemType identifies the kind of geometric primitive stored in a shape.
// The numeric values are stored in binary scene dumps and must not change.
type ElemType int32

const (
	ElemNull     ElemType = 0  // invalid, indicates parsing errors
	ElemPoint    ElemType = 1  // points
	ElemLine     ElemType = 2  // line segments
	ElemTriangle ElemType = 3  // triangles
	ElemPolyline ElemType = 12 // variable-length polylines
	ElemPolygon  ElemType = 13 // variable-length polygons
)

// String returns a human-readable element type name.
func (e ElemType) String() string {
	switch e {
	case ElemPoint:
		return "point"
	case ElemLine:
		return "line"
	case ElemTriangle:
		return "triangle"
	case ElemPolyline:
		return "polyline"
	case ElemPolygon:
		return "polygon"
	default:
		return "null"
	}
}

// Fixed reports whether the element type has a fixed vertex count per
// element.
func (e ElemType) Fixed() bool {
	return e == ElemPoint || e == ElemLine || e == ElemTriangle
}

// Stride returns the vertex count per element for fixed types, 0 otherwise.
func (e ElemType) Stride() int {
	if e.Fixed() {
		return int(e)
	}
	return 0
}

// Shape is one indexed-mesh sub-object. A shape is emitted whenever an
// object name, group, material or element-type boundary is hit in the input.
//
// For fixed element types Elem holds NElems*Stride vertex indices. For
// polylines and polygons it holds NElems runs of [count, idx0..idxN-1].
// Each per-vertex array is either empty or exactly NVerts long.
type Shape struct {
	Name      string // shape name
	GroupName string // group name
	MatName   string // material name
	MatID     int32  // index into Scene.Materials, -1 if unresolved

	NElems int32    // number of elements
	Elem   []int32  // per-element vertex indices
	EType  ElemType // element type

	NVerts   int32       // number of vertices
	Pos      []math.Vec3 // per-vertex position
	Norm     []math.Vec3 // per-vertex normal
	TexCoord []math.Vec2 // per-vertex texture coordinate
	Color    []math.Vec3 // [extension] per-vertex color
	Radius   []float32   // [extension] per-vertex radius

	Xformed bool         // [extension] whether a transform is present
	Xform   math.Affine3 // [extension] 3x4 affine transform
}

// Material holds MTL shading parameters and texture references.
type Material struct {
	Name  string // material name
	Illum int32  // MTL illumination model

	Ke  math.Vec3 // emission color
	Ka  math.Vec3 // ambient color
	Kd  math.Vec3 // diffuse color
	Ks  math.Vec3 // specular color
	Kr  math.Vec3 // reflection color
	Kt  math.Vec3 // transmission color
	Ns  float32   // phong exponent for Ks
	IOR float32   // index of refraction
	Op  float32   // opacity

	// Texture paths for the channels above, empty if unset.
	KeTxt   string
	KaTxt   string
	KdTxt   string
	KsTxt   string
	KrTxt   string
	KtTxt   string
	NsTxt   string
	OpTxt   string
	IorTxt  string
	BumpTxt string // bump map (heightfield)
	DispTxt string // displacement map (heightfield)

	// Indices into Scene.Textures, -1 if unresolved.
	KeTxtID   int32
	KaTxtID   int32
	KdTxtID   int32
	KsTxtID   int32
	KrTxtID   int32
	KtTxtID   int32
	NsTxtID   int32
	OpTxtID   int32
	IorTxtID  int32
	BumpTxtID int32
	DispTxtID int32
}

// NewMaterial returns a material with the format's default values.
func NewMaterial(name string) Material {
	return Material{
		Name: name,
		Ns:   1,
		IOR:  1,
		Op:   1,

		KeTxtID:   -1,
		KaTxtID:   -1,
		KdTxtID:   -1,
		KsTxtID:   -1,
		KrTxtID:   -1,
		KtTxtID:   -1,
		NsTxtID:   -1,
		OpTxtID:   -1,
		IorTxtID:  -1,
		BumpTxtID: -1,
		DispTxtID: -1,
	}
}

// Texture is a referenced image. Width, Height, NComp and Pixels are filled
// by LoadTextures; a declared-but-unloaded texture is a valid state.
type Texture struct {
	Path   string    // path relative to the scene file
	Width  int32     // image width if loaded
	Height int32     // image height if loaded
	NComp  int32     // component count (1-4) if loaded
	Pixels []float32 // pixel data if loaded, bottom row first
}

// Loaded reports whether pixel data is present.
func (t *Texture) Loaded() bool {
	return len(t.Pixels) > 0
}

// Camera is a look-at camera. [extension]
type Camera struct {
	Name     string    // camera name
	From     math.Vec3 // position
	To       math.Vec3 // focus location
	Up       math.Vec3 // up vector
	Width    float32   // image plane width
	Height   float32   // image plane height
	Aperture float32   // lens aperture
}

// NewCamera returns a camera with default orientation and image plane.
func NewCamera(name string) Camera {
	return Camera{
		Name:   name,
		To:     math.Vec3{Z: 1},
		Up:     math.Vec3{Y: 1},
		Width:  1,
		Height: 1,
	}
}

// Environment is a look-at environment light. [extension]
type Environment struct {
	Name    string    // environment name
	MatName string    // material name (only Ke and KeTxt are meaningful)
	MatID   int32     // index into Scene.Materials, -1 if unresolved
	From    math.Vec3 // position
	To      math.Vec3 // focus location
	Up      math.Vec3 // up vector
}

// NewEnvironment returns an environment with default orientation.
func NewEnvironment(name, matName string) Environment {
	return Environment{
		Name:    name,
		MatName: matName,
		MatID:   -1,
		To:      math.Vec3{Z: 1},
		Up:      math.Vec3{Y: 1},
	}
}

// Scene owns the shapes, materials, textures, cameras and environments
// produced by loading and consumed by saving.
type Scene struct {
	Shapes       []Shape
	Materials    []Material
	Textures     []Texture
	Cameras      []Camera
	Environments []Environment
}

// AddTexture appends path to the texture list if not already present and
// returns its index. An empty path returns -1.
func (s *Scene) AddTexture(path string) int32 {
	if path == "" {
		return -1
	}
	for i := range s.Textures {
		if s.Textures[i].Path == path {
			return int32(i)
		}
	}
	s.Textures = append(s.Textures, Texture{Path: path})
	return int32(len(s.Textures) - 1)
}

// MaterialIndex returns the index of the first material whose name matches
// case-insensitively, or -1.
func (s *Scene) MaterialIndex(name string) int32 {
	for i := range s.Materials {
		if strings.EqualFold(s.Materials[i].Name, name) {
			return int32(i)
		}
	}
	return -1
}
