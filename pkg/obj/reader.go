package obj

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/objscene/pkg/math"
)

// Load parses an OBJ scene from disk.
//
// With triangulate set, faces with more than three vertices are
// fan-triangulated around their first vertex and multi-segment lines are
// expanded into two-vertex segments as they are read; otherwise faces and
// lines are kept as variable-length polygon/polyline runs and compacted to
// fixed-stride primitives only when every run has the same length of at
// most three.
//
// With extensions set, the vc/vr/xf/c/e records for per-vertex color and
// radius, object transforms, cameras and environment lights are recognized;
// otherwise they are ignored.
func Load(path string, triangulate, extensions bool) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene file: %w", err)
	}
	defer file.Close()

	ld := &loader{
		scene:       &Scene{},
		dir:         filepath.Dir(path),
		triangulate: triangulate,
		extensions:  extensions,
		table:       newVertTable(),
		xform:       math.IdentityAffine3(),
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	linenum := 0
	var toks [][]byte
	for scanner.Scan() {
		linenum++
		toks, err = splitFields(scanner.Bytes(), toks[:0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", linenum, err)
		}
		if len(toks) == 0 || toks[0][0] == '#' {
			continue
		}
		if err := ld.record(toks); err != nil {
			return nil, fmt.Errorf("line %d: %w", linenum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading scene file: %w", err)
	}

	// Flush whatever geometry is still pending at end of input.
	if err := ld.flush(); err != nil {
		return nil, err
	}
	return ld.scene, nil
}

// loader holds the shape assembler state threaded through the parsing fold.
// Shape boundaries follow a flush-then-set pattern: the pending geometry is
// emitted before the boundary record's own effect is applied.
type loader struct {
	scene       *Scene
	dir         string
	triangulate bool
	extensions  bool

	pools attrPools // file-order attribute pools

	// pending shape state
	name      string
	matName   string
	groupName string
	xform     math.Affine3
	etype     ElemType
	elem      []int32
	verts     attrPools
	table     *vertTable
}

func (ld *loader) record(toks [][]byte) error {
	switch string(toks[0]) {
	case "v":
		v, err := parseVec3(toks[1:])
		if err != nil {
			return err
		}
		ld.pools.pos = append(ld.pools.pos, v)
	case "vt":
		v, err := parseVec2(toks[1:])
		if err != nil {
			return err
		}
		ld.pools.texcoord = append(ld.pools.texcoord, v)
	case "vn":
		v, err := parseVec3(toks[1:])
		if err != nil {
			return err
		}
		ld.pools.norm = append(ld.pools.norm, v)
	case "vc":
		if ld.extensions {
			v, err := parseVec3(toks[1:])
			if err != nil {
				return err
			}
			ld.pools.color = append(ld.pools.color, v)
		}
	case "vr":
		if ld.extensions {
			if len(toks) < 2 {
				return ErrMissingTokens
			}
			r, err := parseFloat(toks[1])
			if err != nil {
				return err
			}
			ld.pools.radius = append(ld.pools.radius, r)
		}
	case "xf":
		if ld.extensions {
			a, err := parseAffine3(toks[1:])
			if err != nil {
				return err
			}
			ld.xform = a
		}
	case "f":
		if ld.triangulate {
			return ld.faceTriangulated(toks[1:])
		}
		return ld.variableElem(ElemPolygon, toks[1:])
	case "l":
		if ld.triangulate {
			return ld.lineExpanded(toks[1:])
		}
		return ld.variableElem(ElemPolyline, toks[1:])
	case "p":
		return ld.points(toks[1:])
	case "o":
		if err := ld.flush(); err != nil {
			return err
		}
		ld.name = optName(toks)
		ld.matName = ""
		ld.groupName = ""
		ld.xform = math.IdentityAffine3()
	case "g":
		if err := ld.flush(); err != nil {
			return err
		}
		ld.groupName = optName(toks)
	case "usemtl":
		if err := ld.flush(); err != nil {
			return err
		}
		ld.matName = optName(toks)
	case "mtllib":
		if len(toks) < 2 {
			return ErrMissingTokens
		}
		mpath := filepath.Join(ld.dir, string(toks[1]))
		if err := loadMTL(ld.scene, mpath); err != nil {
			return fmt.Errorf("material library %s: %w", toks[1], err)
		}
	case "c":
		if ld.extensions {
			return ld.camera(toks[1:])
		}
	case "e":
		if ld.extensions {
			return ld.environment(toks[1:])
		}
	default:
		// Unknown records are skipped for forward compatibility.
	}
	return nil
}

// optName returns the record's single argument, or "" when absent.
func optName(toks [][]byte) string {
	if len(toks) > 1 {
		return string(toks[1])
	}
	return ""
}

// addElemVert resolves one vertex reference token, materializing the vertex
// in the pending per-vertex buffers on first sight. A reference without a
// position is rejected: it would leave the shape with attribute arrays
// longer than its vertex count.
func (ld *loader) addElemVert(tok []byte) (int32, error) {
	ref, err := ld.pools.parseVertRef(tok)
	if err != nil {
		return 0, err
	}
	if ref.pos < 0 {
		return 0, fmt.Errorf("%w: reference %q has no position", ErrIndexRange, tok)
	}
	vid, isNew := ld.table.resolve(ref)
	if isNew {
		if ref.pos >= 0 {
			ld.verts.pos = append(ld.verts.pos, ld.pools.pos[ref.pos])
		}
		if ref.texcoord >= 0 {
			ld.verts.texcoord = append(ld.verts.texcoord, ld.pools.texcoord[ref.texcoord])
		}
		if ref.norm >= 0 {
			ld.verts.norm = append(ld.verts.norm, ld.pools.norm[ref.norm])
		}
		if ref.color >= 0 {
			ld.verts.color = append(ld.verts.color, ld.pools.color[ref.color])
		}
		if ref.radius >= 0 {
			ld.verts.radius = append(ld.verts.radius, ld.pools.radius[ref.radius])
		}
	}
	return vid, nil
}

// setElemType flushes the pending shape when the element type changes.
func (ld *loader) setElemType(et ElemType) error {
	if ld.etype != et {
		if err := ld.flush(); err != nil {
			return err
		}
		ld.etype = et
	}
	return nil
}

// variableElem accumulates a polygon or polyline as a [count, ids...] run.
func (ld *loader) variableElem(et ElemType, verts [][]byte) error {
	if len(verts) == 0 {
		return ErrMissingTokens
	}
	if err := ld.setElemType(et); err != nil {
		return err
	}
	ld.elem = append(ld.elem, int32(len(verts)))
	for _, tok := range verts {
		vid, err := ld.addElemVert(tok)
		if err != nil {
			return err
		}
		ld.elem = append(ld.elem, vid)
	}
	return nil
}

// faceTriangulated accumulates a face as a triangle fan around its first
// vertex: for every vertex past the third, the fan anchor and the previous
// vertex are re-emitted before it.
func (ld *loader) faceTriangulated(verts [][]byte) error {
	if len(verts) == 0 {
		return ErrMissingTokens
	}
	if err := ld.setElemType(ElemTriangle); err != nil {
		return err
	}
	var first int32
	for i, tok := range verts {
		vid, err := ld.addElemVert(tok)
		if err != nil {
			return err
		}
		if i == 0 {
			first = vid
		}
		if i > 2 {
			prev := ld.elem[len(ld.elem)-1]
			ld.elem = append(ld.elem, first, prev)
		}
		ld.elem = append(ld.elem, vid)
	}
	return nil
}

// lineExpanded accumulates a polyline as consecutive two-vertex segments.
func (ld *loader) lineExpanded(verts [][]byte) error {
	if len(verts) == 0 {
		return ErrMissingTokens
	}
	if err := ld.setElemType(ElemLine); err != nil {
		return err
	}
	for i, tok := range verts {
		vid, err := ld.addElemVert(tok)
		if err != nil {
			return err
		}
		if i > 1 {
			prev := ld.elem[len(ld.elem)-1]
			ld.elem = append(ld.elem, prev)
		}
		ld.elem = append(ld.elem, vid)
	}
	return nil
}

func (ld *loader) points(verts [][]byte) error {
	if len(verts) == 0 {
		return ErrMissingTokens
	}
	if err := ld.setElemType(ElemPoint); err != nil {
		return err
	}
	for _, tok := range verts {
		vid, err := ld.addElemVert(tok)
		if err != nil {
			return err
		}
		ld.elem = append(ld.elem, vid)
	}
	return nil
}

// camera handles a camera record of two vertex references (from, to),
// resolved in a fresh dedup scope. The from vertex's normal is the up
// vector and its texcoord.x the aperture; the to vertex's texcoord is the
// image plane size.
func (ld *loader) camera(verts [][]byte) error {
	if len(verts) < 2 {
		return ErrMissingTokens
	}
	if err := ld.flush(); err != nil {
		return err
	}
	from, to, err := ld.lookatRefs(verts)
	if err != nil {
		return err
	}

	cam := NewCamera(ld.name)
	cam.From = ld.pools.pos[from.pos]
	cam.To = ld.pools.pos[to.pos]
	if from.norm >= 0 {
		cam.Up = ld.pools.norm[from.norm]
	}
	if to.texcoord >= 0 {
		cam.Width = ld.pools.texcoord[to.texcoord].X
		cam.Height = ld.pools.texcoord[to.texcoord].Y
	}
	if from.texcoord >= 0 {
		cam.Aperture = ld.pools.texcoord[from.texcoord].X
	}
	ld.scene.Cameras = append(ld.scene.Cameras, cam)

	ld.name = ""
	ld.matName = ""
	ld.xform = math.IdentityAffine3()
	return nil
}

// environment handles an environment record: like camera but with only the
// look-at vectors plus the pending material name.
func (ld *loader) environment(verts [][]byte) error {
	if len(verts) < 2 {
		return ErrMissingTokens
	}
	if err := ld.flush(); err != nil {
		return err
	}
	from, to, err := ld.lookatRefs(verts)
	if err != nil {
		return err
	}

	env := NewEnvironment(ld.name, ld.matName)
	env.MatID = ld.scene.MaterialIndex(env.MatName)
	env.From = ld.pools.pos[from.pos]
	env.To = ld.pools.pos[to.pos]
	if from.norm >= 0 {
		env.Up = ld.pools.norm[from.norm]
	}
	ld.scene.Environments = append(ld.scene.Environments, env)

	ld.name = ""
	ld.matName = ""
	ld.xform = math.IdentityAffine3()
	return nil
}

// lookatRefs resolves the from/to vertex references of a camera or
// environment record against a fresh dedup scope and clears it again.
func (ld *loader) lookatRefs(verts [][]byte) (from, to vertRef, err error) {
	defer ld.table.reset()
	if from, err = ld.pools.parseVertRef(verts[0]); err != nil {
		return
	}
	if to, err = ld.pools.parseVertRef(verts[1]); err != nil {
		return
	}
	ld.table.resolve(from)
	ld.table.resolve(to)
	if from.pos < 0 || to.pos < 0 {
		err = fmt.Errorf("%w: look-at vertex needs a position", ErrIndexRange)
	}
	return
}

// flush emits the pending geometry as a new shape. It is a no-op when no
// elements are pending. The dedup scope and all pending buffers are cleared
// either way.
func (ld *loader) flush() error {
	if len(ld.elem) == 0 {
		ld.clearPending()
		return nil
	}

	etype, elem, nelems, err := compactElems(ld.etype, ld.elem)
	if err != nil {
		return err
	}

	shape := Shape{
		Name:      ld.name,
		GroupName: ld.groupName,
		MatName:   ld.matName,
		MatID:     ld.scene.MaterialIndex(ld.matName),
		NElems:    nelems,
		Elem:      elem,
		EType:     etype,
		NVerts:    int32(len(ld.verts.pos)),
		Pos:       append([]math.Vec3(nil), ld.verts.pos...),
		Norm:      append([]math.Vec3(nil), ld.verts.norm...),
		TexCoord:  append([]math.Vec2(nil), ld.verts.texcoord...),
		Color:     append([]math.Vec3(nil), ld.verts.color...),
		Radius:    append([]float32(nil), ld.verts.radius...),
		Xformed:   !ld.xform.IsIdentity(),
		Xform:     ld.xform,
	}
	ld.scene.Shapes = append(ld.scene.Shapes, shape)

	ld.clearPending()
	return nil
}

func (ld *loader) clearPending() {
	ld.table.reset()
	ld.verts.reset()
	ld.elem = ld.elem[:0]
	ld.etype = ElemNull
}

// compactElems post-processes a flushed element stream. Fixed types pass
// through. Variable runs whose lengths are all equal and at most three are
// re-emitted as the corresponding fixed-stride type with the counts
// dropped; mixed runs keep the run-length encoding. A zero-length run fails
// the load.
func compactElems(etype ElemType, elem []int32) (ElemType, []int32, int32, error) {
	if etype.Fixed() {
		out := append([]int32(nil), elem...)
		return etype, out, int32(len(elem) / etype.Stride()), nil
	}

	var nelems int32
	minf, maxf := int32(1<<30), int32(-1)
	for f := 0; f < len(elem); {
		nf := elem[f]
		if nf <= 0 || f+1+int(nf) > len(elem) {
			return ElemNull, nil, 0, ErrEmptyElem
		}
		if nf < minf {
			minf = nf
		}
		if nf > maxf {
			maxf = nf
		}
		f += int(nf) + 1
		nelems++
	}

	// Polygons compact up to triangles; polylines only up to segments, a
	// three-vertex polyline is still a polyline.
	limit := int32(3)
	if etype == ElemPolyline {
		limit = 2
	}
	if minf == maxf && maxf <= limit {
		out := make([]int32, 0, int(nelems)*int(maxf))
		for f := 0; f < len(elem); f += int(maxf) + 1 {
			out = append(out, elem[f+1:f+1+int(maxf)]...)
		}
		return ElemType(maxf), out, nelems, nil
	}

	out := append([]int32(nil), elem...)
	return etype, out, nelems, nil
}
