package obj

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/objscene/pkg/math"
)

// Save writes the scene as an OBJ file, with a side-car .mtl next to it
// whenever the scene has materials. With extensions set, cameras,
// environments, transforms and per-vertex color/radius are written as well.
//
// Vertices are re-emitted per shape with running 1-based per-attribute
// offsets, so the output is self-contained regardless of how the scene was
// assembled.
func Save(path string, scene *Scene, extensions bool) error {
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	mtlName := base + ".mtl"

	if len(scene.Materials) > 0 {
		if err := saveMTL(filepath.Join(dir, mtlName), scene); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating scene file: %w", err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)

	if len(scene.Materials) > 0 {
		fmt.Fprintf(w, "mtllib %s\n", mtlName)
	}

	// 1-based running offsets per attribute column
	// (pos, texcoord, norm, color, radius).
	voffset := [5]int32{1, 1, 1, 1, 1}
	lookatCols := [5]bool{true, true, true, false, false}

	if extensions {
		for i := range scene.Cameras {
			cam := &scene.Cameras[i]
			writeName(w, "o", cam.Name, false)
			writeVec3(w, "v", cam.From)
			writeVec3(w, "v", cam.To)
			writeVec3(w, "vn", cam.Up)
			writeVec3(w, "vn", cam.Up)
			writeVec2(w, "vt", math.Vec2{X: cam.Aperture, Y: cam.Aperture})
			writeVec2(w, "vt", math.Vec2{X: cam.Width, Y: cam.Height})
			writeElemVerts(w, "c", []int32{0, 1}, voffset, 3, lookatCols)
			voffset[0] += 2
			voffset[1] += 2
			voffset[2] += 2
		}
		for i := range scene.Environments {
			env := &scene.Environments[i]
			writeName(w, "o", env.Name, false)
			writeName(w, "usemtl", env.MatName, false)
			writeVec3(w, "v", env.From)
			writeVec3(w, "v", env.To)
			writeVec3(w, "vn", env.Up)
			writeVec3(w, "vn", env.Up)
			writeVec2(w, "vt", math.Vec2{})
			writeVec2(w, "vt", math.Vec2{})
			writeElemVerts(w, "e", []int32{0, 1}, voffset, 3, lookatCols)
			voffset[0] += 2
			voffset[1] += 2
			voffset[2] += 2
		}
	}

	for i := range scene.Shapes {
		shape := &scene.Shapes[i]

		// A bare "o" still resets the reader's pending name, group,
		// material and transform, which keeps shapes independent on
		// reload even when fields are empty.
		writeName(w, "o", shape.Name, true)
		writeName(w, "g", shape.GroupName, false)
		writeName(w, "usemtl", shape.MatName, false)
		if extensions && shape.Xformed {
			fmt.Fprintf(w, "xf")
			for _, f := range shape.Xform {
				fmt.Fprintf(w, " %.6g", f)
			}
			fmt.Fprintf(w, "\n")
		}

		vto := [5]bool{
			len(shape.Pos) > 0,
			len(shape.TexCoord) > 0,
			len(shape.Norm) > 0,
			extensions && len(shape.Color) > 0,
			extensions && len(shape.Radius) > 0,
		}
		ncols := 3
		if extensions {
			ncols = 5
		}
		nto := 0
		for c := 0; c < ncols; c++ {
			if vto[c] {
				nto = c + 1
			}
		}

		for j := int32(0); j < shape.NVerts; j++ {
			writeVec3(w, "v", shape.Pos[j])
			if vto[2] {
				writeVec3(w, "vn", shape.Norm[j])
			}
			if vto[1] {
				writeVec2(w, "vt", shape.TexCoord[j])
			}
			if vto[3] {
				writeVec3(w, "vc", shape.Color[j])
			}
			if vto[4] {
				fmt.Fprintf(w, "vr %.6g\n", shape.Radius[j])
			}
		}

		switch shape.EType {
		case ElemPoint, ElemLine, ElemTriangle:
			label := elemLabel(shape.EType)
			stride := shape.EType.Stride()
			for e := 0; e < int(shape.NElems); e++ {
				writeElemVerts(w, label, shape.Elem[e*stride:(e+1)*stride], voffset, nto, vto)
			}
		case ElemPolyline, ElemPolygon:
			label := "f"
			if shape.EType == ElemPolyline {
				label = "l"
			}
			for f := 0; f < len(shape.Elem); {
				n := int(shape.Elem[f])
				writeElemVerts(w, label, shape.Elem[f+1:f+1+n], voffset, nto, vto)
				f += n + 1
			}
		default:
			return fmt.Errorf("shape %d: cannot save element type %v", i, shape.EType)
		}

		for c := 0; c < 5; c++ {
			if vto[c] {
				voffset[c] += shape.NVerts
			}
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing scene file: %w", err)
	}
	return file.Close()
}

func elemLabel(et ElemType) string {
	switch et {
	case ElemPoint:
		return "p"
	case ElemLine:
		return "l"
	default:
		return "f"
	}
}

func writeName(w *bufio.Writer, key, name string, force bool) {
	if name == "" && !force {
		return
	}
	if name == "" {
		fmt.Fprintf(w, "%s\n", key)
		return
	}
	fmt.Fprintf(w, "%s %s\n", key, name)
}

func writeVec2(w *bufio.Writer, key string, v math.Vec2) {
	fmt.Fprintf(w, "%s %.6g %.6g\n", key, v.X, v.Y)
}

func writeVec3(w *bufio.Writer, key string, v math.Vec3) {
	fmt.Fprintf(w, "%s %.6g %.6g %.6g\n", key, v.X, v.Y, v.Z)
}

// writeElemVerts writes one element record, emitting only the attribute
// columns active for the shape and leaving empty slots for gaps.
func writeElemVerts(w *bufio.Writer, label string, ids []int32, voffset [5]int32, nto int, vto [5]bool) {
	fmt.Fprintf(w, "%s", label)
	for _, id := range ids {
		for c := 0; c < nto; c++ {
			sep := byte('/')
			if c == 0 {
				sep = ' '
			}
			if vto[c] {
				fmt.Fprintf(w, "%c%d", sep, voffset[c]+id)
			} else {
				w.WriteByte(sep)
			}
		}
	}
	fmt.Fprintf(w, "\n")
}

// saveMTL writes the scene's materials as an MTL file.
func saveMTL(path string, scene *Scene) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating material library: %w", err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)

	for i := range scene.Materials {
		mat := &scene.Materials[i]
		if mat.Name != "" {
			fmt.Fprintf(w, "newmtl %s\n", mat.Name)
		} else {
			fmt.Fprintf(w, "newmtl\n")
		}
		fmt.Fprintf(w, "  illum %d\n", mat.Illum)
		writeMTLVec3(w, "Ke", mat.Ke)
		writeMTLVec3(w, "Ka", mat.Ka)
		writeMTLVec3(w, "Kd", mat.Kd)
		writeMTLVec3(w, "Ks", mat.Ks)
		writeMTLVec3(w, "Kr", mat.Kr)
		writeMTLVec3(w, "Kt", mat.Kt)
		fmt.Fprintf(w, "  Ns %.6g\n", mat.Ns)
		fmt.Fprintf(w, "  d %.6g\n", mat.Op)
		fmt.Fprintf(w, "  Ni %.6g\n", mat.IOR)
		writeMTLMap(w, "map_Ke", mat.KeTxt)
		writeMTLMap(w, "map_Ka", mat.KaTxt)
		writeMTLMap(w, "map_Kd", mat.KdTxt)
		writeMTLMap(w, "map_Ks", mat.KsTxt)
		writeMTLMap(w, "map_Kr", mat.KrTxt)
		writeMTLMap(w, "map_Kt", mat.KtTxt)
		writeMTLMap(w, "map_Ns", mat.NsTxt)
		writeMTLMap(w, "map_d", mat.OpTxt)
		writeMTLMap(w, "map_Ni", mat.IorTxt)
		writeMTLMap(w, "map_bump", mat.BumpTxt)
		writeMTLMap(w, "map_disp", mat.DispTxt)
		fmt.Fprintf(w, "\n")
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing material library: %w", err)
	}
	return file.Close()
}

func writeMTLVec3(w *bufio.Writer, key string, v math.Vec3) {
	fmt.Fprintf(w, "  %s %.6g %.6g %.6g\n", key, v.X, v.Y, v.Z)
}

func writeMTLMap(w *bufio.Writer, key, path string) {
	if path != "" {
		fmt.Fprintf(w, "  %s %s\n", key, path)
	}
}
