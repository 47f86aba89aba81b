package obj

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/objscene/pkg/math"
)

// sceneMagic is the leading magic constant of binary scene dumps.
const sceneMagic uint32 = 0xaf45e782

// Sanity bounds for length prefixes. A dump is only validated through its
// magic, so these guard against reading garbage counts from corrupt files.
const (
	maxBinString = 1 << 20
	maxBinVector = 1 << 28
)

// LoadBinary reads a binary scene dump. The dump is a direct field-by-field
// image of the scene model: no deduplication or compaction happens here.
// Only the magic constant is validated. With extensions off, cameras,
// environments and per-vertex color/radius are dropped after reading.
func LoadBinary(path string, extensions bool) (*Scene, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene dump: %w", err)
	}
	defer file.Close()
	r := bufio.NewReader(file)

	var magic uint32
	if err := binRead(r, &magic); err != nil {
		return nil, err
	}
	if magic != sceneMagic {
		return nil, ErrInvalidMagic
	}

	scene := &Scene{}

	ncameras, err := readBinCount(r)
	if err != nil {
		return nil, fmt.Errorf("cameras: %w", err)
	}
	scene.Cameras = make([]Camera, ncameras)
	for i := range scene.Cameras {
		cam := &scene.Cameras[i]
		if cam.Name, err = readBinString(r); err != nil {
			return nil, fmt.Errorf("camera %d: %w", i, err)
		}
		if err = binRead(r, &cam.From, &cam.To, &cam.Up, &cam.Width, &cam.Height, &cam.Aperture); err != nil {
			return nil, fmt.Errorf("camera %d: %w", i, err)
		}
	}

	nenvs, err := readBinCount(r)
	if err != nil {
		return nil, fmt.Errorf("environments: %w", err)
	}
	scene.Environments = make([]Environment, nenvs)
	for i := range scene.Environments {
		env := &scene.Environments[i]
		if env.Name, err = readBinString(r); err != nil {
			return nil, fmt.Errorf("environment %d: %w", i, err)
		}
		if env.MatName, err = readBinString(r); err != nil {
			return nil, fmt.Errorf("environment %d: %w", i, err)
		}
		if err = binRead(r, &env.From, &env.To, &env.Up); err != nil {
			return nil, fmt.Errorf("environment %d: %w", i, err)
		}
	}

	if !extensions {
		scene.Cameras = nil
		scene.Environments = nil
	}

	nmaterials, err := readBinCount(r)
	if err != nil {
		return nil, fmt.Errorf("materials: %w", err)
	}
	scene.Materials = make([]Material, nmaterials)
	for i := range scene.Materials {
		if err := readBinMaterial(r, scene, &scene.Materials[i]); err != nil {
			return nil, fmt.Errorf("material %d: %w", i, err)
		}
	}

	nshapes, err := readBinCount(r)
	if err != nil {
		return nil, fmt.Errorf("shapes: %w", err)
	}
	scene.Shapes = make([]Shape, nshapes)
	for i := range scene.Shapes {
		if err := readBinShape(r, scene, &scene.Shapes[i], extensions); err != nil {
			return nil, fmt.Errorf("shape %d: %w", i, err)
		}
	}

	for i := range scene.Environments {
		scene.Environments[i].MatID = scene.MaterialIndex(scene.Environments[i].MatName)
	}

	return scene, nil
}

func readBinMaterial(r io.Reader, scene *Scene, mat *Material) error {
	var err error
	if mat.Name, err = readBinString(r); err != nil {
		return err
	}
	if err = binRead(r, &mat.Illum,
		&mat.Ke, &mat.Ka, &mat.Kd, &mat.Ks, &mat.Kr, &mat.Kt,
		&mat.Ns, &mat.IOR, &mat.Op); err != nil {
		return err
	}
	paths := []*string{
		&mat.KeTxt, &mat.KaTxt, &mat.KdTxt, &mat.KsTxt, &mat.KrTxt, &mat.KtTxt,
		&mat.NsTxt, &mat.OpTxt, &mat.IorTxt, &mat.BumpTxt, &mat.DispTxt,
	}
	ids := []*int32{
		&mat.KeTxtID, &mat.KaTxtID, &mat.KdTxtID, &mat.KsTxtID, &mat.KrTxtID, &mat.KtTxtID,
		&mat.NsTxtID, &mat.OpTxtID, &mat.IorTxtID, &mat.BumpTxtID, &mat.DispTxtID,
	}
	for i, p := range paths {
		if *p, err = readBinString(r); err != nil {
			return err
		}
		*ids[i] = scene.AddTexture(*p)
	}
	return nil
}

func readBinShape(r io.Reader, scene *Scene, shape *Shape, extensions bool) error {
	var err error
	if shape.Name, err = readBinString(r); err != nil {
		return err
	}
	if shape.GroupName, err = readBinString(r); err != nil {
		return err
	}
	if shape.MatName, err = readBinString(r); err != nil {
		return err
	}
	if err = binRead(r, &shape.NElems); err != nil {
		return err
	}
	if shape.Elem, err = readBinVector[int32](r); err != nil {
		return err
	}
	if err = binRead(r, &shape.EType, &shape.NVerts); err != nil {
		return err
	}
	if shape.Pos, err = readBinVector[math.Vec3](r); err != nil {
		return err
	}
	if shape.Norm, err = readBinVector[math.Vec3](r); err != nil {
		return err
	}
	if shape.TexCoord, err = readBinVector[math.Vec2](r); err != nil {
		return err
	}
	if shape.Color, err = readBinVector[math.Vec3](r); err != nil {
		return err
	}
	if shape.Radius, err = readBinVector[float32](r); err != nil {
		return err
	}
	if !extensions {
		shape.Color = nil
		shape.Radius = nil
	}
	shape.MatID = scene.MaterialIndex(shape.MatName)
	return nil
}

// SaveBinary writes the scene as a binary dump readable by LoadBinary. With
// extensions off, cameras and environments are written as zero counts and
// per-vertex color/radius as empty vectors.
func SaveBinary(path string, scene *Scene, extensions bool) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating scene dump: %w", err)
	}
	defer file.Close()
	w := bufio.NewWriter(file)

	if err := binWrite(w, sceneMagic); err != nil {
		return err
	}

	if extensions {
		if err := binWrite(w, int32(len(scene.Cameras))); err != nil {
			return err
		}
		for i := range scene.Cameras {
			cam := &scene.Cameras[i]
			if err := writeBinString(w, cam.Name); err != nil {
				return err
			}
			if err := binWrite(w, cam.From, cam.To, cam.Up, cam.Width, cam.Height, cam.Aperture); err != nil {
				return err
			}
		}
		if err := binWrite(w, int32(len(scene.Environments))); err != nil {
			return err
		}
		for i := range scene.Environments {
			env := &scene.Environments[i]
			if err := writeBinString(w, env.Name); err != nil {
				return err
			}
			if err := writeBinString(w, env.MatName); err != nil {
				return err
			}
			if err := binWrite(w, env.From, env.To, env.Up); err != nil {
				return err
			}
		}
	} else {
		if err := binWrite(w, int32(0), int32(0)); err != nil {
			return err
		}
	}

	if err := binWrite(w, int32(len(scene.Materials))); err != nil {
		return err
	}
	for i := range scene.Materials {
		mat := &scene.Materials[i]
		if err := writeBinString(w, mat.Name); err != nil {
			return err
		}
		if err := binWrite(w, mat.Illum,
			mat.Ke, mat.Ka, mat.Kd, mat.Ks, mat.Kr, mat.Kt,
			mat.Ns, mat.IOR, mat.Op); err != nil {
			return err
		}
		for _, p := range []string{
			mat.KeTxt, mat.KaTxt, mat.KdTxt, mat.KsTxt, mat.KrTxt, mat.KtTxt,
			mat.NsTxt, mat.OpTxt, mat.IorTxt, mat.BumpTxt, mat.DispTxt,
		} {
			if err := writeBinString(w, p); err != nil {
				return err
			}
		}
	}

	if err := binWrite(w, int32(len(scene.Shapes))); err != nil {
		return err
	}
	for i := range scene.Shapes {
		shape := &scene.Shapes[i]
		if err := writeBinString(w, shape.Name); err != nil {
			return err
		}
		if err := writeBinString(w, shape.GroupName); err != nil {
			return err
		}
		if err := writeBinString(w, shape.MatName); err != nil {
			return err
		}
		if err := binWrite(w, shape.NElems); err != nil {
			return err
		}
		if err := writeBinVector(w, shape.Elem); err != nil {
			return err
		}
		if err := binWrite(w, shape.EType, shape.NVerts); err != nil {
			return err
		}
		if err := writeBinVector(w, shape.Pos); err != nil {
			return err
		}
		if err := writeBinVector(w, shape.Norm); err != nil {
			return err
		}
		if err := writeBinVector(w, shape.TexCoord); err != nil {
			return err
		}
		color, radius := shape.Color, shape.Radius
		if !extensions {
			color, radius = nil, nil
		}
		if err := writeBinVector(w, color); err != nil {
			return err
		}
		if err := writeBinVector(w, radius); err != nil {
			return err
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing scene dump: %w", err)
	}
	return file.Close()
}

// binRead reads fixed-size little-endian values, mapping short reads to
// ErrTruncatedData.
func binRead(r io.Reader, vs ...any) error {
	for _, v := range vs {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return ErrTruncatedData
			}
			return err
		}
	}
	return nil
}

func binWrite(w io.Writer, vs ...any) error {
	for _, v := range vs {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readBinCount(r io.Reader) (int32, error) {
	var n int32
	if err := binRead(r, &n); err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, ErrTruncatedData
	}
	return n, nil
}

// readBinString reads a length-prefixed string. The stored length includes
// a trailing NUL terminator.
func readBinString(r io.Reader) (string, error) {
	n, err := readBinCount(r)
	if err != nil {
		return "", err
	}
	if n > maxBinString {
		return "", ErrTruncatedData
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", ErrTruncatedData
	}
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// writeBinString writes a length-prefixed, NUL-terminated string.
func writeBinString(w io.Writer, s string) error {
	if err := binWrite(w, int32(len(s)+1)); err != nil {
		return err
	}
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

// binVecElem constrains the vector helpers to the fixed-size element types
// the dump stores.
type binVecElem interface {
	~int32 | ~float32 | math.Vec3 | math.Vec2
}

func readBinVector[T binVecElem](r io.Reader) ([]T, error) {
	n, err := readBinCount(r)
	if err != nil {
		return nil, err
	}
	if n > maxBinVector {
		return nil, ErrTruncatedData
	}
	if n == 0 {
		return nil, nil
	}
	v := make([]T, n)
	if err := binRead(r, v); err != nil {
		return nil, err
	}
	return v, nil
}

func writeBinVector[T binVecElem](w io.Writer, v []T) error {
	if err := binWrite(w, int32(len(v))); err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	return binWrite(w, v)
}
