package obj

import (
	"bufio"
	"fmt"
	"os"

	"github.com/Faultbox/objscene/pkg/math"
)

// loadMTL scans a material library file, appending materials to the scene
// and registering any referenced texture paths. Unknown keys are ignored
// for forward compatibility; a missing file or malformed value fails the
// whole load.
func loadMTL(scene *Scene, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening material library: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	linenum := 0
	var toks [][]byte
	var mat *Material
	for scanner.Scan() {
		linenum++
		toks, err = splitFields(scanner.Bytes(), toks[:0])
		if err != nil {
			return fmt.Errorf("line %d: %w", linenum, err)
		}
		if len(toks) == 0 || toks[0][0] == '#' || toks[0][0] == '/' {
			continue
		}

		key := string(toks[0])
		if key == "newmtl" {
			scene.Materials = append(scene.Materials, NewMaterial(optName(toks)))
			mat = &scene.Materials[len(scene.Materials)-1]
			continue
		}
		if mat == nil {
			return fmt.Errorf("line %d: property %q before newmtl", linenum, key)
		}
		if err := materialKey(scene, mat, key, toks[1:]); err != nil {
			return fmt.Errorf("line %d: %w", linenum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading material library: %w", err)
	}
	return nil
}

// materialKey applies one key/value property to mat. Texture map paths are
// deduplicated by path into the scene texture list.
func materialKey(scene *Scene, mat *Material, key string, vals [][]byte) error {
	switch key {
	case "illum":
		if len(vals) < 1 {
			return ErrMissingTokens
		}
		f, err := parseFloat(vals[0])
		if err != nil {
			return err
		}
		mat.Illum = int32(f)
	case "Ke":
		return setColor(&mat.Ke, vals)
	case "Ka":
		return setColor(&mat.Ka, vals)
	case "Kd":
		return setColor(&mat.Kd, vals)
	case "Ks":
		return setColor(&mat.Ks, vals)
	case "Kr":
		return setColor(&mat.Kr, vals)
	case "Kt", "Tr":
		// Transmission color; a single value is replicated across channels.
		if len(vals) == 1 {
			f, err := parseFloat(vals[0])
			if err != nil {
				return err
			}
			mat.Kt = math.Vec3{X: f, Y: f, Z: f}
			return nil
		}
		return setColor(&mat.Kt, vals)
	case "Ns":
		return setScalar(&mat.Ns, vals)
	case "d":
		return setScalar(&mat.Op, vals)
	case "Ni":
		return setScalar(&mat.IOR, vals)
	case "map_Ke":
		setTexture(scene, &mat.KeTxt, &mat.KeTxtID, vals)
	case "map_Ka":
		setTexture(scene, &mat.KaTxt, &mat.KaTxtID, vals)
	case "map_Kd":
		setTexture(scene, &mat.KdTxt, &mat.KdTxtID, vals)
	case "map_Ks":
		setTexture(scene, &mat.KsTxt, &mat.KsTxtID, vals)
	case "map_Kr":
		setTexture(scene, &mat.KrTxt, &mat.KrTxtID, vals)
	case "map_Kt", "map_Tr":
		setTexture(scene, &mat.KtTxt, &mat.KtTxtID, vals)
	case "map_Ns":
		setTexture(scene, &mat.NsTxt, &mat.NsTxtID, vals)
	case "map_d":
		setTexture(scene, &mat.OpTxt, &mat.OpTxtID, vals)
	case "map_Ni":
		setTexture(scene, &mat.IorTxt, &mat.IorTxtID, vals)
	case "map_bump":
		setTexture(scene, &mat.BumpTxt, &mat.BumpTxtID, vals)
	case "map_disp":
		setTexture(scene, &mat.DispTxt, &mat.DispTxtID, vals)
	default:
		// ignored
	}
	return nil
}

func setColor(dst *math.Vec3, vals [][]byte) error {
	v, err := parseVec3(vals)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func setScalar(dst *float32, vals [][]byte) error {
	if len(vals) < 1 {
		return ErrMissingTokens
	}
	f, err := parseFloat(vals[0])
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

func setTexture(scene *Scene, path *string, id *int32, vals [][]byte) {
	if len(vals) < 1 {
		return
	}
	*path = string(vals[0])
	*id = scene.AddTexture(*path)
}
