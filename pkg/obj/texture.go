package obj

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	// Registered image decoders. BMP and TIFF come from golang.org/x/image;
	// PNG, JPEG and GIF from the standard library.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// LoadTextures decodes pixel data for every texture in the scene. Paths are
// resolved relative to basePath's directory. reqComp of 1-4 forces the
// component count of every texture; 0 keeps each image's own count.
//
// Pixels are stored as float32 in [0, 1] with the bottom row first. Any
// decode failure aborts the whole call; textures already decoded keep
// their pixel data.
func LoadTextures(scene *Scene, basePath string, reqComp int) error {
	if reqComp < 0 || reqComp > 4 {
		return fmt.Errorf("requested components %d out of range", reqComp)
	}
	dir := filepath.Dir(basePath)
	for i := range scene.Textures {
		txt := &scene.Textures[i]
		if err := loadTexture(txt, filepath.Join(dir, txt.Path), reqComp); err != nil {
			return fmt.Errorf("texture %s: %w", txt.Path, err)
		}
	}
	return nil
}

func loadTexture(txt *Texture, path string, reqComp int) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("decoding image: %w", err)
	}

	ncomp := reqComp
	if ncomp == 0 {
		ncomp = sourceComponents(img)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]float32, width*height*ncomp)
	for y := 0; y < height; y++ {
		// Flip vertically: OBJ texture coordinates have origin at the
		// bottom-left.
		row := (height - 1 - y) * width * ncomp
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			dst := pixels[row+x*ncomp:]
			switch ncomp {
			case 1:
				dst[0] = float32(r) / 0xffff
			case 2:
				dst[0] = float32(r) / 0xffff
				dst[1] = float32(a) / 0xffff
			case 3:
				dst[0] = float32(r) / 0xffff
				dst[1] = float32(g) / 0xffff
				dst[2] = float32(b) / 0xffff
			case 4:
				dst[0] = float32(r) / 0xffff
				dst[1] = float32(g) / 0xffff
				dst[2] = float32(b) / 0xffff
				dst[3] = float32(a) / 0xffff
			}
		}
	}

	txt.Width = int32(width)
	txt.Height = int32(height)
	txt.NComp = int32(ncomp)
	txt.Pixels = pixels
	return nil
}

// sourceComponents maps an image's color model to a component count.
func sourceComponents(img image.Image) int {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return 1
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		return 4
	default:
		return 3
	}
}
