// sceneconv is a CLI utility for converting and inspecting OBJ scenes.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/objscene/internal/config"
	"github.com/Faultbox/objscene/internal/logger"
	"github.com/Faultbox/objscene/pkg/obj"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "convert", "conv":
		cmdConvert(args)
	case "textures", "tex":
		cmdTextures(args)
	case "watch":
		cmdWatch(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sceneconv - OBJ scene conversion utility

Usage:
  sceneconv <command> [options] <args>

Commands:
  info <scene>              Show scene statistics
  convert <scene> [output]  Convert between .obj and the binary dump format
  textures <scene>          Decode textures referenced by a scene
  watch <scene> [output]    Re-convert whenever the scene file changes

Options (all commands):
  -config <path>     Config file
  -debug             Debug logging
  -no-triangulate    Keep faces as polygons
  -no-extensions     Ignore color/radius/transform/camera/environment records
  -out <dir>         Output directory
  -textures          Decode referenced textures after loading
  -components <n>    Force texture component count (1-4)

Examples:
  sceneconv info model.obj
  sceneconv convert model.obj model.bin
  sceneconv convert -no-triangulate scene.bin scene.obj
  sceneconv watch -out ./cooked model.obj`)
}

// setup parses flags out of args, loads the layered configuration and
// initializes logging. It returns the remaining positional arguments.
func setup(args []string) (*config.Config, []string) {
	rest := config.ParseArgs(args)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, rest
}

// loadScene reads either format, picking the codec by file extension.
func loadScene(path string, cfg *config.Config) (*obj.Scene, error) {
	if isBinary(path) {
		return obj.LoadBinary(path, cfg.Convert.Extensions)
	}
	return obj.Load(path, cfg.Convert.Triangulate, cfg.Convert.Extensions)
}

func isBinary(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".bin")
}

func cmdInfo(args []string) {
	cfg, rest := setup(args)
	defer logger.Sync()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sceneconv info <scene>")
		os.Exit(1)
	}

	scene, err := loadScene(rest[0], cfg)
	if err != nil {
		logger.Fatal("loading scene", zap.String("path", rest[0]), zap.Error(err))
	}

	var nverts, nelems int64
	byType := make(map[string]int)
	for i := range scene.Shapes {
		s := &scene.Shapes[i]
		nverts += int64(s.NVerts)
		nelems += int64(s.NElems)
		byType[s.EType.String()]++
	}

	fmt.Printf("Scene:        %s\n", rest[0])
	fmt.Printf("Shapes:       %d\n", len(scene.Shapes))
	fmt.Printf("Vertices:     %d\n", nverts)
	fmt.Printf("Elements:     %d\n", nelems)
	fmt.Printf("Materials:    %d\n", len(scene.Materials))
	fmt.Printf("Textures:     %d\n", len(scene.Textures))
	fmt.Printf("Cameras:      %d\n", len(scene.Cameras))
	fmt.Printf("Environments: %d\n", len(scene.Environments))
	if len(byType) > 0 {
		fmt.Println()
		fmt.Println("Shapes by element type:")
		for _, et := range []obj.ElemType{
			obj.ElemPoint, obj.ElemLine, obj.ElemTriangle,
			obj.ElemPolyline, obj.ElemPolygon,
		} {
			if n := byType[et.String()]; n > 0 {
				fmt.Printf("  %-10s %d\n", et, n)
			}
		}
	}
}

func cmdConvert(args []string) {
	cfg, rest := setup(args)
	defer logger.Sync()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sceneconv convert <scene> [output]")
		os.Exit(1)
	}

	input := rest[0]
	output := outputPath(input, rest, cfg)
	if err := convert(input, output, cfg); err != nil {
		logger.Fatal("conversion failed",
			zap.String("input", input), zap.String("output", output), zap.Error(err))
	}
	logger.Info("converted", zap.String("input", input), zap.String("output", output))
}

// outputPath picks the conversion target: an explicit second argument wins,
// otherwise the input's name with the opposite extension, placed in the
// configured output directory.
func outputPath(input string, rest []string, cfg *config.Config) string {
	if len(rest) > 1 {
		return rest[1]
	}
	ext := ".bin"
	if isBinary(input) {
		ext = ".obj"
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	dir := cfg.Convert.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, base)
}

func convert(input, output string, cfg *config.Config) error {
	scene, err := loadScene(input, cfg)
	if err != nil {
		return err
	}
	logger.Debug("scene loaded",
		zap.String("path", input),
		zap.Int("shapes", len(scene.Shapes)),
		zap.Int("materials", len(scene.Materials)))

	if cfg.Textures.Load {
		if err := obj.LoadTextures(scene, input, cfg.Textures.Components); err != nil {
			return err
		}
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if isBinary(output) {
		return obj.SaveBinary(output, scene, cfg.Convert.Extensions)
	}
	return obj.Save(output, scene, cfg.Convert.Extensions)
}

func cmdTextures(args []string) {
	cfg, rest := setup(args)
	defer logger.Sync()
	if len(rest) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sceneconv textures <scene>")
		os.Exit(1)
	}

	scene, err := loadScene(rest[0], cfg)
	if err != nil {
		logger.Fatal("loading scene", zap.String("path", rest[0]), zap.Error(err))
	}
	if len(scene.Textures) == 0 {
		fmt.Println("No textures referenced")
		return
	}

	if err := obj.LoadTextures(scene, rest[0], cfg.Textures.Components); err != nil {
		logger.Fatal("decoding textures", zap.Error(err))
	}
	for i := range scene.Textures {
		txt := &scene.Textures[i]
		fmt.Printf("%-40s %dx%d  %d comp\n", txt.Path, txt.Width, txt.Height, txt.NComp)
	}
}
