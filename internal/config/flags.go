package config

import "flag"

var (
	fs = flag.NewFlagSet("sceneconv", flag.ExitOnError)

	flagConfig        = fs.String("config", "", "Path to config file")
	flagDebug         = fs.Bool("debug", false, "Enable debug logging")
	flagNoTriangulate = fs.Bool("no-triangulate", false, "Keep faces as polygons instead of triangulating")
	flagNoExtensions  = fs.Bool("no-extensions", false, "Ignore color/radius/transform/camera/environment records")
	flagOut           = fs.String("out", "", "Output directory")
	flagTextures      = fs.Bool("textures", false, "Decode referenced textures")
	flagComponents    = fs.Int("components", 0, "Force texture component count (1-4, 0 = source)")
)

// ParseArgs parses command-line flags from args and returns the remaining
// positional arguments. Call this early in main().
func ParseArgs(args []string) []string {
	fs.Parse(args)
	return fs.Args()
}

// Usage prints the flag help to standard error.
func Usage() {
	fs.PrintDefaults()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagNoTriangulate {
		cfg.Convert.Triangulate = false
	}
	if *flagNoExtensions {
		cfg.Convert.Extensions = false
	}
	if *flagOut != "" {
		cfg.Convert.OutputDir = *flagOut
	}
	if *flagTextures {
		cfg.Textures.Load = true
	}
	if *flagComponents > 0 {
		cfg.Textures.Components = *flagComponents
	}
}
