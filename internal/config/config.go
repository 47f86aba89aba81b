// Package config handles converter configuration loading and management.
package config

// Config holds all converter settings.
type Config struct {
	Convert  ConvertConfig  `yaml:"convert"`
	Textures TexturesConfig `yaml:"textures"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ConvertConfig holds scene conversion settings.
type ConvertConfig struct {
	Triangulate bool   `yaml:"triangulate"` // fan-triangulate faces on load
	Extensions  bool   `yaml:"extensions"`  // handle color/radius/transform/camera/environment records
	OutputDir   string `yaml:"output_dir"`  // output directory, "" means next to the input
}

// TexturesConfig holds texture decoding settings.
type TexturesConfig struct {
	Load       bool `yaml:"load"`       // decode referenced textures
	Components int  `yaml:"components"` // forced component count 1-4, 0 keeps source
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			Triangulate: true,
			Extensions:  true,
			OutputDir:   "",
		},
		Textures: TexturesConfig{
			Load:       false,
			Components: 0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
