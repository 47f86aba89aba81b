package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func fileOnlyOptions(level, path string) Options {
	opts := DefaultOptions()
	opts.Level = level
	opts.Console = false
	opts.File = path
	opts.Compress = false
	return opts
}

func TestLogLevels(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logFile := filepath.Join(tempDir, tt.level+".log")
			if err := InitWithOptions(fileOnlyOptions(tt.level, logFile)); err != nil {
				t.Fatalf("failed to init logger: %v", err)
			}

			Debug("debug message")
			Info("info message")
			Warn("warn message")
			Error("error message")
			Sync()

			content, err := os.ReadFile(logFile)
			if err != nil {
				t.Fatalf("failed to read log file: %v", err)
			}
			logContent := string(content)

			for _, exp := range tt.expected {
				if !strings.Contains(logContent, exp) {
					t.Errorf("expected %s in log output", exp)
				}
			}
			for _, exc := range tt.excluded {
				if strings.Contains(logContent, exc) {
					t.Errorf("unexpected %s in log output for level %s", exc, tt.level)
				}
			}
		})
	}
}

func TestLogRotation(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "rotate.log")

	opts := fileOnlyOptions("debug", logFile)
	opts.MaxSizeMB = 1 // smallest lumberjack allows
	opts.MaxBackups = 2
	if err := InitWithOptions(opts); err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	defer Sync()

	// Write well past 1MB to force at least one rotation.
	longMessage := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Infof("entry %d: %s", i, longMessage)
	}
	Sync()

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("main log file does not exist")
	}

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("failed to read temp dir: %v", err)
	}
	rotated := 0
	for _, f := range files {
		name := f.Name()
		if name == "rotate.log" || !strings.Contains(name, ".log") {
			continue
		}
		rotated++
		// Rotated files carry a timestamp: rotate-YYYY-MM-DD...
		if !strings.Contains(name, "-20") {
			t.Errorf("rotated file %s doesn't have expected timestamp format", name)
		}
	}
	if rotated == 0 {
		t.Error("no rotated files found")
	}
}

func TestUninitializedLoggerIsSafe(t *testing.T) {
	// The package initializes a nop logger, so logging before Init must not
	// panic even if nothing was configured.
	if Log == nil || Sugar == nil {
		t.Fatal("package-level logger not initialized")
	}
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("logging panicked: %v", r)
		}
	}()
	Debug("quiet")
	Sugar.Infow("quiet", "k", 1)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Level != "info" || !opts.Console {
		t.Errorf("defaults = level %q, console %v", opts.Level, opts.Console)
	}
	if opts.MaxSizeMB != 20 || opts.MaxBackups != 3 || opts.MaxAgeDays != 14 || !opts.Compress {
		t.Errorf("rotation defaults = %+v", opts)
	}
}
