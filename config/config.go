// Package config provides configuration loading for the audio exporter.
//
// Configuration is read from a single YAML file named on the command line.
// Every field has a default, so the file only needs to name what differs.
// Paths may use ${VAR} and ${VAR:-default} patterns.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
)

import (
	"gopkg.in/yaml.v3"

	"github.com/louist103/OTRExporter/export"
	"github.com/louist103/OTRExporter/pck"
	"github.com/louist103/OTRExporter/util"
)

// Output kinds.
const (
	// OutputDir writes every artifact to its own file below Output.Path.
	OutputDir = "dir"
	// OutputPackage writes every artifact into a single package at
	// Output.Path.
	OutputPackage = "pck"
)

// Config is the complete exporter configuration.
type Config struct {
	// Root is the resource root every artifact path is placed under.
	Root string `yaml:"root"`

	Output OutputConfig `yaml:"output"`

	// Jobs is the number of artifacts encoded concurrently.
	Jobs int `yaml:"jobs"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	Pipeline PipelineConfig `yaml:"pipeline"`
}

// OutputConfig configures where artifacts are written.
type OutputConfig struct {
	// Kind is OutputDir or OutputPackage.
	Kind string `yaml:"kind"`

	// Path is the output directory or package file.
	Path string `yaml:"path"`

	// Compression applies to packages only: auto, none, lz4 or zstd.
	Compression string `yaml:"compression"`
}

// PipelineConfig selects the encoding of each entity kind. Samples are always
// binary.
type PipelineConfig struct {
	// Fonts is text or binary.
	Fonts string `yaml:"fonts"`

	// Sequences is text or binary.
	Sequences string `yaml:"sequences"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Root: export.DefaultRoot,
		Output: OutputConfig{
			Kind:        OutputDir,
			Path:        filepath.Join(".", "out"),
			Compression: pck.CompressionAuto.String(),
		},
		Jobs:     runtime.GOMAXPROCS(0),
		LogLevel: "info",
		Pipeline: PipelineConfig{
			Fonts:     export.EncodingText.String(),
			Sequences: export.EncodingText.String(),
		},
	}
}

// LoadFile loads configuration from a specific file path, on top of the
// defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": util.UserHome(),
	}
	c.Output.Path = expandVars(c.Output.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. vars is consulted
// before the environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors. All errors are reported
// together.
func (c *Config) Validate() error {
	var errs []error

	if c.Root == "" {
		errs = append(errs, errors.New("root is required"))
	}

	switch c.Output.Kind {
	case OutputDir, OutputPackage:
	default:
		errs = append(errs, fmt.Errorf("output.kind must be one of: %v",
			[]string{OutputDir, OutputPackage}))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	if _, err := pck.ParseCompressionTag(c.Output.Compression); err != nil {
		errs = append(errs, fmt.Errorf("output.compression: %w", err))
	}

	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("jobs must be at least 1, got %d", c.Jobs))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}

	pipelines := []struct{ name, value string }{
		{"pipeline.fonts", c.Pipeline.Fonts},
		{"pipeline.sequences", c.Pipeline.Sequences},
	}
	for _, p := range pipelines {
		name, value := p.name, p.value
		if value == "both" {
			// Both encodings of an entity share one output path.
			errs = append(errs, fmt.Errorf("%s: only one of text or binary "+
				"may be written per export", name))
			continue
		}
		if _, err := export.ParseEncoding(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	return errors.Join(errs...)
}

// Level returns the configured log level, or slog.LevelInfo if it does not
// parse.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Options returns the exporter options described by c. c must be valid.
func (c *Config) Options() export.Options {
	fonts, _ := export.ParseEncoding(c.Pipeline.Fonts)
	sequences, _ := export.ParseEncoding(c.Pipeline.Sequences)
	return export.Options{
		Root:      c.Root,
		Fonts:     fonts,
		Sequences: sequences,
		Jobs:      c.Jobs,
	}
}

// CompressionTag returns the package compression described by c. c must be
// valid.
func (c *Config) CompressionTag() pck.CompressionTag {
	tag, _ := pck.ParseCompressionTag(c.Output.Compression)
	return tag
}
