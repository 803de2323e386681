// Package config provides configuration loading for the audio exporter.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

import (
	"github.com/louist103/OTRExporter/export"
	"github.com/louist103/OTRExporter/pck"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if cfg.Root != "audio" {
		t.Errorf("expected root=audio, got %s", cfg.Root)
	}
	if cfg.Output.Kind != OutputDir {
		t.Errorf("expected output.kind=dir, got %s", cfg.Output.Kind)
	}
	opts := cfg.Options()
	if opts.Fonts != export.EncodingText || opts.Sequences != export.EncodingText {
		t.Errorf("expected text pipelines, got %+v", opts)
	}
	if cfg.CompressionTag() != pck.CompressionAuto {
		t.Errorf("expected auto compression, got %s", cfg.CompressionTag())
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "exporter.yaml")

	configContent := `
root: res/audio

output:
  kind: pck
  path: ${OTR_TEST_OUT:-/tmp/out}/audio.pck
  compression: zstd

jobs: 3
log_level: debug

pipeline:
  fonts: binary
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config is invalid: %v", err)
	}

	if cfg.Root != "res/audio" {
		t.Errorf("expected root=res/audio, got %s", cfg.Root)
	}
	if cfg.Output.Kind != OutputPackage {
		t.Errorf("expected output.kind=pck, got %s", cfg.Output.Kind)
	}
	if cfg.Output.Path != "/tmp/out/audio.pck" {
		t.Errorf("expected output.path=/tmp/out/audio.pck, got %s", cfg.Output.Path)
	}
	if cfg.CompressionTag() != pck.CompressionZstd {
		t.Errorf("expected zstd compression, got %s", cfg.CompressionTag())
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("expected debug level, got %s", cfg.Level())
	}

	opts := cfg.Options()
	if opts.Root != "res/audio" || opts.Jobs != 3 {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Fonts != export.EncodingBinary {
		t.Errorf("expected binary fonts, got %s", opts.Fonts)
	}
	// Unset fields keep their defaults.
	if opts.Sequences != export.EncodingText {
		t.Errorf("expected text sequences, got %s", opts.Sequences)
	}
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "exporter.yaml")
	if err := os.WriteFile(configPath, []byte("jobs: [1"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := LoadFile(configPath); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/out",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/out",
		},
		{
			input:    "${OTR_TEST_MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"empty root", func(c *Config) { c.Root = "" }, "root is required"},
		{"bad output", func(c *Config) { c.Output.Kind = "zip" }, "output.kind"},
		{"empty path", func(c *Config) { c.Output.Path = "" }, "output.path"},
		{"bad compression", func(c *Config) { c.Output.Compression = "gzip" },
			"output.compression"},
		{"no jobs", func(c *Config) { c.Jobs = 0 }, "jobs must be at least 1"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"bad fonts", func(c *Config) { c.Pipeline.Fonts = "json" },
			"pipeline.fonts"},
		{"both sequences", func(c *Config) { c.Pipeline.Sequences = "both" },
			"pipeline.sequences: only one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got %v", tt.errMsg, err)
			}
		})
	}
}
