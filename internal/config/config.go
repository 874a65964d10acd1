// Package config handles pipeline configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/sol/internal/bundle"
	"github.com/Faultbox/sol/internal/scene"
	"github.com/Faultbox/sol/pkg/meshlet"
)

// Validation errors.
var (
	ErrVertexLimit    = errors.New("meshlet vertex limit out of range")
	ErrPrimitiveLimit = errors.New("meshlet primitive limit out of range")
	ErrUnknownMode    = errors.New("unknown pipeline mode")
)

// Config holds all pipeline settings.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Meshlet  MeshletConfig  `yaml:"meshlet"`
	Bounds   BoundsConfig   `yaml:"bounds"`
	Import   ImportConfig   `yaml:"import"`
	Output   OutputConfig   `yaml:"output"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// PipelineConfig selects the geometry pipeline the bundle is built for.
type PipelineConfig struct {
	Mode string `yaml:"mode"` // "mesh" or "vertex"
}

// MeshletConfig holds per-meshlet capacity limits.
type MeshletConfig struct {
	VertexLimit    int `yaml:"vertex_limit"`
	PrimitiveLimit int `yaml:"primitive_limit"`
}

// BoundsConfig holds bounding volume settings.
type BoundsConfig struct {
	OriginSeededAABB bool `yaml:"origin_seeded_aabb"`
}

// ImportConfig holds glTF import settings.
type ImportConfig struct {
	FlipWinding     bool `yaml:"flip_winding"`
	GenerateNormals bool `yaml:"generate_normals"`
}

// OutputConfig holds output file paths. Empty paths disable the output.
type OutputConfig struct {
	BundlePath   string `yaml:"bundle_path"`
	DebugGLBPath string `yaml:"debug_glb_path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			Mode: bundle.MeshShader.String(),
		},
		Meshlet: MeshletConfig{
			VertexLimit:    meshlet.VertexLimit,
			PrimitiveLimit: meshlet.PrimitiveLimit,
		},
		Import: ImportConfig{
			GenerateNormals: true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks that the limits fit the GPU ranges and the mode is known.
func (c *Config) Validate() error {
	if c.Meshlet.VertexLimit < 3 || c.Meshlet.VertexLimit > meshlet.VertexLimit {
		return fmt.Errorf("%w: %d not in [3, %d]", ErrVertexLimit, c.Meshlet.VertexLimit, meshlet.VertexLimit)
	}
	if c.Meshlet.PrimitiveLimit < 1 || c.Meshlet.PrimitiveLimit > meshlet.PrimitiveLimit {
		return fmt.Errorf("%w: %d not in [1, %d]", ErrPrimitiveLimit, c.Meshlet.PrimitiveLimit, meshlet.PrimitiveLimit)
	}
	if _, ok := bundle.ParseMode(c.Pipeline.Mode); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Pipeline.Mode)
	}
	return nil
}

// BundleOptions converts the config into assembler options.
// Call Validate first; an unknown mode falls back to mesh shading.
func (c *Config) BundleOptions() bundle.Options {
	opts := bundle.DefaultOptions()
	if mode, ok := bundle.ParseMode(c.Pipeline.Mode); ok {
		opts.Mode = mode
	}
	opts.VertexLimit = c.Meshlet.VertexLimit
	opts.PrimitiveLimit = c.Meshlet.PrimitiveLimit
	opts.OriginSeededAABB = c.Bounds.OriginSeededAABB
	return opts
}

// ImportOptions converts the config into glTF import options.
func (c *Config) ImportOptions() scene.Options {
	return scene.Options{
		FlipWinding:     c.Import.FlipWinding,
		GenerateNormals: c.Import.GenerateNormals,
	}
}
