// Package config holds the run configuration for the analysis pipeline.
// Priority: built-in defaults < config file < CLI flags.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/solidmetrics/solidmetrics/pkg/errors"
)

// Config is the full configuration of one run.
type Config struct {
	Version int `yaml:"version"`

	Input      InputConfig      `yaml:"input"`
	Processing ProcessingConfig `yaml:"processing"`
	Repair     RepairConfig     `yaml:"repair"`
	Surface    SurfaceConfig    `yaml:"surface"`
	Output     OutputConfig     `yaml:"output"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// InputConfig selects what to read.
type InputConfig struct {
	Layer string `yaml:"layer"`
	Limit int    `yaml:"limit"` // 0 = no limit
}

// ProcessingConfig controls the worker pool.
type ProcessingConfig struct {
	Workers   int `yaml:"workers"` // 0 = auto
	ChunkSize int `yaml:"chunk_size"`
}

// RepairConfig tunes the mesh repair ladder.
type RepairConfig struct {
	VertexEpsilon float64 `yaml:"vertex_epsilon"`
	MaxHoleEdges  int     `yaml:"max_hole_edges"`
}

// SurfaceConfig tunes the surface classifier.
type SurfaceConfig struct {
	AngleToleranceDeg float64 `yaml:"angle_tolerance_deg"`
	FootprintBand     float64 `yaml:"footprint_band"`
}

// OutputConfig controls output retention and naming.
type OutputConfig struct {
	KeepChunks bool   `yaml:"keep_chunks"`
	BaseName   string `yaml:"base_name"`
}

// TelemetryConfig configures optional trace export.
type TelemetryConfig struct {
	Endpoint string `yaml:"endpoint"` // OTLP gRPC endpoint, empty = disabled
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Version: 1,
		Input: InputConfig{
			Layer: "Building_solid",
		},
		Processing: ProcessingConfig{
			Workers:   0, // resolved by DefaultWorkers at run time
			ChunkSize: 100000,
		},
		Repair: RepairConfig{
			VertexEpsilon: 1e-5,
			MaxHoleEdges:  64,
		},
		Surface: SurfaceConfig{
			AngleToleranceDeg: 10,
			FootprintBand:     0.1,
		},
		Output: OutputConfig{
			BaseName: "building_analysis",
		},
	}
}

// Load returns the defaults overlaid with the yaml file at path. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", path, err)
	}
	return cfg, nil
}

// DefaultWorkers returns the worker count used when none is configured:
// the available parallelism minus one, capped at 8, floor 1.
func DefaultWorkers() int {
	n := runtime.NumCPU() - 1
	if n > 8 {
		n = 8
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ResolveWorkers returns the effective worker count for this run.
func (c *Config) ResolveWorkers() int {
	if c.Processing.Workers > 0 {
		return c.Processing.Workers
	}
	return DefaultWorkers()
}

// Validate rejects structurally broken configurations. These abort the run
// before any chunk is dispatched.
func (c *Config) Validate() error {
	if c.Processing.Workers < 0 {
		return errors.BadConfig(fmt.Sprintf("workers must not be negative, got %d", c.Processing.Workers))
	}
	if c.Processing.ChunkSize <= 0 {
		return errors.BadConfig(fmt.Sprintf("chunk size must be positive, got %d", c.Processing.ChunkSize))
	}
	if c.Input.Layer == "" {
		return errors.BadConfig("input layer must not be empty")
	}
	if c.Input.Limit < 0 {
		return errors.BadConfig(fmt.Sprintf("limit must not be negative, got %d", c.Input.Limit))
	}
	if c.Surface.FootprintBand < 0 || c.Surface.FootprintBand > 1 {
		return errors.BadConfig(fmt.Sprintf("footprint band must be in [0,1], got %g", c.Surface.FootprintBand))
	}
	return nil
}
