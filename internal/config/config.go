// Package config loads the settings of a voxelstream session. There is no
// process-wide instance: callers build a Config and pass it down.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"voxelstream/internal/world"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "config.schema.json"

// Render radius limits, in chunks.
const (
	MinRenderH = 1
	MaxRenderH = 32
	MinRenderV = 1
	MaxRenderV = 16
)

type Config struct {
	World     WorldConfig     `yaml:"world"`
	Streaming StreamingConfig `yaml:"streaming"`
	Meshing   MeshingConfig   `yaml:"meshing"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Window    WindowConfig    `yaml:"window"`
	Edit      EditConfig      `yaml:"edit"`
}

// WorldConfig holds world generation configuration
type WorldConfig struct {
	Seed       int64  `yaml:"seed"`
	SaveDir    string `yaml:"save_dir"`
	Generator  string `yaml:"generator"`
	FlatHeight int    `yaml:"flat_height"`
	Caves      bool   `yaml:"caves"`
	Ores       bool   `yaml:"ores"`
	// MinCaveY is the lowest world y at which caves are carved.
	MinCaveY int `yaml:"min_cave_y"`
	// MaxCaveY is the highest world y at which caves are carved.
	MaxCaveY int `yaml:"max_cave_y"`
}

// StreamingConfig sizes the resident set and the generation workers.
type StreamingConfig struct {
	RenderH         int     `yaml:"render_h"`
	RenderV         int     `yaml:"render_v"`
	GenWorkers      int     `yaml:"gen_workers"`
	GenRate         float64 `yaml:"gen_rate"` // chunks per second, 0 = unlimited
	GenBurst        int     `yaml:"gen_burst"`
	QueueSize       int     `yaml:"queue_size"`
	UploadsPerFrame int     `yaml:"uploads_per_frame"`
}

type MeshingConfig struct {
	Workers     int     `yaml:"workers"`
	QueueSize   int     `yaml:"queue_size"`
	AtlasPath   string  `yaml:"atlas_path"`
	AtlasWidth  float32 `yaml:"atlas_width"`
	AtlasHeight float32 `yaml:"atlas_height"`
	AtlasTile   float32 `yaml:"atlas_tile"`
}

type StorageConfig struct {
	// IndexPath is the sqlite save index; empty disables it.
	IndexPath string `yaml:"index_path"`
	BackupDir string `yaml:"backup_dir"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	Output      string `yaml:"output"`
}

type TelemetryConfig struct {
	// Addr is the websocket listen address; empty disables telemetry.
	Addr     string        `yaml:"addr"`
	Interval time.Duration `yaml:"interval"`
}

type WindowConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	VSync  bool    `yaml:"vsync"`
	FPSCap int     `yaml:"fps_cap"`
	FOV    float32 `yaml:"fov"`
}

type EditConfig struct {
	// Hotbar lists block names for slots 1-9.
	Hotbar []string `yaml:"hotbar"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		World: WorldConfig{
			Seed:       1337,
			SaveDir:    "worlds",
			Generator:  "default",
			FlatHeight: 64,
			Caves:      true,
			Ores:       true,
			MinCaveY:   -64,
			MaxCaveY:   128,
		},
		Streaming: StreamingConfig{
			RenderH:         8,
			RenderV:         4,
			GenWorkers:      2,
			GenRate:         0,
			GenBurst:        8,
			QueueSize:       1024,
			UploadsPerFrame: 16,
		},
		Meshing: MeshingConfig{
			Workers:     2,
			QueueSize:   256,
			AtlasPath:   "assets/blocks.png",
			AtlasWidth:  96,
			AtlasHeight: 1048,
			AtlasTile:   32,
		},
		Storage: StorageConfig{
			IndexPath: "worlds/index.db",
			BackupDir: "backups",
		},
		Log: LogConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			Interval: time.Second,
		},
		Window: WindowConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			FOV:    70,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		cfg.Normalize()
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	return Parse(b)
}

// Parse decodes a YAML document over the defaults, checks it against the
// embedded schema and then validates it.
func Parse(b []byte) (Config, error) {
	cfg := Default()
	if err := validateSchema(b); err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

func validateSchema(b []byte) error {
	var doc any
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if doc == nil {
		return nil
	}
	// jsonschema wants JSON-decoded values.
	j, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var v any
	if err := json.Unmarshal(j, &v); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	schema, err := compileSchema()
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Normalize clamps values into their supported ranges.
func (c *Config) Normalize() {
	c.Streaming.RenderH = clamp(c.Streaming.RenderH, MinRenderH, MaxRenderH)
	c.Streaming.RenderV = clamp(c.Streaming.RenderV, MinRenderV, MaxRenderV)
	if c.Streaming.GenWorkers < 1 {
		c.Streaming.GenWorkers = 1
	}
	if c.Meshing.Workers < 1 {
		c.Meshing.Workers = 1
	}
	if c.Telemetry.Interval <= 0 {
		c.Telemetry.Interval = time.Second
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate performs the semantic checks the schema cannot express.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.World.SaveDir) == "" {
		errs = append(errs, errors.New("world.save_dir is empty"))
	}
	switch c.World.Generator {
	case "default", "flat":
	default:
		errs = append(errs, fmt.Errorf("world.generator %q is unknown", c.World.Generator))
	}
	if c.World.MaxCaveY < c.World.MinCaveY {
		errs = append(errs, errors.New("world.max_cave_y is below world.min_cave_y"))
	}
	if c.Streaming.QueueSize < 1 {
		errs = append(errs, errors.New("streaming.queue_size must be positive"))
	}
	if c.Meshing.QueueSize < 1 {
		errs = append(errs, errors.New("meshing.queue_size must be positive"))
	}
	if c.Meshing.AtlasTile <= 0 || c.Meshing.AtlasWidth < 3*c.Meshing.AtlasTile {
		errs = append(errs, errors.New("meshing atlas must hold three tile columns"))
	}
	if len(c.Edit.Hotbar) > 9 {
		errs = append(errs, errors.New("edit.hotbar holds at most 9 entries"))
	}
	return errors.Join(errs...)
}

// RenderRadius returns the horizontal and vertical render radius.
func (c Config) RenderRadius() (h, v int) {
	return c.Streaming.RenderH, c.Streaming.RenderV
}

// GenOptions maps the world section onto generator options.
func (c Config) GenOptions() world.GenOptions {
	return world.GenOptions{
		Caves:       c.World.Caves,
		CaveFloor:   c.World.MinCaveY,
		CaveCeiling: c.World.MaxCaveY,
		Ores:        c.World.Ores,
	}
}

// NewGenerator builds the configured terrain generator.
func (c Config) NewGenerator() world.TerrainGenerator {
	if c.World.Generator == "flat" {
		return world.NewFlatGenerator(c.World.FlatHeight)
	}
	return world.NewGenerator(c.World.Seed, c.GenOptions())
}
