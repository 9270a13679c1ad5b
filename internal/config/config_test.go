package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"voxelstream/internal/world"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if h, v := cfg.RenderRadius(); h != 8 || v != 4 {
		t.Errorf("Unexpected default radius %d/%d", h, v)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.World.SaveDir != "worlds" {
		t.Errorf("Expected defaults, got save dir %q", cfg.World.SaveDir)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voxelstream.yaml")
	doc := `
world:
  seed: 99
  generator: flat
  flat_height: 20
streaming:
  render_h: 100
  render_v: 0
  gen_rate: 12.5
telemetry:
  addr: ":9090"
  interval: 250ms
edit:
  hotbar: [stone, oak]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.World.Seed != 99 || cfg.World.Generator != "flat" {
		t.Errorf("World section not applied: %+v", cfg.World)
	}
	if cfg.World.SaveDir != "worlds" {
		t.Errorf("Expected untouched fields to keep defaults")
	}
	if cfg.Streaming.RenderH != MaxRenderH || cfg.Streaming.RenderV != MinRenderV {
		t.Errorf("Expected radius clamped to %d/%d, got %d/%d",
			MaxRenderH, MinRenderV, cfg.Streaming.RenderH, cfg.Streaming.RenderV)
	}
	if cfg.Telemetry.Interval != 250*time.Millisecond {
		t.Errorf("Expected 250ms interval, got %v", cfg.Telemetry.Interval)
	}
	if len(cfg.Edit.Hotbar) != 2 {
		t.Errorf("Expected two hotbar entries, got %v", cfg.Edit.Hotbar)
	}
	if g, ok := cfg.NewGenerator().(*world.FlatGenerator); !ok || g.HeightAt(0, 0) != 20 {
		t.Errorf("Expected a flat generator of height 20")
	}
}

func TestSchemaRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("world:\n  sead: 1\n"))
	if err == nil {
		t.Fatal("Expected unknown key to be rejected")
	}
}

func TestSchemaRejectsBadEnum(t *testing.T) {
	_, err := Parse([]byte("world:\n  generator: voronoi\n"))
	if err == nil {
		t.Fatal("Expected unknown generator to be rejected")
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := Default()
	cfg.World.SaveDir = " "
	cfg.Meshing.QueueSize = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "save_dir") || !strings.Contains(msg, "meshing.queue_size") {
		t.Errorf("Expected both problems reported, got %q", msg)
	}
}

func TestGenOptions(t *testing.T) {
	cfg := Default()
	cfg.World.Caves = false
	cfg.World.MinCaveY = -10
	cfg.World.MaxCaveY = 40
	opts := cfg.GenOptions()
	if opts.Caves || opts.CaveFloor != -10 || opts.CaveCeiling != 40 || !opts.Ores {
		t.Errorf("Unexpected options %+v", opts)
	}

	cfg.World.MaxCaveY = -20
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "max_cave_y") {
		t.Errorf("Expected an inverted cave range to be rejected, got %v", err)
	}
}

func TestExampleFileLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "voxelstream.example.yaml"))
	if err != nil {
		t.Fatalf("Load example: %v", err)
	}
	if cfg.Telemetry.Interval != time.Second {
		t.Errorf("Expected 1s telemetry interval, got %v", cfg.Telemetry.Interval)
	}
	if len(cfg.Edit.Hotbar) != 5 || cfg.Edit.Hotbar[3] != "oak" {
		t.Errorf("Unexpected hotbar %v", cfg.Edit.Hotbar)
	}
}
