package game

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/config"
	"voxelstream/internal/world"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.World.Generator = "flat"
	cfg.World.FlatHeight = 8
	cfg.World.SaveDir = filepath.Join(dir, "worlds")
	cfg.Storage.IndexPath = filepath.Join(dir, "index.db")
	cfg.Streaming.RenderH = 1
	cfg.Streaming.RenderV = 1
	cfg.Streaming.UploadsPerFrame = 0
	return cfg
}

func waitIdle(t *testing.T, s *Session) {
	t.Helper()
	deadline := time.Now().Add(20 * time.Second)
	for !s.Sched.Idle() {
		if time.Now().After(deadline) {
			t.Fatalf("streaming did not settle: %+v", s.Sched.Stats())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSessionTickAndEdit(t *testing.T) {
	s, err := NewSession(testConfig(t), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close(context.Background())

	spawn := s.Spawn()
	if spawn.Y() != 10 {
		t.Errorf("Expected spawn at y=10 over flat terrain, got %v", spawn)
	}

	down := mgl32.Vec3{0, -1, 0}
	first := s.Tick(spawn, down)
	waitIdle(t, s)

	f := s.Tick(spawn, down)
	if len(first.Meshes)+len(f.Meshes) == 0 {
		t.Errorf("Expected meshes after streaming settled")
	}
	if !f.Aim.Hit || f.Aim.Block != [3]int{0, 7, 0} || f.Aim.Normal != [3]int{0, 1, 0} {
		t.Fatalf("Expected to aim at the top of the grass block, got %+v", f.Aim)
	}
	if s.Edit.LastStruck() != world.BlockGrass {
		t.Errorf("Expected grass under the crosshair, got %d", s.Edit.LastStruck())
	}

	if !s.Break() {
		t.Fatal("Break refused")
	}
	if !s.Store.BlockAt(0, 7, 0).IsAir() {
		t.Errorf("Expected the struck block removed")
	}

	// Re-aim at the dirt below, then place back into the hole.
	s.Tick(spawn, down)
	if s.Place(mgl32.Vec3{0, 7, 0}) {
		t.Errorf("Expected placement into the observer's body to be refused")
	}
	if !s.Place(mgl32.Vec3{5, 20, 5}) {
		t.Errorf("Expected placement away from the observer to succeed")
	}
	if s.Store.BlockAt(0, 7, 0).ID != s.Edit.Selected() {
		t.Errorf("Expected the selected block placed")
	}
}

func TestSessionCloseFlushesIndex(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.Tick(s.Spawn(), mgl32.Vec3{0, -1, 0})
	waitIdle(t, s)
	s.Store.SetBlock(2, 2, 2, world.BlockData{ID: world.BlockStone})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Sched.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if err := s.Index.Flush(ctx); err != nil {
		t.Fatalf("index Flush: %v", err)
	}
	if n, err := s.Index.Count(ctx, cfg.World.Seed); err != nil || n != 1 {
		t.Errorf("Expected one indexed chunk, got %d (%v)", n, err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}

	coords, err := s.Codec.List(cfg.World.Seed)
	if err != nil || len(coords) != 1 {
		t.Fatalf("Expected one chunk file, got %v (%v)", coords, err)
	}
}

func TestHotbarFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Edit.Hotbar = []string{"stone", "oak"}
	s, err := NewSession(cfg, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close(context.Background())
	h := s.Edit.Hotbar()
	if h.Slots[0] != world.BlockStone || h.Slots[1] != world.BlockOak {
		t.Errorf("Unexpected hotbar %v", h.Slots)
	}

	cfg = testConfig(t)
	cfg.Edit.Hotbar = []string{"air"}
	if _, err := NewSession(cfg, nil); err == nil {
		t.Errorf("Expected air to be rejected as a hotbar entry")
	}
	cfg.Edit.Hotbar = []string{"nope"}
	if _, err := NewSession(cfg, nil); err == nil {
		t.Errorf("Expected unknown names to be rejected")
	}
}

func TestFPSLimiterDisabled(t *testing.T) {
	f := NewFPSLimiter(0)
	start := time.Now()
	for i := 0; i < 100; i++ {
		f.Wait()
	}
	if time.Since(start) > time.Second {
		t.Errorf("Expected an uncapped limiter not to wait")
	}
}

func TestOverlayLines(t *testing.T) {
	s, err := NewSession(testConfig(t), nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close(context.Background())

	spawn := s.Spawn()
	s.Tick(spawn, mgl32.Vec3{0, -1, 0})
	waitIdle(t, s)
	s.Tick(spawn, mgl32.Vec3{0, -1, 0})

	lines := s.Overlay(spawn, 60)
	if len(lines) < 5 {
		t.Fatalf("Expected at least 5 overlay lines, got %q", lines)
	}
	if lines[0] != "FPS: 60" {
		t.Errorf("Unexpected first line %q", lines[0])
	}
	var target, hotbar bool
	for _, l := range lines {
		if strings.HasPrefix(l, "Target: grass at 0, 7, 0") {
			target = true
		}
		if strings.HasPrefix(l, "Hotbar: [dirt]") {
			hotbar = true
		}
	}
	if !target || !hotbar {
		t.Errorf("Missing target or hotbar line in %q", lines)
	}
}
