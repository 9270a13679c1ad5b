package backup

import (
	"bytes"
	"context"
	"testing"

	"voxelstream/internal/storage"
	"voxelstream/internal/world"
)

func TestExportImportRoundTrip(t *testing.T) {
	src := storage.NewCodec(t.TempDir(), nil)
	const seed = 31

	var want []*world.Chunk
	for i := 0; i < 4; i++ {
		c := world.NewChunk(i, -i, i*2)
		c.SetModified(i, i, i, world.BlockData{ID: world.BlockCobblestone})
		c.SetModified(15, 0, 3, world.BlockData{ID: world.BlockOak, Rotation: world.RotationX})
		if _, err := src.Save(c, seed); err != nil {
			t.Fatal(err)
		}
		want = append(want, c)
	}

	var buf bytes.Buffer
	m, err := Export(context.Background(), src, seed, &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if m.Files != 4 || m.Seed != seed || m.ID == "" {
		t.Errorf("Unexpected manifest %+v", m)
	}

	dst := storage.NewCodec(t.TempDir(), nil)
	got, skipped, err := Import(context.Background(), dst, &buf)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if skipped != 0 {
		t.Errorf("Expected nothing skipped, got %d", skipped)
	}
	if got.ID != m.ID {
		t.Errorf("Manifest id changed: %s vs %s", got.ID, m.ID)
	}

	for _, c := range want {
		fresh := world.NewChunk(c.Coord.X, c.Coord.Y, c.Coord.Z)
		if _, err := dst.Load(fresh, seed); err != nil {
			t.Fatalf("Load %v: %v", c.Coord, err)
		}
		if !fresh.Equal(c) {
			t.Errorf("Restored chunk %v differs", c.Coord)
		}
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	dst := storage.NewCodec(t.TempDir(), nil)
	if _, _, err := Import(context.Background(), dst, bytes.NewReader([]byte("not an archive"))); err == nil {
		t.Errorf("Expected an error for a non-zstd stream")
	}
}

func TestExportCanceled(t *testing.T) {
	src := storage.NewCodec(t.TempDir(), nil)
	c := world.NewChunk(0, 0, 0)
	c.SetModified(0, 0, 0, world.BlockData{ID: world.BlockDirt})
	if _, err := src.Save(c, 1); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	if _, err := Export(ctx, src, 1, &buf); err == nil {
		t.Errorf("Expected a canceled export to fail")
	}
}
