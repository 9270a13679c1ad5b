package atlas

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"voxelstream/internal/meshing"
	"voxelstream/internal/world"
)

func TestProceduralLayout(t *testing.T) {
	atlas := meshing.DefaultAtlas
	img := Procedural(atlas)
	if got := img.Bounds().Size(); got != (image.Point{X: 96, Y: 1048}) {
		t.Fatalf("Unexpected atlas size %v", got)
	}
	tile := int(atlas.Tile)
	// centre of the grass top tile: row id-1, column 2
	y := int(world.BlockGrass-1)*tile + tile/2
	if got := img.RGBAAt(2*tile+tile/2, y); got != palette[world.BlockGrass][2] {
		t.Errorf("grass top = %v, want %v", got, palette[world.BlockGrass][2])
	}
	if got := img.RGBAAt(tile/2, y); got != palette[world.BlockGrass][0] {
		t.Errorf("grass side = %v, want %v", got, palette[world.BlockGrass][0])
	}
	// below the last block row nothing is painted
	if got := img.RGBAAt(10, int(world.BlockCount)*tile+5); got.A != 0 {
		t.Errorf("Expected transparent padding, got %v", got)
	}
}

func TestLoadImageResamples(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 48, 524))
	red := color.RGBA{R: 255, A: 255}
	for y := 0; y < 524; y++ {
		for x := 0; x < 48; x++ {
			src.SetRGBA(x, y, red)
		}
	}
	path := filepath.Join(t.TempDir(), "atlas.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := LoadImage(path, meshing.DefaultAtlas)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if got := img.Bounds().Size(); got != (image.Point{X: 96, Y: 1048}) {
		t.Fatalf("Expected resampling to 96x1048, got %v", got)
	}
	if got := img.RGBAAt(95, 1047); got != red {
		t.Errorf("Unexpected pixel %v", got)
	}
}

func TestLoadImageMissing(t *testing.T) {
	_, err := LoadImage(filepath.Join(t.TempDir(), "nope.png"), meshing.DefaultAtlas)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected fs.ErrNotExist, got %v", err)
	}
}
