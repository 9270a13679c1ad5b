// Package atlas produces the CPU-side images behind block and glyph
// textures.
package atlas

import (
	"fmt"
	"image"
	"image/color"
	_ "image/png"
	"os"

	xdraw "golang.org/x/image/draw"

	"voxelstream/internal/meshing"
	"voxelstream/internal/world"
)

// LoadImage decodes the block atlas at path and resamples it to the
// size the mesher's UVs assume.
func LoadImage(path string, atlas meshing.Atlas) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode atlas %s: %w", path, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(atlas.Width), int(atlas.Height)))
	if src.Bounds().Size() == dst.Bounds().Size() {
		xdraw.Copy(dst, image.Point{}, src, src.Bounds(), xdraw.Src, nil)
	} else {
		xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	}
	return dst, nil
}

// tileColors holds the side, bottom and top colour of a block.
type tileColors [3]color.RGBA

var palette = map[world.BlockID]tileColors{
	world.BlockDirt:           {rgb(134, 96, 67), rgb(134, 96, 67), rgb(134, 96, 67)},
	world.BlockGrass:          {rgb(120, 100, 60), rgb(134, 96, 67), rgb(95, 159, 53)},
	world.BlockCobblestone:    {rgb(122, 122, 122), rgb(122, 122, 122), rgb(122, 122, 122)},
	world.BlockStone:          {rgb(125, 125, 125), rgb(125, 125, 125), rgb(125, 125, 125)},
	world.BlockSand:           {rgb(219, 207, 163), rgb(219, 207, 163), rgb(219, 207, 163)},
	world.BlockWater:          {rgb(47, 67, 244), rgb(47, 67, 244), rgb(63, 118, 228)},
	world.BlockTerracota:      {rgb(152, 94, 67), rgb(152, 94, 67), rgb(152, 94, 67)},
	world.BlockCoalOre:        {rgb(105, 105, 105), rgb(105, 105, 105), rgb(105, 105, 105)},
	world.BlockIronOre:        {rgb(136, 129, 122), rgb(136, 129, 122), rgb(136, 129, 122)},
	world.BlockGoldOre:        {rgb(143, 140, 110), rgb(143, 140, 110), rgb(143, 140, 110)},
	world.BlockDiamondOre:     {rgb(121, 141, 140), rgb(121, 141, 140), rgb(121, 141, 140)},
	world.BlockDarkStone:      {rgb(70, 70, 75), rgb(70, 70, 75), rgb(70, 70, 75)},
	world.BlockDarkCoalOre:    {rgb(55, 55, 58), rgb(55, 55, 58), rgb(55, 55, 58)},
	world.BlockDarkIronOre:    {rgb(88, 80, 76), rgb(88, 80, 76), rgb(88, 80, 76)},
	world.BlockDarkGoldOre:    {rgb(95, 90, 60), rgb(95, 90, 60), rgb(95, 90, 60)},
	world.BlockDarkDiamondOre: {rgb(60, 95, 95), rgb(60, 95, 95), rgb(60, 95, 95)},
	world.BlockOak:            {rgb(102, 81, 50), rgb(176, 144, 90), rgb(176, 144, 90)},
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// Procedural paints a flat-colour atlas in the mesher's layout: one
// row per block id starting at id 1, with side, bottom and top columns.
// It stands in when no atlas image is available.
func Procedural(atlas meshing.Atlas) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(atlas.Width), int(atlas.Height)))
	tile := int(atlas.Tile)
	for id := world.BlockID(1); id < world.BlockCount; id++ {
		colors, ok := palette[id]
		if !ok {
			continue
		}
		y0 := int(id-1) * tile
		for col, c := range colors {
			r := image.Rect(col*tile, y0, (col+1)*tile, y0+tile)
			xdraw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, xdraw.Src)
			// darker rim so block edges read
			edge := shade(c, 0.8)
			for _, e := range []image.Rectangle{
				image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
				image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
				image.Rect(r.Min.X, r.Min.Y, r.Min.X+1, r.Max.Y),
				image.Rect(r.Max.X-1, r.Min.Y, r.Max.X, r.Max.Y),
			} {
				xdraw.Draw(img, e, &image.Uniform{C: edge}, image.Point{}, xdraw.Src)
			}
		}
	}
	return img
}

func shade(c color.RGBA, f float32) color.RGBA {
	return color.RGBA{
		R: uint8(float32(c.R) * f),
		G: uint8(float32(c.G) * f),
		B: uint8(float32(c.B) * f),
		A: c.A,
	}
}
