package atlas

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Glyph describes a single character's placement and metrics within the atlas
type Glyph struct {
	// Pixel coordinates of the glyph in the atlas image (top-left origin)
	X, Y float32
	// Glyph bitmap size in pixels
	Width, Height float32
	// Bearing (offset from baseline) in pixels
	BearingX, BearingY float32
	Advance            int
}

// Glyphs is a baked set of ASCII glyphs.
type Glyphs struct {
	Image      *image.Alpha
	LineHeight int
	Characters map[rune]Glyph
}

// DefaultFont returns the bundled monospace font.
func DefaultFont() []byte {
	return gomono.TTF
}

// BakeGlyphs rasterises the printable ASCII range of a TrueType or OpenType
// font into a single alpha image.
func BakeGlyphs(fontBytes []byte, pixels int) (*Glyphs, error) {
	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: float64(pixels), DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	defer func() { _ = face.Close() }()

	const atlasW, padding = 512, 1

	// First pass: pack rows to size the image.
	offsetX, offsetY, rowH := 0, 0, 0
	for r := rune(32); r <= 126; r++ {
		dr, mask, _, _, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok || mask == nil {
			continue
		}
		if offsetX+dr.Dx() > atlasW {
			offsetX = 0
			offsetY += rowH + padding
			rowH = 0
		}
		offsetX += dr.Dx() + padding
		rowH = max(rowH, dr.Dy())
	}
	atlasH := offsetY + rowH + padding

	img := image.NewAlpha(image.Rect(0, 0, atlasW, atlasH))
	chars := make(map[rune]Glyph, 95)

	offsetX, offsetY, rowH = 0, 0, 0
	for r := rune(32); r <= 126; r++ {
		dr, mask, maskp, advance, ok := face.Glyph(fixed.P(0, 0), r)
		if !ok {
			continue
		}
		g := Glyph{
			BearingX: float32(dr.Min.X),
			BearingY: float32(-dr.Min.Y),
			Advance:  int(math.Round(float64(advance) / 64.0)),
		}
		gw, gh := dr.Dx(), dr.Dy()
		if mask == nil || gw == 0 || gh == 0 {
			// Space or non-drawable glyph; still record advance
			chars[r] = g
			continue
		}
		if offsetX+gw > atlasW {
			offsetX = 0
			offsetY += rowH + padding
			rowH = 0
		}
		draw.Draw(img, image.Rect(offsetX, offsetY, offsetX+gw, offsetY+gh), mask, maskp, draw.Src)
		g.X, g.Y = float32(offsetX), float32(offsetY)
		g.Width, g.Height = float32(gw), float32(gh)
		chars[r] = g

		offsetX += gw + padding
		rowH = max(rowH, gh)
	}

	return &Glyphs{
		Image:      img,
		LineHeight: face.Metrics().Height.Ceil(),
		Characters: chars,
	}, nil
}

// Measure returns the advance width of text in pixels at scale 1.
func (g *Glyphs) Measure(text string) int {
	w := 0
	for _, r := range text {
		c, ok := g.Characters[r]
		if !ok {
			c = g.Characters[' ']
		}
		w += c.Advance
	}
	return w
}
