package graphics

import (
	_ "embed"
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"voxelstream/internal/graphics/atlas"
)

var (
	//go:embed shaders/font.vert
	fontVertSrc string
	//go:embed shaders/font.frag
	fontFragSrc string
)

// FontRenderer renders ASCII text strings using baked glyphs
type FontRenderer struct {
	glyphs     *atlas.Glyphs
	texture    uint32
	shader     *Shader
	projection mgl32.Mat4
	vao        uint32
	vbo        uint32
}

// NewFontRenderer uploads the glyph image and compiles the text shader.
func NewFontRenderer(glyphs *atlas.Glyphs, width, height int) (*FontRenderer, error) {
	if glyphs == nil || len(glyphs.Characters) == 0 {
		return nil, fmt.Errorf("invalid font atlas")
	}
	shader, err := NewShader(fontVertSrc, fontFragSrc)
	if err != nil {
		return nil, err
	}
	fr := &FontRenderer{glyphs: glyphs, shader: shader}
	fr.SetViewport(width, height)
	fr.initGL()
	return fr, nil
}

func (fr *FontRenderer) initGL() {
	img := fr.glyphs.Image
	gl.GenTextures(1, &fr.texture)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, fr.texture)
	// Ensure tight byte alignment for single-channel (alpha) upload
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RED, int32(img.Rect.Dx()), int32(img.Rect.Dy()), 0, gl.RED, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.GenVertexArrays(1, &fr.vao)
	gl.GenBuffers(1, &fr.vbo)
	gl.BindVertexArray(fr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, fr.vbo)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 4, gl.FLOAT, false, 4*4, gl.PtrOffset(0))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// SetViewport resets the pixel projection.
func (fr *FontRenderer) SetViewport(width, height int) {
	fr.projection = mgl32.Ortho(0, float32(width), float32(height), 0, 0, 1)
}

// LineHeight returns the distance between baselines at scale 1.
func (fr *FontRenderer) LineHeight() float32 {
	return float32(fr.glyphs.LineHeight)
}

// RenderLines draws multiple lines of text in a single pass to minimize GL state changes.
// Lines start at (x, yStart) and are lineStep pixels apart.
func (fr *FontRenderer) RenderLines(lines []string, x, yStart, lineStep, scale float32, color mgl32.Vec3) {
	if len(lines) == 0 {
		return
	}

	totalChars := 0
	for _, l := range lines {
		totalChars += len(l)
	}
	vertices := make([]float32, 0, totalChars*6*4)
	y := yStart
	for _, line := range lines {
		vertices = fr.appendVertices(vertices, line, x, y, scale)
		y += lineStep
	}
	if len(vertices) == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	fr.shader.Use()
	fr.shader.SetVector3("textColor", color.X(), color.Y(), color.Z())
	fr.shader.SetMatrix4("projection", &fr.projection[0])
	fr.shader.SetInt("text", 0)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, fr.texture)
	gl.BindVertexArray(fr.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, fr.vbo)

	// Orphan the buffer to avoid GPU stalls on dynamic updates
	sz := len(vertices) * 4
	gl.BufferData(gl.ARRAY_BUFFER, sz, nil, gl.DYNAMIC_DRAW)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, sz, gl.Ptr(vertices))
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(vertices)/4))

	gl.Disable(gl.BLEND)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
}

func (fr *FontRenderer) appendVertices(dst []float32, text string, x, y, scale float32) []float32 {
	aw := float32(fr.glyphs.Image.Rect.Dx())
	ah := float32(fr.glyphs.Image.Rect.Dy())
	for _, r := range text {
		fc, ok := fr.glyphs.Characters[r]
		if !ok {
			x += float32(fr.glyphs.Characters[' '].Advance) * scale
			continue
		}
		if fc.Width > 0 && fc.Height > 0 {
			xPos := x + fc.BearingX*scale
			yPos := y - fc.BearingY*scale
			w := fc.Width * scale
			h := fc.Height * scale
			u0, v0 := fc.X/aw, fc.Y/ah
			u1, v1 := (fc.X+fc.Width)/aw, (fc.Y+fc.Height)/ah
			dst = append(dst,
				xPos, yPos+h, u0, v1,
				xPos, yPos, u0, v0,
				xPos+w, yPos, u1, v0,
				xPos, yPos+h, u0, v1,
				xPos+w, yPos, u1, v0,
				xPos+w, yPos+h, u1, v1,
			)
		}
		x += float32(fc.Advance) * scale
	}
	return dst
}

// Dispose frees the GL objects.
func (fr *FontRenderer) Dispose() {
	DeleteTexture(fr.texture)
	if fr.vao != 0 {
		gl.DeleteVertexArrays(1, &fr.vao)
	}
	if fr.vbo != 0 {
		gl.DeleteBuffers(1, &fr.vbo)
	}
	fr.shader.Delete()
}
