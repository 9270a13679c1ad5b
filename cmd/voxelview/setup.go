package main

import (
	"errors"
	"io/fs"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/graphics"
	"voxelstream/internal/graphics/atlas"
	"voxelstream/internal/graphics/renderables/blocks"
	"voxelstream/internal/graphics/renderables/crosshair"
	"voxelstream/internal/graphics/renderables/hud"
	"voxelstream/internal/graphics/renderables/wireframe"
	renderer "voxelstream/internal/graphics/renderer"
	"voxelstream/internal/meshing"
	"voxelstream/internal/world"
)

const fontPixels = 16

func setupWindow(cfg config.WindowConfig) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, "voxelstream", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	// Initialize OpenGL bindings
	if err := gl.Init(); err != nil {
		return nil, err
	}

	if cfg.VSync {
		glfw.SwapInterval(1)
	} else {
		// The FPS limiter paces frames instead.
		glfw.SwapInterval(0)
	}
	window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
	return window, nil
}

// Components holds the renderer and the renderables the loop talks to.
type Components struct {
	Renderer *renderer.Renderer
	Blocks   *blocks.Blocks
	HUD      *hud.HUD
}

func setupRenderer(cfg config.Config, sess *game.Session, log *zap.Logger) (*Components, error) {
	a := meshing.Atlas{
		Width:  cfg.Meshing.AtlasWidth,
		Height: cfg.Meshing.AtlasHeight,
		Tile:   cfg.Meshing.AtlasTile,
	}
	img, err := atlas.LoadImage(cfg.Meshing.AtlasPath, a)
	if errors.Is(err, fs.ErrNotExist) {
		log.Info("block atlas not found, using generated colors", zap.String("path", cfg.Meshing.AtlasPath))
		img = atlas.Procedural(a)
	} else if err != nil {
		return nil, err
	}

	glyphs, err := atlas.BakeGlyphs(atlas.DefaultFont(), fontPixels)
	if err != nil {
		return nil, err
	}

	h, _ := cfg.RenderRadius()
	fogEnd := float32(h * world.ChunkSize)
	camera := graphics.NewCamera(cfg.Window.Width, cfg.Window.Height, cfg.Window.FOV)
	camera.FarPlane = fogEnd + 2*world.ChunkSize

	blocksRenderer := blocks.NewBlocks(img, fogEnd*0.7, fogEnd, sess.Prof)
	hudRenderer := hud.NewHUD(glyphs, cfg.Window.Width, cfg.Window.Height, sess.Prof)
	r, err := renderer.NewRenderer(camera, sess.Prof,
		blocksRenderer,
		wireframe.NewWireframe(sess.Prof),
		crosshair.NewCrosshair(sess.Prof),
		hudRenderer,
	)
	if err != nil {
		return nil, err
	}
	return &Components{Renderer: r, Blocks: blocksRenderer, HUD: hudRenderer}, nil
}
