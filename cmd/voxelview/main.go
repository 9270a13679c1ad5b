// Command voxelview is the windowed viewer: it streams the world around a
// first-person observer and draws it with OpenGL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"

	"voxelstream/internal/config"
	"voxelstream/internal/game"
	"voxelstream/internal/logging"
	"voxelstream/internal/telemetry"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	cfgPath := flag.String("config", "", "YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging:", err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := glfw.Init(); err != nil {
		log.Fatal("glfw init", zap.Error(err))
	}
	defer glfw.Terminate()

	window, err := setupWindow(cfg.Window)
	if err != nil {
		log.Fatal("create window", zap.Error(err))
	}

	sess, err := game.NewSession(cfg, log)
	if err != nil {
		log.Fatal("start session", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Telemetry.Addr != "" {
		hub := telemetry.NewHub(sess.Snapshot, cfg.Telemetry.Interval, log)
		go func() {
			if err := hub.Serve(ctx, cfg.Telemetry.Addr); err != nil {
				log.Error("telemetry", zap.Error(err))
			}
		}()
	}

	comps, err := setupRenderer(cfg, sess, log)
	if err != nil {
		log.Fatal("renderer", zap.Error(err))
	}

	loop := NewGameLoop(window, sess, comps, cfg)
	setupInputHandlers(window, loop)
	loop.Run()

	cancel()
	comps.Renderer.Dispose()
	closeCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := sess.Close(closeCtx); err != nil {
		log.Error("close session", zap.Error(err))
	}
}
