package main

import (
	"context"
	"flag"
	"time"

	"github.com/xlab/closer"
	"go.uber.org/zap"

	"voxelstream/internal/game"
	"voxelstream/internal/observer"
	"voxelstream/internal/telemetry"
)

func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "", "YAML config file (optional)")
	duration := fs.Duration("duration", 0, "stop after this long (0 = until interrupted)")
	tickRate := fs.Int("tps", 20, "ticks per second")
	heading := fs.Float64("heading", 0, "walking direction in degrees, 0 = +X")
	telemetryAddr := fs.String("telemetry", "", "override telemetry.addr")
	_ = fs.Parse(args)

	cfg, log := loadConfig(*cfgPath)
	if *telemetryAddr != "" {
		cfg.Telemetry.Addr = *telemetryAddr
	}

	sess, err := game.NewSession(cfg, log)
	if err != nil {
		log.Fatal("start session", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	closer.Bind(func() {
		cancel()
		<-done
		closeCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := sess.Close(closeCtx); err != nil {
			log.Error("close session", zap.Error(err))
		}
		_ = log.Sync()
	})

	if cfg.Telemetry.Addr != "" {
		hub := telemetry.NewHub(sess.Snapshot, cfg.Telemetry.Interval, log)
		go func() {
			if err := hub.Serve(ctx, cfg.Telemetry.Addr); err != nil {
				log.Error("telemetry", zap.Error(err))
			}
		}()
	}

	go func() {
		defer close(done)
		walk(ctx, sess, *tickRate, float32(*heading), *duration, log)
		// Ran out of time rather than being interrupted.
		if ctx.Err() == nil {
			go closer.Close()
		}
	}()
	closer.Hold()
}

// walk flies a scripted observer in a straight line, ticking the session
// at tps until ctx is done or d elapses.
func walk(ctx context.Context, sess *game.Session, tps int, heading float32, d time.Duration, log *zap.Logger) {
	if tps < 1 {
		tps = 1
	}
	obs := observer.New(sess.Spawn())
	obs.Flying = true
	obs.Yaw = float64(heading)
	obs.Pitch = -20

	step := time.Second / time.Duration(tps)
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	var deadline <-chan time.Time
	if d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		deadline = t.C
	}

	last := time.Now()
	intent := observer.Intent{Forward: 1}
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			log.Info("run finished", zap.Uint64("frames", sess.Frames()))
			return
		case <-report.C:
			st := sess.Sched.Stats()
			log.Info("streaming",
				zap.Float32("x", obs.Position.X()),
				zap.Float32("z", obs.Position.Z()),
				zap.Int("resident", st.Resident),
				zap.Int("meshed", st.Meshed),
				zap.Int("generated", st.Generated),
				zap.Int("evicted", st.Evicted),
				zap.String("top", sess.Prof.TopN(3)))
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			sess.Prof.ResetFrame()
			obs.Move(dt, intent, sess.Store)
			f := sess.Tick(obs.Eye(), obs.Front())
			// Nothing draws headless; meshes are dropped once counted.
			if len(f.Meshes) > 0 || len(f.Evicted) > 0 {
				log.Debug("frame",
					zap.Int("meshes", len(f.Meshes)),
					zap.Int("evicted", len(f.Evicted)),
					zap.Bool("aim", f.Aim.Hit))
			}
		}
	}
}
