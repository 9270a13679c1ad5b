// Package game wires the streaming core into a session: storage, the
// scheduler, the edit pipeline and the per-frame tick shared by the
// windowed viewer and the headless runner.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"voxelstream/internal/config"
	"voxelstream/internal/edit"
	"voxelstream/internal/meshing"
	"voxelstream/internal/physics"
	"voxelstream/internal/profiling"
	"voxelstream/internal/registry"
	"voxelstream/internal/storage"
	"voxelstream/internal/storage/indexdb"
	"voxelstream/internal/streaming"
	"voxelstream/internal/telemetry"
	"voxelstream/internal/world"
)

// Session owns every component of a running world. Nothing in it is
// global: two sessions can run side by side.
type Session struct {
	ID     string
	Config config.Config
	Log    *zap.Logger
	Prof   *profiling.Profiler

	Blocks  *registry.Registry
	Store   *world.ChunkStore
	Gen     world.TerrainGenerator
	Codec   *storage.Codec
	Index   *indexdb.SQLiteIndex // nil when storage.index_path is empty
	Uploads *meshing.UploadQueue
	Sched   *streaming.Scheduler
	Edit    *edit.Pipeline

	mu       sync.Mutex
	observer mgl32.Vec3
	aim      physics.Hit
	frames   uint64
	closed   bool
}

// Frame is the outcome of one Tick.
type Frame struct {
	// Evicted holds chunks whose GPU meshes must be freed.
	Evicted []world.Key
	// Meshes are finished meshes to upload, at most UploadsPerFrame.
	Meshes []meshing.MeshResult
	// Aim is the block under the crosshair.
	Aim physics.Hit
}

// NewSession builds a session from cfg. The scheduler starts immediately
// but queues nothing until the first Tick.
func NewSession(cfg config.Config, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	id := uuid.NewString()
	log = log.With(zap.String("session", id))
	prof := profiling.New()

	blocks := registry.Default()
	hotbar, err := hotbarFromConfig(blocks, cfg.Edit.Hotbar)
	if err != nil {
		return nil, err
	}

	codec := storage.NewCodec(cfg.World.SaveDir, log)
	var index *indexdb.SQLiteIndex
	if cfg.Storage.IndexPath != "" {
		index, err = indexdb.OpenSQLite(cfg.Storage.IndexPath, log)
		if err != nil {
			return nil, fmt.Errorf("open save index: %w", err)
		}
		codec.SetObserver(index)
	}

	store := world.NewChunkStore(prof)
	gen := cfg.NewGenerator()
	uploads := meshing.NewUploadQueue()
	h, v := cfg.RenderRadius()
	sched := streaming.New(store, gen, codec, uploads, streaming.Options{
		Render:      streaming.Radius{H: h, V: v},
		Seed:        cfg.World.Seed,
		GenWorkers:  cfg.Streaming.GenWorkers,
		GenRate:     cfg.Streaming.GenRate,
		GenBurst:    cfg.Streaming.GenBurst,
		MeshWorkers: cfg.Meshing.Workers,
		MeshQueue:   cfg.Meshing.QueueSize,
		Atlas: meshing.Atlas{
			Width:  cfg.Meshing.AtlasWidth,
			Height: cfg.Meshing.AtlasHeight,
			Tile:   cfg.Meshing.AtlasTile,
		},
	}, log, prof)

	pipeline := edit.NewPipeline(store, sched, blocks, log)
	pipeline.SetHotbar(hotbar)

	log.Info("session started",
		zap.Int64("seed", cfg.World.Seed),
		zap.String("generator", cfg.World.Generator),
		zap.Int("render_h", h), zap.Int("render_v", v))

	return &Session{
		ID:      id,
		Config:  cfg,
		Log:     log,
		Prof:    prof,
		Blocks:  blocks,
		Store:   store,
		Gen:     gen,
		Codec:   codec,
		Index:   index,
		Uploads: uploads,
		Sched:   sched,
		Edit:    pipeline,
	}, nil
}

func hotbarFromConfig(blocks *registry.Registry, names []string) (edit.Hotbar, error) {
	h := edit.DefaultHotbar()
	for i, name := range names {
		id, ok := blocks.ByName(name)
		if !ok {
			return h, fmt.Errorf("hotbar slot %d: unknown block %q", i+1, name)
		}
		if d := blocks.Get(id); !d.Placeable {
			return h, fmt.Errorf("hotbar slot %d: %q is not placeable", i+1, name)
		}
		h.Slots[i] = id
	}
	return h, nil
}

// Spawn returns a standing position above the terrain at the origin.
func (s *Session) Spawn() mgl32.Vec3 {
	return mgl32.Vec3{0, float32(s.Gen.HeightAt(0, 0)) + 2, 0}
}

// Tick advances streaming for the observer at eye position pos looking
// along dir, casts the crosshair ray and drains ready meshes.
func (s *Session) Tick(pos, dir mgl32.Vec3) Frame {
	defer s.Prof.Track("session.Tick")()

	s.mu.Lock()
	s.observer = pos
	s.frames++
	s.mu.Unlock()

	var f Frame
	f.Evicted = s.Sched.Update(pos)

	func() {
		defer s.Prof.Track("physics.Raycast")()
		f.Aim = physics.Raycast(pos, dir, physics.MaxReachDistance, s.Store)
	}()
	s.Edit.Aim(f.Aim)
	s.mu.Lock()
	s.aim = f.Aim
	s.mu.Unlock()

	f.Meshes = s.Uploads.Drain(s.Config.Streaming.UploadsPerFrame)
	return f
}

// Aim returns the hit recorded by the last Tick.
func (s *Session) Aim() physics.Hit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aim
}

// Break clears the block under the crosshair.
func (s *Session) Break() bool {
	return s.Edit.Break(s.Aim())
}

// Place puts the selected block against the face under the crosshair.
// It refuses to place into the observer's own body.
func (s *Session) Place(feet mgl32.Vec3) bool {
	hit := s.Aim()
	if !hit.Hit {
		return false
	}
	at := hit.Adjacent()
	if physics.OverlapsBlock(feet, physics.ObserverHeight, at) {
		return false
	}
	return s.Edit.Place(hit)
}

// Pick selects the material under the crosshair.
func (s *Session) Pick() bool {
	return s.Edit.Pick(s.Aim())
}

// Snapshot reports the session state for telemetry.
func (s *Session) Snapshot() telemetry.Snapshot {
	s.mu.Lock()
	obs := s.observer
	s.mu.Unlock()
	c := s.Sched.ObserverChunk()

	prof := make(map[string]float64)
	for k, d := range s.Prof.Snapshot() {
		prof[k] = float64(d) / float64(time.Millisecond)
	}
	return telemetry.Snapshot{
		Session:  s.ID,
		Time:     time.Now().UTC(),
		Observer: [3]float32{obs.X(), obs.Y(), obs.Z()},
		Chunk:    [3]int{c.X, c.Y, c.Z},
		Stats:    s.Sched.Stats(),
		Profile:  prof,
	}
}

// Frames returns the number of ticks so far.
func (s *Session) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Close stops streaming, flushes every resident chunk and closes the
// save index.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	errs := []error{s.Sched.Close(ctx)}
	if s.Index != nil {
		errs = append(errs, s.Index.Flush(ctx), s.Index.Close())
	}
	err := errors.Join(errs...)
	if err != nil {
		s.Log.Error("session closed with errors", zap.Error(err))
	} else {
		s.Log.Info("session closed", zap.Uint64("frames", s.Frames()))
	}
	return err
}
