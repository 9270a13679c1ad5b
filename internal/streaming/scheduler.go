// Package streaming keeps the chunks around a moving observer generated,
// meshed and flushed to storage.
//
// Locks are always taken in the order chunk store, then the scheduler's
// pending state, then the upload queue. The store's lock is internal to
// world.ChunkStore, so the scheduler never calls into the store while it
// holds its own mutex.
package streaming

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"voxelstream/internal/meshing"
	"voxelstream/internal/profiling"
	"voxelstream/internal/storage"
	"voxelstream/internal/world"
)

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("scheduler closed")

// State is the lifecycle stage of a chunk key. Evicted keys have no state.
type State uint8

const (
	StateUnseen State = iota
	StateQueued
	StateGenerating
	StateLoaded
	StateMeshing
	StateMeshed
)

func (s State) String() string {
	switch s {
	case StateQueued:
		return "queued"
	case StateGenerating:
		return "generating"
	case StateLoaded:
		return "loaded"
	case StateMeshing:
		return "meshing"
	case StateMeshed:
		return "meshed"
	}
	return "unseen"
}

// Persister loads and flushes chunk modification overlays.
// *storage.Codec implements it.
type Persister interface {
	Save(c *world.Chunk, seed int64) (bool, error)
	Load(c *world.Chunk, seed int64) (int, error)
}

// Options configures a Scheduler.
type Options struct {
	Render     Radius
	Seed       int64
	GenWorkers int
	// GenRate limits chunk generation per second; 0 means unlimited.
	GenRate     float64
	GenBurst    int
	MeshWorkers int
	MeshQueue   int
	Atlas       meshing.Atlas
}

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	Resident   int `json:"resident"`
	Loaded     int `json:"loaded"`
	Queued     int `json:"queued"`
	Generating int `json:"generating"`
	Meshing    int `json:"meshing"`
	Meshed     int `json:"meshed"`
	Dirty      int `json:"dirty"`
	Uploads    int `json:"uploads"`
	Evicted    int `json:"evicted"`
	Generated  int `json:"generated"`
}

// Scheduler streams chunks around the observer.
type Scheduler struct {
	store   *world.ChunkStore
	gen     world.TerrainGenerator
	persist Persister
	uploads *meshing.UploadQueue
	pool    *meshing.WorkerPool
	limiter *rate.Limiter
	opts    Options
	log     *zap.Logger
	prof    *profiling.Profiler

	// mu guards everything below: the pending-mesh and generation state.
	mu        sync.Mutex
	observer  mgl32.Vec3
	center    world.ChunkCoord
	hasCenter bool
	states    map[world.Key]State
	backlog   []world.ChunkCoord
	meshQueue []world.Key
	queuedMsh map[world.Key]struct{}
	stamps    map[world.Key]uint64
	dirty     map[world.Key]struct{}
	nextStamp uint64
	evicted   int
	generated int
	busy      int // coordinates popped but not yet published

	genWake  chan struct{}
	meshWake chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// New starts the generation workers and the mesh dispatcher.
func New(store *world.ChunkStore, gen world.TerrainGenerator, persist Persister, uploads *meshing.UploadQueue, opts Options, log *zap.Logger, prof *profiling.Profiler) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.GenWorkers < 1 {
		opts.GenWorkers = 1
	}
	if opts.GenBurst < 1 {
		opts.GenBurst = 1
	}
	if opts.MeshQueue < 1 {
		opts.MeshQueue = 64
	}
	if opts.Atlas == (meshing.Atlas{}) {
		opts.Atlas = meshing.DefaultAtlas
	}
	limit := rate.Inf
	if opts.GenRate > 0 {
		limit = rate.Limit(opts.GenRate)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		store:     store,
		gen:       gen,
		persist:   persist,
		uploads:   uploads,
		limiter:   rate.NewLimiter(limit, opts.GenBurst),
		opts:      opts,
		log:       log.Named("streaming"),
		prof:      prof,
		states:    make(map[world.Key]State),
		queuedMsh: make(map[world.Key]struct{}),
		stamps:    make(map[world.Key]uint64),
		dirty:     make(map[world.Key]struct{}),
		genWake:   make(chan struct{}, 1),
		meshWake:  make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.pool = meshing.NewWorkerPool(opts.MeshWorkers, opts.MeshQueue, opts.Atlas, s, log, prof)

	for i := 0; i < opts.GenWorkers; i++ {
		s.wg.Add(1)
		go s.genWorker(i)
	}
	s.wg.Add(1)
	go s.meshDispatcher()
	return s
}

// Render returns the render radius.
func (s *Scheduler) Render() Radius {
	return s.opts.Render
}

// ObserverChunk returns the chunk cell the observer was last seen in.
func (s *Scheduler) ObserverChunk() world.ChunkCoord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.center
}

// State returns the lifecycle stage of coord.
func (s *Scheduler) State(coord world.ChunkCoord) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[coord.Key()]
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func observerCell(p mgl32.Vec3) world.ChunkCoord {
	return world.BlockToChunk(
		int(math.Round(float64(p.X()))),
		int(math.Round(float64(p.Y()))),
		int(math.Round(float64(p.Z()))),
	)
}

// Update records the observer position. When the observer enters a new
// chunk cell, chunks outside the load radius are flushed and evicted and
// the missing ones inside it are queued nearest first. Meshed chunks that
// left the render radius go back to the dirty set. It never waits on
// workers. The keys of evicted and hidden chunks are returned so the caller
// can free their GPU meshes.
func (s *Scheduler) Update(observer mgl32.Vec3) []world.Key {
	defer s.prof.Track("streaming.Update")()
	cell := observerCell(observer)

	s.mu.Lock()
	s.observer = observer
	if s.closed || (s.hasCenter && cell == s.center) {
		s.mu.Unlock()
		return nil
	}
	s.center = cell
	s.hasCenter = true
	s.mu.Unlock()

	load := s.opts.Render.Load()
	evicted := s.evictOutside(cell, load)
	evicted = append(evicted, s.hideOutside(cell)...)
	s.enqueueMissing(cell, load)
	s.promoteDirty(cell)
	return evicted
}

// hideOutside demotes meshing or meshed chunks outside the render radius
// so they are remeshed once it covers them again.
func (s *Scheduler) hideOutside(center world.ChunkCoord) []world.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []world.Key
	for k, st := range s.states {
		if st != StateMeshing && st != StateMeshed {
			continue
		}
		if s.opts.Render.Contains(center, k.Decode()) {
			continue
		}
		s.states[k] = StateLoaded
		delete(s.stamps, k)
		delete(s.queuedMsh, k)
		s.dirty[k] = struct{}{}
		s.uploads.Cancel(k)
		keys = append(keys, k)
	}
	return keys
}

func (s *Scheduler) evictOutside(center world.ChunkCoord, load Radius) []world.Key {
	gone := s.store.EraseIf(func(c world.ChunkCoord) bool {
		return !load.Contains(center, c)
	})
	if len(gone) == 0 {
		return nil
	}

	keys := make([]world.Key, 0, len(gone))
	for _, c := range gone {
		log := s.log.With(zap.Int("cx", c.Coord.X), zap.Int("cy", c.Coord.Y), zap.Int("cz", c.Coord.Z))
		wrote, err := s.persist.Save(c, s.opts.Seed)
		if err != nil {
			log.Error("flush on eviction failed", zap.Error(err))
		} else if wrote {
			log.Debug("flushed evicted chunk", zap.Int("entries", c.ModifiedCount()))
		}
		keys = append(keys, c.Key())
	}

	s.mu.Lock()
	for _, k := range keys {
		s.forgetLocked(k)
	}
	s.evicted += len(keys)
	s.mu.Unlock()
	return keys
}

// forgetLocked drops every trace of k. s.mu must be held.
func (s *Scheduler) forgetLocked(k world.Key) {
	delete(s.states, k)
	delete(s.stamps, k)
	delete(s.dirty, k)
	delete(s.queuedMsh, k)
	s.uploads.Cancel(k)
}

func (s *Scheduler) enqueueMissing(center world.ChunkCoord, load Radius) {
	coords := load.Coords(center)
	missing := coords[:0]
	for _, c := range coords {
		if !s.store.Contains(c.Key()) {
			missing = append(missing, c)
		}
	}

	s.mu.Lock()
	// Queued coordinates not re-listed below fall out of the backlog.
	for _, c := range s.backlog {
		if s.states[c.Key()] == StateQueued {
			delete(s.states, c.Key())
		}
	}
	s.backlog = s.backlog[:0]
	for _, c := range missing {
		k := c.Key()
		switch s.states[k] {
		case StateGenerating, StateLoaded, StateMeshing, StateMeshed:
			continue
		}
		s.states[k] = StateQueued
		s.backlog = append(s.backlog, c)
	}
	n := len(s.backlog)
	s.mu.Unlock()

	if n > 0 {
		signal(s.genWake)
	}
}

// promoteDirty sends dirty chunks that are now inside the render radius to
// the mesher.
func (s *Scheduler) promoteDirty(center world.ChunkCoord) {
	s.mu.Lock()
	var candidates []world.ChunkCoord
	for k := range s.dirty {
		c := k.Decode()
		if s.opts.Render.Contains(center, c) {
			candidates = append(candidates, c)
		}
	}
	s.mu.Unlock()
	if len(candidates) > 0 {
		s.requestMeshes(candidates, false)
	}
}

// nextCoord pops the nearest queued coordinate, dropping those that left
// the load radius. It waits until work arrives or the scheduler closes.
func (s *Scheduler) nextCoord() (world.ChunkCoord, bool) {
	for {
		s.mu.Lock()
		load := s.opts.Render.Load()
		for len(s.backlog) > 0 {
			c := s.backlog[0]
			s.backlog = s.backlog[1:]
			k := c.Key()
			if s.states[k] != StateQueued {
				continue
			}
			if !load.Contains(s.center, c) {
				delete(s.states, k)
				continue
			}
			s.states[k] = StateGenerating
			s.busy++
			s.mu.Unlock()
			return c, true
		}
		s.mu.Unlock()

		select {
		case <-s.genWake:
		case <-s.ctx.Done():
			return world.ChunkCoord{}, false
		}
	}
}

func (s *Scheduler) genWorker(id int) {
	defer s.wg.Done()
	log := s.log.With(zap.Int("worker", id))
	log.Debug("generation worker started")
	defer log.Debug("generation worker stopped")

	for {
		coord, ok := s.nextCoord()
		if !ok {
			return
		}
		if err := s.limiter.Wait(s.ctx); err != nil {
			s.mu.Lock()
			delete(s.states, coord.Key())
			s.busy--
			s.mu.Unlock()
			return
		}
		s.generate(coord)
		s.mu.Lock()
		s.busy--
		s.mu.Unlock()
		// more work may be waiting behind a single wake-up
		signal(s.genWake)
	}
}

// generate builds coord, merges its saved modifications and publishes it.
// The chunk is never visible in the store before it is complete.
func (s *Scheduler) generate(coord world.ChunkCoord) {
	defer s.prof.Track("streaming.generate")()
	key := coord.Key()

	c := world.NewChunk(coord.X, coord.Y, coord.Z)
	s.gen.Generate(c)
	if _, err := s.persist.Load(c, s.opts.Seed); err != nil && !errors.Is(err, storage.ErrNoSaveData) {
		s.log.Error("load saved chunk failed",
			zap.Int("cx", coord.X), zap.Int("cy", coord.Y), zap.Int("cz", coord.Z), zap.Error(err))
	}

	inserted := s.store.Insert(key, c)
	if inserted {
		s.store.MarkLoaded(key)
	}

	s.mu.Lock()
	// Eviction forgets the key, so anything but Generating means the
	// chunk was flushed out of the store while this worker held it.
	evicted := s.states[key] != StateGenerating
	stale := !s.opts.Render.Load().Contains(s.center, coord)
	if !evicted && !stale {
		s.states[key] = StateLoaded
		if inserted {
			s.generated++
		}
		s.mu.Unlock()
	} else {
		s.mu.Unlock()
		if inserted && stale {
			if old, ok := s.store.Erase(key); ok {
				if _, err := s.persist.Save(old, s.opts.Seed); err != nil {
					s.log.Error("flush of stale chunk failed", zap.Error(err))
				}
			}
		}
		s.mu.Lock()
		if s.states[key] == StateGenerating {
			s.forgetLocked(key)
		}
		// The observer may have come back while the chunk was flushed.
		requeued := s.requeueLocked(coord)
		s.mu.Unlock()
		if requeued {
			signal(s.genWake)
		}
		return
	}

	candidates := make([]world.ChunkCoord, 0, 7)
	candidates = append(candidates, coord)
	for _, f := range world.AllFaces {
		candidates = append(candidates, coord.Neighbor(f))
	}
	s.requestMeshes(candidates, false)
}

// requeueLocked puts coord at the front of the backlog when it is inside
// the load radius and not already waiting. s.mu must be held.
func (s *Scheduler) requeueLocked(coord world.ChunkCoord) bool {
	k := coord.Key()
	if s.closed || !s.hasCenter || s.states[k] != StateUnseen {
		return false
	}
	if !s.opts.Render.Load().Contains(s.center, coord) {
		return false
	}
	s.states[k] = StateQueued
	s.backlog = append([]world.ChunkCoord{coord}, s.backlog...)
	return true
}

// requestMeshes queues the candidates that are ready to mesh. A chunk is
// ready when it is loaded and, unless force is set, all six neighbours are
// loaded too. Ready chunks outside the render radius go to the dirty set.
func (s *Scheduler) requestMeshes(candidates []world.ChunkCoord, force bool) {
	ready := candidates[:0:0]
	for _, c := range candidates {
		k := c.Key()
		if !s.store.IsLoaded(k) {
			continue
		}
		if !force && !s.store.NeighborsLoaded(c) {
			continue
		}
		ready = append(ready, c)
	}
	if len(ready) == 0 {
		return
	}

	queued := 0
	s.mu.Lock()
	for _, c := range ready {
		k := c.Key()
		st := s.states[k]
		if st == StateUnseen || st == StateQueued || st == StateGenerating {
			continue
		}
		if !force && (st == StateMeshing || st == StateMeshed) {
			continue
		}
		if !s.opts.Render.Contains(s.center, c) {
			s.dirty[k] = struct{}{}
			continue
		}
		delete(s.dirty, k)
		s.nextStamp++
		s.stamps[k] = s.nextStamp
		s.states[k] = StateMeshing
		if _, ok := s.queuedMsh[k]; !ok {
			s.queuedMsh[k] = struct{}{}
			s.meshQueue = append(s.meshQueue, k)
		}
		queued++
	}
	s.mu.Unlock()

	if queued > 0 {
		signal(s.meshWake)
	}
}

// Remesh rebuilds a loaded chunk right away, without waiting for its
// neighbours. Edits use it.
func (s *Scheduler) Remesh(coord world.ChunkCoord) {
	s.requestMeshes([]world.ChunkCoord{coord}, true)
}

func (s *Scheduler) nextMeshKey() (world.Key, uint64, bool) {
	for {
		s.mu.Lock()
		for len(s.meshQueue) > 0 {
			k := s.meshQueue[0]
			s.meshQueue = s.meshQueue[1:]
			if _, ok := s.queuedMsh[k]; !ok {
				continue
			}
			delete(s.queuedMsh, k)
			stamp := s.stamps[k]
			s.mu.Unlock()
			return k, stamp, true
		}
		s.mu.Unlock()

		select {
		case <-s.meshWake:
		case <-s.ctx.Done():
			return 0, 0, false
		}
	}
}

// meshDispatcher feeds the mesh worker pool with explicit neighbour
// pointers. Chunks evicted meanwhile stay alive through the job's
// references; their results are dropped by stamp.
func (s *Scheduler) meshDispatcher() {
	defer s.wg.Done()
	for {
		k, stamp, ok := s.nextMeshKey()
		if !ok {
			return
		}
		c, ok := s.store.Get(k)
		if !ok {
			continue
		}
		job := meshing.MeshJob{
			Chunk:     c,
			Neighbors: s.store.Neighbors(c.Coord),
			Stamp:     stamp,
		}
		if !s.pool.SubmitJobBlocking(s.ctx, job) {
			return
		}
	}
}

// Deliver implements meshing.ResultSink. Results whose stamp no longer
// matches the latest request for the chunk are discarded.
func (s *Scheduler) Deliver(r meshing.MeshResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.stamps[r.Key]; !ok || cur != r.Stamp {
		return
	}
	s.states[r.Key] = StateMeshed
	s.uploads.Push(r)
}

// Stats returns the current counters.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Resident: s.store.Len(),
		Loaded:   s.store.LoadedCount(),
	}
	s.mu.Lock()
	for _, state := range s.states {
		switch state {
		case StateQueued:
			st.Queued++
		case StateGenerating:
			st.Generating++
		case StateMeshing:
			st.Meshing++
		case StateMeshed:
			st.Meshed++
		}
	}
	st.Dirty = len(s.dirty)
	st.Evicted = s.evicted
	st.Generated = s.generated
	st.Uploads = s.uploads.Len()
	s.mu.Unlock()
	return st
}

// Idle reports whether no generation or meshing work is outstanding.
func (s *Scheduler) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy > 0 {
		return false
	}
	for _, state := range s.states {
		switch state {
		case StateQueued, StateGenerating, StateMeshing:
			return false
		}
	}
	return true
}

// FlushAll saves the modifications of every resident chunk.
func (s *Scheduler) FlushAll() error {
	defer s.prof.Track("streaming.FlushAll")()
	var errs []error
	saved := 0
	for _, c := range s.store.All() {
		wrote, err := s.persist.Save(c, s.opts.Seed)
		if err != nil {
			errs = append(errs, fmt.Errorf("chunk %d,%d,%d: %w", c.Coord.X, c.Coord.Y, c.Coord.Z, err))
			continue
		}
		if wrote {
			saved++
		}
	}
	s.log.Info("flushed resident chunks", zap.Int("saved", saved), zap.Int("failed", len(errs)))
	return errors.Join(errs...)
}

// Close stops the workers, letting in-flight chunks finish, and flushes
// every resident chunk.
func (s *Scheduler) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		s.pool.Shutdown()
		close(done)
	}()

	var waitErr error
	select {
	case <-done:
	case <-ctx.Done():
		waitErr = fmt.Errorf("waiting for workers: %w", ctx.Err())
	}
	return errors.Join(waitErr, s.FlushAll())
}
