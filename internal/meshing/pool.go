package meshing

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"voxelstream/internal/profiling"
	"voxelstream/internal/world"
)

// MeshJob represents a meshing job request
type MeshJob struct {
	Chunk     *world.Chunk
	Neighbors [6]*world.Chunk
	// Stamp is echoed in the result so the receiver can drop stale builds.
	Stamp uint64
}

// ResultSink receives finished meshes. It must not block.
type ResultSink interface {
	Deliver(MeshResult)
}

// WorkerPool manages goroutines for mesh generation
type WorkerPool struct {
	jobQueue chan MeshJob
	workers  int
	atlas    Atlas
	sink     ResultSink
	log      *zap.Logger
	prof     *profiling.Profiler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWorkerPool creates a new mesh worker pool
func NewWorkerPool(workers, queueSize int, atlas Atlas, sink ResultSink, log *zap.Logger, prof *profiling.Profiler) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		jobQueue: make(chan MeshJob, queueSize),
		workers:  workers,
		atlas:    atlas,
		sink:     sink,
		log:      log.Named("mesher"),
		prof:     prof,
		ctx:      ctx,
		cancel:   cancel,
	}

	for i := range workers {
		pool.wg.Add(1)
		go pool.worker(i)
	}
	return pool
}

// SubmitJob submits a mesh generation job to the pool
// Returns true if job was submitted successfully, false if queue is full
func (p *WorkerPool) SubmitJob(job MeshJob) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// SubmitJobBlocking submits a job and blocks until it's queued or ctx ends.
func (p *WorkerPool) SubmitJobBlocking(ctx context.Context, job MeshJob) bool {
	select {
	case p.jobQueue <- job:
		return true
	case <-ctx.Done():
		return false
	case <-p.ctx.Done():
		return false
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	log := p.log.With(zap.Int("worker", id))
	log.Debug("mesh worker started")

	for {
		select {
		case job := <-p.jobQueue:
			p.run(job)
		case <-p.ctx.Done():
			log.Debug("mesh worker stopped")
			return
		}
	}
}

func (p *WorkerPool) run(job MeshJob) {
	defer p.prof.Track("mesher.Build")()
	mesh := Build(job.Chunk, job.Neighbors, p.atlas)
	p.sink.Deliver(MeshResult{
		Key:   job.Chunk.Key(),
		Mesh:  mesh,
		Stamp: job.Stamp,
	})
}

// Shutdown stops the workers after their current job and waits for them.
// Queued jobs are discarded.
func (p *WorkerPool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}

// GetQueueLength returns the current number of jobs in the queue
func (p *WorkerPool) GetQueueLength() int {
	return len(p.jobQueue)
}
