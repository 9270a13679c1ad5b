package meshing

import (
	"sync"
	"testing"
	"time"

	"voxelstream/internal/world"
)

func result(x int, stamp uint64) MeshResult {
	c := world.ChunkCoord{X: x}
	return MeshResult{Key: c.Key(), Mesh: MeshData{Coord: c}, Stamp: stamp}
}

func TestUploadQueueNewestWins(t *testing.T) {
	q := NewUploadQueue()
	q.Push(result(1, 1))
	q.Push(result(2, 1))
	q.Push(result(1, 2))

	if q.Len() != 2 {
		t.Fatalf("Expected 2 pending, got %d", q.Len())
	}
	out := q.Drain(0)
	if len(out) != 2 {
		t.Fatalf("Expected 2 drained, got %d", len(out))
	}
	if out[0].Mesh.Coord.X != 1 || out[0].Stamp != 2 {
		t.Errorf("Expected replaced result to keep its position with the new stamp, got %+v", out[0])
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue after drain")
	}
}

func TestUploadQueueDrainLimitAndCancel(t *testing.T) {
	q := NewUploadQueue()
	for i := 0; i < 5; i++ {
		q.Push(result(i, 1))
	}
	q.Cancel(result(1, 0).Key)

	first := q.Drain(2)
	if len(first) != 2 || first[0].Mesh.Coord.X != 0 || first[1].Mesh.Coord.X != 2 {
		t.Fatalf("Unexpected first batch %+v", first)
	}
	rest := q.Drain(10)
	if len(rest) != 2 {
		t.Fatalf("Expected 2 remaining, got %d", len(rest))
	}
}

func TestUploadQueueReady(t *testing.T) {
	q := NewUploadQueue()
	go q.Push(result(0, 1))
	select {
	case <-q.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("Ready was never signalled")
	}
}

type collectSink struct {
	mu  sync.Mutex
	got []MeshResult
	wg  *sync.WaitGroup
}

func (s *collectSink) Deliver(r MeshResult) {
	s.mu.Lock()
	s.got = append(s.got, r)
	s.mu.Unlock()
	s.wg.Done()
}

func TestWorkerPoolBuildsJobs(t *testing.T) {
	var wg sync.WaitGroup
	sink := &collectSink{wg: &wg}
	pool := NewWorkerPool(2, 8, DefaultAtlas, sink, nil, nil)
	defer pool.Shutdown()

	for i := 0; i < 4; i++ {
		c := world.NewChunk(i, 0, 0)
		c.SetGenerated(0, 0, 0, world.BlockData{ID: world.BlockStone})
		wg.Add(1)
		if !pool.SubmitJob(MeshJob{Chunk: c, Stamp: uint64(i)}) {
			t.Fatalf("SubmitJob %d refused", i)
		}
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for meshes")
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, r := range sink.got {
		if r.Mesh.FaceCount() != 6 {
			t.Errorf("chunk %v: got %d faces", r.Mesh.Coord, r.Mesh.FaceCount())
		}
		if r.Key != r.Mesh.Coord.Key() {
			t.Errorf("result key does not match its mesh")
		}
	}
}

func TestWorkerPoolRefusesAfterShutdown(t *testing.T) {
	var wg sync.WaitGroup
	pool := NewWorkerPool(1, 1, DefaultAtlas, &collectSink{wg: &wg}, nil, nil)
	pool.Shutdown()
	if pool.SubmitJob(MeshJob{Chunk: world.NewChunk(0, 0, 0)}) {
		t.Errorf("Expected submit after shutdown to be refused")
	}
}
