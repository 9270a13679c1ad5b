package meshing

import (
	"sync"

	"voxelstream/internal/world"
)

// MeshResult is the outcome of one meshing job.
type MeshResult struct {
	Key   world.Key
	Mesh  MeshData
	Stamp uint64
}

// UploadQueue hands finished meshes from workers to the render thread.
// A newer result for a key replaces the queued one in place.
type UploadQueue struct {
	mu    sync.Mutex
	order []world.Key
	items map[world.Key]MeshResult
	ready chan struct{}
}

func NewUploadQueue() *UploadQueue {
	return &UploadQueue{
		items: make(map[world.Key]MeshResult),
		ready: make(chan struct{}, 1),
	}
}

// Push queues r. It never blocks.
func (q *UploadQueue) Push(r MeshResult) {
	q.mu.Lock()
	if _, ok := q.items[r.Key]; !ok {
		q.order = append(q.order, r.Key)
	}
	q.items[r.Key] = r
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Drain removes up to max results in arrival order. max <= 0 drains all.
func (q *UploadQueue) Drain(max int) []MeshResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []MeshResult
	i := 0
	for ; i < len(q.order); i++ {
		if max > 0 && len(out) >= max {
			break
		}
		k := q.order[i]
		r, ok := q.items[k]
		if !ok {
			// cancelled
			continue
		}
		delete(q.items, k)
		out = append(out, r)
	}
	q.order = append(q.order[:0], q.order[i:]...)
	return out
}

// Cancel drops a pending result, if any.
func (q *UploadQueue) Cancel(key world.Key) {
	q.mu.Lock()
	delete(q.items, key)
	q.mu.Unlock()
}

// Len returns the number of pending results.
func (q *UploadQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready is signalled after a push. It is a hint; Drain may still return
// nothing.
func (q *UploadQueue) Ready() <-chan struct{} {
	return q.ready
}
