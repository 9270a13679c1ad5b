package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"voxelstream/internal/world"
)

// timeLayout is fixed-width so saved_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrClosed is returned by queries after Close.
var ErrClosed = errors.New("index closed")

// SQLiteIndex records which chunks have persisted modifications. It is a
// secondary index: the chunk files stay the source of truth. Writes go
// through a single writer goroutine so savers never block on the database.
type SQLiteIndex struct {
	db  *sql.DB
	log *zap.Logger

	mu   sync.RWMutex // guards ch against send-after-close
	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqSaved reqKind = iota + 1
	reqRemoved
	reqBarrier
)

type req struct {
	kind    reqKind
	coord   world.ChunkCoord
	seed    int64
	entries int
	at      time.Time
	done    chan struct{}
}

// Row is one indexed chunk.
type Row struct {
	Coord   world.ChunkCoord
	Seed    int64
	Entries int
	SavedAt time.Time
}

// OpenSQLite opens or creates the index database at path.
func OpenSQLite(path string, log *zap.Logger) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db:  db,
		log: log.Named("indexdb"),
		ch:  make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			seed INTEGER NOT NULL,
			key INTEGER NOT NULL,
			cx INTEGER NOT NULL,
			cy INTEGER NOT NULL,
			cz INTEGER NOT NULL,
			entries INTEGER NOT NULL,
			saved_at TEXT NOT NULL,
			PRIMARY KEY (seed, key)
		);`,
		`CREATE INDEX IF NOT EXISTS chunks_saved_at ON chunks(seed, saved_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Saved queues an upsert. It never blocks; when the queue is full the
// update is dropped and counted.
func (s *SQLiteIndex) Saved(coord world.ChunkCoord, seed int64, entries int) {
	s.enqueue(req{kind: reqSaved, coord: coord, seed: seed, entries: entries, at: time.Now().UTC()})
}

// Removed queues a delete.
func (s *SQLiteIndex) Removed(coord world.ChunkCoord, seed int64) {
	s.enqueue(req{kind: reqRemoved, coord: coord, seed: seed})
}

func (s *SQLiteIndex) enqueue(r req) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns the number of updates lost to a full queue.
func (s *SQLiteIndex) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *SQLiteIndex) loop() {
	for r := range s.ch {
		var err error
		switch r.kind {
		case reqSaved:
			_, err = s.db.Exec(
				`INSERT INTO chunks(seed, key, cx, cy, cz, entries, saved_at) VALUES(?,?,?,?,?,?,?)
				 ON CONFLICT(seed, key) DO UPDATE SET entries=excluded.entries, saved_at=excluded.saved_at`,
				r.seed, int64(r.coord.Key()), r.coord.X, r.coord.Y, r.coord.Z, r.entries, r.at.Format(timeLayout),
			)
		case reqRemoved:
			_, err = s.db.Exec(`DELETE FROM chunks WHERE seed=? AND key=?`, r.seed, int64(r.coord.Key()))
		case reqBarrier:
			close(r.done)
		}
		if err != nil {
			s.log.Error("index write failed",
				zap.Int("cx", r.coord.X), zap.Int("cy", r.coord.Y), zap.Int("cz", r.coord.Z),
				zap.Error(err))
		}
	}
}

// Flush waits until every update queued so far has been written.
func (s *SQLiteIndex) Flush(ctx context.Context) error {
	done := make(chan struct{})
	s.mu.RLock()
	if s.closed.Load() {
		s.mu.RUnlock()
		return ErrClosed
	}
	select {
	case s.ch <- req{kind: reqBarrier, done: done}:
	case <-ctx.Done():
		s.mu.RUnlock()
		return ctx.Err()
	}
	s.mu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count returns the number of indexed chunks of seed.
func (s *SQLiteIndex) Count(ctx context.Context, seed int64) (int, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE seed=?`, seed).Scan(&n)
	return n, err
}

// Lookup returns the index row of one chunk.
func (s *SQLiteIndex) Lookup(ctx context.Context, coord world.ChunkCoord, seed int64) (Row, bool, error) {
	if s.closed.Load() {
		return Row{}, false, ErrClosed
	}
	var (
		row     Row
		savedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT cx, cy, cz, entries, saved_at FROM chunks WHERE seed=? AND key=?`,
		seed, int64(coord.Key()),
	).Scan(&row.Coord.X, &row.Coord.Y, &row.Coord.Z, &row.Entries, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, err
	}
	row.Seed = seed
	row.SavedAt, _ = time.Parse(timeLayout, savedAt)
	return row, true, nil
}

// Recent lists the most recently saved chunks of seed, newest first.
func (s *SQLiteIndex) Recent(ctx context.Context, seed int64, limit int) ([]Row, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT cx, cy, cz, entries, saved_at FROM chunks WHERE seed=? ORDER BY saved_at DESC LIMIT ?`,
		seed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r       Row
			savedAt string
		)
		if err := rows.Scan(&r.Coord.X, &r.Coord.Y, &r.Coord.Z, &r.Entries, &savedAt); err != nil {
			return nil, err
		}
		r.Seed = seed
		r.SavedAt, _ = time.Parse(timeLayout, savedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close drains pending writes and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.mu.Lock()
		s.closed.Store(true)
		close(s.ch)
		s.mu.Unlock()
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}
