package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"voxelstream/internal/world"
)

// ErrNoSaveData means a chunk has no usable persisted modifications.
var ErrNoSaveData = errors.New("no save data")

const (
	fileExt   = ".chunk"
	entrySize = 8 + 1 + 1
)

// SaveObserver is told about every chunk file written or removed.
type SaveObserver interface {
	Saved(coord world.ChunkCoord, seed int64, entries int)
	Removed(coord world.ChunkCoord, seed int64)
}

// Codec persists the modification overlay of chunks as one binary file per
// chunk under <dir>/<seed>/<cx>_<cy>_<cz>.chunk.
//
// File layout, little-endian:
//
//	u64 count
//	count × { u64 localKey, u8 id, u8 rotation }
type Codec struct {
	dir      string
	log      *zap.Logger
	observer SaveObserver
}

// NewCodec creates a codec rooted at dir (usually "worlds").
func NewCodec(dir string, log *zap.Logger) *Codec {
	if log == nil {
		log = zap.NewNop()
	}
	return &Codec{dir: dir, log: log.Named("storage")}
}

// SetObserver installs an observer notified after successful writes.
func (c *Codec) SetObserver(o SaveObserver) {
	c.observer = o
}

// Dir returns the root directory.
func (c *Codec) Dir() string {
	return c.dir
}

// SeedDir returns the directory holding the chunk files of one seed.
func (c *Codec) SeedDir(seed int64) string {
	return filepath.Join(c.dir, strconv.FormatInt(seed, 10))
}

// Path returns the file path of a chunk.
func (c *Codec) Path(coord world.ChunkCoord, seed int64) string {
	return filepath.Join(c.SeedDir(seed), FileName(coord))
}

// FileName returns the base name of a chunk file.
func FileName(coord world.ChunkCoord) string {
	return fmt.Sprintf("%d_%d_%d%s", coord.X, coord.Y, coord.Z, fileExt)
}

// ParseFileName is the inverse of FileName.
func ParseFileName(name string) (world.ChunkCoord, bool) {
	base, ok := strings.CutSuffix(name, fileExt)
	if !ok {
		return world.ChunkCoord{}, false
	}
	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return world.ChunkCoord{}, false
	}
	var v [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return world.ChunkCoord{}, false
		}
		v[i] = n
	}
	return world.ChunkCoord{X: v[0], Y: v[1], Z: v[2]}, true
}

// Save writes the chunk's modifications. It is a no-op returning false when
// the chunk has none.
func (c *Codec) Save(ch *world.Chunk, seed int64) (bool, error) {
	mods := ch.Modified()
	if len(mods) == 0 {
		return false, nil
	}

	path := c.Path(ch.Coord, seed)
	if err := writeAtomic(path, func(w io.Writer) error { return Encode(w, mods) }); err != nil {
		return false, err
	}
	if c.observer != nil {
		c.observer.Saved(ch.Coord, seed, len(mods))
	}
	return true, nil
}

// Restore writes an already encoded chunk file, as read from a backup.
// data must decode cleanly; it is not rewritten.
func (c *Codec) Restore(coord world.ChunkCoord, seed int64, data []byte) error {
	entries, err := Decode(bytes.NewReader(data), nil)
	if err != nil {
		return err
	}
	path := c.Path(coord, seed)
	if err := writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}); err != nil {
		return err
	}
	if c.observer != nil {
		c.observer.Saved(coord, seed, len(entries))
	}
	return nil
}

// writeAtomic writes path through a temp file in the same directory so a
// crash never leaves a truncated chunk file.
func writeAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create save dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".chunk-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// Encode writes a modification map in the chunk file layout.
func Encode(w io.Writer, mods map[uint64]world.BlockData) error {
	bw := bufio.NewWriter(w)
	var buf [entrySize]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(len(mods)))
	if _, err := bw.Write(buf[:8]); err != nil {
		return err
	}
	for k, v := range mods {
		binary.LittleEndian.PutUint64(buf[:8], k)
		buf[8] = byte(v.ID)
		buf[9] = byte(v.Rotation)
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Entry is one decoded record of a chunk file.
type Entry struct {
	X, Y, Z int
	Block   world.BlockData
}

// Decode reads a chunk file. Records with out-of-range coordinates or
// unknown ids are reported through skip and left out. A header declaring
// more entries than a chunk can hold, or a file that ends early, yields
// ErrNoSaveData.
func Decode(r io.Reader, skip func(index int, reason string)) ([]Entry, error) {
	br := bufio.NewReader(r)
	var buf [entrySize]byte
	if _, err := io.ReadFull(br, buf[:8]); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrNoSaveData)
	}
	count := binary.LittleEndian.Uint64(buf[:8])
	if count > world.ChunkVolume {
		return nil, fmt.Errorf("%w: count %d exceeds chunk volume", ErrNoSaveData, count)
	}

	entries := make([]Entry, 0, count)
	for i := 0; i < int(count); i++ {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("%w: truncated at entry %d", ErrNoSaveData, i)
		}
		x, y, z := world.DecodeLocalKey(binary.LittleEndian.Uint64(buf[:8]))
		b := world.BlockData{ID: world.BlockID(buf[8]), Rotation: world.Rotation(buf[9])}
		switch {
		case x < 0 || x >= world.ChunkSize || y < 0 || y >= world.ChunkSize || z < 0 || z >= world.ChunkSize:
			if skip != nil {
				skip(i, "local coordinate out of range")
			}
			continue
		case !b.ID.Valid() || !b.Rotation.Valid():
			if skip != nil {
				skip(i, "unknown block id or rotation")
			}
			continue
		}
		entries = append(entries, Entry{X: x, Y: y, Z: z, Block: b})
	}
	return entries, nil
}

// Load merges the persisted modifications of ch onto its dense grid and
// overlay. It returns the number of applied entries, or ErrNoSaveData when
// the file is missing or unusable.
func (c *Codec) Load(ch *world.Chunk, seed int64) (int, error) {
	path := c.Path(ch.Coord, seed)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNoSaveData
		}
		return 0, fmt.Errorf("%w: %v", ErrNoSaveData, err)
	}
	defer f.Close()

	log := c.log.With(zap.String("path", path))
	entries, err := Decode(f, func(i int, reason string) {
		log.Warn("skipping corrupt chunk entry", zap.Int("index", i), zap.String("reason", reason))
	})
	if err != nil {
		log.Warn("ignoring unreadable chunk file", zap.Error(err))
		return 0, err
	}
	for _, e := range entries {
		ch.SetModified(e.X, e.Y, e.Z, e.Block)
	}
	return len(entries), nil
}

// Remove deletes the file of a chunk, if any.
func (c *Codec) Remove(coord world.ChunkCoord, seed int64) error {
	err := os.Remove(c.Path(coord, seed))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if c.observer != nil {
		c.observer.Removed(coord, seed)
	}
	return nil
}

// List returns the coordinates of every saved chunk of seed.
func (c *Codec) List(seed int64) ([]world.ChunkCoord, error) {
	ents, err := os.ReadDir(c.SeedDir(seed))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var out []world.ChunkCoord
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		if coord, ok := ParseFileName(e.Name()); ok {
			out = append(out, coord)
		}
	}
	return out, nil
}
