// Package backup archives the saved chunk files of a world into a single
// zstd-compressed tar stream and restores them.
package backup

import (
	"archive/tar"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"voxelstream/internal/storage"
)

const manifestName = "manifest.json"

// Manifest is the first member of every archive.
type Manifest struct {
	ID        string    `json:"id"`
	Seed      int64     `json:"seed"`
	Files     int       `json:"files"`
	CreatedAt time.Time `json:"created_at"`
}

// Export writes every chunk file of seed under codec's directory to w.
func Export(ctx context.Context, codec *storage.Codec, seed int64, w io.Writer) (Manifest, error) {
	coords, err := codec.List(seed)
	if err != nil {
		return Manifest{}, fmt.Errorf("list chunks: %w", err)
	}

	m := Manifest{
		ID:        uuid.NewString(),
		Seed:      seed,
		Files:     len(coords),
		CreatedAt: time.Now().UTC(),
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return Manifest{}, err
	}
	tw := tar.NewWriter(enc)

	mb, _ := json.Marshal(m)
	if err := writeMember(tw, manifestName, mb, m.CreatedAt); err != nil {
		enc.Close()
		return Manifest{}, err
	}

	for _, c := range coords {
		if err := ctx.Err(); err != nil {
			enc.Close()
			return Manifest{}, err
		}
		path := codec.Path(c, seed)
		data, err := os.ReadFile(path)
		if err != nil {
			enc.Close()
			return Manifest{}, fmt.Errorf("read %s: %w", path, err)
		}
		if err := writeMember(tw, storage.FileName(c), data, m.CreatedAt); err != nil {
			enc.Close()
			return Manifest{}, err
		}
	}

	if err := tw.Close(); err != nil {
		enc.Close()
		return Manifest{}, err
	}
	if err := enc.Close(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func writeMember(tw *tar.Writer, name string, data []byte, mod time.Time) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: mod,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("tar header %s: %w", name, err)
	}
	_, err := tw.Write(data)
	return err
}

// Import restores an archive produced by Export into codec's directory.
// Every restored file is validated with the chunk decoder first; invalid
// members are skipped and reported in the returned count of skipped files.
func Import(ctx context.Context, codec *storage.Codec, r io.Reader) (Manifest, int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return Manifest{}, 0, err
	}
	defer dec.Close()

	tr := tar.NewReader(dec)
	var (
		m       Manifest
		haveMan bool
		skipped int
	)
	for {
		if err := ctx.Err(); err != nil {
			return m, skipped, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return m, skipped, fmt.Errorf("read archive: %w", err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return m, skipped, err
		}

		if hdr.Name == manifestName {
			if err := json.Unmarshal(data, &m); err != nil {
				return m, skipped, fmt.Errorf("manifest: %w", err)
			}
			haveMan = true
			continue
		}
		if !haveMan {
			return m, skipped, errors.New("archive does not start with a manifest")
		}

		name := filepath.Base(hdr.Name)
		coord, ok := storage.ParseFileName(name)
		if !ok || strings.Contains(hdr.Name, "..") {
			skipped++
			continue
		}
		if err := codec.Restore(coord, m.Seed, data); err != nil {
			if errors.Is(err, storage.ErrNoSaveData) {
				skipped++
				continue
			}
			return m, skipped, fmt.Errorf("restore %s: %w", name, err)
		}
	}
	if !haveMan {
		return m, skipped, errors.New("archive has no manifest")
	}
	return m, skipped, nil
}
