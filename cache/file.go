package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// FileStore keeps one file per entry:
//
//	<dir>/<kind>/<escaped name>.<kind>.cache
//
// holding a JSON envelope with the fingerprint and the gzipped, base64
// encoded payload.
type FileStore struct {
	dir string
	now func() time.Time
}

type envelope struct {
	Hash       string `json:"hash"`
	Data       string `json:"data"`
	ModifiedAt int64  `json:"modifiedAt"`
}

// NewFileStore returns a store rooted at dir, creating it if necessary.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache: file store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) path(kind Kind, name string) string {
	return filepath.Join(s.dir, string(kind), url.PathEscape(name)+"."+string(kind)+".cache")
}

func (s *FileStore) Get(_ context.Context, kind Kind, name, hash string) ([]byte, error) {
	b, err := os.ReadFile(s.path(kind, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	if env.Hash != hash {
		return nil, ErrMiss
	}
	compressed, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, name, err)
	}
	return decompress(compressed)
}

// Put writes the entry to a temporary file and renames it into place, so
// readers never observe a partial entry.
func (s *FileStore) Put(_ context.Context, kind Kind, name, hash string, payload []byte) error {
	compressed, err := compress(payload)
	if err != nil {
		return err
	}
	b, err := json.Marshal(envelope{
		Hash:       hash,
		Data:       base64.StdEncoding.EncodeToString(compressed),
		ModifiedAt: s.now().Unix(),
	})
	if err != nil {
		return err
	}

	var dest = s.path(kind, name)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".entry-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dest)
}

func (s *FileStore) Invalidate(_ context.Context, name string) error {
	for _, kind := range []Kind{Parsers, Templates} {
		err := os.Remove(s.path(kind, name))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
