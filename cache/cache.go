// Package cache stores compiled template trees and rendered output between
// runs.  Entries are addressed by kind and name and carry a fingerprint of the
// inputs they were computed from; a lookup with a different fingerprint is a
// miss.
package cache

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Kind separates the artifacts of the two compilation stages.
type Kind string

const (
	Parsers   Kind = "parsers"   // encoded template trees
	Templates Kind = "templates" // rendered output
)

var (
	// ErrMiss is returned by Get when there is no entry, or the entry was
	// computed from different inputs.
	ErrMiss = errors.New("cache: miss")

	// ErrCorrupt is returned (wrapped) by Get when an entry exists but cannot
	// be decoded.  Callers treat it as a miss.
	ErrCorrupt = errors.New("cache: corrupt entry")
)

// Store persists artifacts.  Implementations are safe for concurrent use.
type Store interface {
	// Get returns the payload stored under kind and name if its fingerprint
	// matches hash.
	Get(ctx context.Context, kind Kind, name, hash string) ([]byte, error)
	// Put stores payload under kind and name, replacing any existing entry.
	Put(ctx context.Context, kind Kind, name, hash string, payload []byte) error
	// Invalidate removes every entry stored under name.
	Invalidate(ctx context.Context, name string) error
	Close() error
}

// Fingerprint returns the hex HMAC-SHA256 of the given inputs under secret.
// Each input is length prefixed, so moving bytes from one input to the next
// changes the result.
func Fingerprint(secret []byte, inputs ...[]byte) string {
	var mac = hmac.New(sha256.New, secret)
	var size [8]byte
	for _, in := range inputs {
		binary.BigEndian.PutUint64(size[:], uint64(len(in)))
		mac.Write(size[:])
		mac.Write(in)
	}
	return hex.EncodeToString(mac.Sum(nil))
}

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open returns the store for the named backend.  The file and sqlite backends
// keep their data under dir.
func Open(ctx context.Context, backend, dir string) (Store, error) {
	switch backend {
	case "", BackendNone:
		return Nop{}, nil
	case BackendMemory:
		return NewMemory(), nil
	case BackendFile:
		return NewFileStore(dir)
	case BackendSQLite:
		return OpenSQLite(ctx, dir)
	}
	return nil, fmt.Errorf("cache: unknown backend %q", backend)
}

// Nop stores nothing.
type Nop struct{}

func (Nop) Get(context.Context, Kind, string, string) ([]byte, error) { return nil, ErrMiss }
func (Nop) Put(context.Context, Kind, string, string, []byte) error   { return nil }
func (Nop) Invalidate(context.Context, string) error                  { return nil }
func (Nop) Close() error                                              { return nil }

// compress gzips the payload.
func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	var zw = gzip.NewWriter(&buf)
	if _, err := zw.Write(payload); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(compressed []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return payload, nil
}
