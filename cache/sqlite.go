package cache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteFile is the database file name used inside the cache directory.
const SQLiteFile = "bracket-cache.sqlite"

// SQLiteStore keeps entries in a single SQLite database, migrated with goose
// on open.  Payloads are stored gzipped.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if necessary) the cache database in dir and
// applies any pending migrations.
func OpenSQLite(ctx context.Context, dir string) (*SQLiteStore, error) {
	if dir == "" {
		return nil, errors.New("cache: sqlite store requires a directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, SQLiteFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, kind Kind, name, hash string) ([]byte, error) {
	var (
		stored     string
		compressed []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT hash, payload FROM artifacts WHERE kind = ? AND name = ?`,
		string(kind), name).Scan(&stored, &compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	if stored != hash {
		return nil, ErrMiss
	}
	return decompress(compressed)
}

func (s *SQLiteStore) Put(ctx context.Context, kind Kind, name, hash string, payload []byte) error {
	compressed, err := compress(payload)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (kind, name, hash, payload, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (kind, name) DO UPDATE SET
			hash = excluded.hash,
			payload = excluded.payload,
			modified_at = excluded.modified_at`,
		string(kind), name, hash, compressed, s.now().Unix())
	return err
}

func (s *SQLiteStore) Invalidate(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE name = ?`, name)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
