// Package sqlite persists computed hover indices in a small embedded
// SQL store keyed by a hash of the source text that produced them, so a
// repeated hover request for an unchanged open file is served without
// re-parsing. Its bootstrap and error-mapping idiom — sql.Open("sqlite",
// ...), a table created on first use, sqlite error codes folded into the
// server layer's serr sentinels — uses modernc.org/sqlite, which needs no
// cgo toolchain.
// Cached index values are REZI-encoded and base64-wrapped before they hit a
// TEXT column.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/tusmolang/tusmoc/internal/hover"
	"github.com/tusmolang/tusmoc/server/serr"
	"modernc.org/sqlite"
)

// Cache stores computed hover.Index values keyed by the sha256 of the
// source text that produced them.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the cache database file under
// storageDir.
func Open(storageDir string) (*Cache, error) {
	fileName := filepath.Join(storageDir, "hover_cache.db")

	db, err := sql.Open("sqlite", fileName)
	if err != nil {
		return nil, wrapDBError(err)
	}

	c := &Cache{db: db}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.db.Exec(`
		CREATE TABLE IF NOT EXISTS hover_cache (
			hash        TEXT PRIMARY KEY,
			filename    TEXT NOT NULL,
			index_rezi  TEXT NOT NULL,
			created_at  INTEGER NOT NULL
		)
	`)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key computes the cache key for a piece of source text: the hex-encoded
// sha256 of its bytes.
func Key(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// Put stores idx under key, overwriting whatever was previously cached
// there (a resubmission of identical source is idempotent; the content hash
// guarantees the index itself would be identical too).
func (c *Cache) Put(ctx context.Context, key, filename string, idx hover.Index) error {
	encIndex := base64.StdEncoding.EncodeToString(rezi.EncBinary(idx))

	_, err := c.db.ExecContext(ctx, `
		INSERT INTO hover_cache (hash, filename, index_rezi, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET filename=excluded.filename, index_rezi=excluded.index_rezi, created_at=excluded.created_at
	`, key, filename, encIndex, time.Now().Unix())
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// Get retrieves a previously cached index by its key. When no entry exists
// for key, the returned error matches serr.ErrNotFound under errors.Is.
func (c *Cache) Get(ctx context.Context, key string) (hover.Index, error) {
	row := c.db.QueryRowContext(ctx, `SELECT index_rezi FROM hover_cache WHERE hash = ?`, key)

	var encIndex string
	if err := row.Scan(&encIndex); err != nil {
		return nil, wrapDBError(err)
	}

	data, err := base64.StdEncoding.DecodeString(encIndex)
	if err != nil {
		return nil, fmt.Errorf("decode cached index: %w", err)
	}

	idx := hover.Index{}
	n, err := rezi.DecBinary(data, &idx)
	if err != nil {
		return nil, fmt.Errorf("REZI decode cached index: %w", err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(data))
	}
	return idx, nil
}

// wrapDBError folds driver-level failures into the server layer's typed
// error: sqlite error codes keep their human-readable name, a no-rows scan
// becomes serr.ErrNotFound (without serr.ErrDB), and every other failure
// carries serr.ErrDB so handlers can branch on origin with errors.Is.
func wrapDBError(err error) error {
	sqliteErr := &sqlite.Error{}
	if errors.As(err, &sqliteErr) {
		return serr.WrapDB(sqlite.ErrorCodeString[sqliteErr.Code()], err)
	} else if errors.Is(err, sql.ErrNoRows) {
		return serr.New("no cached index for that key", serr.ErrNotFound)
	}
	return serr.WrapDB("", err)
}
