package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/internal/store"
)

// SQLiteMedium stores chunks as rows and embeddings as little-endian float32 BLOBs.
type SQLiteMedium struct {
	db   *sql.DB
	path string
}

// NewSQLiteMedium opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteMedium(dbPath string) (*SQLiteMedium, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteMedium{db: db, path: dbPath}, nil
}

// OpenSQLiteReadOnly opens an existing database without creating or migrating it.
// Save on the returned medium fails.
func OpenSQLiteReadOnly(dbPath string) (*SQLiteMedium, error) {
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("vector store sqlite://%s not found", dbPath)
		}
		return nil, err
	}
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &SQLiteMedium{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS store_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		text TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		embedding BLOB NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Save replaces the stored contents with vs in a single transaction.
func (m *SQLiteMedium) Save(ctx context.Context, vs *store.VectorStore) error {
	if err := vs.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid store: %w", err)
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM store_meta`); err != nil {
		return err
	}

	created := ""
	if !vs.Meta.CreatedAt.IsZero() {
		created = vs.Meta.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	meta := map[string]string{
		"build_id":   vs.Meta.BuildID,
		"model":      vs.Meta.Model,
		"created_at": created,
		"dimensions": fmt.Sprint(vs.Dimensions()),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO store_meta (key, value) VALUES (?, ?)`, k, v); err != nil {
			return err
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (position, id, text, source, embedding) VALUES (?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range vs.Chunks {
		if _, err := stmt.ExecContext(ctx, i, c.ID, c.Text, c.Source, store.EncodeVector(vs.Embeddings[i])); err != nil {
			return fmt.Errorf("failed to insert chunk %q: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// Load reads all chunks in position order. A database that was never saved to is an error.
func (m *SQLiteMedium) Load(ctx context.Context) (*store.VectorStore, error) {
	meta, err := m.readMeta(ctx)
	if err != nil {
		return nil, err
	}
	if _, ok := meta["build_id"]; !ok {
		return nil, fmt.Errorf("no vector store saved in %s", m.path)
	}

	vs := &store.VectorStore{}
	vs.Meta.BuildID = meta["build_id"]
	vs.Meta.Model = meta["model"]
	if s := meta["created_at"]; s != "" {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at %q: %w", s, err)
		}
		vs.Meta.CreatedAt = t
	}

	rows, err := m.db.QueryContext(ctx,
		`SELECT id, text, source, embedding FROM chunks ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var c models.Chunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Text, &c.Source, &blob); err != nil {
			return nil, err
		}
		vec, err := store.DecodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("chunk %q: %w", c.ID, err)
		}
		vs.Chunks = append(vs.Chunks, c)
		vs.Embeddings = append(vs.Embeddings, vec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := vs.Validate(); err != nil {
		return nil, err
	}
	return vs, nil
}

func (m *SQLiteMedium) readMeta(ctx context.Context) (map[string]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT key, value FROM store_meta`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

func (m *SQLiteMedium) Location() string { return "sqlite://" + m.path }

func (m *SQLiteMedium) Path() string { return m.path }

// Close closes the database connection.
func (m *SQLiteMedium) Close() error {
	return m.db.Close()
}
