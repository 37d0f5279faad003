// Package sqlite caches list snapshots in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/ochairo/slime/internal/domain/entities"
	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces/repositories"
)

const (
	bucketFindings = "findings"
	bucketProjects = "projects"
)

// SnapshotRepository stores each list snapshot as a JSON payload in a single
// state table, one row per bucket.
type SnapshotRepository struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ repositories.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository opens (or creates) the cache database at path.
func NewSnapshotRepository(path string) (*SnapshotRepository, error) {
	if path == "" {
		path = "slime-cache.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return &SnapshotRepository{db: db, path: path, now: time.Now}, nil
}

// SaveFindings implements repositories.SnapshotRepository.
func (r *SnapshotRepository) SaveFindings(ctx context.Context, findings []entities.Finding) error {
	return r.save(ctx, bucketFindings, findings)
}

// LoadFindings implements repositories.SnapshotRepository.
func (r *SnapshotRepository) LoadFindings(ctx context.Context) (*repositories.Snapshot[entities.Finding], error) {
	return load[entities.Finding](ctx, r.db, bucketFindings)
}

// SaveProjects implements repositories.SnapshotRepository.
func (r *SnapshotRepository) SaveProjects(ctx context.Context, projects []entities.Project) error {
	return r.save(ctx, bucketProjects, projects)
}

// LoadProjects implements repositories.SnapshotRepository.
func (r *SnapshotRepository) LoadProjects(ctx context.Context) (*repositories.Snapshot[entities.Project], error) {
	return load[entities.Project](ctx, r.db, bucketProjects)
}

// Close implements repositories.SnapshotRepository.
func (r *SnapshotRepository) Close() error {
	return r.db.Close()
}

// Path returns the database path.
func (r *SnapshotRepository) Path() string { return r.path }

func (r *SnapshotRepository) save(ctx context.Context, bucket string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		return errs.Wrap(errs.KindParseError, "Save"+bucket, err)
	}
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO state(bucket,payload,updated_at) VALUES(?,?,?)
		 ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		bucket, data, r.now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert %s: %w", bucket, err)
	}
	return nil
}

func load[T any](ctx context.Context, db *sql.DB, bucket string) (*repositories.Snapshot[T], error) {
	var (
		payload   []byte
		updatedAt int64
	)
	err := db.QueryRowContext(ctx, `SELECT payload, updated_at FROM state WHERE bucket = ?`, bucket).
		Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.New(errs.KindNotFound, "Load"+bucket, "no cached "+bucket)
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", bucket, err)
	}

	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, errs.Wrap(errs.KindParseError, "Load"+bucket, fmt.Errorf("decode %s: %w", bucket, err))
	}
	return &repositories.Snapshot[T]{Items: items, FetchedAt: time.UnixMilli(updatedAt)}, nil
}
