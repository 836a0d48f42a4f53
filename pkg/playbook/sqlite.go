package playbook

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/XiaoConstantine/ace-go/pkg/errors"
	"github.com/XiaoConstantine/ace-go/pkg/logging"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists playbook snapshots in a SQLite database. It carries
// the same information as the JSON snapshot; the section index is rebuilt on
// load from the stored bullets.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string

	initialized sync.Once
}

// NewSQLiteStore opens (or creates) a snapshot database. If path is
// ":memory:", the database lives in-memory.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.WithFields(
			errors.Wrap(err, errors.StorageFailed, "failed to open SQLite database"),
			errors.Fields{"path": path},
		)
	}

	store := &SQLiteStore{
		db:   db,
		path: path,
	}
	if err := store.ensureInitialized(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) ensureInitialized() error {
	var initErr error
	s.initialized.Do(func() {
		// WAL mode for better concurrency
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			initErr = errors.Wrap(err, errors.StorageFailed, "failed to enable WAL mode")
			return
		}

		query := `
        CREATE TABLE IF NOT EXISTS playbook_bullets (
            id TEXT PRIMARY KEY,
            position INTEGER NOT NULL,
            section TEXT NOT NULL,
            kind TEXT NOT NULL,
            content TEXT NOT NULL,
            helpful_count INTEGER NOT NULL DEFAULT 0,
            harmful_count INTEGER NOT NULL DEFAULT 0,
            created_at TEXT NOT NULL,
            updated_at TEXT NOT NULL,
            metadata TEXT
        );

        CREATE INDEX IF NOT EXISTS idx_playbook_bullets_position
        ON playbook_bullets(position);
        `

		if _, err := s.db.Exec(query); err != nil {
			initErr = errors.WithFields(
				errors.Wrap(err, errors.StorageFailed, "failed to initialize database"),
				errors.Fields{"path": s.path},
			)
			return
		}
	})
	return initErr
}

// Save replaces the stored snapshot with the playbook's current state.
func (s *SQLiteStore) Save(ctx context.Context, p *Playbook) error {
	if err := errors.CheckContext(ctx, "sqlite save"); err != nil {
		return err
	}

	snap := p.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to begin transaction")
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			logging.GetLogger().Error(ctx, "failed to rollback snapshot transaction: %v", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM playbook_bullets"); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to clear snapshot")
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO playbook_bullets
            (id, position, section, kind, content, helpful_count, harmful_count, created_at, updated_at, metadata)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to prepare insert")
	}
	defer stmt.Close()

	for i, b := range snap.Bullets {
		var metadata []byte
		if len(b.Metadata) > 0 {
			metadata, err = json.Marshal(b.Metadata)
			if err != nil {
				return errors.WithFields(
					errors.Wrap(err, errors.StorageFailed, "failed to marshal bullet metadata"),
					errors.Fields{"bullet_id": b.ID},
				)
			}
		}

		_, err = stmt.ExecContext(ctx,
			b.ID, i, b.Section, string(b.Kind), b.Content,
			b.HelpfulCount, b.HarmfulCount,
			b.CreatedAt.UTC().Format(time.RFC3339Nano),
			b.UpdatedAt.UTC().Format(time.RFC3339Nano),
			nullableString(metadata),
		)
		if err != nil {
			return errors.WithFields(
				errors.Wrap(err, errors.StorageFailed, "failed to insert bullet"),
				errors.Fields{"bullet_id": b.ID},
			)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.StorageFailed, "failed to commit snapshot")
	}
	return nil
}

// Load reconstructs a playbook from the stored snapshot. An empty database
// yields an empty playbook.
func (s *SQLiteStore) Load(ctx context.Context, opts ...Option) (*Playbook, error) {
	if err := errors.CheckContext(ctx, "sqlite load"); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, section, kind, content, helpful_count, harmful_count, created_at, updated_at, metadata
        FROM playbook_bullets ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to query snapshot")
	}
	defer rows.Close()

	var snap Snapshot
	for rows.Next() {
		var (
			b                    Bullet
			kind                 string
			createdAt, updatedAt string
			metadata             sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Section, &kind, &b.Content,
			&b.HelpfulCount, &b.HarmfulCount, &createdAt, &updatedAt, &metadata); err != nil {
			return nil, errors.Wrap(err, errors.StorageFailed, "failed to scan bullet row")
		}

		b.Kind = Kind(kind)
		if b.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.StorageFailed, "invalid created_at timestamp"),
				errors.Fields{"bullet_id": b.ID},
			)
		}
		if b.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, errors.WithFields(
				errors.Wrap(err, errors.StorageFailed, "invalid updated_at timestamp"),
				errors.Fields{"bullet_id": b.ID},
			)
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &b.Metadata); err != nil {
				return nil, errors.WithFields(
					errors.Wrap(err, errors.StorageFailed, "invalid bullet metadata"),
					errors.Fields{"bullet_id": b.ID},
				)
			}
		}

		snap.Bullets = append(snap.Bullets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.StorageFailed, "failed to iterate snapshot rows")
	}

	return FromSnapshot(snap, opts...)
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullableString(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return string(data)
}
