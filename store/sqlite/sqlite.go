package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
)

// SqliteProjectStore implements store.ProjectStore using SQLite
type SqliteProjectStore struct {
	db        *sql.DB
	tableName string
}

var _ store.ProjectStore = (*SqliteProjectStore)(nil)

// SqliteOptions configuration for SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "projects"
}

// NewSqliteProjectStore opens the database and creates the schema
func NewSqliteProjectStore(opts SqliteOptions) (*SqliteProjectStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	tableName := opts.TableName
	if tableName == "" {
		tableName = "projects"
	}

	s := &SqliteProjectStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the necessary table if it doesn't exist
func (s *SqliteProjectStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			objective_count INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at);
	`, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SqliteProjectStore) Close() error {
	return s.db.Close()
}

// Save upserts a project
func (s *SqliteProjectStore) Save(ctx context.Context, p *research.Project) error {
	data, err := store.Marshal(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, topic, objective_count, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic = excluded.topic,
			objective_count = excluded.objective_count,
			data = excluded.data,
			updated_at = excluded.updated_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		p.ID,
		p.Topic,
		len(p.Objectives),
		string(data),
		p.CreatedAt.UnixNano(),
		p.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// Load retrieves a project by ID
func (s *SqliteProjectStore) Load(ctx context.Context, id string) (*research.Project, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE id = ?", s.tableName)

	var data string
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.NotFound(id)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return store.Unmarshal([]byte(data))
}

// List returns project summaries, newest first
func (s *SqliteProjectStore) List(ctx context.Context) ([]store.Summary, error) {
	query := fmt.Sprintf("SELECT id, topic, objective_count, created_at, updated_at FROM %s", s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := []store.Summary{}
	for rows.Next() {
		var sum store.Summary
		var created, updated int64
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Objectives, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		sum.UpdatedAt = time.Unix(0, updated).UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	store.SortSummaries(out)
	return out, nil
}

// Delete removes a project
func (s *SqliteProjectStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.tableName)
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
