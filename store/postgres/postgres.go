package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
)

// DBPool defines the interface for database connection pool
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresProjectStore implements store.ProjectStore using PostgreSQL
type PostgresProjectStore struct {
	pool      DBPool
	tableName string
}

var _ store.ProjectStore = (*PostgresProjectStore)(nil)

// PostgresOptions configuration for Postgres connection
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "projects"
}

// NewPostgresProjectStore creates a new Postgres project store
func NewPostgresProjectStore(ctx context.Context, opts PostgresOptions) (*PostgresProjectStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}
	return NewPostgresProjectStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresProjectStoreWithPool creates a new Postgres project store with an existing pool
// Useful for testing with mocks
func NewPostgresProjectStoreWithPool(pool DBPool, tableName string) *PostgresProjectStore {
	if tableName == "" {
		tableName = "projects"
	}
	return &PostgresProjectStore{
		pool:      pool,
		tableName: tableName,
	}
}

// InitSchema creates the necessary table if it doesn't exist
func (s *PostgresProjectStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		topic TEXT NOT NULL,
		objective_count INTEGER NOT NULL,
		data JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_%s_updated_at ON %s (updated_at DESC);`,
		s.tableName, s.tableName, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresProjectStore) Close() {
	s.pool.Close()
}

// Save upserts a project
func (s *PostgresProjectStore) Save(ctx context.Context, p *research.Project) error {
	data, err := store.Marshal(p)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("INSERT INTO %s (id, topic, objective_count, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6) "+
		"ON CONFLICT (id) DO UPDATE SET topic = EXCLUDED.topic, objective_count = EXCLUDED.objective_count, "+
		"data = EXCLUDED.data, updated_at = EXCLUDED.updated_at", s.tableName)

	_, err = s.pool.Exec(ctx, query,
		p.ID,
		p.Topic,
		len(p.Objectives),
		data,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

// Load retrieves a project by ID
func (s *PostgresProjectStore) Load(ctx context.Context, id string) (*research.Project, error) {
	query := fmt.Sprintf("SELECT data FROM %s WHERE id = $1", s.tableName)

	var data []byte
	if err := s.pool.QueryRow(ctx, query, id).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.NotFound(id)
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return store.Unmarshal(data)
}

// List returns project summaries, newest first
func (s *PostgresProjectStore) List(ctx context.Context) ([]store.Summary, error) {
	query := fmt.Sprintf("SELECT id, topic, objective_count, created_at, updated_at FROM %s ORDER BY updated_at DESC, id ASC", s.tableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	out := []store.Summary{}
	for rows.Next() {
		var sum store.Summary
		if err := rows.Scan(&sum.ID, &sum.Topic, &sum.Objectives, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}
	return out, nil
}

// Delete removes a project
func (s *PostgresProjectStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName)
	if _, err := s.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
