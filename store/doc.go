// Package store persists research projects so they can be reopened,
// regenerated and exported after the run that produced them.
//
// Every backend implements ProjectStore:
//
//	type ProjectStore interface {
//	    Save(ctx context.Context, p *research.Project) error
//	    Load(ctx context.Context, id string) (*research.Project, error)
//	    List(ctx context.Context) ([]Summary, error)
//	    Delete(ctx context.Context, id string) error
//	}
//
// Available backends:
//   - memory: process-local map, the default for the HTTP host and tests
//   - file: one JSON document per project in a directory
//   - redis: JSON documents plus a sorted index by update time
//   - postgres: JSONB rows through a pgx pool
//   - sqlite: TEXT rows through database/sql and go-sqlite3
//
// Load returns an error wrapping ErrNotFound for unknown ids, whatever the
// backend. List is ordered by most recent update first.
package store
