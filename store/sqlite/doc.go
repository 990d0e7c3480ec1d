// Package sqlite provides a SQLite-backed store.ProjectStore using
// github.com/mattn/go-sqlite3 (cgo).
//
// The schema is created on open. Timestamps are stored as Unix nanoseconds
// and documents as JSON text.
//
//	s, err := sqlite.NewSqliteProjectStore(sqlite.SqliteOptions{Path: "decks.db"})
//	if err != nil {
//		return err
//	}
//	defer s.Close()
package sqlite
