package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDSN appends the connection options every sqlite handle uses.
func SQLiteDSN(path string) string {
	return path + "?_foreign_keys=1&_busy_timeout=5000&_journal_mode=WAL"
}

// NewSQLiteConnection opens a single-writer sqlite database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", SQLiteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	configureSQLite(db)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	return db, nil
}

// sqlite allows one writer; an in-memory database also only lives as long
// as its single connection.
func configureSQLite(db *sql.DB) {
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
}
