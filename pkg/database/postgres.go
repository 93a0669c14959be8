package database

import (
	"database/sql"
	"fmt"

	"clockout.service/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver
)

// PostgresDSN builds the pgx connection string from config.
func PostgresDSN(cfg config.Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

// NewConnection opens the configured store without instrumentation and
// verifies it is reachable.
func NewConnection(cfg config.Config) (*sql.DB, error) {
	if cfg.StoreDriver == config.StoreSQLite {
		return NewSQLiteConnection(cfg.SQLitePath)
	}

	db, err := sql.Open("pgx", PostgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Ping the database to verify the connection is alive
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
