package database

import (
	"database/sql"
	"fmt"

	"clockout.service/internal/config"
	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// NewInstrumentedConnection creates a database connection with OpenTelemetry instrumentation.
func NewInstrumentedConnection(cfg config.Config) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)

	// otelsql.Open wraps the driver to intercept queries and create spans
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		db, err = otelsql.Open("sqlite3", SQLiteDSN(cfg.SQLitePath),
			otelsql.WithAttributes(semconv.DBSystemSqlite),
		)
		if err == nil {
			configureSQLite(db)
		}
	case config.StorePostgres:
		db, err = otelsql.Open("pgx", PostgresDSN(cfg),
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithSQLCommenter(true),
		)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
