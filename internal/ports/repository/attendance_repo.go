package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"clockout.service/internal/config"
	"clockout.service/internal/core/model"
	"clockout.service/pkg/database"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dialect selects the SQL flavour of the underlying *sql.DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

const sqliteSchema = `
create table if not exists attendance (
	id integer primary key autoincrement,
	date text not null unique,
	clock_in_time timestamp,
	clock_out_time timestamp,
	mandated_clock_out timestamp,
	notify_status text not null default 'PENDING',
	notify_retry_count integer not null default 0,
	check (clock_out_time is null or clock_in_time is not null)
);`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS attendance (
	id BIGSERIAL PRIMARY KEY,
	date TEXT NOT NULL UNIQUE,
	clock_in_time TIMESTAMPTZ,
	clock_out_time TIMESTAMPTZ,
	mandated_clock_out TIMESTAMPTZ,
	notify_status TEXT NOT NULL DEFAULT 'PENDING',
	notify_retry_count INTEGER NOT NULL DEFAULT 0,
	CHECK (clock_out_time IS NULL OR clock_in_time IS NOT NULL)
);`

const selectColumns = `id, date, clock_in_time, clock_out_time, mandated_clock_out, notify_status, notify_retry_count`

// AttendanceRepository is the database/sql implementation shared by
// PostgreSQL and SQLite. Queries are written with "?" placeholders and
// rebound for PostgreSQL.
type AttendanceRepository struct {
	DB      *sql.DB
	dialect Dialect
	loc     *time.Location
}

// NewAttendanceRepository wraps an open handle. Timestamps read back are
// converted to loc.
func NewAttendanceRepository(db *sql.DB, dialect Dialect, loc *time.Location) *AttendanceRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceRepository{DB: db, dialect: dialect, loc: loc}
}

// Open connects to the configured store, creates the schema and returns a
// repository the caller must Close.
func Open(ctx context.Context, cfg config.Config) (*AttendanceRepository, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.NewInstrumentedConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	dialect := SQLite
	if cfg.StoreDriver == config.StorePostgres {
		dialect = Postgres
	}

	repo := NewAttendanceRepository(db, dialect, loc)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// Migrate creates the attendance table if it is missing.
func (r *AttendanceRepository) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if r.dialect == Postgres {
		schema = postgresSchema
	}
	if _, err := r.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create attendance schema: %w", err)
	}
	return nil
}

func (r *AttendanceRepository) Close() error {
	return r.DB.Close()
}

// GetByDate fetches the record for one calendar date.
func (r *AttendanceRepository) GetByDate(ctx context.Context, date string) (*model.AttendanceRecord, error) {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.date", date))

	query := `SELECT ` + selectColumns + ` FROM attendance WHERE date = ?`

	rec, err := r.scan(r.DB.QueryRowContext(ctx, r.rebind(query), date))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert creates the record for rec.Date and sets rec.ID.
func (r *AttendanceRepository) Insert(ctx context.Context, rec *model.AttendanceRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.date", rec.Date))

	if rec.NotifyStatus == "" {
		rec.NotifyStatus = model.StatusNotifyPending
	}

	query := `INSERT INTO attendance (date, clock_in_time, clock_out_time, mandated_clock_out, notify_status, notify_retry_count)
              VALUES (?, ?, ?, ?, ?, ?) RETURNING id`

	err := r.DB.QueryRowContext(ctx, r.rebind(query),
		rec.Date,
		nullTime(rec.ClockInTime),
		nullTime(rec.ClockOutTime),
		nullTime(rec.MandatedClockOut),
		rec.NotifyStatus,
		rec.NotifyRetryCount,
	).Scan(&rec.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateDate, rec.Date)
	}
	return err
}

// Update writes the clock times of an existing record.
func (r *AttendanceRepository) Update(ctx context.Context, rec *model.AttendanceRecord) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.date", rec.Date))

	query := `UPDATE attendance
              SET clock_in_time = ?,
                  clock_out_time = ?,
                  mandated_clock_out = ?
              WHERE date = ?`

	res, err := r.DB.ExecContext(ctx, r.rebind(query),
		nullTime(rec.ClockInTime),
		nullTime(rec.ClockOutTime),
		nullTime(rec.MandatedClockOut),
		rec.Date,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// List returns every record ordered by date.
func (r *AttendanceRepository) List(ctx context.Context) ([]model.AttendanceRecord, error) {
	query := `SELECT ` + selectColumns + ` FROM attendance ORDER BY date`

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.AttendanceRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// UpdateNotifyStatus updates the status and retry count of the summary email job.
func (r *AttendanceRepository) UpdateNotifyStatus(ctx context.Context, date string, status model.NotifyStatus, retryCount int) error {
	query := `UPDATE attendance SET notify_status = ?, notify_retry_count = ? WHERE date = ?`

	res, err := r.DB.ExecContext(ctx, r.rebind(query), status, retryCount, date)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *AttendanceRepository) scan(row scanner) (*model.AttendanceRecord, error) {
	var (
		rec                     model.AttendanceRecord
		clockIn, clockOut, mand sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.Date, &clockIn, &clockOut, &mand, &rec.NotifyStatus, &rec.NotifyRetryCount)
	if err != nil {
		return nil, err
	}

	rec.ClockInTime = timePtr(clockIn)
	rec.ClockOutTime = timePtr(clockOut)
	rec.MandatedClockOut = timePtr(mand)
	rec.In(r.loc)
	return &rec, nil
}

// rebind turns "?" placeholders into "$n" for PostgreSQL.
func (r *AttendanceRepository) rebind(query string) string {
	if r.dialect != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
