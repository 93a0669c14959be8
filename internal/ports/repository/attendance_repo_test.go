package repository

import (
	"context"
	"testing"
	"time"

	"clockout.service/internal/config"
	"clockout.service/internal/core/model"
	"clockout.service/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cst = time.FixedZone("CST", 8*3600)

func createInMemoryRepo(t *testing.T) *AttendanceRepository {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)

	repo := NewAttendanceRepository(db, SQLite, cst)
	require.NoError(t, repo.Migrate(context.Background()))
	t.Cleanup(func() { repo.Close() })
	return repo
}

func ptr(t time.Time) *time.Time { return &t }

func clock(date, hms string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, date+" "+hms, cst)
	if err != nil {
		panic(err)
	}
	return t
}

// ensure that interface is satisfied
func TestRepositoryInterface(t *testing.T) {
	var _ Repository = (*AttendanceRepository)(nil)
}

func TestInsertAndGetByDate(t *testing.T) {
	ctx := context.Background()
	repo := createInMemoryRepo(t)

	rec := &model.AttendanceRecord{
		Date:             "2024-03-15",
		ClockInTime:      ptr(clock("2024-03-15", "09:45:12")),
		MandatedClockOut: ptr(clock("2024-03-15", "18:59:00")),
	}
	require.NoError(t, repo.Insert(ctx, rec))
	assert.NotZero(t, rec.ID)
	assert.Equal(t, model.StatusNotifyPending, rec.NotifyStatus)

	got, err := repo.GetByDate(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.True(t, got.ClockInTime.Equal(*rec.ClockInTime))
	assert.True(t, got.MandatedClockOut.Equal(*rec.MandatedClockOut))
	assert.Equal(t, cst, got.ClockInTime.Location())
	assert.Nil(t, got.ClockOutTime)
	assert.Equal(t, model.StatusNotifyPending, got.NotifyStatus)
}

func TestGetByDate_NotFound(t *testing.T) {
	repo := createInMemoryRepo(t)

	_, err := repo.GetByDate(context.Background(), "2024-03-15")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInsert_DuplicateDate(t *testing.T) {
	ctx := context.Background()
	repo := createInMemoryRepo(t)

	first := &model.AttendanceRecord{Date: "2024-03-15", ClockInTime: ptr(clock("2024-03-15", "09:00:00"))}
	require.NoError(t, repo.Insert(ctx, first))

	second := &model.AttendanceRecord{Date: "2024-03-15", ClockInTime: ptr(clock("2024-03-15", "09:05:00"))}
	err := repo.Insert(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateDate)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestInsert_ClockOutWithoutClockInRejected(t *testing.T) {
	repo := createInMemoryRepo(t)

	rec := &model.AttendanceRecord{Date: "2024-03-15", ClockOutTime: ptr(clock("2024-03-15", "18:00:00"))}
	assert.Error(t, repo.Insert(context.Background(), rec))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo := createInMemoryRepo(t)

	rec := &model.AttendanceRecord{Date: "2024-03-15", ClockInTime: ptr(clock("2024-03-15", "08:40:00"))}
	require.NoError(t, repo.Insert(ctx, rec))

	rec.ClockOutTime = ptr(clock("2024-03-15", "18:03:09"))
	require.NoError(t, repo.Update(ctx, rec))

	got, err := repo.GetByDate(ctx, "2024-03-15")
	require.NoError(t, err)
	require.NotNil(t, got.ClockOutTime)
	assert.True(t, got.ClockOutTime.Equal(*rec.ClockOutTime))
	assert.InDelta(t, 9.386, got.HoursWorked(), 0.001)
}

func TestUpdate_Missing(t *testing.T) {
	repo := createInMemoryRepo(t)

	err := repo.Update(context.Background(), &model.AttendanceRecord{Date: "2024-03-15"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_OrderedByDate(t *testing.T) {
	ctx := context.Background()
	repo := createInMemoryRepo(t)

	for _, d := range []string{"2024-03-16", "2024-03-14", "2024-03-15"} {
		require.NoError(t, repo.Insert(ctx, &model.AttendanceRecord{Date: d, ClockInTime: ptr(clock(d, "09:10:00"))}))
	}

	records, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "2024-03-14", records[0].Date)
	assert.Equal(t, "2024-03-15", records[1].Date)
	assert.Equal(t, "2024-03-16", records[2].Date)
}

func TestList_Empty(t *testing.T) {
	records, err := createInMemoryRepo(t).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestUpdateNotifyStatus(t *testing.T) {
	ctx := context.Background()
	repo := createInMemoryRepo(t)

	require.NoError(t, repo.Insert(ctx, &model.AttendanceRecord{Date: "2024-03-15", ClockInTime: ptr(clock("2024-03-15", "09:10:00"))}))
	require.NoError(t, repo.UpdateNotifyStatus(ctx, "2024-03-15", model.StatusNotifyCompleted, 2))

	got, err := repo.GetByDate(ctx, "2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, model.StatusNotifyCompleted, got.NotifyStatus)
	assert.Equal(t, 2, got.NotifyRetryCount)

	assert.ErrorIs(t, repo.UpdateNotifyStatus(ctx, "1999-01-01", model.StatusNotifyCompleted, 0), ErrNotFound)
}

func TestOpen_SQLiteFile(t *testing.T) {
	cfg := config.Config{
		StoreDriver: config.StoreSQLite,
		SQLitePath:  t.TempDir() + "/attendance.db",
		Timezone:    "UTC",
	}

	repo, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), &model.AttendanceRecord{Date: "2024-03-15"}))
	require.NoError(t, repo.Close())

	reopened, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer reopened.Close()

	_, err = reopened.GetByDate(context.Background(), "2024-03-15")
	assert.NoError(t, err)
}

func TestRebind(t *testing.T) {
	pg := NewAttendanceRepository(nil, Postgres, nil)
	assert.Equal(t, "UPDATE t SET a = $1 WHERE b = $2", pg.rebind("UPDATE t SET a = ? WHERE b = ?"))

	lite := NewAttendanceRepository(nil, SQLite, nil)
	assert.Equal(t, "SELECT ?", lite.rebind("SELECT ?"))
}
