package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"clockout.service/internal/core"
	"clockout.service/internal/ports/messaging"
	"clockout.service/internal/ports/repository"
	"clockout.service/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var cst = time.FixedZone("CST", 8*3600)

type stubClock struct{ now time.Time }

func (c *stubClock) Now(context.Context) (time.Time, error) { return c.now, nil }

type cli struct {
	t     *testing.T
	repo  *repository.AttendanceRepository
	clock *stubClock
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	db, err := database.NewSQLiteConnection(":memory:")
	require.NoError(t, err)
	repo := repository.NewAttendanceRepository(db, repository.SQLite, cst)
	require.NoError(t, repo.Migrate(context.Background()))
	t.Cleanup(func() { repo.Close() })
	return &cli{t: t, repo: repo, clock: &stubClock{}}
}

func (c *cli) at(hms string) {
	now, err := time.ParseInLocation(time.DateTime, "2024-03-15 "+hms, cst)
	require.NoError(c.t, err)
	c.clock.now = now
}

func (c *cli) run(args ...string) (string, error) {
	open := func(context.Context) (*core.AttendanceService, func() error, error) {
		// the store outlives a single command
		return core.NewAttendanceService(c.repo, c.clock, messaging.NopPublisher{}, cst), nil, nil
	}
	var out bytes.Buffer
	cmd := newRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInOut(t *testing.T) {
	c := newCLI(t)

	c.at("09:15:40")
	out, err := c.run("in")
	require.NoError(t, err)
	assert.Contains(t, out, "Clocked in at 09:15:40.")
	assert.Contains(t, out, "Clock out at 18:15:00.")

	_, err = c.run("in")
	assert.ErrorIs(t, err, core.ErrAlreadyClockedIn)

	c.at("18:00:00")
	_, err = c.run("out")
	assert.ErrorIs(t, err, core.ErrEarlyDeparture)
	assert.ErrorContains(t, err, "--confirm")

	out, err = c.run("out", "--confirm")
	require.NoError(t, err)
	assert.Contains(t, out, "Clocked out at 18:00:00")

	out, err = c.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-15")
	assert.Contains(t, out, "done for today")

	out, err = c.run("records")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-03-15  09:15:40")
}

func TestIn_LateArrival(t *testing.T) {
	c := newCLI(t)
	c.at("10:45:00")

	out, err := c.run("in")
	require.NoError(t, err)
	assert.Contains(t, out, "Violation:")

	out, err = c.run("status")
	require.NoError(t, err)
	assert.Contains(t, out, "late arrival")
	assert.Contains(t, out, "clockctl out")
}

func TestCalc(t *testing.T) {
	c := newCLI(t)
	c.at("07:00:00")

	out, err := c.run("calc", "09:45")
	require.NoError(t, err)
	assert.Contains(t, out, "clock out at 18:59:00")

	out, err = c.run("calc", "10:00", "--date", "2024-01-02")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-01-02 10:00:00")
	assert.Contains(t, out, "clock out at 18:14:00")

	_, err = c.run("calc", "10:31")
	assert.ErrorIs(t, err, core.ErrLateArrival)

	_, err = c.run("calc", "nine")
	assert.Error(t, err)

	_, err = c.run("calc")
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	c := newCLI(t)
	c.at("09:00:00")
	_, err := c.run("in")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.xlsx")
	out, err := c.run("export", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-15", rows[1][0])
}
