package policy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cst = time.FixedZone("CST", 8*3600)

func at(hms string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, "2024-03-15 "+hms, cst)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default.Validate())
}

func TestClockOut(t *testing.T) {
	tests := []struct {
		name    string
		clockIn string
		want    string
	}{
		{"early arrival gets baseline", "07:12:40", "18:00:00"},
		{"one second before grace", "08:59:59", "18:00:00"},
		{"start of first band", "09:00:00", "18:00:00"},
		{"inside first band", "09:15:00", "18:15:00"},
		{"seconds are ignored inside a band", "09:15:59", "18:15:00"},
		{"end of first band", "09:30:00", "18:30:00"},
		{"seconds keep 09:30 in first band", "09:30:45", "18:30:00"},
		{"start of second band", "09:31:00", "18:45:00"},
		{"inside second band", "09:45:00", "18:59:00"},
		{"end of second band", "10:00:00", "18:14:00"},
		{"start of third band", "10:01:00", "19:16:00"},
		{"cutoff is inclusive", "10:30:00", "19:45:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Default.ClockOut(at(tt.clockIn))
			require.NoError(t, err)
			assert.Equal(t, at(tt.want), got)
		})
	}
}

func TestClockOut_LateArrival(t *testing.T) {
	for _, clockIn := range []string{"10:30:01", "10:31:00", "11:00:00", "11:30:00", "23:59:59"} {
		t.Run(clockIn, func(t *testing.T) {
			got, err := Default.ClockOut(at(clockIn))
			assert.True(t, got.IsZero())
			require.ErrorIs(t, err, ErrLateArrival)

			var late *LateArrivalError
			require.True(t, errors.As(err, &late))
			assert.Equal(t, at(clockIn), late.ClockIn)
			assert.Equal(t, At(10, 30, 0), late.Cutoff)
		})
	}
}

func TestClockOut_KeepsDateAndZone(t *testing.T) {
	clockIn := time.Date(2023, time.December, 31, 9, 20, 0, 0, cst)

	got, err := Default.ClockOut(clockIn)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, time.December, 31, 18, 20, 0, 0, cst), got)
	assert.Equal(t, cst, got.Location())
}

func TestClockOut_Idempotent(t *testing.T) {
	clockIn := at("09:47:13")

	first, err := Default.ClockOut(clockIn)
	require.NoError(t, err)
	second, err := Default.ClockOut(clockIn)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestClockOut_EveryMinuteMatchesAtMostOneBand(t *testing.T) {
	for tod := At(0, 0, 0); tod < At(24, 0, 0); tod += 60 {
		matches := 0
		for _, b := range Default.Bands {
			if b.contains(tod) {
				matches++
			}
		}
		assert.LessOrEqual(t, matches, 1, "time %s", tod)
		if tod >= At(9, 0, 0) && tod <= Default.Cutoff {
			assert.Equal(t, 1, matches, "time %s", tod)
		}
	}
}

func TestClockOut_UncoveredGap(t *testing.T) {
	p := Policy{
		Baseline: At(18, 0, 0),
		Cutoff:   At(12, 0, 0),
		Bands:    []Band{{From: At(9, 0, 0), To: At(9, 30, 0)}},
	}

	_, err := p.ClockOut(at("09:45:00"))
	assert.ErrorIs(t, err, ErrUncovered)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		bands   []Band
		wantErr bool
	}{
		{"empty", nil, false},
		{"disjoint", []Band{{From: At(9, 0, 0), To: At(9, 30, 0)}, {From: At(9, 31, 0), To: At(10, 0, 0)}}, false},
		{"shared boundary", []Band{{From: At(9, 0, 0), To: At(9, 30, 0)}, {From: At(9, 30, 0), To: At(10, 0, 0)}}, true},
		{"reversed", []Band{{From: At(10, 0, 0), To: At(9, 0, 0)}}, true},
		{"seconds in bounds", []Band{{From: At(9, 0, 30), To: At(9, 30, 0)}}, true},
		{"negative extra", []Band{{From: At(9, 0, 0), To: At(9, 30, 0), Extra: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Policy{Bands: tt.bands}.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "9:45", want: At(9, 45, 0)},
		{in: "09:45:30", want: At(9, 45, 30)},
		{in: " 10:30 ", want: At(10, 30, 0)},
		{in: "24:00", wantErr: true},
		{in: "10:60", wantErr: true},
		{in: "10", wantErr: true},
		{in: "a:b", wantErr: true},
		{in: "1:2:3:4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayOn(t *testing.T) {
	got := At(18, 59, 0).On(at("09:45:00"))
	assert.Equal(t, at("18:59:00"), got)
	assert.Equal(t, "18:59:00", At(18, 59, 0).String())
}
