// Package policy implements the company attendance rule that maps a clock-in
// moment to the earliest clock-out the worker is allowed to register.
package policy

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrLateArrival is matched by every *LateArrivalError.
	ErrLateArrival = errors.New("arrival after cutoff without approved leave counts as a half-day absence")
	// ErrUncovered means the arrival fell between bands of a misconfigured policy.
	ErrUncovered = errors.New("clock-in time is not covered by any policy band")
)

// LateArrivalError is returned when the clock-in is after the policy cutoff.
// No clock-out time exists for such a day.
type LateArrivalError struct {
	ClockIn time.Time
	Cutoff  TimeOfDay
}

func (e *LateArrivalError) Error() string {
	return fmt.Sprintf("clock-in at %s is after %s: arrival without approved leave counts as a half-day absence",
		e.ClockIn.Format(time.TimeOnly), e.Cutoff)
}

func (e *LateArrivalError) Is(target error) bool {
	return target == ErrLateArrival
}

// Band is an inclusive arrival window, compared at minute granularity.
// An arrival inside the band owes Extra minutes plus its own minute-of-hour
// on top of the baseline clock-out.
type Band struct {
	From  TimeOfDay
	To    TimeOfDay
	Extra int
}

func (b Band) contains(t TimeOfDay) bool {
	m := t.TruncateMinute()
	return m >= b.From && m <= b.To
}

// Policy is a late-arrival grace/penalty schedule.
type Policy struct {
	// Baseline is the clock-out owed by anyone arriving before the first band.
	Baseline TimeOfDay
	// Cutoff is the last acceptable arrival, compared at second precision.
	Cutoff TimeOfDay
	Bands  []Band
}

// Default is the company rule: 18:00 baseline, 10:30 cutoff.
var Default = Policy{
	Baseline: At(18, 0, 0),
	Cutoff:   At(10, 30, 0),
	Bands: []Band{
		{From: At(9, 0, 0), To: At(9, 30, 0), Extra: 0},
		{From: At(9, 31, 0), To: At(10, 0, 0), Extra: 14},
		{From: At(10, 1, 0), To: At(11, 30, 0), Extra: 75},
	},
}

// Validate checks that bands are well-formed, ordered and disjoint.
func (p Policy) Validate() error {
	for i, b := range p.Bands {
		if b.From.Second() != 0 || b.To.Second() != 0 {
			return fmt.Errorf("band %d: bounds must be whole minutes", i)
		}
		if b.From > b.To {
			return fmt.Errorf("band %d: %s is after %s", i, b.From, b.To)
		}
		if b.Extra < 0 {
			return fmt.Errorf("band %d: negative extra minutes", i)
		}
		if i > 0 && b.From <= p.Bands[i-1].To {
			return fmt.Errorf("band %d overlaps band %d", i, i-1)
		}
	}
	return nil
}

// ClockOut returns the mandated clock-out for a clock-in at t, on t's
// calendar day and in t's location. It never reads the wall clock.
func (p Policy) ClockOut(t time.Time) (time.Time, error) {
	t = t.Truncate(time.Second)
	tod := TimeOfDayOf(t)

	if tod > p.Cutoff {
		return time.Time{}, &LateArrivalError{ClockIn: t, Cutoff: p.Cutoff}
	}

	baseline := p.Baseline.On(t)
	if len(p.Bands) == 0 || tod < p.Bands[0].From {
		return baseline, nil
	}

	for _, b := range p.Bands {
		if b.contains(tod) {
			// minute-of-hour, not minutes since the band started
			return baseline.Add(time.Duration(t.Minute()+b.Extra) * time.Minute), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %s", ErrUncovered, tod)
}
