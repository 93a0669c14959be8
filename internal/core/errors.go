package core

import (
	"errors"
	"fmt"
	"time"

	"clockout.service/internal/core/policy"
)

var (
	// ErrLateArrival is non-retryable: the day has no mandated clock-out.
	ErrLateArrival = policy.ErrLateArrival
	// ErrTimeSourceUnavailable is retryable by invoking the action again.
	ErrTimeSourceUnavailable = errors.New("time source unavailable, try again")
	// ErrEarlyDeparture is matched by every *EarlyDepartureError.
	ErrEarlyDeparture = errors.New("clock-out before the mandated time requires confirmation")

	ErrAlreadyClockedIn  = errors.New("already clocked in today")
	ErrAlreadyClockedOut = errors.New("already clocked out today")
	ErrNotClockedIn      = errors.New("not clocked in today")
	ErrInvalidRecipient  = errors.New("invalid export recipient")
	ErrInvalidDate       = errors.New("invalid date, want YYYY-MM-DD")
)

// EarlyDepartureError is returned by an unconfirmed clock-out attempted
// before the mandated time. Nothing is stored.
type EarlyDepartureError struct {
	At       time.Time
	Mandated time.Time
}

func (e *EarlyDepartureError) Error() string {
	return fmt.Sprintf("clocking out at %s is %s before the mandated %s; confirm to proceed",
		e.At.Format(time.TimeOnly), e.Remaining(), e.Mandated.Format(time.TimeOnly))
}

func (e *EarlyDepartureError) Is(target error) bool {
	return target == ErrEarlyDeparture
}

// Remaining is how long before the mandated time the attempt was made.
func (e *EarlyDepartureError) Remaining() time.Duration {
	return e.Mandated.Sub(e.At)
}
