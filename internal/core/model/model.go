package model

import (
	"time"
)

// DateLayout is the natural key format of an AttendanceRecord.
const DateLayout = time.DateOnly

// NotifyStatus defines the state of the clock-out summary email job.
type NotifyStatus string

const (
	StatusNotifyPending   NotifyStatus = "PENDING"
	StatusNotifyCompleted NotifyStatus = "COMPLETED"
	StatusNotifyFailed    NotifyStatus = "FAILED"
)

// AttendanceRecord is one calendar day of attendance. Date is unique.
type AttendanceRecord struct {
	ID               int64        `json:"id"`
	Date             string       `json:"date"`
	ClockInTime      *time.Time   `json:"clockInTime,omitempty"`
	ClockOutTime     *time.Time   `json:"clockOutTime,omitempty"`
	MandatedClockOut *time.Time   `json:"mandatedClockOut,omitempty"`
	NotifyStatus     NotifyStatus `json:"notifyStatus"`
	NotifyRetryCount int          `json:"notifyRetryCount"`
}

// DateOf returns the record key for t, using t's location.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

func (r *AttendanceRecord) ClockedIn() bool {
	return r != nil && r.ClockInTime != nil
}

func (r *AttendanceRecord) ClockedOut() bool {
	return r != nil && r.ClockOutTime != nil
}

// HoursWorked is zero until the record has both times.
func (r *AttendanceRecord) HoursWorked() float64 {
	if !r.ClockedIn() || !r.ClockedOut() {
		return 0
	}
	return r.ClockOutTime.Sub(*r.ClockInTime).Hours()
}

// In converts every timestamp on the record to loc.
func (r *AttendanceRecord) In(loc *time.Location) {
	for _, t := range []**time.Time{&r.ClockInTime, &r.ClockOutTime, &r.MandatedClockOut} {
		if *t != nil {
			v := (*t).In(loc)
			*t = &v
		}
	}
}
