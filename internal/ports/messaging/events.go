package messaging

import "time"

// SummaryEvent is the JSON payload sent via SQS for the summary queue
// after a clock-out is recorded.
type SummaryEvent struct {
	RecordID         int64      `json:"recordId"`
	Date             string     `json:"date"`
	ClockInTime      time.Time  `json:"clockInTime"`
	ClockOutTime     time.Time  `json:"clockOutTime"`
	MandatedClockOut *time.Time `json:"mandatedClockOut,omitempty"`
	HoursWorked      float64    `json:"hoursWorked"`
}

// ExportEvent is the JSON payload sent via SQS for the export queue
type ExportEvent struct {
	RequestID   string    `json:"requestId"`
	Recipient   string    `json:"recipient"`
	RequestedAt time.Time `json:"requestedAt"`
}
