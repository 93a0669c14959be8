package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"time"

	"clockout.service/internal/core/model"
	"clockout.service/internal/core/policy"
	"clockout.service/internal/export"
	"clockout.service/internal/ports/messaging"
	"clockout.service/internal/ports/repository"
	"clockout.service/internal/ports/timesource"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type AttendanceService struct {
	repo      repository.Repository
	clock     timesource.Source
	publisher messaging.Publisher
	policy    policy.Policy
	loc       *time.Location
}

// Today is the state the clock-in/clock-out surface renders.
type Today struct {
	Date        string                  `json:"date"`
	Record      *model.AttendanceRecord `json:"record,omitempty"`
	LateArrival bool                    `json:"lateArrival"`
	CanClockIn  bool                    `json:"canClockIn"`
	CanClockOut bool                    `json:"canClockOut"`
}

// Calculation is the outcome of a manual time entry.
type Calculation struct {
	ClockIn          time.Time `json:"clockIn"`
	MandatedClockOut time.Time `json:"mandatedClockOut"`
}

type Option func(*AttendanceService)

// WithPolicy replaces policy.Default.
func WithPolicy(p policy.Policy) Option {
	return func(s *AttendanceService) {
		s.policy = p
	}
}

// NewAttendanceService wires the store, the time source and the event
// publisher into the clock-in/clock-out flow. Every timestamp is handled in loc.
func NewAttendanceService(repo repository.Repository, clock timesource.Source, publisher messaging.Publisher, loc *time.Location, opts ...Option) *AttendanceService {
	s := &AttendanceService{
		repo:      repo,
		clock:     clock,
		publisher: publisher,
		policy:    policy.Default,
		loc:       loc,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ClockIn stamps today's arrival. A late arrival is still recorded: the
// stored record is returned together with a *policy.LateArrivalError and
// carries no mandated clock-out.
func (s *AttendanceService) ClockIn(ctx context.Context) (*model.AttendanceRecord, error) {
	now, err := s.now(ctx)
	if err != nil {
		return nil, err
	}

	date := model.DateOf(now)
	rec, err := s.today(ctx, date)
	if err != nil {
		return nil, err
	}
	if rec.ClockedIn() {
		return nil, ErrAlreadyClockedIn
	}

	mandated, policyErr := s.policy.ClockOut(now)
	if policyErr != nil && !errors.Is(policyErr, ErrLateArrival) {
		return nil, policyErr
	}

	isNew := rec == nil
	if isNew {
		rec = &model.AttendanceRecord{Date: date}
	}
	rec.ClockInTime = &now
	if policyErr == nil {
		rec.MandatedClockOut = &mandated
	}

	if isNew {
		err = s.repo.Insert(ctx, rec)
	} else {
		err = s.repo.Update(ctx, rec)
	}
	if errors.Is(err, repository.ErrDuplicateDate) {
		return nil, ErrAlreadyClockedIn
	}
	if err != nil {
		return nil, fmt.Errorf("failed to store clock-in: %w", err)
	}

	l := log.Ctx(ctx).Info().Str("date", date).Time("clock_in", now)
	if rec.MandatedClockOut != nil {
		l = l.Time("mandated_clock_out", *rec.MandatedClockOut)
	}
	l.Bool("late_arrival", policyErr != nil).Msg("Clock-in recorded")

	return rec, policyErr
}

// ClockOut stamps today's departure. Before the mandated time it needs
// confirm, otherwise an *EarlyDepartureError is returned and nothing changes.
func (s *AttendanceService) ClockOut(ctx context.Context, confirm bool) (*model.AttendanceRecord, error) {
	now, err := s.now(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := s.today(ctx, model.DateOf(now))
	if err != nil {
		return nil, err
	}
	if !rec.ClockedIn() {
		return nil, ErrNotClockedIn
	}
	if rec.ClockedOut() {
		return nil, ErrAlreadyClockedOut
	}

	if rec.MandatedClockOut != nil && now.Before(*rec.MandatedClockOut) && !confirm {
		return nil, &EarlyDepartureError{At: now, Mandated: *rec.MandatedClockOut}
	}

	rec.ClockOutTime = &now
	if err := s.repo.Update(ctx, rec); err != nil {
		rec.ClockOutTime = nil
		return nil, fmt.Errorf("failed to store clock-out: %w", err)
	}

	log.Ctx(ctx).Info().Str("date", rec.Date).Time("clock_out", now).Float64("hours_worked", rec.HoursWorked()).Msg("Clock-out recorded")

	event := messaging.SummaryEvent{
		RecordID:         rec.ID,
		Date:             rec.Date,
		ClockInTime:      *rec.ClockInTime,
		ClockOutTime:     now,
		MandatedClockOut: rec.MandatedClockOut,
		HoursWorked:      rec.HoursWorked(),
	}
	if err := s.publisher.PublishSummary(ctx, event); err != nil && !errors.Is(err, messaging.ErrNoQueue) {
		// the clock-out itself is stored; only the summary email is lost
		log.Ctx(ctx).Warn().Err(err).Str("date", rec.Date).Msg("Failed to publish clock-out summary")
	}

	return rec, nil
}

// Today reports today's record and which actions are still available.
func (s *AttendanceService) Today(ctx context.Context) (*Today, error) {
	now, err := s.now(ctx)
	if err != nil {
		return nil, err
	}

	date := model.DateOf(now)
	rec, err := s.today(ctx, date)
	if err != nil {
		return nil, err
	}

	return &Today{
		Date:        date,
		Record:      rec,
		LateArrival: rec.ClockedIn() && rec.MandatedClockOut == nil,
		CanClockIn:  !rec.ClockedIn(),
		CanClockOut: rec.ClockedIn() && !rec.ClockedOut(),
	}, nil
}

// Calculate runs the policy for a manually entered time of day. An empty
// date means today according to the time source.
func (s *AttendanceService) Calculate(ctx context.Context, date string, tod policy.TimeOfDay) (*Calculation, error) {
	var day time.Time
	if date == "" {
		now, err := s.now(ctx)
		if err != nil {
			return nil, err
		}
		day = now
	} else {
		d, err := time.ParseInLocation(model.DateLayout, date, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
		day = d
	}

	clockIn := tod.On(day)
	mandated, err := s.policy.ClockOut(clockIn)
	if err != nil {
		return nil, err
	}
	return &Calculation{ClockIn: clockIn, MandatedClockOut: mandated}, nil
}

// Records returns every stored record ordered by date.
func (s *AttendanceService) Records(ctx context.Context) ([]model.AttendanceRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// Export writes every stored record to w as a spreadsheet.
func (s *AttendanceService) Export(ctx context.Context, w io.Writer) error {
	records, err := s.Records(ctx)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, records, s.loc)
}

// RequestExport queues a spreadsheet delivery to recipient for the export worker.
func (s *AttendanceService) RequestExport(ctx context.Context, recipient string) (*messaging.ExportEvent, error) {
	addr, err := mail.ParseAddress(recipient)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecipient, recipient)
	}

	event := messaging.ExportEvent{
		RequestID:   uuid.NewString(),
		Recipient:   addr.Address,
		RequestedAt: time.Now().In(s.loc),
	}
	if err := s.publisher.PublishExport(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to queue export: %w", err)
	}

	log.Ctx(ctx).Info().Str("request_id", event.RequestID).Msg("Export requested")
	return &event, nil
}

func (s *AttendanceService) now(ctx context.Context) (time.Time, error) {
	now, err := s.clock.Now(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", ErrTimeSourceUnavailable, err)
	}
	return now.In(s.loc).Truncate(time.Second), nil
}

// today returns nil without error when no record exists for date.
func (s *AttendanceService) today(ctx context.Context, date string) (*model.AttendanceRecord, error) {
	rec, err := s.repo.GetByDate(ctx, date)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query record for %s: %w", date, err)
	}
	return rec, nil
}
