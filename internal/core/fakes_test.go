package core

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"clockout.service/internal/core/model"
	"clockout.service/internal/ports/messaging"
	"clockout.service/internal/ports/repository"
)

var cst = time.FixedZone("CST", 8*3600)

func clock(date, hms string) time.Time {
	t, err := time.ParseInLocation(time.DateTime, date+" "+hms, cst)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeClock struct {
	now time.Time
	err error
}

func (c *fakeClock) Now(context.Context) (time.Time, error) {
	return c.now, c.err
}

type memRepo struct {
	mu      sync.Mutex
	records map[string]model.AttendanceRecord
	nextID  int64
	err     error
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[string]model.AttendanceRecord{}}
}

func (r *memRepo) GetByDate(_ context.Context, date string) (*model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.records[date]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &rec, nil
}

func (r *memRepo) Insert(_ context.Context, rec *model.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Date]; ok {
		return repository.ErrDuplicateDate
	}
	r.nextID++
	rec.ID = r.nextID
	if rec.NotifyStatus == "" {
		rec.NotifyStatus = model.StatusNotifyPending
	}
	r.records[rec.Date] = *rec
	return nil
}

func (r *memRepo) Update(_ context.Context, rec *model.AttendanceRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.Date]; !ok {
		return repository.ErrNotFound
	}
	r.records[rec.Date] = *rec
	return nil
}

func (r *memRepo) List(context.Context) ([]model.AttendanceRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.AttendanceRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (r *memRepo) UpdateNotifyStatus(_ context.Context, date string, status model.NotifyStatus, retryCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[date]
	if !ok {
		return repository.ErrNotFound
	}
	rec.NotifyStatus = status
	rec.NotifyRetryCount = retryCount
	r.records[date] = rec
	return nil
}

type fakePublisher struct {
	summaries []messaging.SummaryEvent
	exports   []messaging.ExportEvent
	err       error
}

func (p *fakePublisher) PublishSummary(_ context.Context, e messaging.SummaryEvent) error {
	if p.err != nil {
		return p.err
	}
	p.summaries = append(p.summaries, e)
	return nil
}

func (p *fakePublisher) PublishExport(_ context.Context, e messaging.ExportEvent) error {
	if p.err != nil {
		return p.err
	}
	p.exports = append(p.exports, e)
	return nil
}

var errBoom = errors.New("boom")
