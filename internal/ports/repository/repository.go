package repository

import (
	"context"
	"errors"

	"clockout.service/internal/core/model"
)

var (
	ErrNotFound      = errors.New("attendance record not found")
	ErrDuplicateDate = errors.New("attendance record already exists for date")
)

// Repository contract. Records are keyed by calendar date.
type Repository interface {
	GetByDate(ctx context.Context, date string) (*model.AttendanceRecord, error)
	Insert(ctx context.Context, rec *model.AttendanceRecord) error
	Update(ctx context.Context, rec *model.AttendanceRecord) error
	List(ctx context.Context) ([]model.AttendanceRecord, error)
	UpdateNotifyStatus(ctx context.Context, date string, status model.NotifyStatus, retryCount int) error
}
