package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"clockout.service/internal/core"
	"clockout.service/internal/core/model"
	"clockout.service/internal/core/policy"
	"clockout.service/internal/export"
	"clockout.service/internal/ports/messaging"
	"github.com/rs/zerolog/log"
)

// AttendanceService is the part of core.AttendanceService the handlers use.
type AttendanceService interface {
	ClockIn(ctx context.Context) (*model.AttendanceRecord, error)
	ClockOut(ctx context.Context, confirm bool) (*model.AttendanceRecord, error)
	Today(ctx context.Context) (*core.Today, error)
	Calculate(ctx context.Context, date string, tod policy.TimeOfDay) (*core.Calculation, error)
	Records(ctx context.Context) ([]model.AttendanceRecord, error)
	Export(ctx context.Context, w io.Writer) error
	RequestExport(ctx context.Context, recipient string) (*messaging.ExportEvent, error)
}

type AttendanceHandler struct {
	Service AttendanceService
}

type ClockOutRequest struct {
	Confirm bool `json:"confirm"`
}

type CalculateRequest struct {
	Time string `json:"time"`
	Date string `json:"date,omitempty"`
}

type ExportRequest struct {
	Recipient string `json:"recipient"`
}

type ClockInResponse struct {
	Record    *model.AttendanceRecord `json:"record"`
	Violation string                  `json:"violation,omitempty"`
}

type ErrorResponse struct {
	Error                string     `json:"error"`
	ConfirmationRequired bool       `json:"confirmationRequired,omitempty"`
	MandatedClockOut     *time.Time `json:"mandatedClockOut,omitempty"`
}

func (h *AttendanceHandler) ClockIn(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Service.ClockIn(r.Context())
	if err != nil && !errors.Is(err, core.ErrLateArrival) {
		writeError(r.Context(), w, err)
		return
	}

	resp := ClockInResponse{Record: rec}
	if err != nil {
		resp.Violation = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *AttendanceHandler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockOutRequest
	// an empty body means an unconfirmed clock-out
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := h.Service.ClockOut(r.Context(), req.Confirm)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	today, err := h.Service.Today(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, today)
}

func (h *AttendanceHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tod, err := policy.ParseTimeOfDay(req.Time)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	calc, err := h.Service.Calculate(r.Context(), req.Date, tod)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, calc)
}

func (h *AttendanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.Records(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if records == nil {
		records = []model.AttendanceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Export serves the spreadsheet as a download.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), &buf); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(time.Now())+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *AttendanceHandler) RequestExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	event, err := h.Service.RequestExport(r.Context(), req.Recipient)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"requestId": event.RequestID,
		"message":   "Export queued for delivery.",
	})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	status := http.StatusInternalServerError

	var early *core.EarlyDepartureError
	switch {
	case errors.As(err, &early):
		status = http.StatusConflict
		resp.ConfirmationRequired = true
		resp.MandatedClockOut = &early.Mandated
	case errors.Is(err, core.ErrAlreadyClockedIn), errors.Is(err, core.ErrAlreadyClockedOut):
		status = http.StatusConflict
	case errors.Is(err, core.ErrNotClockedIn):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrLateArrival):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidRecipient):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrTimeSourceUnavailable), errors.Is(err, messaging.ErrNoQueue):
		status = http.StatusServiceUnavailable
	default:
		log.Ctx(ctx).Error().Err(err).Msg("Request failed")
		resp.Error = "Service error processing request"
	}

	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
