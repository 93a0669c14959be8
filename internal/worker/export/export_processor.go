package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clockout.service/internal/core"
	spreadsheet "clockout.service/internal/export"
	"clockout.service/internal/ports/messaging"
	"clockout.service/internal/ports/repository"
	"clockout.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// maxAttempts bounds deliveries of one export request.
const maxAttempts = 6

// ExportProcessor builds the attendance spreadsheet and mails it. Mail
// delivery goes through a circuit breaker so an SES outage does not burn
// every queued request's retries.
type ExportProcessor struct {
	repo   repository.Repository
	mailer core.EmailService
	loc    *time.Location
	cb     *gobreaker.CircuitBreaker
}

// NewProcessor creates a processor for the export queue.
func NewProcessor(repo repository.Repository, mailer core.EmailService, loc *time.Location) *ExportProcessor {
	settings := gobreaker.Settings{
		Name:        "SES-Export",
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			// Trip if failure rate is 50% or more after at least 4 requests
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 4 && failureRatio >= 0.5
		},
	}

	return &ExportProcessor{
		repo:   repo,
		mailer: mailer,
		loc:    loc,
		cb:     gobreaker.NewCircuitBreaker(settings),
	}
}

// Process handles one export request.
func (p *ExportProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.ExportEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal export event")
		return false, 0, err // Do not retry on malformed message
	}
	if event.Recipient == "" {
		return false, 0, fmt.Errorf("export request %s has no recipient", event.RequestID)
	}

	records, err := p.repo.List(ctx)
	if err != nil {
		return true, 10, fmt.Errorf("failed to list records for export: %w", err)
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteXLSX(&buf, records, p.loc); err != nil {
		return false, 0, fmt.Errorf("failed to render export: %w", err)
	}

	filename := spreadsheet.Filename(event.RequestedAt.In(p.loc))
	_, err = p.cb.Execute(func() (interface{}, error) {
		return nil, p.mailer.SendExport(ctx, event.Recipient, filename, buf.Bytes())
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) {
			log.Ctx(ctx).Warn().Msg("Circuit breaker is OPEN; skipping export delivery")
		}

		attempt := worker.ReceiveCount(msg)
		if attempt >= maxAttempts {
			return false, 0, fmt.Errorf("giving up on export %s after %d attempts: %w", event.RequestID, attempt, err)
		}
		return true, worker.Backoff(attempt), err
	}

	log.Ctx(ctx).Info().Str("request_id", event.RequestID).Int("records", len(records)).Msg("Export delivered")
	return false, 0, nil
}
