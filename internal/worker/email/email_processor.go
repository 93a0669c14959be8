package email

import (
	"context"
	"encoding/json"
	"fmt"

	"clockout.service/internal/core"
	"clockout.service/internal/core/model"
	"clockout.service/internal/ports/messaging"
	"clockout.service/internal/ports/repository"
	"clockout.service/internal/worker"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog/log"
)

// maxRetries bounds how often a summary is attempted before it is marked failed.
const maxRetries = 8

type EmailProcessor struct {
	emailService core.EmailService
	repo         repository.Repository
	recipient    string
}

// NewProcessor sets up a processor for clock-out summary jobs. The
// repository tracks delivery so a redelivered message is not mailed twice.
func NewProcessor(emailService core.EmailService, repo repository.Repository, recipient string) *EmailProcessor {
	return &EmailProcessor{
		emailService: emailService,
		repo:         repo,
		recipient:    recipient,
	}
}

// Process is the main entry point for handling a message from the summary queue.
func (p *EmailProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	var event messaging.SummaryEvent
	if err := json.Unmarshal([]byte(*msg.Body), &event); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("Failed to unmarshal summary event")
		return false, 0, err // Do not retry on malformed message
	}

	record, err := p.repo.GetByDate(ctx, event.Date)
	if err != nil {
		// If we can't get the record, retry after a short delay.
		return true, 10, fmt.Errorf("failed to get record from db for summary email: %w", err)
	}

	if record.NotifyStatus == model.StatusNotifyCompleted {
		log.Ctx(ctx).Info().Str("date", event.Date).Msg("Summary already sent. Skipping.")
		return false, 0, nil
	}

	err = p.emailService.SendSummary(ctx, p.recipient, event)
	if err != nil {
		newCount := record.NotifyRetryCount + 1
		if newCount >= maxRetries {
			_ = p.repo.UpdateNotifyStatus(ctx, event.Date, model.StatusNotifyFailed, newCount)
			return false, 0, fmt.Errorf("giving up on summary for %s after %d attempts: %w", event.Date, newCount, err)
		}
		_ = p.repo.UpdateNotifyStatus(ctx, event.Date, model.StatusNotifyPending, newCount)

		return true, worker.Backoff(newCount), err
	}

	err = p.repo.UpdateNotifyStatus(ctx, event.Date, model.StatusNotifyCompleted, record.NotifyRetryCount)
	return false, 0, err
}
