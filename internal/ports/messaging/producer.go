package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	EventTypeSummary = "CLOCK_OUT_SUMMARY"
	EventTypeExport  = "EXPORT_REQUESTED"
)

// Producer publishes events as JSON through a MessageSender. An empty queue
// URL disables that event kind.
type Producer struct {
	sender          MessageSender
	summaryQueueURL string
	exportQueueURL  string
}

func NewProducer(sender MessageSender, summaryQueueURL, exportQueueURL string) *Producer {
	return &Producer{
		sender:          sender,
		summaryQueueURL: summaryQueueURL,
		exportQueueURL:  exportQueueURL,
	}
}

// NewSQSProducer creates a new Producer backed by an AWS SQS sender.
func NewSQSProducer(client SQSClient, summaryQueueURL, exportQueueURL string) *Producer {
	return NewProducer(&SQSSender{client: client}, summaryQueueURL, exportQueueURL)
}

func (p *Producer) PublishSummary(ctx context.Context, event SummaryEvent) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.date", event.Date))
	return p.publish(withEventType(ctx, EventTypeSummary), p.summaryQueueURL, event)
}

func (p *Producer) PublishExport(ctx context.Context, event ExportEvent) error {
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("app.export_request_id", event.RequestID))
	return p.publish(withEventType(ctx, EventTypeExport), p.exportQueueURL, event)
}

func (p *Producer) publish(ctx context.Context, destination string, body interface{}) error {
	if destination == "" {
		return ErrNoQueue
	}

	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal body: %w", err)
	}

	if err := p.sender.SendMessage(ctx, destination, b); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// NopPublisher drops every event. Used by the local CLI, which runs
// without queues.
type NopPublisher struct{}

func (NopPublisher) PublishSummary(context.Context, SummaryEvent) error { return nil }
func (NopPublisher) PublishExport(context.Context, ExportEvent) error   { return ErrNoQueue }
