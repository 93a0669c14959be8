package messaging

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// ErrNoQueue is returned when an event is published to a queue that was
// not configured.
var ErrNoQueue = errors.New("queue not configured")

// Publisher defines the output port for publishing domain events.
type Publisher interface {
	PublishSummary(ctx context.Context, event SummaryEvent) error
	PublishExport(ctx context.Context, event ExportEvent) error
}

// MessageSender defines the interface for sending raw messages to a messaging system.
type MessageSender interface {
	SendMessage(ctx context.Context, destination string, body []byte) error
}

// SQSClient defines the interface for the AWS SQS client.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}
