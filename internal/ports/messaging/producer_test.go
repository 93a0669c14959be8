package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, f.err
}

func TestPublisherInterface(t *testing.T) {
	var _ Publisher = (*Producer)(nil)
	var _ Publisher = NopPublisher{}
}

func TestProducer_PublishSummary(t *testing.T) {
	client := &fakeSQS{}
	p := NewSQSProducer(client, "summary-url", "export-url")

	in := time.Date(2024, 3, 15, 9, 45, 0, 0, time.UTC)
	event := SummaryEvent{RecordID: 7, Date: "2024-03-15", ClockInTime: in, ClockOutTime: in.Add(9 * time.Hour), HoursWorked: 9}
	require.NoError(t, p.PublishSummary(context.Background(), event))

	require.Len(t, client.inputs, 1)
	msg := client.inputs[0]
	assert.Equal(t, "summary-url", *msg.QueueUrl)
	assert.Equal(t, EventTypeSummary, *msg.MessageAttributes["EventType"].StringValue)

	var got SummaryEvent
	require.NoError(t, json.Unmarshal([]byte(*msg.MessageBody), &got))
	assert.Equal(t, int64(7), got.RecordID)
	assert.Equal(t, "2024-03-15", got.Date)
	assert.True(t, got.ClockOutTime.Equal(event.ClockOutTime))
}

func TestProducer_PublishExport(t *testing.T) {
	client := &fakeSQS{}
	p := NewSQSProducer(client, "summary-url", "export-url")

	require.NoError(t, p.PublishExport(context.Background(), ExportEvent{RequestID: "abc", Recipient: "me@example.com"}))
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "export-url", *client.inputs[0].QueueUrl)
	assert.Equal(t, EventTypeExport, *client.inputs[0].MessageAttributes["EventType"].StringValue)
}

func TestProducer_QueueNotConfigured(t *testing.T) {
	client := &fakeSQS{}
	p := NewSQSProducer(client, "", "")

	assert.ErrorIs(t, p.PublishSummary(context.Background(), SummaryEvent{}), ErrNoQueue)
	assert.ErrorIs(t, p.PublishExport(context.Background(), ExportEvent{}), ErrNoQueue)
	assert.Empty(t, client.inputs)
}

func TestProducer_SendFailure(t *testing.T) {
	sendErr := errors.New("throttled")
	p := NewSQSProducer(&fakeSQS{err: sendErr}, "summary-url", "")

	err := p.PublishSummary(context.Background(), SummaryEvent{})
	assert.ErrorIs(t, err, sendErr)
}
