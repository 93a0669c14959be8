package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSQS struct {
	mu         sync.Mutex
	pending    []types.Message
	deleted    []string
	visibility map[string]int32
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	msgs := f.pending
	f.pending = nil
	f.mu.Unlock()

	if len(msgs) == 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
	return &sqs.ReceiveMessageOutput{Messages: msgs}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, *params.ReceiptHandle)
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visibility[*params.ReceiptHandle] = params.VisibilityTimeout
	return &sqs.ChangeMessageVisibilityOutput{}, nil
}

func (f *fakeSQS) handled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deleted) + len(f.visibility)
}

// scriptedProcessor answers by message body.
type scriptedProcessor struct{}

func (scriptedProcessor) Process(ctx context.Context, msg types.Message) (bool, int32, error) {
	switch aws.ToString(msg.Body) {
	case "retry":
		return true, 40, errors.New("downstream unavailable")
	case "poison":
		return false, 0, errors.New("malformed")
	default:
		return false, 0, nil
	}
}

func message(id, body string) types.Message {
	return types.Message{MessageId: aws.String(id), ReceiptHandle: aws.String(id), Body: aws.String(body)}
}

func TestWorker_DispatchesOutcomes(t *testing.T) {
	client := &fakeSQS{
		pending: []types.Message{
			message("ok-1", "ok"),
			message("retry-1", "retry"),
			message("poison-1", "poison"),
			message("ok-2", "ok"),
		},
		visibility: map[string]int32{},
	}

	w := NewWorker(client, "queue-url", scriptedProcessor{})
	w.Concurrency = 2

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return client.handled() == 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	assert.ElementsMatch(t, []string{"ok-1", "ok-2"}, client.deleted)
	assert.Equal(t, map[string]int32{"retry-1": 40}, client.visibility)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, int32(10), Backoff(0))
	assert.Equal(t, int32(20), Backoff(1))
	assert.Equal(t, int32(80), Backoff(3))
	assert.Equal(t, int32(3600), Backoff(9))
	assert.Equal(t, int32(3600), Backoff(40))
}

func TestReceiveCount(t *testing.T) {
	assert.Equal(t, 1, ReceiveCount(types.Message{}))
	assert.Equal(t, 4, ReceiveCount(types.Message{Attributes: map[string]string{"ApproximateReceiveCount": "4"}}))
	assert.Equal(t, 1, ReceiveCount(types.Message{Attributes: map[string]string{"ApproximateReceiveCount": "x"}}))
}
