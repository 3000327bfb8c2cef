package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testQueueURL = "https://sqs.us-east-1.amazonaws.com/123456789012/concierge-jobs"

type fakeSQS struct {
	sent     []*sqs.SendMessageInput
	received []*sqs.ReceiveMessageInput
	deleted  []*sqs.DeleteMessageInput
	messages []types.Message
	err      error
}

func (f *fakeSQS) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.sent = append(f.sent, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("m-1")}, nil
}

func (f *fakeSQS) ReceiveMessage(_ context.Context, in *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.received = append(f.received, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeSQS) DeleteMessage(_ context.Context, in *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted = append(f.deleted, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.DeleteMessageOutput{}, nil
}

func TestSQSQueue_SendUsesQueueURL(t *testing.T) {
	fake := &fakeSQS{}
	q := NewSQSQueue(fake, testQueueURL)

	require.NoError(t, q.Send(context.Background(), `{"id":"job-1"}`))
	require.Len(t, fake.sent, 1)
	assert.Equal(t, testQueueURL, aws.ToString(fake.sent[0].QueueUrl))
	assert.Equal(t, `{"id":"job-1"}`, aws.ToString(fake.sent[0].MessageBody))

	assert.Error(t, q.Send(context.Background(), ""))
	assert.Len(t, fake.sent, 1)
}

func TestSQSQueue_ReceiveClampsAndMaps(t *testing.T) {
	fake := &fakeSQS{messages: []types.Message{
		{MessageId: aws.String("m-1"), Body: aws.String("one"), ReceiptHandle: aws.String("r-1")},
		{MessageId: aws.String("m-2"), ReceiptHandle: aws.String("r-2")},
	}}
	q := NewSQSQueue(fake, testQueueURL)

	msgs, err := q.Receive(context.Background(), 50, 60)
	require.NoError(t, err)
	require.Len(t, fake.received, 1)
	assert.Equal(t, int32(10), fake.received[0].MaxNumberOfMessages)
	assert.Equal(t, int32(20), fake.received[0].WaitTimeSeconds)
	assert.Equal(t, []QueueMessage{
		{ID: "m-1", Body: "one", ReceiptHandle: "r-1"},
		{ID: "m-2", Body: "", ReceiptHandle: "r-2"},
	}, msgs)

	_, err = q.Receive(context.Background(), 0, -1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.received[1].MaxNumberOfMessages)
	assert.Equal(t, int32(0), fake.received[1].WaitTimeSeconds)
}

func TestSQSQueue_DeleteSkipsEmptyHandle(t *testing.T) {
	fake := &fakeSQS{}
	q := NewSQSQueue(fake, testQueueURL)

	require.NoError(t, q.Delete(context.Background(), ""))
	assert.Empty(t, fake.deleted)

	require.NoError(t, q.Delete(context.Background(), "r-1"))
	require.Len(t, fake.deleted, 1)
	assert.Equal(t, "r-1", aws.ToString(fake.deleted[0].ReceiptHandle))
}

func TestSQSQueue_WrapsClientErrors(t *testing.T) {
	boom := errors.New("throttled")
	q := NewSQSQueue(&fakeSQS{err: boom}, testQueueURL)
	ctx := context.Background()

	assert.ErrorIs(t, q.Send(ctx, "x"), boom)
	_, err := q.Receive(ctx, 1, 0)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, q.Delete(ctx, "r-1"), boom)
}

func TestNewSQSQueue_PanicsWithoutClientOrURL(t *testing.T) {
	assert.Panics(t, func() { NewSQSQueue(nil, testQueueURL) })
	assert.Panics(t, func() { NewSQSQueue(&fakeSQS{}, "") })
}
