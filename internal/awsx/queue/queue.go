// Package queue wraps SQS send/receive for the canonical review message,
// handling FIFO dedup attributes and the batch-failure reporting contract.
package queue

import (
	"context"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
)

// Client sends CanonicalEvent messages to one or more queues.
type Client struct {
	SQS *sqs.Client
}

// isFIFO reports whether queueURL names a FIFO queue.
func isFIFO(queueURL string) bool {
	return strings.HasSuffix(queueURL, ".fifo")
}

// Enqueue sends evt as JSON to queueURL. On FIFO queues it sets
// MessageGroupId=<repo>:<pr> (serializing per-PR) and
// MessageDeduplicationId=DedupKey; on standard queues these attributes are
// omitted and the idempotency guard is the sole protection.
func (c *Client) Enqueue(ctx context.Context, queueURL string, evt model.CanonicalEvent, body []byte) error {
	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(queueURL),
		MessageBody: aws.String(string(body)),
	}

	if isFIFO(queueURL) {
		groupID := evt.RepoFullName + ":" + strconv.Itoa(evt.PRNumber)
		input.MessageGroupId = aws.String(groupID)
		input.MessageDeduplicationId = aws.String(evt.DedupKey())
	}

	_, err := retry.Call(ctx, "sqs.send_message", retry.DefaultConfig(),
		func(ctx context.Context) (struct{}, error) {
			_, err := c.SQS.SendMessage(ctx, input)
			return struct{}{}, err
		},
		retry.RetryableCloudError,
		nil,
	)
	return err
}

// BatchItemFailure identifies a message id the worker failed to process, so
// the queue can redeliver it without blocking the rest of the batch.
type BatchItemFailure struct {
	ItemIdentifier string
}

// Record is one inbound SQS record, matching the Lambda event source shape.
type Record struct {
	MessageID string
	Body      string
}

// RecordsFromSQSEvent is a small adapter kept separate from the AWS Lambda
// event type so internal/dispatch has no direct dependency on
// aws-lambda-go, only on this package's Record.
func RecordsFromSQSEvent(raw []types.Message) []Record {
	var out []Record
	for _, m := range raw {
		out = append(out, Record{MessageID: aws.ToString(m.MessageId), Body: aws.ToString(m.Body)})
	}
	return out
}
