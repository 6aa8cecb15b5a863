// Package queue provides the SQS producer for the profile ingest pipeline.
// API callers enqueue raw record batches; the ingest worker validates and
// persists them asynchronously.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"floatdeck/internal/config"
	"floatdeck/internal/types"
)

// MaxBatchRecords caps a single ingest message. Larger submissions must be
// split by the caller; an SQS body holds 256 KB and profile records run about
// 150 bytes serialized.
const MaxBatchRecords = types.MaxBulkProfiles

// SQSSender abstracts the SQS SendMessage operation for testability.
// Production code uses the *sqs.Client from aws-sdk-go-v2.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// IngestPublisher serializes profile batches into IngestMessages and sends
// them to the ingest queue.
type IngestPublisher struct {
	client   SQSSender
	queueURL string
	logger   *slog.Logger
	clock    types.Clock
}

// NewIngestPublisher creates a publisher targeting the configured ingest
// queue.
func NewIngestPublisher(client SQSSender, awsCfg config.AWSConfig, logger *slog.Logger) *IngestPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestPublisher{
		client:   client,
		queueURL: awsCfg.IngestQueueURL,
		logger:   logger,
		clock:    types.RealClock{},
	}
}

// Publish enqueues a batch of profiles and returns the generated batch ID.
func (p *IngestPublisher) Publish(ctx context.Context, source string, profiles []types.ProfileRecord) (string, error) {
	if len(profiles) == 0 {
		return "", types.NewAppError(types.ErrCodeValidationMissingField,
			"profiles must not be empty", nil)
	}
	if len(profiles) > MaxBatchRecords {
		return "", types.NewAppError(types.ErrCodeValidationBatchSize,
			fmt.Sprintf("batch exceeds maximum of %d records", MaxBatchRecords), nil)
	}

	msg := types.IngestMessage{
		BatchID:  uuid.New().String(),
		Source:   source,
		SentAt:   p.clock.Now().UTC(),
		Profiles: profiles,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("queue: failed to marshal IngestMessage: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]sqsTypes.MessageAttributeValue{
			"source": {
				DataType:    aws.String("String"),
				StringValue: aws.String(source),
			},
		},
	}

	if _, err := p.client.SendMessage(ctx, input); err != nil {
		return "", types.NewAppError(types.ErrCodeUpstreamQueue,
			"failed to enqueue ingest batch", err)
	}

	p.logger.InfoContext(ctx, "ingest batch enqueued",
		"batch_id", msg.BatchID,
		"source", source,
		"record_count", len(profiles),
	)

	return msg.BatchID, nil
}
