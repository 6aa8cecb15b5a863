// Package ingest implements the SQS-driven ingest worker. It long-polls the
// ingest queue for IngestMessage batches, validates each record, bulk-inserts
// the valid ones and reports acceptance metrics.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"floatdeck/internal/types"
)

const (
	// maxMessagesPerPoll is the SQS ReceiveMessage batch cap.
	maxMessagesPerPoll = 10
	// waitTimeSeconds enables long polling to avoid empty-receive spin.
	waitTimeSeconds = 20
	// pollBackoff is the pause after a receive failure before retrying.
	pollBackoff = 5 * time.Second
)

// SQSConsumer abstracts the SQS receive/delete operations for testability.
type SQSConsumer interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Inserter persists validated record batches.
type Inserter interface {
	BulkInsert(ctx context.Context, records []types.ProfileRecord) (int, error)
}

// MetricsRecorder reports per-batch acceptance counts.
type MetricsRecorder interface {
	RecordIngestBatch(ctx context.Context, accepted, rejected int)
}

// Worker consumes the ingest queue until its context is cancelled.
type Worker struct {
	client   SQSConsumer
	queueURL string
	store    Inserter
	metrics  MetricsRecorder
	logger   *slog.Logger
}

// NewWorker creates an ingest worker. Metrics may be nil.
func NewWorker(client SQSConsumer, queueURL string, store Inserter, metrics MetricsRecorder, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		client:   client,
		queueURL: queueURL,
		store:    store,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run polls the queue until ctx is cancelled. Receive failures are logged and
// retried after a backoff; they never stop the worker.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "ingest worker started", "queue_url", w.queueURL)

	for {
		if err := ctx.Err(); err != nil {
			w.logger.InfoContext(ctx, "ingest worker stopping")
			return err
		}

		out, err := w.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(w.queueURL),
			MaxNumberOfMessages: maxMessagesPerPoll,
			WaitTimeSeconds:     waitTimeSeconds,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.ErrorContext(ctx, "receive from ingest queue failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(pollBackoff):
			}
			continue
		}

		for _, msg := range out.Messages {
			if err := w.ProcessMessage(ctx, aws.ToString(msg.Body)); err != nil {
				// Leave the message on the queue; visibility timeout
				// expiry retries it and the DLQ catches repeat failures.
				w.logger.ErrorContext(ctx, "ingest message processing failed",
					"message_id", aws.ToString(msg.MessageId),
					"error", err,
				)
				continue
			}

			if _, err := w.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
				QueueUrl:      aws.String(w.queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				w.logger.ErrorContext(ctx, "failed to delete processed message",
					"message_id", aws.ToString(msg.MessageId),
					"error", err,
				)
			}
		}
	}
}

// ProcessMessage handles one IngestMessage body: parse, validate, persist.
// A malformed body returns nil so the poison message is deleted instead of
// cycling through redelivery.
func (w *Worker) ProcessMessage(ctx context.Context, body string) error {
	var msg types.IngestMessage
	if err := json.Unmarshal([]byte(body), &msg); err != nil {
		w.logger.WarnContext(ctx, "discarding malformed ingest message", "error", err)
		return nil
	}

	valid, rejected := types.FilterValid(msg.Profiles)

	inserted := 0
	if len(valid) > 0 {
		var err error
		inserted, err = w.store.BulkInsert(ctx, valid)
		if err != nil {
			return fmt.Errorf("bulk insert for batch %s: %w", msg.BatchID, err)
		}
	}

	if w.metrics != nil {
		w.metrics.RecordIngestBatch(ctx, inserted, rejected)
	}

	w.logger.InfoContext(ctx, "ingest batch processed",
		"batch_id", msg.BatchID,
		"source", msg.Source,
		"received", len(msg.Profiles),
		"inserted", inserted,
		"rejected_invalid", rejected,
		"skipped_duplicate", len(valid)-inserted,
	)

	return nil
}
