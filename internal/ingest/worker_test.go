package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqsTypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"floatdeck/internal/types"
)

// --- Mocks ---

type mockConsumer struct {
	batches [][]sqsTypes.Message
	polls   int
	deleted []string
	cancel  context.CancelFunc
}

func (m *mockConsumer) ReceiveMessage(_ context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	if m.polls >= len(m.batches) {
		// Out of scripted batches; stop the worker.
		if m.cancel != nil {
			m.cancel()
		}
		return &sqs.ReceiveMessageOutput{}, nil
	}
	batch := m.batches[m.polls]
	m.polls++
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (m *mockConsumer) DeleteMessage(_ context.Context, params *sqs.DeleteMessageInput, _ ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	m.deleted = append(m.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

type mockInserter struct {
	inserted [][]types.ProfileRecord
	result   int
	err      error
}

func (m *mockInserter) BulkInsert(_ context.Context, records []types.ProfileRecord) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.inserted = append(m.inserted, records)
	if m.result > 0 {
		return m.result, nil
	}
	return len(records), nil
}

type mockIngestMetrics struct {
	accepted, rejected int
	calls              int
}

func (m *mockIngestMetrics) RecordIngestBatch(_ context.Context, accepted, rejected int) {
	m.accepted += accepted
	m.rejected += rejected
	m.calls++
}

// --- Helpers ---

func ingestBody(t *testing.T, profiles []types.ProfileRecord) string {
	t.Helper()
	body, err := json.Marshal(types.IngestMessage{
		BatchID:  "batch-1",
		Source:   "test",
		SentAt:   time.Now().UTC(),
		Profiles: profiles,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(body)
}

func validIngestProfiles() []types.ProfileRecord {
	return []types.ProfileRecord{
		{FloatID: "F1", Latitude: 10, Longitude: 70, Depth: 100, Temperature: 15, Salinity: 35, Month: 6, Year: 2024},
		{FloatID: "F2", Latitude: 11, Longitude: 71, Depth: 200, Temperature: 12, Salinity: 34, Month: 6, Year: 2024},
	}
}

func newTestWorker(consumer SQSConsumer, store Inserter, metrics MetricsRecorder) *Worker {
	return NewWorker(consumer, "https://sqs.test/ingest", store, metrics, slog.New(slog.DiscardHandler))
}

// --- ProcessMessage Tests ---

func TestProcessMessage_InsertsValidRecords(t *testing.T) {
	store := &mockInserter{}
	metrics := &mockIngestMetrics{}
	w := newTestWorker(&mockConsumer{}, store, metrics)

	err := w.ProcessMessage(context.Background(), ingestBody(t, validIngestProfiles()))
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}

	if len(store.inserted) != 1 || len(store.inserted[0]) != 2 {
		t.Fatalf("inserted = %+v", store.inserted)
	}
	if metrics.accepted != 2 || metrics.rejected != 0 {
		t.Errorf("metrics = %+v", metrics)
	}
}

func TestProcessMessage_RejectsInvalidRecords(t *testing.T) {
	profiles := append(validIngestProfiles(),
		types.ProfileRecord{FloatID: "BAD", Latitude: 200, Month: 6, Year: 2024},
		types.ProfileRecord{FloatID: "BAD2", Latitude: 10, Longitude: 70, Month: 0, Year: 2024},
	)
	store := &mockInserter{}
	metrics := &mockIngestMetrics{}
	w := newTestWorker(&mockConsumer{}, store, metrics)

	err := w.ProcessMessage(context.Background(), ingestBody(t, profiles))
	if err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}

	if len(store.inserted[0]) != 2 {
		t.Errorf("inserted %d records, want 2", len(store.inserted[0]))
	}
	if metrics.rejected != 2 {
		t.Errorf("rejected = %d, want 2", metrics.rejected)
	}
}

func TestProcessMessage_MalformedBodyIsDiscarded(t *testing.T) {
	store := &mockInserter{}
	w := newTestWorker(&mockConsumer{}, store, nil)

	// Returning nil lets the caller delete the poison message.
	if err := w.ProcessMessage(context.Background(), "{not json"); err != nil {
		t.Fatalf("expected nil for malformed body, got %v", err)
	}
	if len(store.inserted) != 0 {
		t.Errorf("nothing should be inserted, got %+v", store.inserted)
	}
}

func TestProcessMessage_InsertFailurePropagates(t *testing.T) {
	store := &mockInserter{err: errors.New("connection refused")}
	w := newTestWorker(&mockConsumer{}, store, nil)

	err := w.ProcessMessage(context.Background(), ingestBody(t, validIngestProfiles()))
	if err == nil {
		t.Fatal("expected an error when the insert fails")
	}
}

func TestProcessMessage_AllInvalidSkipsInsert(t *testing.T) {
	profiles := []types.ProfileRecord{
		{FloatID: "BAD", Latitude: 200, Month: 6, Year: 2024},
	}
	store := &mockInserter{err: errors.New("should not be called")}
	metrics := &mockIngestMetrics{}
	w := newTestWorker(&mockConsumer{}, store, metrics)

	if err := w.ProcessMessage(context.Background(), ingestBody(t, profiles)); err != nil {
		t.Fatalf("ProcessMessage returned error: %v", err)
	}
	if metrics.rejected != 1 || metrics.accepted != 0 {
		t.Errorf("metrics = %+v", metrics)
	}
}

// --- Run Tests ---

func TestRun_ProcessesAndDeletesMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &mockConsumer{
		cancel: cancel,
		batches: [][]sqsTypes.Message{
			{
				{
					MessageId:     aws.String("m1"),
					ReceiptHandle: aws.String("rh1"),
					Body:          aws.String(ingestBody(t, validIngestProfiles())),
				},
				{
					MessageId:     aws.String("m2"),
					ReceiptHandle: aws.String("rh2"),
					Body:          aws.String("{not json"),
				},
			},
		},
	}
	store := &mockInserter{}
	w := newTestWorker(consumer, store, nil)

	err := w.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v, want context.Canceled", err)
	}

	// Both messages are deleted: the valid one after insert, the malformed
	// one as poison.
	if len(consumer.deleted) != 2 {
		t.Errorf("deleted = %v", consumer.deleted)
	}
	if len(store.inserted) != 1 {
		t.Errorf("inserted batches = %d", len(store.inserted))
	}
}

func TestRun_FailedMessageNotDeleted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &mockConsumer{
		cancel: cancel,
		batches: [][]sqsTypes.Message{
			{
				{
					MessageId:     aws.String("m1"),
					ReceiptHandle: aws.String("rh1"),
					Body:          aws.String(ingestBody(t, validIngestProfiles())),
				},
			},
		},
	}
	store := &mockInserter{err: errors.New("db down")}
	w := newTestWorker(consumer, store, nil)

	_ = w.Run(ctx)

	if len(consumer.deleted) != 0 {
		t.Errorf("failed message must stay on the queue, deleted = %v", consumer.deleted)
	}
}
