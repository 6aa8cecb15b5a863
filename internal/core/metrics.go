package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"floatdeck/internal/types"
)

// CloudWatchClient abstracts PutMetricData for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes API and viewport-cache telemetry to CloudWatch.
// Metric failures are logged and swallowed; telemetry must never fail a
// request.
//
// Metrics emitted:
//   - APILatency / APIRequestCount: Dims {Method, Endpoint, Status}
//   - ViewportCacheHit / ViewportCacheMiss: no dims
//   - ViewportFetchFallback: no dims
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a collector publishing to the given namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRequest emits latency and count metrics for one API request.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String("Method"), Value: aws.String(method)},
		{Name: aws.String("Endpoint"), Value: aws.String(endpoint)},
		{Name: aws.String("Status"), Value: aws.String(status)},
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricAPILatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(types.MetricAPIRequestCount),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
		},
	}

	if _, err := m.client.PutMetricData(context.Background(), input); err != nil {
		m.logger.Error("failed to record request metrics",
			"error", err,
			"endpoint", endpoint,
		)
	}
}

// RecordCacheLookup emits a hit or miss counter for the viewport cache.
func (m *CloudWatchMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	name := types.MetricCacheMiss
	if hit {
		name = types.MetricCacheHit
	}
	m.putCount(ctx, name)
}

// RecordFetchFallback emits a counter for last-good fallback serves.
func (m *CloudWatchMetrics) RecordFetchFallback(ctx context.Context) {
	m.putCount(ctx, types.MetricFetchFallback)
}

// RecordIngestBatch emits batch size and rejected record counts for one
// ingest message.
func (m *CloudWatchMetrics) RecordIngestBatch(ctx context.Context, accepted, rejected int) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(types.MetricIngestBatchSize),
				Value:      aws.Float64(float64(accepted)),
				Unit:       cwtypes.StandardUnitCount,
			},
			{
				MetricName: aws.String(types.MetricIngestRejected),
				Value:      aws.Float64(float64(rejected)),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record ingest metrics", "error", err)
	}
}

func (m *CloudWatchMetrics) putCount(ctx context.Context, name string) {
	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(name),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
			},
		},
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record metric", "error", err, "metric", name)
	}
}
