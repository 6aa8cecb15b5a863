package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

type mockSSMClient struct {
	values    map[string]string
	err       error
	callCount int
	batches   [][]string
}

func (m *mockSSMClient) GetParameters(_ context.Context, params *ssm.GetParametersInput, _ ...func(*ssm.Options)) (*ssm.GetParametersOutput, error) {
	m.callCount++
	m.batches = append(m.batches, params.Names)
	if m.err != nil {
		return nil, m.err
	}

	output := &ssm.GetParametersOutput{}
	for _, name := range params.Names {
		if v, ok := m.values[name]; ok {
			output.Parameters = append(output.Parameters, ssmtypes.Parameter{
				Name:  aws.String(name),
				Value: aws.String(v),
			})
		} else {
			output.InvalidParameters = append(output.InvalidParameters, name)
		}
	}
	return output, nil
}

func TestSSMProviderBatchResolution(t *testing.T) {
	client := &mockSSMClient{values: map[string]string{
		"/dev/floatdeck/database/url":   "postgres://db",
		"/dev/floatdeck/summarizer/key": "sk-test",
	}}
	provider := newSSMProviderWithClient("us-east-1", client)

	result, err := provider.GetParametersBatch(context.Background(), []string{
		"/dev/floatdeck/database/url",
		"/dev/floatdeck/summarizer/key",
	})
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if result["/dev/floatdeck/database/url"] != "postgres://db" {
		t.Errorf("database url = %q", result["/dev/floatdeck/database/url"])
	}
	if result["/dev/floatdeck/summarizer/key"] != "sk-test" {
		t.Errorf("summarizer key = %q", result["/dev/floatdeck/summarizer/key"])
	}
	if client.callCount != 1 {
		t.Errorf("callCount = %d, want 1", client.callCount)
	}
}

func TestSSMProviderRespectsBatchLimit(t *testing.T) {
	values := make(map[string]string)
	var keys []string
	for i := 0; i < 25; i++ {
		key := "/dev/floatdeck/param/" + string(rune('a'+i))
		values[key] = "value"
		keys = append(keys, key)
	}
	client := &mockSSMClient{values: values}
	provider := newSSMProviderWithClient("us-east-1", client)

	result, err := provider.GetParametersBatch(context.Background(), keys)
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if len(result) != 25 {
		t.Errorf("resolved %d parameters, want 25", len(result))
	}
	// 25 keys at 10 per batch is 3 calls.
	if client.callCount != 3 {
		t.Errorf("callCount = %d, want 3", client.callCount)
	}
	for i, batch := range client.batches {
		if len(batch) > ssmMaxBatchSize {
			t.Errorf("batch %d has %d keys, exceeds limit %d", i, len(batch), ssmMaxBatchSize)
		}
	}
}

func TestSSMProviderInvalidParameter(t *testing.T) {
	client := &mockSSMClient{values: map[string]string{}}
	provider := newSSMProviderWithClient("us-east-1", client)

	_, err := provider.GetParametersBatch(context.Background(), []string{"/missing"})
	if err == nil {
		t.Fatal("GetParametersBatch should fail on invalid parameters")
	}
}

func TestSSMProviderClientError(t *testing.T) {
	client := &mockSSMClient{err: errors.New("throttled")}
	provider := newSSMProviderWithClient("us-east-1", client)

	_, err := provider.GetParametersBatch(context.Background(), []string{"/dev/key"})
	if err == nil {
		t.Fatal("GetParametersBatch should propagate client errors")
	}
}

func TestSSMProviderEmptyKeys(t *testing.T) {
	client := &mockSSMClient{}
	provider := newSSMProviderWithClient("us-east-1", client)

	result, err := provider.GetParametersBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("result has %d entries, want 0", len(result))
	}
	if client.callCount != 0 {
		t.Errorf("callCount = %d, want 0", client.callCount)
	}
}

func TestSSMProviderCancelledContext(t *testing.T) {
	client := &mockSSMClient{values: map[string]string{"/dev/key": "v"}}
	provider := newSSMProviderWithClient("us-east-1", client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := provider.GetParametersBatch(ctx, []string{"/dev/key"})
	if err == nil {
		t.Fatal("GetParametersBatch should fail with a cancelled context")
	}
}

func TestEnvVarProvider(t *testing.T) {
	t.Setenv("FLOATDECK_TEST_SECRET", "plaintext")

	provider := NewEnvVarProvider()
	result, err := provider.GetParametersBatch(context.Background(), []string{
		"FLOATDECK_TEST_SECRET",
		"FLOATDECK_TEST_MISSING",
	})
	if err != nil {
		t.Fatalf("GetParametersBatch returned error: %v", err)
	}
	if result["FLOATDECK_TEST_SECRET"] != "plaintext" {
		t.Errorf("resolved value = %q, want plaintext", result["FLOATDECK_TEST_SECRET"])
	}
	if _, ok := result["FLOATDECK_TEST_MISSING"]; ok {
		t.Error("missing key should be omitted from the result")
	}
}
