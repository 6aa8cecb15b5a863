package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"floatdeck/internal/aggregate"
	"floatdeck/internal/types"
)

const systemPrompt = "You are an oceanography assistant for a float profile " +
	"dashboard. Answer questions about temperature, salinity and depth " +
	"measurements concisely, using appropriate oceanographic terminology."

const fallbackAnswer = "I can help you analyze float profile data. Try asking " +
	"about temperature, salinity or depth patterns in a specific region, for " +
	"example \"salinity near the equator\" or \"deep profiles in the Indian ocean\"."

// DataProvider supplies the profile dataset for a constrained question.
type DataProvider interface {
	ViewportData(ctx context.Context, bounds types.Bounds, filters types.FilterSet) ([]types.ProfileRecord, error)
}

// Summarizer generates free-form answers for questions with no recognizable
// data constraints.
type Summarizer interface {
	Summarize(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Response is the chat answer plus the structured insights it was built from.
type Response struct {
	Answer      string              `json:"answer"`
	Suggestions []string            `json:"suggestions"`
	Insights    *types.ProfileStats `json:"insights,omitempty"`
}

// Service answers questions, preferring data-grounded answers over the model.
type Service struct {
	data       DataProvider
	summarizer Summarizer
	logger     *slog.Logger
}

// NewService wires the chat service. The summarizer may be nil, in which case
// unconstrained questions get the canned fallback.
func NewService(data DataProvider, summarizer Summarizer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{data: data, summarizer: summarizer, logger: logger}
}

// Ask answers a question. Questions with recognizable constraints are answered
// from the data directly; the rest go to the summarization model. Ask never
// fails on upstream errors, only on an empty question.
func (s *Service) Ask(ctx context.Context, message string) (*Response, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, types.NewAppError(types.ErrCodeValidationMissingField, "message is required", nil)
	}

	intent := ParseIntent(message)
	if intent.Empty() {
		return &Response{
			Answer:      s.summarize(ctx, message),
			Suggestions: suggestionsFor(message),
		}, nil
	}

	records, err := s.data.ViewportData(ctx, intent.Bounds(), intent.Filters)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return &Response{
			Answer:      "No profiles match those criteria. Try broadening the region or removing a filter.",
			Suggestions: suggestionsFor(message),
		}, nil
	}

	stats := aggregate.Statistics(records)
	return &Response{
		Answer:      describeRecords(records, stats),
		Suggestions: suggestionsFor(message),
		Insights:    &stats,
	}, nil
}

func (s *Service) summarize(ctx context.Context, message string) string {
	if s.summarizer == nil {
		return fallbackAnswer
	}
	answer, err := s.summarizer.Summarize(ctx, systemPrompt, message)
	if err != nil {
		s.logger.WarnContext(ctx, "summarizer unavailable, using fallback answer", "error", err)
		return fallbackAnswer
	}
	return answer
}

// describeRecords renders a deterministic answer from the matching dataset.
func describeRecords(records []types.ProfileRecord, stats types.ProfileStats) string {
	tempMin, tempMax := records[0].Temperature, records[0].Temperature
	salMin, salMax := records[0].Salinity, records[0].Salinity
	for _, r := range records[1:] {
		tempMin = min(tempMin, r.Temperature)
		tempMax = max(tempMax, r.Temperature)
		salMin = min(salMin, r.Salinity)
		salMax = max(salMax, r.Salinity)
	}

	parts := []string{
		fmt.Sprintf("Found %d profiles", stats.TotalProfiles),
		fmt.Sprintf("Temperature: %.2f°C avg (range %.2f to %.2f°C)", stats.AvgTemperature, tempMin, tempMax),
		fmt.Sprintf("Salinity: %.2f PSU avg (range %.2f to %.2f PSU)", stats.AvgSalinity, salMin, salMax),
		fmt.Sprintf("Depth range: %.0f to %.0fm", stats.DepthRange.Min, stats.DepthRange.Max),
	}
	return strings.Join(parts, ". ") + "."
}

// suggestionsFor proposes follow-up questions related to the topic asked.
func suggestionsFor(message string) []string {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "temp"):
		return []string{
			"How does salinity vary in the same region?",
			"Show the temperature histogram for this viewport",
		}
	case strings.Contains(m, "sal"):
		return []string{
			"Is salinity correlated with temperature here?",
			"Show monthly salinity averages",
		}
	case strings.Contains(m, "depth") || strings.Contains(m, "deep") || strings.Contains(m, "surface"):
		return []string{
			"What is the temperature at these depths?",
			"Show the depth distribution",
		}
	default:
		return []string{
			"What is the average temperature near the equator?",
			"Show salinity in the Indian ocean",
		}
	}
}
