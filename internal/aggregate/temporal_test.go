package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatdeck/internal/types"
)

func temporalProfile(year, month int, temp float64) types.ProfileRecord {
	return types.ProfileRecord{
		Latitude: 10, Longitude: 70, Depth: 100,
		Temperature: temp, Salinity: 35,
		Month: month, Year: year,
	}
}

func TestTemporalBreakdowns(t *testing.T) {
	records := []types.ProfileRecord{
		temporalProfile(2023, 1, 10),
		temporalProfile(2024, 1, 14),
		temporalProfile(2024, 2, 12),
	}

	result := Temporal(records, types.FieldTemperature, 1)

	// January pools both years.
	require.Len(t, result.ByMonth, 2)
	assert.Equal(t, types.PeriodSummary{Period: "01", Count: 2, Average: 12}, result.ByMonth[0])
	assert.Equal(t, types.PeriodSummary{Period: "02", Count: 1, Average: 12}, result.ByMonth[1])

	require.Len(t, result.ByYear, 2)
	assert.Equal(t, types.PeriodSummary{Period: "2023", Count: 1, Average: 10}, result.ByYear[0])
	assert.Equal(t, types.PeriodSummary{Period: "2024", Count: 2, Average: 13}, result.ByYear[1])

	// The series matches MonthlySeries over the same input.
	require.Len(t, result.Series, 3)
	assert.Equal(t, "2023-01", result.Series[0].YearMonth)
}

func TestTemporalSkipsInvalidRecords(t *testing.T) {
	records := []types.ProfileRecord{
		temporalProfile(2024, 1, 10),
		{Latitude: 200, Month: 1, Year: 2024, Temperature: 99},
	}

	result := Temporal(records, types.FieldTemperature, 1)

	require.Len(t, result.ByMonth, 1)
	assert.Equal(t, 1, result.ByMonth[0].Count)
	assert.Equal(t, 10.0, result.ByMonth[0].Average)
}

func TestTemporalEmptyInput(t *testing.T) {
	result := Temporal(nil, types.FieldSalinity, 3)

	assert.Empty(t, result.Series)
	assert.Empty(t, result.ByMonth)
	assert.Empty(t, result.ByYear)
}
