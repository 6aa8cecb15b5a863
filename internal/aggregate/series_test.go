package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatdeck/internal/types"
)

func monthProfile(year, month int, temp float64) types.ProfileRecord {
	return types.ProfileRecord{
		ID:          1,
		Latitude:    10,
		Longitude:   70,
		Depth:       100,
		Temperature: temp,
		Salinity:    35,
		Month:       month,
		Year:        year,
	}
}

func TestMonthlySeriesCenteredSmoothing(t *testing.T) {
	// Months with averages 5, 7, 9 and window 3 smooth to 6.0, 7.0, 8.0;
	// boundary points average only two neighbors.
	records := []types.ProfileRecord{
		monthProfile(2024, 1, 5),
		monthProfile(2024, 2, 7),
		monthProfile(2024, 3, 9),
	}

	series := MonthlySeries(records, types.FieldTemperature, 3)
	require.Len(t, series, 3)

	assert.Equal(t, "2024-01", series[0].YearMonth)
	assert.InDelta(t, 5.0, series[0].Average, 1e-9)
	assert.InDelta(t, 6.0, series[0].SmoothedAverage, 1e-9)

	assert.Equal(t, "2024-02", series[1].YearMonth)
	assert.InDelta(t, 7.0, series[1].SmoothedAverage, 1e-9)

	assert.Equal(t, "2024-03", series[2].YearMonth)
	assert.InDelta(t, 8.0, series[2].SmoothedAverage, 1e-9)
}

func TestMonthlySeriesGroupAveraging(t *testing.T) {
	records := []types.ProfileRecord{
		monthProfile(2024, 1, 4),
		monthProfile(2024, 1, 6),
		monthProfile(2024, 2, 10),
	}

	series := MonthlySeries(records, types.FieldTemperature, 1)
	require.Len(t, series, 2)
	assert.InDelta(t, 5.0, series[0].Average, 1e-9)
	assert.Equal(t, 2, series[0].Count)
	assert.InDelta(t, 10.0, series[1].Average, 1e-9)

	// Window 1 leaves the series unsmoothed.
	assert.Equal(t, series[0].Average, series[0].SmoothedAverage)
}

func TestMonthlySeriesChronologicalOrder(t *testing.T) {
	// Year boundary: 2023-12 sorts before 2024-01, and single-digit months
	// are zero-padded so 2024-02 < 2024-10.
	records := []types.ProfileRecord{
		monthProfile(2024, 10, 1),
		monthProfile(2023, 12, 2),
		monthProfile(2024, 2, 3),
		monthProfile(2024, 1, 4),
	}

	series := MonthlySeries(records, types.FieldTemperature, 3)
	require.Len(t, series, 4)

	keys := []string{series[0].YearMonth, series[1].YearMonth, series[2].YearMonth, series[3].YearMonth}
	assert.Equal(t, []string{"2023-12", "2024-01", "2024-02", "2024-10"}, keys)
	for i := 1; i < len(series); i++ {
		assert.Less(t, series[i-1].YearMonth, series[i].YearMonth)
	}
}

func TestMonthlySeriesOrderIndependent(t *testing.T) {
	records := []types.ProfileRecord{
		monthProfile(2024, 1, 5),
		monthProfile(2024, 2, 7),
		monthProfile(2024, 3, 9),
		monthProfile(2024, 2, 8),
		monthProfile(2024, 4, 6),
	}

	expected := MonthlySeries(records, types.FieldTemperature, 3)

	shuffled := make([]types.ProfileRecord, len(records))
	copy(shuffled, records)
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, expected, MonthlySeries(shuffled, types.FieldTemperature, 3))
	}
}

func TestMonthlySeriesBoundaryWindows(t *testing.T) {
	// For n=7 and w=5, half=2: the window at index 0 covers indices [0,2]
	// (length half+1=3), interior windows cover 2*half+1=5.
	var records []types.ProfileRecord
	values := []float64{1, 2, 3, 4, 5, 6, 7}
	for i, v := range values {
		records = append(records, monthProfile(2024, i+1, v))
	}

	series := MonthlySeries(records, types.FieldTemperature, 5)
	require.Len(t, series, 7)

	// Index 0: mean(1,2,3) = 2.
	assert.InDelta(t, 2.0, series[0].SmoothedAverage, 1e-9)
	// Index 3 (interior): mean(2..6) = 4.
	assert.InDelta(t, 4.0, series[3].SmoothedAverage, 1e-9)
	// Index 6: mean(5,6,7) = 6.
	assert.InDelta(t, 6.0, series[6].SmoothedAverage, 1e-9)
}

func TestMonthlySeriesEvenWindow(t *testing.T) {
	// Even windows use half=(w-1)/2, so w=4 behaves like w=3.
	records := []types.ProfileRecord{
		monthProfile(2024, 1, 5),
		monthProfile(2024, 2, 7),
		monthProfile(2024, 3, 9),
	}

	w3 := MonthlySeries(records, types.FieldTemperature, 3)
	w4 := MonthlySeries(records, types.FieldTemperature, 4)
	assert.Equal(t, w3, w4)
}

func TestMonthlySeriesWindowClamped(t *testing.T) {
	records := []types.ProfileRecord{
		monthProfile(2024, 1, 5),
		monthProfile(2024, 2, 7),
	}

	zero := MonthlySeries(records, types.FieldTemperature, 0)
	negative := MonthlySeries(records, types.FieldTemperature, -4)
	one := MonthlySeries(records, types.FieldTemperature, 1)

	assert.Equal(t, one, zero)
	assert.Equal(t, one, negative)
}

func TestMonthlySeriesEmptyInput(t *testing.T) {
	series := MonthlySeries(nil, types.FieldTemperature, 3)
	assert.NotNil(t, series)
	assert.Empty(t, series)
}

func TestMonthlySeriesSalinityField(t *testing.T) {
	records := []types.ProfileRecord{
		monthProfile(2024, 1, 5),
		monthProfile(2024, 2, 7),
	}
	records[0].Salinity = 34
	records[1].Salinity = 36

	series := MonthlySeries(records, types.FieldSalinity, 1)
	require.Len(t, series, 2)
	assert.InDelta(t, 34.0, series[0].Average, 1e-9)
	assert.InDelta(t, 36.0, series[1].Average, 1e-9)
}
