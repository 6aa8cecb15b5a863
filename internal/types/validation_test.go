package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validProfile() ProfileRecord {
	return ProfileRecord{
		ID:          1,
		FloatID:     "2902746",
		Latitude:    12.5,
		Longitude:   68.2,
		Depth:       150,
		Temperature: 14.8,
		Salinity:    35.1,
		Month:       3,
		Year:        2024,
	}
}

func TestValidRecord(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProfileRecord)
		want   bool
	}{
		{"valid record", func(*ProfileRecord) {}, true},
		{"nan temperature", func(p *ProfileRecord) { p.Temperature = math.NaN() }, false},
		{"inf salinity", func(p *ProfileRecord) { p.Salinity = math.Inf(1) }, false},
		{"latitude above range", func(p *ProfileRecord) { p.Latitude = 90.1 }, false},
		{"latitude at boundary", func(p *ProfileRecord) { p.Latitude = -90 }, true},
		{"longitude below range", func(p *ProfileRecord) { p.Longitude = -180.5 }, false},
		{"negative depth", func(p *ProfileRecord) { p.Depth = -1 }, false},
		{"zero depth", func(p *ProfileRecord) { p.Depth = 0 }, true},
		{"month zero", func(p *ProfileRecord) { p.Month = 0 }, false},
		{"month thirteen", func(p *ProfileRecord) { p.Month = 13 }, false},
		{"december", func(p *ProfileRecord) { p.Month = 12 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			assert.Equal(t, tt.want, ValidRecord(p))
		})
	}
}

func TestFilterValid(t *testing.T) {
	good := validProfile()
	bad := validProfile()
	bad.Temperature = math.NaN()

	valid, excluded := FilterValid([]ProfileRecord{good, bad, good})
	assert.Len(t, valid, 2)
	assert.Equal(t, 1, excluded)

	valid, excluded = FilterValid(nil)
	assert.Empty(t, valid)
	assert.Zero(t, excluded)
}

func TestBoundsClamp(t *testing.T) {
	b := Bounds{South: -95, North: 120, West: -200, East: 181}
	c := b.Clamp()
	assert.Equal(t, Bounds{South: -90, North: 90, West: -180, East: 180}, c)

	inRange := Bounds{South: -10.25, North: 22.5, West: 60, East: 75.125}
	assert.Equal(t, inRange, inRange.Clamp())
}

func TestFilterSetMatches(t *testing.T) {
	p := validProfile()

	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }

	tests := []struct {
		name   string
		filter FilterSet
		want   bool
	}{
		{"empty filter matches all", FilterSet{}, true},
		{"depth min pass", FilterSet{DepthMin: f(100)}, true},
		{"depth min fail", FilterSet{DepthMin: f(200)}, false},
		{"depth max fail", FilterSet{DepthMax: f(100)}, false},
		{"temperature window pass", FilterSet{TemperatureMin: f(10), TemperatureMax: f(20)}, true},
		{"salinity max fail", FilterSet{SalinityMax: f(35)}, false},
		{"month pass", FilterSet{Month: i(3)}, true},
		{"month fail", FilterSet{Month: i(4)}, false},
		{"year fail", FilterSet{Year: i(2023)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(p))
		})
	}
}

func TestYearMonthKey(t *testing.T) {
	p := validProfile()
	assert.Equal(t, "2024-03", p.YearMonthKey())

	p.Month = 12
	p.Year = 999
	assert.Equal(t, "0999-12", p.YearMonthKey())
}

func TestFieldValue(t *testing.T) {
	p := validProfile()

	v, err := p.FieldValue(FieldDepth)
	assert.NoError(t, err)
	assert.Equal(t, 150.0, v)

	v, err = p.FieldValue(FieldTemperature)
	assert.NoError(t, err)
	assert.Equal(t, 14.8, v)

	v, err = p.FieldValue(FieldSalinity)
	assert.NoError(t, err)
	assert.Equal(t, 35.1, v)

	_, err = p.FieldValue(MeasurementField("pressure"))
	assert.Error(t, err)
}
