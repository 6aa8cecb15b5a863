// Package chat answers natural-language questions about the profile data.
// Questions with recognizable geographic or measurement constraints are
// answered deterministically from the data itself; everything else is proxied
// to the summarization model, degrading to a canned reply when it is down.
package chat

import (
	"regexp"
	"strconv"
	"strings"

	"floatdeck/internal/types"
)

// Intent is the structured query extracted from a free-form question. Nil
// fields mean the question did not constrain that dimension.
type Intent struct {
	LatMin  *float64
	LatMax  *float64
	LonMin  *float64
	LonMax  *float64
	Filters types.FilterSet
}

// Empty reports whether nothing was recognized in the question.
func (i Intent) Empty() bool {
	return i.LatMin == nil && i.LatMax == nil && i.LonMin == nil && i.LonMax == nil &&
		i.Filters == (types.FilterSet{})
}

// Bounds converts the intent into a viewport, defaulting unconstrained sides
// to the full globe.
func (i Intent) Bounds() types.Bounds {
	b := types.Bounds{South: types.MinLat, North: types.MaxLat, West: types.MinLon, East: types.MaxLon}
	if i.LatMin != nil {
		b.South = *i.LatMin
	}
	if i.LatMax != nil {
		b.North = *i.LatMax
	}
	if i.LonMin != nil {
		b.West = *i.LonMin
	}
	if i.LonMax != nil {
		b.East = *i.LonMax
	}
	return b
}

type latLonBand struct {
	latMin, latMax *float64
	lonMin, lonMax *float64
}

func fp(v float64) *float64 { return &v }

// Named ocean regions and latitude bands recognized in questions.
var oceanRegions = map[string]latLonBand{
	"pacific":  {lonMin: fp(-180), lonMax: fp(-60)},
	"atlantic": {lonMin: fp(-60), lonMax: fp(20)},
	"indian":   {lonMin: fp(20), lonMax: fp(147)},
	"southern": {latMin: fp(-90), latMax: fp(-30)},
	"arctic":   {latMin: fp(60), latMax: fp(90)},
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var (
	latBandRe  = regexp.MustCompile(`lat\s*(-?\d{1,2})\s*(?:to|-)\s*(-?\d{1,2})`)
	lonBandRe  = regexp.MustCompile(`lon\s*(-?\d{1,3})\s*(?:to|-)\s*(-?\d{1,3})`)
	depthRe    = regexp.MustCompile(`depth\s*(\d+)\s*(?:to|-|below|above)\s*(\d+)`)
	tempRe     = regexp.MustCompile(`temp\w*\s*(-?\d+(?:\.\d+)?)\s*(?:to|-)\s*(-?\d+(?:\.\d+)?)`)
	salinityRe = regexp.MustCompile(`sal\w*\s*(\d+(?:\.\d+)?)\s*(?:to|-)\s*(\d+(?:\.\d+)?)`)
	monthRe    = regexp.MustCompile(`\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s*(\d{4})?`)
	yearRe     = regexp.MustCompile(`\b(20\d{2})\b`)
)

// ParseIntent extracts geographic, measurement and temporal constraints from
// a question using keyword and pattern matching.
func ParseIntent(message string) Intent {
	m := strings.ToLower(message)
	var intent Intent

	for region, band := range oceanRegions {
		if strings.Contains(m, region) {
			if band.latMin != nil {
				intent.LatMin, intent.LatMax = band.latMin, band.latMax
			}
			if band.lonMin != nil {
				intent.LonMin, intent.LonMax = band.lonMin, band.lonMax
			}
		}
	}

	if strings.Contains(m, "equator") {
		intent.LatMin, intent.LatMax = fp(-10), fp(10)
	} else if strings.Contains(m, "tropical") {
		intent.LatMin, intent.LatMax = fp(-23.5), fp(23.5)
	}

	if g := latBandRe.FindStringSubmatch(m); g != nil {
		a, b := parseOrderedPair(g[1], g[2])
		intent.LatMin, intent.LatMax = &a, &b
	}
	if g := lonBandRe.FindStringSubmatch(m); g != nil {
		a, b := parseOrderedPair(g[1], g[2])
		intent.LonMin, intent.LonMax = &a, &b
	}

	if g := depthRe.FindStringSubmatch(m); g != nil {
		a, b := parseOrderedPair(g[1], g[2])
		intent.Filters.DepthMin, intent.Filters.DepthMax = &a, &b
	} else if strings.Contains(m, "deep") || strings.Contains(m, "below") {
		intent.Filters.DepthMin = fp(1000)
	} else if strings.Contains(m, "surface") || strings.Contains(m, "mixed layer") {
		intent.Filters.DepthMax = fp(100)
	}

	if g := tempRe.FindStringSubmatch(m); g != nil {
		a, b := parseOrderedPair(g[1], g[2])
		intent.Filters.TemperatureMin, intent.Filters.TemperatureMax = &a, &b
	}
	if g := salinityRe.FindStringSubmatch(m); g != nil {
		a, b := parseOrderedPair(g[1], g[2])
		intent.Filters.SalinityMin, intent.Filters.SalinityMax = &a, &b
	}

	if g := monthRe.FindStringSubmatch(m); g != nil {
		month := monthNames[g[1]]
		intent.Filters.Month = &month
		if g[2] != "" {
			if year, err := strconv.Atoi(g[2]); err == nil {
				intent.Filters.Year = &year
			}
		}
	}
	if g := yearRe.FindStringSubmatch(m); g != nil && intent.Filters.Year == nil {
		if year, err := strconv.Atoi(g[1]); err == nil {
			intent.Filters.Year = &year
		}
	}

	return intent
}

func parseOrderedPair(sa, sb string) (float64, float64) {
	a, _ := strconv.ParseFloat(sa, 64)
	b, _ := strconv.ParseFloat(sb, 64)
	if a > b {
		return b, a
	}
	return a, b
}
