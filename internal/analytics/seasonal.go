package analytics

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/models"
)

// Granularity selects the calendar period size for seasonal aggregation
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// IsValid checks if the granularity is supported
func (g Granularity) IsValid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	default:
		return false
	}
}

// ParseGranularity parses a granularity name from configuration
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(s)
	if !g.IsValid() {
		return "", fmt.Errorf("invalid granularity %q: must be day, week or month", s)
	}
	return g, nil
}

// SeasonalityPoint is one calendar period in a seasonal series
type SeasonalityPoint struct {
	Label        string          `json:"period_label"`
	PeriodStart  time.Time       `json:"period_start"`
	Value        decimal.Decimal `json:"value"`
	Transactions int64           `json:"transactions"`
}

// floor truncates a timestamp to the start of its calendar period. Floors
// are computed in UTC; the loader parses zone-less timestamps as UTC.
func (g Granularity) floor(t time.Time) time.Time {
	t = t.UTC()
	switch g {
	case GranularityWeek:
		// ISO weeks start on Monday
		offset := (int(t.Weekday()) + 6) % 7
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// next advances a period start to the following period
func (g Granularity) next(t time.Time) time.Time {
	switch g {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// label formats a period start for display
func (g Granularity) label(t time.Time) string {
	switch g {
	case GranularityWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case GranularityMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// SeasonalSeries buckets the transactions into calendar periods at the given
// granularity. Every period between the dataset's first and last timestamp
// appears exactly once; periods without transactions carry a zero value so
// consumers never mistake a gap for missing data. An empty dataset yields an
// empty series.
func SeasonalSeries(dataset *models.Dataset, granularity Granularity) []SeasonalityPoint {
	if dataset.Empty() {
		return nil
	}

	type accum struct {
		value decimal.Decimal
		count int64
	}
	totals := make(map[time.Time]*accum)
	for _, tx := range dataset.Transactions {
		period := granularity.floor(tx.Timestamp)
		a, ok := totals[period]
		if !ok {
			a = &accum{value: decimal.Zero}
			totals[period] = a
		}
		a.value = a.value.Add(tx.Amount)
		a.count++
	}

	start, end, _ := dataset.Period()
	first := granularity.floor(start)
	last := granularity.floor(end)

	var series []SeasonalityPoint
	for period := first; !period.After(last); period = granularity.next(period) {
		point := SeasonalityPoint{
			Label:       granularity.label(period),
			PeriodStart: period,
			Value:       decimal.Zero,
		}
		if a, ok := totals[period]; ok {
			point.Value = a.value
			point.Transactions = a.count
		}
		series = append(series, point)
	}
	return series
}
