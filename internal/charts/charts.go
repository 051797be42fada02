// Package charts is the chart-rendering collaborator of the analytics
// pipeline. The core computes plain label/value series; this package renders
// them to opaque PNG images the report composer positions without inspecting.
//
// The Renderer interface is the collaboration seam: the default
// implementation draws with gonum/plot, and tests substitute stubs.
package charts

import (
	"fmt"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/analytics"
)

// Kind selects the visual form of a chart
type Kind string

const (
	KindLine Kind = "line"
	KindBar  Kind = "bar"
)

// Series is the renderer-agnostic description of one chart: an identifier,
// axis labels and parallel label/value slices.
type Series struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Kind   Kind      `json:"kind"`
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Validate checks the series for mismatched label/value lengths
func (s *Series) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("chart series ID cannot be empty")
	}
	if len(s.Labels) != len(s.Values) {
		return fmt.Errorf("chart %s has %d labels but %d values", s.ID, len(s.Labels), len(s.Values))
	}
	return nil
}

// Image is an opaque rendered chart keyed by its chart identifier
type Image struct {
	ChartID string `json:"chart_id"`
	PNG     []byte `json:"-"`
}

// Renderer turns a series into an image. Implementations are external
// collaborators; the composer never interprets the bytes.
type Renderer interface {
	Render(series Series) (Image, error)
}

// Declared chart identifiers, in the fixed order report pages are laid out
const (
	ChartMonthlyVolume = "monthly_volume"
	ChartWeekdayVolume = "weekday_volume"
	ChartTopBranches   = "top_branches"
	ChartSegmentValue  = "segment_value"
)

// DeclaredCharts returns the fixed, ordered chart list the report expects.
// The composer rejects image sets that do not match it exactly.
func DeclaredCharts() []string {
	return []string{ChartMonthlyVolume, ChartWeekdayVolume, ChartTopBranches, ChartSegmentValue}
}

// NoDataLabel is used for the single placeholder point of an empty series
const NoDataLabel = "no data"

// BuildSeries derives the declared chart series from computed artifacts, in
// declared order. Empty inputs produce a single zero-valued "no data" point
// per chart so rendering and export never fail on an empty dataset.
func BuildSeries(seasonality []analytics.SeasonalityPoint, weekday []analytics.SeasonalityPoint, ranking []analytics.RankingEntry, segments []analytics.SegmentBucket) []Series {
	monthly := Series{
		ID:     ChartMonthlyVolume,
		Title:  "Volume by Period",
		Kind:   KindLine,
		XLabel: "Period",
		YLabel: "Volume",
	}
	for _, point := range seasonality {
		value, _ := point.Value.Float64()
		monthly.Labels = append(monthly.Labels, point.Label)
		monthly.Values = append(monthly.Values, value)
	}

	byWeekday := Series{
		ID:     ChartWeekdayVolume,
		Title:  "Volume by Weekday",
		Kind:   KindBar,
		XLabel: "Weekday",
		YLabel: "Volume",
	}
	for _, point := range weekday {
		value, _ := point.Value.Float64()
		byWeekday.Labels = append(byWeekday.Labels, point.Label)
		byWeekday.Values = append(byWeekday.Values, value)
	}

	top := Series{
		ID:     ChartTopBranches,
		Title:  "Top Branches",
		Kind:   KindBar,
		XLabel: "Branch",
		YLabel: "Metric",
	}
	for _, entry := range analytics.TopN(ranking, 10) {
		label := entry.BranchName
		if label == "" {
			label = entry.BranchID
		}
		value, _ := entry.MetricValue.Float64()
		top.Labels = append(top.Labels, label)
		top.Values = append(top.Values, value)
	}

	bySegment := Series{
		ID:     ChartSegmentValue,
		Title:  "Value by Customer Segment",
		Kind:   KindBar,
		XLabel: "Segment",
		YLabel: "Aggregate Value",
	}
	for _, bucket := range segments {
		value, _ := bucket.AggregateValue.Float64()
		bySegment.Labels = append(bySegment.Labels, bucket.Label)
		bySegment.Values = append(bySegment.Values, value)
	}

	series := []Series{monthly, byWeekday, top, bySegment}
	for i := range series {
		if len(series[i].Labels) == 0 {
			series[i].Labels = []string{NoDataLabel}
			series[i].Values = []float64{0}
		}
	}
	return series
}

// WeekdaySeries aggregates transaction value by weekday, Monday first. It is
// derived from the dataset's daily seasonal series so quarantined rows never
// contribute.
func WeekdaySeries(daily []analytics.SeasonalityPoint) []analytics.SeasonalityPoint {
	labels := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	points := make([]analytics.SeasonalityPoint, len(labels))
	for i, label := range labels {
		points[i] = analytics.SeasonalityPoint{Label: label, Value: decimal.Zero}
	}
	for _, point := range daily {
		idx := (int(point.PeriodStart.Weekday()) + 6) % 7
		points[idx].Value = points[idx].Value.Add(point.Value)
		points[idx].Transactions += point.Transactions
	}
	return points
}
