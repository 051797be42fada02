package charts

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/analytics"
)

func TestBuildSeries_DeclaredOrder(t *testing.T) {
	seasonality := []analytics.SeasonalityPoint{
		{Label: "2023-01", Value: decimal.NewFromInt(100)},
		{Label: "2023-02", Value: decimal.NewFromInt(200)},
	}
	weekday := []analytics.SeasonalityPoint{
		{Label: "Monday", Value: decimal.NewFromInt(50)},
	}
	ranking := []analytics.RankingEntry{
		{Rank: 1, BranchID: "BR1", BranchName: "Downtown", MetricValue: decimal.NewFromInt(300)},
	}
	segments := []analytics.SegmentBucket{
		{Label: "high", CustomerCount: 2, AggregateValue: decimal.NewFromInt(25000)},
	}

	series := BuildSeries(seasonality, weekday, ranking, segments)

	if len(series) != len(DeclaredCharts()) {
		t.Fatalf("got %d series, want %d", len(series), len(DeclaredCharts()))
	}
	for i, id := range DeclaredCharts() {
		if series[i].ID != id {
			t.Errorf("series %d = %q, want %q", i, series[i].ID, id)
		}
		if err := series[i].Validate(); err != nil {
			t.Errorf("series %q invalid: %v", series[i].ID, err)
		}
	}

	if series[0].Labels[1] != "2023-02" || series[0].Values[1] != 200 {
		t.Errorf("monthly series = %v / %v", series[0].Labels, series[0].Values)
	}
	if series[2].Labels[0] != "Downtown" {
		t.Errorf("ranking label = %q, want the branch name", series[2].Labels[0])
	}
}

func TestBuildSeries_EmptyInputs(t *testing.T) {
	series := BuildSeries(nil, nil, nil, nil)

	for _, s := range series {
		if len(s.Labels) != 1 || s.Labels[0] != NoDataLabel {
			t.Errorf("series %q labels = %v, want single %q placeholder", s.ID, s.Labels, NoDataLabel)
		}
		if len(s.Values) != 1 || s.Values[0] != 0 {
			t.Errorf("series %q values = %v, want single zero", s.ID, s.Values)
		}
		if err := s.Validate(); err != nil {
			t.Errorf("series %q invalid: %v", s.ID, err)
		}
	}
}

func TestBuildSeries_FallsBackToBranchID(t *testing.T) {
	ranking := []analytics.RankingEntry{
		{Rank: 1, BranchID: "BR9", MetricValue: decimal.NewFromInt(10)},
	}
	series := BuildSeries(nil, nil, ranking, nil)
	if series[2].Labels[0] != "BR9" {
		t.Errorf("label = %q, want branch id when no name is known", series[2].Labels[0])
	}
}

func TestWeekdaySeries(t *testing.T) {
	day := func(date string, value int64) analytics.SeasonalityPoint {
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			t.Fatalf("bad test date %q: %v", date, err)
		}
		return analytics.SeasonalityPoint{
			Label:        date,
			PeriodStart:  ts,
			Value:        decimal.NewFromInt(value),
			Transactions: 1,
		}
	}

	// 2023-06-05 and 2023-06-12 are Mondays, 2023-06-06 a Tuesday
	daily := []analytics.SeasonalityPoint{
		day("2023-06-05", 100),
		day("2023-06-06", 30),
		day("2023-06-12", 50),
	}

	points := WeekdaySeries(daily)

	if len(points) != 7 {
		t.Fatalf("got %d points, want 7", len(points))
	}
	if points[0].Label != "Monday" || points[6].Label != "Sunday" {
		t.Errorf("order = %q .. %q, want Monday first", points[0].Label, points[6].Label)
	}
	if !points[0].Value.Equal(decimal.NewFromInt(150)) || points[0].Transactions != 2 {
		t.Errorf("Monday = %s over %d, want 150 over 2", points[0].Value, points[0].Transactions)
	}
	if !points[1].Value.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Tuesday = %s, want 30", points[1].Value)
	}
	for i := 2; i < 7; i++ {
		if !points[i].Value.IsZero() {
			t.Errorf("%s = %s, want zero", points[i].Label, points[i].Value)
		}
	}
}

func TestSeries_Validate(t *testing.T) {
	tests := []struct {
		name      string
		series    Series
		wantError bool
	}{
		{"Valid", Series{ID: "x", Labels: []string{"a"}, Values: []float64{1}}, false},
		{"Missing ID", Series{Labels: []string{"a"}, Values: []float64{1}}, true},
		{"Length mismatch", Series{ID: "x", Labels: []string{"a", "b"}, Values: []float64{1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}
