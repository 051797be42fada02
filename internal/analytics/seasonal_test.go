package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestSeasonalSeries_MonthlyGapFill(t *testing.T) {
	// activity in January and March only; February must still appear with a
	// zero total rather than vanish from the series
	dataset := makeDataset(
		makeTx(t, "TX1", "2023-01-10", "BR1", "C1", 100),
		makeTx(t, "TX2", "2023-01-25", "BR1", "C1", 50),
		makeTx(t, "TX3", "2023-03-05", "BR1", "C1", 75),
	)

	series := SeasonalSeries(dataset, GranularityMonth)

	if len(series) != 3 {
		t.Fatalf("got %d points, want 3 (Jan..Mar)", len(series))
	}

	wantLabels := []string{"2023-01", "2023-02", "2023-03"}
	for i, want := range wantLabels {
		if series[i].Label != want {
			t.Errorf("point %d label = %q, want %q", i, series[i].Label, want)
		}
	}

	if !series[0].Value.Equal(decimal.NewFromInt(150)) || series[0].Transactions != 2 {
		t.Errorf("January = %s over %d txs, want 150 over 2", series[0].Value, series[0].Transactions)
	}
	if !series[1].Value.IsZero() || series[1].Transactions != 0 {
		t.Errorf("February = %s over %d txs, want zero-filled gap", series[1].Value, series[1].Transactions)
	}
}

func TestSeasonalSeries_Daily(t *testing.T) {
	dataset := makeDataset(
		makeTx(t, "TX1", "2023-06-01", "BR1", "C1", 10),
		makeTx(t, "TX2", "2023-06-04", "BR1", "C1", 20),
	)

	series := SeasonalSeries(dataset, GranularityDay)

	if len(series) != 4 {
		t.Fatalf("got %d points, want 4 (Jun 1..4)", len(series))
	}
	if series[0].Label != "2023-06-01" || series[3].Label != "2023-06-04" {
		t.Errorf("bounds = %q .. %q", series[0].Label, series[3].Label)
	}
	for i := 1; i <= 2; i++ {
		if !series[i].Value.IsZero() {
			t.Errorf("gap day %s carries %s, want zero", series[i].Label, series[i].Value)
		}
	}
}

func TestSeasonalSeries_WeeklyFloorsToMonday(t *testing.T) {
	// 2023-06-07 is a Wednesday; its ISO week starts Monday 2023-06-05
	dataset := makeDataset(makeTx(t, "TX1", "2023-06-07", "BR1", "C1", 10))

	series := SeasonalSeries(dataset, GranularityWeek)

	if len(series) != 1 {
		t.Fatalf("got %d points, want 1", len(series))
	}
	monday := time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC)
	if !series[0].PeriodStart.Equal(monday) {
		t.Errorf("PeriodStart = %s, want %s", series[0].PeriodStart, monday)
	}
	if series[0].Label != "2023-W23" {
		t.Errorf("Label = %q, want 2023-W23", series[0].Label)
	}
}

func TestSeasonalSeries_Empty(t *testing.T) {
	if series := SeasonalSeries(makeDataset(), GranularityMonth); series != nil {
		t.Errorf("empty dataset produced %d points, want none", len(series))
	}
}

func TestSeasonalSeries_NoGaps(t *testing.T) {
	// the series is contiguous regardless of how sparse the activity is
	dataset := makeDataset(
		makeTx(t, "TX1", "2022-11-20", "BR1", "C1", 10),
		makeTx(t, "TX2", "2023-04-02", "BR1", "C1", 20),
	)

	for _, granularity := range []Granularity{GranularityDay, GranularityWeek, GranularityMonth} {
		series := SeasonalSeries(dataset, granularity)
		for i := 1; i < len(series); i++ {
			want := granularity.next(series[i-1].PeriodStart)
			if !series[i].PeriodStart.Equal(want) {
				t.Errorf("%s series has a gap: %s follows %s, want %s",
					granularity, series[i].PeriodStart, series[i-1].PeriodStart, want)
			}
		}
	}
}

func TestParseGranularity(t *testing.T) {
	tests := []struct {
		input     string
		wantError bool
	}{
		{"day", false},
		{"week", false},
		{"month", false},
		{"year", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseGranularity(tt.input)
			if (err != nil) != tt.wantError {
				t.Errorf("ParseGranularity(%q) error = %v, wantError %v", tt.input, err, tt.wantError)
			}
		})
	}
}
