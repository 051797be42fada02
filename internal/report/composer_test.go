package report

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/analytics"
	"banvic-analytics/internal/charts"
	"banvic-analytics/pkg/errors"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func testImages(t *testing.T) []charts.Image {
	t.Helper()
	pngData := testPNG(t)
	images := make([]charts.Image, 0, len(charts.DeclaredCharts()))
	for _, id := range charts.DeclaredCharts() {
		images = append(images, charts.Image{ChartID: id, PNG: pngData})
	}
	return images
}

func testArtifacts(t *testing.T) *Artifacts {
	t.Helper()
	return &Artifacts{
		KPI: &analytics.KPIResult{
			TotalVolume:     42,
			TotalValue:      decimal.NewFromFloat(12345.67),
			AverageTicket:   decimal.NewFromFloat(293.94),
			ActiveBranches:  3,
			ActiveCustomers: 17,
			Period: analytics.PeriodRange{
				Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
			},
		},
		Ranking: []analytics.RankingEntry{
			{Rank: 1, BranchID: "BR1", BranchName: "Downtown", Transactions: 30, Value: decimal.NewFromInt(9000), MetricValue: decimal.NewFromInt(9000)},
			{Rank: 2, BranchID: "BR2", BranchName: "Harbor", Transactions: 12, Value: decimal.NewFromInt(3345), MetricValue: decimal.NewFromInt(3345)},
		},
		Segments: []analytics.SegmentBucket{
			{Label: "high", CustomerCount: 2, AggregateValue: decimal.NewFromInt(11000)},
			{Label: "low", CustomerCount: 15, AggregateValue: decimal.NewFromFloat(1345.67)},
		},
		Seasonality: []analytics.SeasonalityPoint{
			{Label: "2023-01", Value: decimal.NewFromInt(5000)},
		},
		Parity: &analytics.ParityTestResult{
			Criterion:  analytics.ParityByMonth.Criterion(),
			OddCount:   3,
			EvenCount:  3,
			OddMean:    2100,
			EvenMean:   2015,
			TStatistic: 0.42,
			PValue:     0.69,
			Alpha:      0.05,
			Conclusion: analytics.ConclusionNotSignificant,
		},
		Charts: testImages(t),
	}
}

func testMetadata() *Metadata {
	return &Metadata{
		Title:       "BanVic Analytical Report",
		Author:      "analytics pipeline",
		SourceLabel: "transactions.csv",
		GeneratedAt: time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC),
		Period: analytics.PeriodRange{
			Start: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestCompose_ProducesPDF(t *testing.T) {
	composer, err := NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer() error: %v", err)
	}

	var out bytes.Buffer
	if err := composer.Compose(testArtifacts(t), testMetadata(), &out); err != nil {
		t.Fatalf("Compose() error: %v", err)
	}

	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
	if out.Len() < 1000 {
		t.Errorf("output is implausibly small: %d bytes", out.Len())
	}
}

func TestCompose_Reproducible(t *testing.T) {
	composer, err := NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer() error: %v", err)
	}

	var first, second bytes.Buffer
	if err := composer.Compose(testArtifacts(t), testMetadata(), &first); err != nil {
		t.Fatalf("first Compose() error: %v", err)
	}
	if err := composer.Compose(testArtifacts(t), testMetadata(), &second); err != nil {
		t.Fatalf("second Compose() error: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("identical artifacts and metadata produced different bytes")
	}
}

func TestCompose_SeasonalSeriesOnMethodologyPage(t *testing.T) {
	composer, err := NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer() error: %v", err)
	}

	var short, long bytes.Buffer
	if err := composer.Compose(testArtifacts(t), testMetadata(), &short); err != nil {
		t.Fatalf("Compose() error: %v", err)
	}

	extended := testArtifacts(t)
	extended.Seasonality = append(extended.Seasonality,
		analytics.SeasonalityPoint{Label: "2023-02", Value: decimal.NewFromInt(7000)})
	if err := composer.Compose(extended, testMetadata(), &long); err != nil {
		t.Fatalf("Compose() error: %v", err)
	}

	if bytes.Equal(short.Bytes(), long.Bytes()) {
		t.Error("seasonal series length does not affect the report output")
	}
}

func TestCompose_MissingArtifacts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Artifacts)
		detail string
	}{
		{"Nil KPI", func(a *Artifacts) { a.KPI = nil }, "kpi"},
		{"Nil ranking", func(a *Artifacts) { a.Ranking = nil }, "ranking"},
		{"Nil segments", func(a *Artifacts) { a.Segments = nil }, "segments"},
		{"Nil parity", func(a *Artifacts) { a.Parity = nil }, "parity"},
	}

	composer, err := NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer() error: %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifacts := testArtifacts(t)
			tt.mutate(artifacts)

			var out bytes.Buffer
			err := composer.Compose(artifacts, testMetadata(), &out)
			if err == nil {
				t.Fatal("expected CompositionError")
			}
			ae, ok := errors.AsAnalyticsError(err)
			if !ok || ae.Code != errors.CodeMissingArtifact {
				t.Errorf("error = %v, want code %s", err, errors.CodeMissingArtifact)
			}
			if !strings.Contains(ae.Message, tt.detail) {
				t.Errorf("message %q does not name %q", ae.Message, tt.detail)
			}
			if out.Len() != 0 {
				t.Errorf("%d bytes written despite the failure", out.Len())
			}
		})
	}
}

func TestCompose_ChartMismatch(t *testing.T) {
	composer, err := NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer() error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(a *Artifacts)
		want   string
	}{
		{"Missing chart", func(a *Artifacts) { a.Charts = a.Charts[:len(a.Charts)-1] }, "missing: " + charts.ChartSegmentValue},
		{"Extra chart", func(a *Artifacts) {
			a.Charts = append(a.Charts, charts.Image{ChartID: "surprise", PNG: testPNG(t)})
		}, "extra: surprise"},
		{"No charts", func(a *Artifacts) { a.Charts = nil }, "missing:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifacts := testArtifacts(t)
			tt.mutate(artifacts)

			var out bytes.Buffer
			err := composer.Compose(artifacts, testMetadata(), &out)
			if err == nil {
				t.Fatal("expected CompositionError")
			}
			ae, ok := errors.AsAnalyticsError(err)
			if !ok || ae.Code != errors.CodeChartMismatch {
				t.Fatalf("error = %v, want code %s", err, errors.CodeChartMismatch)
			}
			if !strings.Contains(ae.Message, tt.want) {
				t.Errorf("message %q does not mention %q", ae.Message, tt.want)
			}
			if out.Len() != 0 {
				t.Errorf("%d bytes written despite the failure", out.Len())
			}
		})
	}
}

func TestCompose_EmptyData(t *testing.T) {
	// a run over an empty dataset still produces a complete document
	artifacts := &Artifacts{
		KPI: &analytics.KPIResult{
			TotalValue:    decimal.Zero,
			AverageTicket: decimal.Zero,
			Period:        analytics.PeriodRange{Empty: true},
		},
		Ranking:  []analytics.RankingEntry{},
		Segments: []analytics.SegmentBucket{},
		Parity: &analytics.ParityTestResult{
			Criterion:  analytics.ParityByMonth.Criterion(),
			Alpha:      0.05,
			TStatistic: math.NaN(),
			PValue:     math.NaN(),
			Conclusion: analytics.ConclusionInconclusive,
		},
		Charts: testImages(t),
	}

	composer, err := NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer() error: %v", err)
	}

	var out bytes.Buffer
	if err := composer.Compose(artifacts, testMetadata(), &out); err != nil {
		t.Fatalf("Compose() error: %v", err)
	}
	if !bytes.HasPrefix(out.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		config    Config
		wantError bool
	}{
		{"Defaults", *DefaultConfig(), false},
		{"No charts declared", Config{RankingRows: 10}, true},
		{"Zero ranking rows", Config{ChartIDs: charts.DeclaredCharts()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestCompose_NilMetadata(t *testing.T) {
	composer, err := NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer() error: %v", err)
	}
	var out bytes.Buffer
	if err := composer.Compose(testArtifacts(t), nil, &out); err == nil {
		t.Fatal("expected CompositionError for nil metadata")
	}
}
