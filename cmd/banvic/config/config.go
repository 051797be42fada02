// Package config translates CLI options into component configurations.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/analytics"
	"banvic-analytics/internal/loader"
	"banvic-analytics/internal/pipeline"
	"banvic-analytics/internal/report"
	"banvic-analytics/internal/reporter"
	"banvic-analytics/pkg/errors"
)

// Options is the flat bag of settings resolved from flags, environment and
// config file by the CLI layer.
type Options struct {
	DateFormats   []string
	DateMin       string
	DateMax       string
	Delimiter     string
	RankingMetric string
	SegmentHigh   float64
	SegmentMedium float64
	Granularity   string
	ParityUnit    string
	ParityAlpha   float64
	MinGroupSize  int
	OutputFormat  string
	RankingRows   int
}

// CreateLoaderConfig builds the loader configuration from CLI options
func CreateLoaderConfig(opts *Options) (*loader.Config, error) {
	cfg := loader.DefaultConfig()

	if len(opts.DateFormats) > 0 {
		cfg.DateFormats = opts.DateFormats
	}
	if opts.Delimiter != "" {
		runes := []rune(opts.Delimiter)
		if len(runes) != 1 {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "delimiter", opts.Delimiter,
				fmt.Errorf("delimiter must be a single character"))
		}
		cfg.Delimiter = runes[0]
	}
	if opts.DateMin != "" {
		t, err := time.Parse("2006-01-02", opts.DateMin)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "date-min", opts.DateMin, err)
		}
		cfg.QuarantineDateMin = t
	}
	if opts.DateMax != "" {
		t, err := time.Parse("2006-01-02", opts.DateMax)
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "date-max", opts.DateMax, err)
		}
		cfg.QuarantineDateMax = t
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "loader", nil, err)
	}
	return cfg, nil
}

// CreateSegmentRules builds ordered threshold rules from the two CLI
// thresholds: high >= SegmentHigh, medium >= SegmentMedium, low >= 0.
func CreateSegmentRules(opts *Options) ([]analytics.SegmentRule, error) {
	if opts.SegmentMedium >= opts.SegmentHigh {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "segment thresholds",
			fmt.Sprintf("medium %v, high %v", opts.SegmentMedium, opts.SegmentHigh),
			fmt.Errorf("medium threshold must be below high threshold"))
	}
	high := decimal.NewFromFloat(opts.SegmentHigh)
	medium := decimal.NewFromFloat(opts.SegmentMedium)
	zero := decimal.Zero
	return []analytics.SegmentRule{
		{Label: "high", Min: &high},
		{Label: "medium", Min: &medium, Max: &high},
		{Label: "low", Min: &zero, Max: &medium},
	}, nil
}

// CreatePipelineConfig builds the analyzer configuration from CLI options
func CreatePipelineConfig(opts *Options) (*pipeline.Config, error) {
	metric, err := analytics.ParseRankingMetric(opts.RankingMetric)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ranking-metric", opts.RankingMetric, err)
	}
	granularity, err := analytics.ParseGranularity(opts.Granularity)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "granularity", opts.Granularity, err)
	}
	unit, err := analytics.ParseParityUnit(opts.ParityUnit)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parity-unit", opts.ParityUnit, err)
	}
	rules, err := CreateSegmentRules(opts)
	if err != nil {
		return nil, err
	}

	cfg := pipeline.DefaultConfig()
	cfg.RankingMetric = metric
	cfg.SegmentRules = rules
	cfg.Granularity = granularity
	cfg.Parity = &analytics.ParityConfig{
		Unit:         unit,
		Alpha:        opts.ParityAlpha,
		MinGroupSize: opts.MinGroupSize,
	}
	cfg.Report = report.DefaultConfig()
	if opts.RankingRows > 0 {
		cfg.Report.RankingRows = opts.RankingRows
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pipeline", nil, err)
	}
	return cfg, nil
}

// CreateReporterConfig builds the console/JSON output configuration
func CreateReporterConfig(opts *Options) (*reporter.Config, error) {
	cfg := reporter.DefaultConfig()
	switch reporter.OutputFormat(opts.OutputFormat) {
	case reporter.FormatConsole, "":
		cfg.Format = reporter.FormatConsole
	case reporter.FormatJSON:
		cfg.Format = reporter.FormatJSON
	default:
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", opts.OutputFormat,
			fmt.Errorf("must be console or json"))
	}
	if opts.RankingRows > 0 {
		cfg.RankingRows = opts.RankingRows
	}
	return cfg, nil
}
