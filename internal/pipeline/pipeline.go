// Package pipeline orchestrates a full analysis run: it fans the independent
// analytical computations out over a shared read-only dataset, joins them
// into an Analysis, and drives chart rendering and report composition for
// exports.
//
// One Analyzer serves many runs; each run owns its dataset snapshot and
// produces a fresh Analysis, so there is no shared mutable state between
// requests.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"banvic-analytics/internal/analytics"
	"banvic-analytics/internal/charts"
	"banvic-analytics/internal/models"
	"banvic-analytics/internal/report"
	"banvic-analytics/pkg/errors"
	"banvic-analytics/pkg/logger"
)

// Config holds the knobs for one Analyzer
type Config struct {
	RankingMetric analytics.RankingMetric
	SegmentRules  []analytics.SegmentRule
	Granularity   analytics.Granularity
	Parity        *analytics.ParityConfig
	Report        *report.Config
}

// DefaultConfig returns the default analysis configuration
func DefaultConfig() *Config {
	return &Config{
		RankingMetric: analytics.MetricValue,
		SegmentRules:  analytics.DefaultSegmentRules(),
		Granularity:   analytics.GranularityMonth,
		Parity:        analytics.DefaultParityConfig(),
		Report:        report.DefaultConfig(),
	}
}

// Validate validates the analyzer configuration
func (c *Config) Validate() error {
	if !c.RankingMetric.IsValid() {
		return fmt.Errorf("invalid ranking metric: %s", c.RankingMetric)
	}
	if !c.Granularity.IsValid() {
		return fmt.Errorf("invalid granularity: %s", c.Granularity)
	}
	if c.Parity == nil {
		return fmt.Errorf("parity configuration is required")
	}
	if err := c.Parity.Validate(); err != nil {
		return err
	}
	if c.Report == nil {
		return fmt.Errorf("report configuration is required")
	}
	return c.Report.Validate()
}

// Analysis is the joined result of one run. It holds plain data structures
// only, so any presentation layer can bind to it.
type Analysis struct {
	RunID       string                       `json:"run_id"`
	Dataset     models.LoadStats             `json:"dataset"`
	KPI         *analytics.KPIResult         `json:"kpi"`
	Ranking     []analytics.RankingEntry     `json:"ranking"`
	Segments    []analytics.SegmentBucket    `json:"segments"`
	Seasonality []analytics.SeasonalityPoint `json:"seasonality"`
	Weekday     []analytics.SeasonalityPoint `json:"weekday"`
	Parity      *analytics.ParityTestResult  `json:"parity"`
	Warnings    []string                     `json:"warnings,omitempty"`
}

// Analyzer runs analyses and exports over dataset snapshots
type Analyzer struct {
	config *Config
	logger logger.Logger
}

// NewAnalyzer creates an Analyzer with the given configuration
func NewAnalyzer(config *Config) (*Analyzer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "pipeline", nil, err)
	}
	return &Analyzer{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("pipeline"),
	}, nil
}

// Analyze computes every analytical artifact over the dataset. The five
// computations have no data dependency among each other and run in parallel;
// all of them complete before the Analysis is returned.
//
// A parity test that cannot proceed for lack of data is degraded to an
// inconclusive result with a warning, per the propagation policy; every other
// failure aborts the run.
func (a *Analyzer) Analyze(ctx context.Context, dataset *models.Dataset) (*Analysis, error) {
	if dataset == nil {
		return nil, errors.InternalError("analysis", fmt.Errorf("dataset is nil"))
	}

	start := time.Now()
	analysis := &Analysis{
		RunID:   uuid.New().String(),
		Dataset: dataset.Stats,
	}
	log := a.logger.WithField("run_id", analysis.RunID)
	log.WithFields(logger.Fields{
		"transactions": len(dataset.Transactions),
		"branches":     len(dataset.Branches),
		"customers":    len(dataset.Customers),
	}).Info("Starting analysis")

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		analysis.KPI = analytics.ComputeKPIs(dataset)
		return nil
	})
	group.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		analysis.Ranking = analytics.RankBranches(dataset, a.config.RankingMetric)
		return nil
	})
	group.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		segments, err := analytics.SegmentCustomers(dataset, a.config.SegmentRules)
		if err != nil {
			return err
		}
		analysis.Segments = segments
		return nil
	})
	group.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		analysis.Seasonality = analytics.SeasonalSeries(dataset, a.config.Granularity)
		analysis.Weekday = charts.WeekdaySeries(analytics.SeasonalSeries(dataset, analytics.GranularityDay))
		return nil
	})
	group.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		parity, err := analytics.ParityTest(dataset, a.config.Parity)
		if err != nil {
			if errors.IsCategory(err, errors.CategoryStatistics) {
				// degraded, not fatal: keep the inconclusive result
				analysis.Parity = parity
				analysis.Warnings = append(analysis.Warnings, err.Error())
				log.WithError(err).Warn("Parity test degraded to inconclusive")
				return nil
			}
			return err
		}
		analysis.Parity = parity
		return nil
	})

	if err := group.Wait(); err != nil {
		return nil, errors.WrapIfNeeded(err, errors.CategoryInternal, errors.CodeUnexpectedError, "analysis failed")
	}

	log.WithField("duration", time.Since(start).String()).Info("Analysis complete")
	return analysis, nil
}

// Export renders the declared charts through the collaborator and composes
// the PDF report into w. Either the complete document is written or nothing
// is.
func (a *Analyzer) Export(ctx context.Context, analysis *Analysis, renderer charts.Renderer, meta *report.Metadata, w io.Writer) error {
	if analysis == nil {
		return errors.CompositionError(errors.CodeMissingArtifact, "analysis", nil)
	}
	if renderer == nil {
		return errors.CompositionError(errors.CodeRenderFailed, "no chart renderer configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return errors.InternalError("export", err)
	}

	log := a.logger.WithField("run_id", analysis.RunID)
	start := time.Now()

	series := charts.BuildSeries(analysis.Seasonality, analysis.Weekday, analysis.Ranking, analysis.Segments)
	images := make([]charts.Image, 0, len(series))
	for _, s := range series {
		img, err := renderer.Render(s)
		if err != nil {
			return errors.WrapIfNeeded(err, errors.CategoryComposition, errors.CodeRenderFailed, "chart rendering failed")
		}
		images = append(images, img)
	}

	composer, err := report.NewComposer(a.config.Report)
	if err != nil {
		return err
	}

	artifacts := &report.Artifacts{
		KPI:         analysis.KPI,
		Ranking:     analysis.Ranking,
		Segments:    analysis.Segments,
		Seasonality: analysis.Seasonality,
		Parity:      analysis.Parity,
		Charts:      images,
	}
	if err := composer.Compose(artifacts, meta, w); err != nil {
		return err
	}

	log.WithField("duration", time.Since(start).String()).Info("Export complete")
	return nil
}
