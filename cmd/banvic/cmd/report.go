package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"banvic-analytics/internal/analytics"
	"banvic-analytics/internal/charts"
	"banvic-analytics/internal/pipeline"
	"banvic-analytics/internal/report"
)

// Flags for the report command
var (
	reportOutput string
	reportTitle  string
	reportAuthor string
	sourceLabel  string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export the analysis as a paginated PDF report",
	Long: `Report runs the full analysis and composes a paginated PDF document:
cover, KPI summary, chart pages, branch ranking, methodology and
recommendations, with a footer on every page.

The export is atomic: either a complete document is written or the command
fails with a specific reason and removes any partial file.

Examples:
  banvic report --transactions tx.csv --output report.pdf
  banvic report --transactions tx.csv --branches branches.csv \
    --customers customers.csv --output report.pdf --title "Q3 Review"`,

	PreRunE: validateSourceFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	addPipelineFlags(reportCmd)

	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output PDF path (required)")
	reportCmd.Flags().StringVar(&reportTitle, "title", "BanVic Analytics", "report title")
	reportCmd.Flags().StringVar(&reportAuthor, "author", "BanVic Analytics", "report author")
	reportCmd.Flags().StringVar(&sourceLabel, "source-label", "BanVic Analytics - generated report", "source label printed in the footer")

	reportCmd.MarkFlagRequired("output")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	opts := collectOptions()

	analyzer, analysis, err := loadAndAnalyze(ctx, opts)
	if err != nil {
		return handleError(err)
	}

	meta := &report.Metadata{
		Title:       reportTitle,
		Author:      reportAuthor,
		SourceLabel: sourceLabel,
		GeneratedAt: time.Now(),
		Period:      periodOf(analysis),
	}

	out, err := os.Create(reportOutput)
	if err != nil {
		return handleError(err)
	}

	if err := analyzer.Export(ctx, analysis, charts.NewPlotRenderer(), meta, out); err != nil {
		out.Close()
		// never leave a partial document behind
		os.Remove(reportOutput)
		return handleError(err)
	}
	return handleError(out.Close())
}

func periodOf(analysis *pipeline.Analysis) analytics.PeriodRange {
	if analysis.KPI == nil {
		return analytics.PeriodRange{Empty: true}
	}
	return analysis.KPI.Period
}
