// Package report assembles analysis artifacts into a paginated PDF document.
//
// Composition is all-or-nothing: the document is first laid out as an
// abstract page list, validated against the declared chart set, and only
// then rendered, so the total page count is known before any footer is drawn
// and no partial file is ever emitted. Given identical artifacts and
// metadata the output bytes are identical.
package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"banvic-analytics/internal/analytics"
	"banvic-analytics/internal/charts"
	"banvic-analytics/pkg/errors"
	"banvic-analytics/pkg/logger"
)

// Metadata carries the report-level labels. GeneratedAt is supplied by the
// caller and is the only timestamp embedded in the document, which keeps the
// output byte-reproducible under a fixed value.
type Metadata struct {
	Title       string
	Author      string
	SourceLabel string
	GeneratedAt time.Time
	Period      analytics.PeriodRange
}

// Artifacts bundles every computed input the report consumes. All analytic
// artifacts are required; composition fails rather than emitting a partial
// report. Seasonality is the one exception: an empty dataset legitimately
// yields a nil series, which renders as a zero-period summary line.
type Artifacts struct {
	KPI         *analytics.KPIResult
	Ranking     []analytics.RankingEntry
	Segments    []analytics.SegmentBucket
	Seasonality []analytics.SeasonalityPoint
	Parity      *analytics.ParityTestResult
	Charts      []charts.Image
}

// Config holds composition options
type Config struct {
	// ChartIDs is the declared, ordered chart list. The image set must match
	// it exactly.
	ChartIDs []string
	// RankingRows caps the ranking table length
	RankingRows int
}

// DefaultConfig returns the default composition configuration
func DefaultConfig() *Config {
	return &Config{
		ChartIDs:    charts.DeclaredCharts(),
		RankingRows: 10,
	}
}

// Validate validates the composition configuration
func (c *Config) Validate() error {
	if len(c.ChartIDs) == 0 {
		return fmt.Errorf("declared chart list cannot be empty")
	}
	if c.RankingRows < 1 {
		return fmt.Errorf("ranking rows must be positive, got %d", c.RankingRows)
	}
	return nil
}

// Composer builds PDF reports from analysis artifacts
type Composer struct {
	config *Config
	logger logger.Logger
}

// NewComposer creates a Composer with the given configuration
func NewComposer(config *Config) (*Composer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", config, err)
	}
	return &Composer{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("report_composer"),
	}, nil
}

// page is one laid-out page awaiting rendering
type page struct {
	name string
	draw func(pdf *fpdf.Fpdf)
}

// Compose validates the artifacts, lays out the page list and renders the
// document to w. On any failure nothing is written to w.
func (c *Composer) Compose(artifacts *Artifacts, meta *Metadata, w io.Writer) error {
	if meta == nil {
		return errors.CompositionError(errors.CodeMissingArtifact, "metadata", nil)
	}
	if err := c.validateArtifacts(artifacts); err != nil {
		return err
	}

	images := make(map[string]charts.Image, len(artifacts.Charts))
	for _, img := range artifacts.Charts {
		images[img.ChartID] = img
	}

	// First pass: lay out the abstract page list. The footer needs the total
	// page count, so no rendering happens until the list is complete.
	pages := c.layoutPages(artifacts, meta, images)
	total := len(pages)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCatalogSort(true)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetCreationDate(meta.GeneratedAt)
	pdf.SetModificationDate(meta.GeneratedAt)
	pdf.SetAutoPageBreak(false, 15)

	footer := fmt.Sprintf("Generated %s  |  %s", meta.GeneratedAt.Format("2006-01-02 15:04:05"), meta.SourceLabel)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(107, 114, 128)
		pdf.CellFormat(0, 5, footer, "", 0, "L", false, 0, "")
		pdf.SetX(-40)
		pdf.CellFormat(0, 5, fmt.Sprintf("%d/%d", pdf.PageNo(), total), "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	// Second pass: render every page with complete footers.
	for _, p := range pages {
		pdf.AddPage()
		p.draw(pdf)
		if pdf.Err() {
			return errors.CompositionError(errors.CodeRenderFailed, p.name, pdf.Error())
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return errors.CompositionError(errors.CodeRenderFailed, "document output", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return errors.Wrap(err, errors.CategoryFile, errors.CodeWriteFailed, "failed to write report")
	}

	c.logger.WithFields(logger.Fields{
		"pages": total,
		"bytes": buf.Len(),
	}).Info("Report composed")
	return nil
}

// validateArtifacts enforces the all-or-nothing contract: every analytic
// artifact present, chart image set exactly matching the declared list.
func (c *Composer) validateArtifacts(artifacts *Artifacts) error {
	if artifacts == nil {
		return errors.CompositionError(errors.CodeMissingArtifact, "artifacts", nil)
	}
	if artifacts.KPI == nil {
		return errors.CompositionError(errors.CodeMissingArtifact, "kpi", nil)
	}
	if artifacts.Ranking == nil {
		return errors.CompositionError(errors.CodeMissingArtifact, "ranking", nil)
	}
	if artifacts.Segments == nil {
		return errors.CompositionError(errors.CodeMissingArtifact, "segments", nil)
	}
	if artifacts.Parity == nil {
		return errors.CompositionError(errors.CodeMissingArtifact, "parity", nil)
	}

	provided := make(map[string]bool, len(artifacts.Charts))
	for _, img := range artifacts.Charts {
		provided[img.ChartID] = true
	}
	var missing, extra []string
	for _, id := range c.config.ChartIDs {
		if !provided[id] {
			missing = append(missing, id)
		}
		delete(provided, id)
	}
	for id := range provided {
		extra = append(extra, id)
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		var parts []string
		if len(missing) > 0 {
			parts = append(parts, "missing: "+strings.Join(missing, ", "))
		}
		if len(extra) > 0 {
			parts = append(parts, "extra: "+strings.Join(extra, ", "))
		}
		return errors.CompositionError(errors.CodeChartMismatch, strings.Join(parts, "; "), nil)
	}
	return nil
}

func (c *Composer) layoutPages(artifacts *Artifacts, meta *Metadata, images map[string]charts.Image) []page {
	pages := []page{
		{name: "cover", draw: func(pdf *fpdf.Fpdf) { c.drawCover(pdf, meta, artifacts.KPI) }},
		{name: "kpi summary", draw: func(pdf *fpdf.Fpdf) { c.drawKPIs(pdf, artifacts.KPI) }},
	}
	for _, id := range c.config.ChartIDs {
		img := images[id]
		pages = append(pages, page{
			name: "chart " + id,
			draw: func(pdf *fpdf.Fpdf) { c.drawChart(pdf, img) },
		})
	}
	pages = append(pages,
		page{name: "ranking", draw: func(pdf *fpdf.Fpdf) { c.drawRanking(pdf, artifacts.Ranking) }},
		page{name: "methodology", draw: func(pdf *fpdf.Fpdf) { c.drawMethodology(pdf, artifacts) }},
	)
	return pages
}

func (c *Composer) drawCover(pdf *fpdf.Fpdf, meta *Metadata, kpi *analytics.KPIResult) {
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetY(60)
	pdf.CellFormat(0, 12, meta.Title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, "Analytical Report", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	period := "Period: no data"
	if !kpi.Period.Empty {
		period = fmt.Sprintf("Period: %s to %s",
			kpi.Period.Start.Format("2006-01-02"), kpi.Period.End.Format("2006-01-02"))
	}
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, period, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Source: "+meta.SourceLabel, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Generated: "+meta.GeneratedAt.Format("2006-01-02 15:04:05"), "", 1, "C", false, 0, "")

	pdf.SetDrawColor(28, 45, 70)
	pdf.Line(40, 130, 170, 130)
}

func (c *Composer) drawKPIs(pdf *fpdf.Fpdf, kpi *analytics.KPIResult) {
	c.sectionTitle(pdf, "Key Performance Indicators")

	rows := [][2]string{
		{"Total Transactions", fmt.Sprintf("%d", kpi.TotalVolume)},
		{"Total Value", kpi.TotalValue.StringFixed(2)},
		{"Average Ticket", kpi.AverageTicket.StringFixed(2)},
		{"Active Branches", fmt.Sprintf("%d", kpi.ActiveBranches)},
		{"Active Customers", fmt.Sprintf("%d", kpi.ActiveCustomers)},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, row := range rows {
		pdf.CellFormat(70, 8, row[0], "B", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, row[1], "B", 1, "R", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Data Quality", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if kpi.QuarantinedRows == 0 {
		pdf.CellFormat(0, 6, "All rows passed validation.", "", 1, "L", false, 0, "")
		return
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("%d rows were quarantined and excluded from the figures above:", kpi.QuarantinedRows), "", 1, "L", false, 0, "")

	reasons := make([]string, 0, len(kpi.QuarantineReasons))
	for reason := range kpi.QuarantineReasons {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		pdf.CellFormat(0, 6, fmt.Sprintf("  - %s: %d", reason, kpi.QuarantineReasons[reason]), "", 1, "L", false, 0, "")
	}
}

func (c *Composer) drawChart(pdf *fpdf.Fpdf, img charts.Image) {
	c.sectionTitle(pdf, chartCaption(img.ChartID))

	options := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	pdf.RegisterImageOptionsReader(img.ChartID, options, bytes.NewReader(img.PNG))
	// positioned below the title, scaled to the content width
	pdf.ImageOptions(img.ChartID, 15, 40, 180, 0, false, options, 0, "")
}

func (c *Composer) drawRanking(pdf *fpdf.Fpdf, ranking []analytics.RankingEntry) {
	c.sectionTitle(pdf, fmt.Sprintf("Top %d Branches", c.config.RankingRows))

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(28, 45, 70)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(15, 8, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(75, 8, "Branch", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Transactions", "1", 0, "R", true, 0, "")
	pdf.CellFormat(50, 8, "Value", "1", 1, "R", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 10)
	top := analytics.TopN(ranking, c.config.RankingRows)
	if len(top) == 0 {
		pdf.CellFormat(180, 8, "no data", "1", 1, "C", false, 0, "")
		return
	}
	for _, entry := range top {
		name := entry.BranchName
		if name == "" {
			name = entry.BranchID
		}
		pdf.CellFormat(15, 8, fmt.Sprintf("%d", entry.Rank), "1", 0, "C", false, 0, "")
		pdf.CellFormat(75, 8, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 8, fmt.Sprintf("%d", entry.Transactions), "1", 0, "R", false, 0, "")
		pdf.CellFormat(50, 8, entry.Value.StringFixed(2), "1", 1, "R", false, 0, "")
	}
}

func (c *Composer) drawMethodology(pdf *fpdf.Fpdf, artifacts *Artifacts) {
	c.sectionTitle(pdf, "Methodology & Recommendations")

	parity := artifacts.Parity
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Seasonal comparison", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if series := artifacts.Seasonality; len(series) > 0 {
		pdf.MultiCell(0, 6, fmt.Sprintf(
			"Seasonal series: %d periods, %s through %s, including zero-activity gaps.",
			len(series), series[0].Label, series[len(series)-1].Label), "", "L", false)
	} else {
		pdf.MultiCell(0, 6, "Seasonal series: no periods in range.", "", "L", false)
	}
	pdf.MultiCell(0, 6, fmt.Sprintf(
		"Grouping criterion: %s. Significance threshold alpha = %.2f.",
		parity.Criterion, parity.Alpha), "", "L", false)

	switch parity.Conclusion {
	case analytics.ConclusionInconclusive:
		pdf.MultiCell(0, 6, fmt.Sprintf(
			"Result: inconclusive. One of the parity groups (odd: %d, even: %d periods) is below the minimum sample size; no statistic was computed.",
			parity.OddCount, parity.EvenCount), "", "L", false)
	default:
		pdf.MultiCell(0, 6, fmt.Sprintf(
			"Odd-group mean %.2f vs even-group mean %.2f; Welch t = %.3f, p = %.4f. Conclusion: %s.",
			parity.OddMean, parity.EvenMean, parity.TStatistic, parity.PValue, parity.Conclusion), "", "L", false)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Customer segments", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, bucket := range artifacts.Segments {
		pdf.CellFormat(0, 6, fmt.Sprintf("  - %s: %d customers, aggregate value %s",
			bucket.Label, bucket.CustomerCount, bucket.AggregateValue.StringFixed(2)), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Recommendations", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range recommendations(artifacts) {
		pdf.MultiCell(0, 6, "  - "+line, "", "L", false)
	}
}

func (c *Composer) sectionTitle(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetY(20)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(28, 45, 70)
	pdf.Line(10, 32, 200, 32)
	pdf.SetY(38)
}

func chartCaption(chartID string) string {
	switch chartID {
	case charts.ChartMonthlyVolume:
		return "Transaction Volume by Period"
	case charts.ChartWeekdayVolume:
		return "Volume by Day of Week"
	case charts.ChartTopBranches:
		return "Top Branches"
	case charts.ChartSegmentValue:
		return "Value by Customer Segment"
	default:
		return chartID
	}
}

// recommendations derives the fixed advisory bullets from the computed
// artifacts. Wording is deterministic so the document stays reproducible.
func recommendations(artifacts *Artifacts) []string {
	var out []string

	if artifacts.KPI.TotalVolume == 0 {
		out = append(out, "No transactions in the analyzed period; verify the extract and the configured date bounds.")
		return out
	}
	if top := analytics.TopN(artifacts.Ranking, 1); len(top) == 1 {
		name := top[0].BranchName
		if name == "" {
			name = top[0].BranchID
		}
		out = append(out, fmt.Sprintf("Branch %q leads the ranking; review its practices for replication across the network.", name))
	}
	if artifacts.Parity.Conclusion == analytics.ConclusionSignificant {
		out = append(out, "The odd/even period comparison is statistically significant; investigate calendar-driven drivers before planning capacity.")
	} else {
		out = append(out, "The odd/even period comparison shows no reliable difference; treat period parity as noise in planning.")
	}
	if artifacts.KPI.QuarantinedRows > 0 {
		out = append(out, fmt.Sprintf("%d rows failed validation; improving upstream data quality will tighten every figure in this report.", artifacts.KPI.QuarantinedRows))
	}
	return out
}
