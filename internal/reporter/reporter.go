// Package reporter renders an analysis for terminal consumption.
//
// Two formats are supported: a human-readable console summary and JSON for
// programmatic consumers. Both bind to the plain data structures of an
// analysis; the PDF export is handled separately by the report composer.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"banvic-analytics/internal/analytics"
	"banvic-analytics/internal/pipeline"
	"banvic-analytics/pkg/errors"
)

// OutputFormat represents the supported output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	return f == FormatConsole || f == FormatJSON
}

// Config holds options for analysis output
type Config struct {
	Format      OutputFormat `json:"format"`
	RankingRows int          `json:"ranking_rows"`
}

// DefaultConfig returns a default reporter configuration
func DefaultConfig() *Config {
	return &Config{
		Format:      FormatConsole,
		RankingRows: 10,
	}
}

// Validate validates the reporter configuration
func (c *Config) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.RankingRows < 1 {
		return fmt.Errorf("ranking rows must be positive, got %d", c.RankingRows)
	}
	return nil
}

// Reporter writes analyses to an output stream
type Reporter struct {
	config *Config
}

// New creates a Reporter with the given configuration
func New(config *Config) (*Reporter, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reporter", config, err)
	}
	return &Reporter{config: config}, nil
}

// Write renders the analysis in the configured format
func (r *Reporter) Write(analysis *pipeline.Analysis, w io.Writer) error {
	if analysis == nil {
		return errors.InternalError("report output", fmt.Errorf("analysis is nil"))
	}
	if r.config.Format == FormatJSON {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(analysis)
	}
	return r.writeConsole(analysis, w)
}

func (r *Reporter) writeConsole(analysis *pipeline.Analysis, w io.Writer) error {
	var b strings.Builder

	b.WriteString("BANVIC ANALYTICS\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Run: %s\n\n", analysis.RunID)

	kpi := analysis.KPI
	b.WriteString("KPI SUMMARY\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(&b, "%-24s %s\n", "Total transactions:", formatInt(kpi.TotalVolume))
	fmt.Fprintf(&b, "%-24s %s\n", "Total value:", kpi.TotalValue.StringFixed(2))
	fmt.Fprintf(&b, "%-24s %s\n", "Average ticket:", kpi.AverageTicket.StringFixed(2))
	fmt.Fprintf(&b, "%-24s %d\n", "Active branches:", kpi.ActiveBranches)
	fmt.Fprintf(&b, "%-24s %d\n", "Active customers:", kpi.ActiveCustomers)
	if kpi.Period.Empty {
		fmt.Fprintf(&b, "%-24s %s\n", "Period covered:", "no data")
	} else {
		fmt.Fprintf(&b, "%-24s %s to %s\n", "Period covered:",
			kpi.Period.Start.Format("2006-01-02"), kpi.Period.End.Format("2006-01-02"))
	}

	if kpi.QuarantinedRows > 0 {
		fmt.Fprintf(&b, "\n%d rows skipped during load (quarantined, not counted above):\n", kpi.QuarantinedRows)
		reasons := make([]string, 0, len(kpi.QuarantineReasons))
		for reason := range kpi.QuarantineReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(&b, "  %-24s %d\n", reason+":", kpi.QuarantineReasons[reason])
		}
	}

	b.WriteString("\nBRANCH RANKING\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	top := analytics.TopN(analysis.Ranking, r.config.RankingRows)
	if len(top) == 0 {
		b.WriteString("no data\n")
	}
	for _, entry := range top {
		name := entry.BranchName
		if name == "" {
			name = entry.BranchID
		}
		fmt.Fprintf(&b, "%3d. %-30s %8d tx  %14s\n",
			entry.Rank, name, entry.Transactions, entry.Value.StringFixed(2))
	}

	b.WriteString("\nCUSTOMER SEGMENTS\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	for _, bucket := range analysis.Segments {
		fmt.Fprintf(&b, "%-16s %6d customers  %14s\n",
			bucket.Label, bucket.CustomerCount, bucket.AggregateValue.StringFixed(2))
	}

	parity := analysis.Parity
	b.WriteString("\nPARITY COMPARISON\n")
	b.WriteString(strings.Repeat("-", 60) + "\n")
	fmt.Fprintf(&b, "Criterion: %s\n", parity.Criterion)
	if parity.Conclusion == analytics.ConclusionInconclusive {
		fmt.Fprintf(&b, "Conclusion: %s (odd: %d periods, even: %d periods)\n",
			parity.Conclusion, parity.OddCount, parity.EvenCount)
	} else {
		fmt.Fprintf(&b, "Odd mean %.2f, even mean %.2f, t = %.3f, p = %.4f (alpha %.2f)\n",
			parity.OddMean, parity.EvenMean, parity.TStatistic, parity.PValue, parity.Alpha)
		fmt.Fprintf(&b, "Conclusion: %s\n", parity.Conclusion)
	}

	for _, warning := range analysis.Warnings {
		fmt.Fprintf(&b, "\nwarning: %s\n", warning)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func formatInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}
