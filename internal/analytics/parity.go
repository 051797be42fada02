package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"banvic-analytics/internal/models"
	"banvic-analytics/pkg/errors"
)

// ParityUnit selects the calendar number whose parity splits the periods
type ParityUnit string

const (
	// ParityByMonth splits monthly volume totals by calendar month number
	// (January = 1 is odd). This mirrors the even-vs-odd-months hypothesis
	// the dashboard was originally built to examine.
	ParityByMonth ParityUnit = "month"
	// ParityByDay splits daily volume totals by day of month
	ParityByDay ParityUnit = "day"
)

// IsValid checks if the parity unit is supported
func (u ParityUnit) IsValid() bool {
	return u == ParityByMonth || u == ParityByDay
}

// ParseParityUnit parses a parity unit from configuration
func ParseParityUnit(s string) (ParityUnit, error) {
	u := ParityUnit(s)
	if !u.IsValid() {
		return "", fmt.Errorf("invalid parity unit %q: must be month or day", s)
	}
	return u, nil
}

// Criterion describes the grouping criterion in prose, echoed verbatim in
// results and on the report methodology page.
func (u ParityUnit) Criterion() string {
	if u == ParityByDay {
		return "odd vs even day of month, per-day volume totals"
	}
	return "odd vs even calendar month number, per-month volume totals"
}

// ParityConfig configures the odd/even statistical comparison
type ParityConfig struct {
	Unit ParityUnit `json:"unit"`
	// Alpha is the fixed significance threshold for the conclusion label
	Alpha float64 `json:"alpha"`
	// MinGroupSize is the minimum number of periods per parity group below
	// which the test is inconclusive
	MinGroupSize int `json:"min_group_size"`
}

// DefaultParityConfig returns the default comparison configuration
func DefaultParityConfig() *ParityConfig {
	return &ParityConfig{
		Unit:         ParityByMonth,
		Alpha:        0.05,
		MinGroupSize: 3,
	}
}

// Validate validates the parity configuration
func (c *ParityConfig) Validate() error {
	if !c.Unit.IsValid() {
		return fmt.Errorf("invalid parity unit: %s", c.Unit)
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return fmt.Errorf("alpha must be in (0, 1), got %v", c.Alpha)
	}
	if c.MinGroupSize < 2 {
		return fmt.Errorf("min group size must be at least 2, got %d", c.MinGroupSize)
	}
	return nil
}

// Conclusion labels for the parity comparison
const (
	ConclusionSignificant    = "significant difference"
	ConclusionNotSignificant = "no significant difference"
	ConclusionInconclusive   = "inconclusive"
)

// ParityTestResult holds the outcome of the odd/even comparison
type ParityTestResult struct {
	Criterion  string  `json:"criterion"`
	OddCount   int     `json:"odd_count"`
	EvenCount  int     `json:"even_count"`
	OddMean    float64 `json:"odd_group_stat"`
	EvenMean   float64 `json:"even_group_stat"`
	TStatistic float64 `json:"test_statistic"`
	PValue     float64 `json:"p_value"`
	Alpha      float64 `json:"alpha"`
	Conclusion string  `json:"conclusion_label"`
}

// ParityTest partitions the per-period volume totals into odd and even groups
// by the configured calendar unit and runs Welch's two-sample t-test over
// them. Periods come from the gap-filled seasonal series, so calendar periods
// without transactions participate with a zero total.
//
// When either group is smaller than the configured minimum, the returned
// result is marked inconclusive (no statistic is fabricated) alongside an
// InsufficientDataError; callers degrade rather than abort.
func ParityTest(dataset *models.Dataset, config *ParityConfig) (*ParityTestResult, error) {
	if config == nil {
		config = DefaultParityConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "parity", config, err)
	}

	granularity := GranularityMonth
	if config.Unit == ParityByDay {
		granularity = GranularityDay
	}
	series := SeasonalSeries(dataset, granularity)

	var odd, even []float64
	for _, point := range series {
		number := int(point.PeriodStart.Month())
		if config.Unit == ParityByDay {
			number = point.PeriodStart.Day()
		}
		value, _ := point.Value.Float64()
		if number%2 == 1 {
			odd = append(odd, value)
		} else {
			even = append(even, value)
		}
	}

	result := &ParityTestResult{
		Criterion: config.Unit.Criterion(),
		OddCount:  len(odd),
		EvenCount: len(even),
		Alpha:     config.Alpha,
		PValue:    math.NaN(),
	}

	smallest := len(odd)
	if len(even) < smallest {
		smallest = len(even)
	}
	if smallest < config.MinGroupSize {
		result.Conclusion = ConclusionInconclusive
		result.TStatistic = math.NaN()
		return result, errors.InsufficientDataError("parity test", smallest, config.MinGroupSize)
	}

	result.OddMean = stat.Mean(odd, nil)
	result.EvenMean = stat.Mean(even, nil)
	result.TStatistic, result.PValue = welchTTest(odd, even)

	if result.PValue < config.Alpha {
		result.Conclusion = ConclusionSignificant
	} else {
		result.Conclusion = ConclusionNotSignificant
	}
	return result, nil
}

// welchTTest computes Welch's t statistic and a two-sided p-value using the
// Welch-Satterthwaite degrees of freedom.
func welchTTest(x, y []float64) (t, p float64) {
	nx, ny := float64(len(x)), float64(len(y))
	mx, my := stat.Mean(x, nil), stat.Mean(y, nil)
	vx, vy := stat.Variance(x, nil), stat.Variance(y, nil)

	se2 := vx/nx + vy/ny
	if se2 == 0 {
		// both groups are constant
		if mx == my {
			return 0, 1
		}
		return math.Copysign(math.Inf(1), mx-my), 0
	}

	t = (mx - my) / math.Sqrt(se2)
	df := se2 * se2 / (vx*vx/(nx*nx*(nx-1)) + vy*vy/(ny*ny*(ny-1)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p = 2 * dist.CDF(-math.Abs(t))
	return t, p
}
