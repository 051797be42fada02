// Package analytics computes descriptive and comparative metrics over a
// normalized dataset: KPIs, branch rankings, customer segments, seasonal
// series and the odd/even-period statistical comparison.
//
// All computations are pure functions of the dataset and their configuration;
// the dataset is shared read-only and never mutated.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/models"
)

// PeriodRange is the covered time span of a dataset. Empty marks the absence
// of any transactions, distinguishing it from a zero-length range.
type PeriodRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Empty bool      `json:"empty"`
}

// KPIResult holds the aggregate metrics over the non-quarantined
// transactions, recomputed on every dataset change.
type KPIResult struct {
	TotalVolume     int64           `json:"total_volume"`
	TotalValue      decimal.Decimal `json:"total_value"`
	AverageTicket   decimal.Decimal `json:"average_ticket"`
	ActiveBranches  int             `json:"active_branches"`
	ActiveCustomers int             `json:"active_customers"`
	Period          PeriodRange     `json:"period_covered"`

	// Quarantine counts are surfaced alongside the KPIs so a summary can
	// distinguish "some rows skipped" from a clean load.
	QuarantinedRows   int            `json:"quarantined_rows"`
	QuarantineReasons map[string]int `json:"quarantine_reasons,omitempty"`
}

// ComputeKPIs computes the aggregate metrics for a dataset. Averages over an
// empty dataset are defined as zero, not an error.
func ComputeKPIs(dataset *models.Dataset) *KPIResult {
	result := &KPIResult{
		TotalValue:    decimal.Zero,
		AverageTicket: decimal.Zero,
		Period:        PeriodRange{Empty: true},
	}

	if dataset != nil {
		result.QuarantinedRows = dataset.Stats.RowsQuarantined
		if len(dataset.Stats.QuarantineReasons) > 0 {
			result.QuarantineReasons = make(map[string]int, len(dataset.Stats.QuarantineReasons))
			for reason, count := range dataset.Stats.QuarantineReasons {
				result.QuarantineReasons[string(reason)] = count
			}
		}
	}

	if dataset.Empty() {
		return result
	}

	branches := make(map[string]struct{})
	customers := make(map[string]struct{})

	// decimal summation keeps cent-level precision over large datasets
	total := decimal.Zero
	for _, tx := range dataset.Transactions {
		total = total.Add(tx.Amount)
		branches[tx.BranchID] = struct{}{}
		customers[tx.CustomerID] = struct{}{}
	}

	result.TotalVolume = int64(len(dataset.Transactions))
	result.TotalValue = total
	result.AverageTicket = total.Div(decimal.NewFromInt(result.TotalVolume)).Round(2)
	result.ActiveBranches = len(branches)
	result.ActiveCustomers = len(customers)

	start, end, _ := dataset.Period()
	result.Period = PeriodRange{Start: start, End: end}

	return result
}
