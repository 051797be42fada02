package analytics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"banvic-analytics/internal/models"
)

// RankingMetric selects what branches are ranked by
type RankingMetric string

const (
	// MetricVolume ranks by transaction count
	MetricVolume RankingMetric = "volume"
	// MetricValue ranks by summed transaction value
	MetricValue RankingMetric = "value"
)

// IsValid checks if the ranking metric is supported
func (m RankingMetric) IsValid() bool {
	return m == MetricVolume || m == MetricValue
}

// ParseRankingMetric parses a metric name from configuration
func ParseRankingMetric(s string) (RankingMetric, error) {
	switch RankingMetric(s) {
	case MetricVolume:
		return MetricVolume, nil
	case MetricValue:
		return MetricValue, nil
	default:
		return "", fmt.Errorf("invalid ranking metric %q: must be volume or value", s)
	}
}

// RankingEntry is one branch's position in a ranking
type RankingEntry struct {
	Rank         int             `json:"rank"`
	BranchID     string          `json:"branch_id"`
	BranchName   string          `json:"branch_name"`
	Transactions int64           `json:"transactions"`
	Value        decimal.Decimal `json:"value"`
	MetricValue  decimal.Decimal `json:"metric_value"`
}

// RankBranches ranks branches by the given metric, descending. Ties are
// broken by branch id ascending so the output is reproducible across runs.
// Ranks are 1-based and dense over the full ordering.
func RankBranches(dataset *models.Dataset, metric RankingMetric) []RankingEntry {
	type accum struct {
		count int64
		value decimal.Decimal
	}
	totals := make(map[string]*accum)

	for _, tx := range dataset.Transactions {
		a, ok := totals[tx.BranchID]
		if !ok {
			a = &accum{value: decimal.Zero}
			totals[tx.BranchID] = a
		}
		a.count++
		a.value = a.value.Add(tx.Amount)
	}

	entries := make([]RankingEntry, 0, len(totals))
	for branchID, a := range totals {
		entry := RankingEntry{
			BranchID:     branchID,
			Transactions: a.count,
			Value:        a.value,
		}
		if branch, ok := dataset.Branches[branchID]; ok {
			entry.BranchName = branch.Name
		}
		switch metric {
		case MetricValue:
			entry.MetricValue = a.value
		default:
			entry.MetricValue = decimal.NewFromInt(a.count)
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		cmp := entries[i].MetricValue.Cmp(entries[j].MetricValue)
		if cmp != 0 {
			return cmp > 0
		}
		return entries[i].BranchID < entries[j].BranchID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// TopN returns the first n ranking entries, or all of them when fewer exist
func TopN(entries []RankingEntry, n int) []RankingEntry {
	if n < 0 {
		n = 0
	}
	if len(entries) < n {
		n = len(entries)
	}
	return entries[:n]
}
