package models

import (
	"time"
)

// QuarantineReason is a stable code explaining why a row was excluded from
// the aggregates. Reason assignment is a pure function of the raw row and the
// loader configuration: re-validating a quarantined row reproduces the same
// decision.
type QuarantineReason string

const (
	ReasonMissingField        QuarantineReason = "missing_field"
	ReasonBadAmount           QuarantineReason = "bad_amount"
	ReasonBadTimestamp        QuarantineReason = "bad_timestamp"
	ReasonTimestampOutOfRange QuarantineReason = "timestamp_out_of_range"
)

// QuarantinedRow preserves a rejected raw row together with the reason it
// was excluded. Rows are retained, never silently dropped.
type QuarantinedRow struct {
	Line   int              `json:"line"`
	Raw    []string         `json:"raw"`
	Reason QuarantineReason `json:"reason"`
	Detail string           `json:"detail,omitempty"`
}

// LoadStats summarizes a load for logging and the KPI quarantine surface
type LoadStats struct {
	RowsRead             int                      `json:"rows_read"`
	RowsLoaded           int                      `json:"rows_loaded"`
	RowsQuarantined      int                      `json:"rows_quarantined"`
	QuarantineReasons    map[QuarantineReason]int `json:"quarantine_reasons"`
	OrphanedTransactions int                      `json:"orphaned_transactions"`
	SyntheticBranches    int                      `json:"synthetic_branches"`
	SyntheticCustomers   int                      `json:"synthetic_customers"`
	DuplicateMasterRows  int                      `json:"duplicate_master_rows"`
	ElectedDateFormat    string                   `json:"elected_date_format,omitempty"`
	LoadedAt             time.Time                `json:"loaded_at"`
}

// Dataset is the immutable snapshot produced by one load. It is owned by a
// single pipeline run and shared read-only across the analytical engines;
// nothing mutates it after construction.
type Dataset struct {
	Transactions []Transaction       `json:"transactions"`
	Branches     map[string]Branch   `json:"branches"`
	Customers    map[string]Customer `json:"customers"`
	Quarantined  []QuarantinedRow    `json:"quarantined"`
	Stats        LoadStats           `json:"stats"`
}

// Empty reports whether the dataset holds no usable transactions
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Transactions) == 0
}

// Period returns the minimum and maximum transaction timestamps. The third
// return is false when there are no transactions.
func (d *Dataset) Period() (time.Time, time.Time, bool) {
	if d.Empty() {
		return time.Time{}, time.Time{}, false
	}
	min, max := d.Transactions[0].Timestamp, d.Transactions[0].Timestamp
	for _, tx := range d.Transactions[1:] {
		if tx.Timestamp.Before(min) {
			min = tx.Timestamp
		}
		if tx.Timestamp.After(max) {
			max = tx.Timestamp
		}
	}
	return min, max, true
}
