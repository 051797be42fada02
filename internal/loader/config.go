package loader

import (
	"fmt"
	"time"

	"banvic-analytics/pkg/errors"
)

// Canonical column names per source. Input headers are matched against these
// directly or through the alias maps; unrecognized extra columns are ignored.
const (
	ColTransactionID = "id"
	ColTimestamp     = "timestamp"
	ColBranchID      = "branch_id"
	ColCustomerID    = "customer_id"
	ColAmount        = "amount"
	ColType          = "type"

	ColBranchName  = "name"
	ColRegion      = "region"
	ColSegmentHint = "segment_hint"
)

// Config holds configuration for loading and normalizing the CSV sources
type Config struct {
	// Delimiter used by all sources
	Delimiter rune

	// Aliases map lowercased input headers to canonical column names,
	// per source type.
	TransactionAliases map[string]string
	BranchAliases      map[string]string
	CustomerAliases    map[string]string

	// DateFormats are candidate timestamp layouts in priority order. The
	// first layout that parses the first non-empty timestamp value is
	// elected and applied to the whole column.
	DateFormats []string

	// Rows with timestamps outside [QuarantineDateMin, QuarantineDateMax]
	// are quarantined as out of range.
	QuarantineDateMin time.Time
	QuarantineDateMax time.Time
}

// DefaultConfig returns a configuration with sensible defaults for typical
// banking CSV extracts.
func DefaultConfig() *Config {
	return &Config{
		Delimiter: ',',
		TransactionAliases: map[string]string{
			"transaction_id": ColTransactionID,
			"trx_id":         ColTransactionID,
			"txn_id":         ColTransactionID,
			"transacao_id":   ColTransactionID,
			"date":           ColTimestamp,
			"datetime":       ColTimestamp,
			"data":           ColTimestamp,
			"data_transacao": ColTimestamp,
			"created_at":     ColTimestamp,
			"agencia_id":     ColBranchID,
			"agency_id":      ColBranchID,
			"branch":         ColBranchID,
			"cliente_id":     ColCustomerID,
			"client_id":      ColCustomerID,
			"conta_id":       ColCustomerID,
			"cust_id":        ColCustomerID,
			"customer":       ColCustomerID,
			"valor":          ColAmount,
			"value":          ColAmount,
			"amt":            ColAmount,
			"montante":       ColAmount,
			"transaction_type": ColType,
			"tx_type":          ColType,
			"tipo":             ColType,
		},
		BranchAliases: map[string]string{
			"id":           ColBranchID,
			"agencia_id":   ColBranchID,
			"agency_id":    ColBranchID,
			"branch":       ColBranchID,
			"nome":         ColBranchName,
			"nome_agencia": ColBranchName,
			"descricao":    ColBranchName,
			"regiao":       ColRegion,
			"uf":           ColRegion,
			"city":         ColRegion,
			"cidade":       ColRegion,
		},
		CustomerAliases: map[string]string{
			"id":          ColCustomerID,
			"cliente_id":  ColCustomerID,
			"client_id":   ColCustomerID,
			"cust_id":     ColCustomerID,
			"nome":        "name",
			"razao":       "name",
			"segment":     ColSegmentHint,
			"segmento":    ColSegmentHint,
			"hint":        ColSegmentHint,
		},
		DateFormats: []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02",
			"02/01/2006 15:04:05",
			"02/01/2006",
			"01/02/2006",
			"2006/01/02",
		},
		QuarantineDateMin: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		QuarantineDateMax: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Validate validates the loader configuration
func (c *Config) Validate() error {
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	if len(c.DateFormats) == 0 {
		return fmt.Errorf("at least one date format is required")
	}
	if !c.QuarantineDateMax.After(c.QuarantineDateMin) {
		return fmt.Errorf("quarantine date bounds are inverted: min %s, max %s",
			c.QuarantineDateMin.Format("2006-01-02"), c.QuarantineDateMax.Format("2006-01-02"))
	}
	return nil
}

// validated wraps Validate into the shared taxonomy for constructor use
func (c *Config) validated() error {
	if err := c.Validate(); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "loader", nil, err)
	}
	return nil
}
