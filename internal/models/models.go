// Package models defines the record types shared by the analytics pipeline:
// transactions, branch and customer master records, and the immutable dataset
// snapshot the loader produces for the engines.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the kind of banking transaction
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
	TransactionTypeOther      TransactionType = "other"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is one of the known values
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeDeposit, TransactionTypeWithdrawal, TransactionTypeTransfer, TransactionTypeOther:
		return true
	default:
		return false
	}
}

// ParseTransactionType normalizes a raw type string. Unknown values map to
// TransactionTypeOther rather than failing: the type column is descriptive
// and must never cost a row its place in the aggregates.
func ParseTransactionType(s string) TransactionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit", "dep", "credit", "deposito", "depósito":
		return TransactionTypeDeposit
	case "withdrawal", "withdraw", "debit", "saque":
		return TransactionTypeWithdrawal
	case "transfer", "wire", "ted", "doc", "pix", "transferencia", "transferência":
		return TransactionTypeTransfer
	default:
		return TransactionTypeOther
	}
}

// Transaction represents a single validated transaction record
type Transaction struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	BranchID   string          `json:"branch_id"`
	CustomerID string          `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Type       TransactionType `json:"type"`

	// Orphaned marks a transaction whose branch or customer id was not found
	// in a supplied master source. The transaction still participates in all
	// aggregates; the flag only surfaces the referential gap.
	Orphaned bool `json:"orphaned,omitempty"`
}

// Validate performs basic validation on the Transaction
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("transaction timestamp cannot be zero")
	}
	if strings.TrimSpace(t.BranchID) == "" {
		return fmt.Errorf("branch ID cannot be empty")
	}
	if strings.TrimSpace(t.CustomerID) == "" {
		return fmt.Errorf("customer ID cannot be empty")
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", t.Type)
	}
	return nil
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Branch: %s, Customer: %s, Amount: %s, Type: %s, Time: %s}",
		t.ID, t.BranchID, t.CustomerID, t.Amount.String(), t.Type, t.Timestamp.Format(time.RFC3339))
}

// PlaceholderName is used for synthesized master records when a branch or
// customer source is absent or does not contain a referenced id.
const PlaceholderName = "Unknown"

// Branch represents a branch master record
type Branch struct {
	BranchID string `json:"branch_id"`
	Name     string `json:"name"`
	Region   string `json:"region,omitempty"`

	// Synthetic marks records generated for ids that had no master row.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Validate performs basic validation on the Branch
func (b *Branch) Validate() error {
	if strings.TrimSpace(b.BranchID) == "" {
		return fmt.Errorf("branch ID cannot be empty")
	}
	if strings.TrimSpace(b.Name) == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	return nil
}

// PlaceholderBranch builds a synthetic branch record for an unreferenced id
func PlaceholderBranch(branchID string) Branch {
	return Branch{BranchID: branchID, Name: PlaceholderName, Synthetic: true}
}

// Customer represents a customer master record
type Customer struct {
	CustomerID  string `json:"customer_id"`
	Name        string `json:"name"`
	SegmentHint string `json:"segment_hint,omitempty"`

	Synthetic bool `json:"synthetic,omitempty"`
}

// Validate performs basic validation on the Customer
func (c *Customer) Validate() error {
	if strings.TrimSpace(c.CustomerID) == "" {
		return fmt.Errorf("customer ID cannot be empty")
	}
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("customer name cannot be empty")
	}
	return nil
}

// PlaceholderCustomer builds a synthetic customer record for an unreferenced id
func PlaceholderCustomer(customerID string) Customer {
	return Customer{CustomerID: customerID, Name: PlaceholderName, Synthetic: true}
}

// ParseDecimalFromString parses a monetary value from string with validation
func ParseDecimalFromString(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	// Remove common currency symbols and thousand separators.
	// "R$" has to go before the bare "$" or the R is left behind.
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal format '%s': %w", s, err)
	}
	return d, nil
}
