package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseTransactionType(t *testing.T) {
	tests := []struct {
		input    string
		expected TransactionType
	}{
		{"deposit", TransactionTypeDeposit},
		{"DEPOSIT", TransactionTypeDeposit},
		{"credit", TransactionTypeDeposit},
		{"withdrawal", TransactionTypeWithdrawal},
		{"debit", TransactionTypeWithdrawal},
		{"saque", TransactionTypeWithdrawal},
		{"transfer", TransactionTypeTransfer},
		{"pix", TransactionTypeTransfer},
		{"", TransactionTypeOther},
		{"something-new", TransactionTypeOther},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseTransactionType(tt.input); got != tt.expected {
				t.Errorf("ParseTransactionType(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTransactionType_IsValid(t *testing.T) {
	tests := []struct {
		txType TransactionType
		valid  bool
	}{
		{TransactionTypeDeposit, true},
		{TransactionTypeWithdrawal, true},
		{TransactionTypeTransfer, true},
		{TransactionTypeOther, true},
		{"INVALID", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.txType), func(t *testing.T) {
			if got := tt.txType.IsValid(); got != tt.valid {
				t.Errorf("TransactionType.IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestParseDecimalFromString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expected  string
		wantError bool
	}{
		{"Plain amount", "100.50", "100.5", false},
		{"Negative amount", "-42.10", "-42.1", false},
		{"Currency symbol", "$1500.00", "1500", false},
		{"Brazilian currency symbol", "R$100.50", "100.5", false},
		{"Brazilian currency with separators", "R$1,234.56", "1234.56", false},
		{"Thousand separators", "1,234,567.89", "1234567.89", false},
		{"Whitespace", "  250.00  ", "250", false},
		{"Empty", "", "", true},
		{"Garbage", "abc", "", true},
		{"NaN-like", "NaN", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalFromString(tt.input)
			if tt.wantError {
				if err == nil {
					t.Errorf("ParseDecimalFromString(%q) expected error, got %s", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalFromString(%q) unexpected error: %v", tt.input, err)
			}
			expected, _ := decimal.NewFromString(tt.expected)
			if !got.Equal(expected) {
				t.Errorf("ParseDecimalFromString(%q) = %s, want %s", tt.input, got, expected)
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		ID:         "TX001",
		Timestamp:  time.Date(2023, 5, 10, 0, 0, 0, 0, time.UTC),
		BranchID:   "BR1",
		CustomerID: "C1",
		Amount:     decimal.NewFromFloat(100.50),
		Type:       TransactionTypeDeposit,
	}

	tests := []struct {
		name      string
		mutate    func(tx *Transaction)
		wantError bool
	}{
		{"Valid transaction", func(tx *Transaction) {}, false},
		{"Empty ID", func(tx *Transaction) { tx.ID = " " }, true},
		{"Zero timestamp", func(tx *Transaction) { tx.Timestamp = time.Time{} }, true},
		{"Empty branch", func(tx *Transaction) { tx.BranchID = "" }, true},
		{"Empty customer", func(tx *Transaction) { tx.CustomerID = "" }, true},
		{"Invalid type", func(tx *Transaction) { tx.Type = "bogus" }, true},
		{"Zero amount is allowed", func(tx *Transaction) { tx.Amount = decimal.Zero }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestPlaceholders(t *testing.T) {
	branch := PlaceholderBranch("BR9")
	if branch.Name != PlaceholderName || !branch.Synthetic {
		t.Errorf("PlaceholderBranch() = %+v, want synthetic %q record", branch, PlaceholderName)
	}
	customer := PlaceholderCustomer("C9")
	if customer.Name != PlaceholderName || !customer.Synthetic {
		t.Errorf("PlaceholderCustomer() = %+v, want synthetic %q record", customer, PlaceholderName)
	}
}

func TestDataset_Period(t *testing.T) {
	empty := &Dataset{}
	if _, _, ok := empty.Period(); ok {
		t.Error("Period() on empty dataset should report no range")
	}

	ds := &Dataset{Transactions: []Transaction{
		{Timestamp: time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2023, 2, 20, 0, 0, 0, 0, time.UTC)},
	}}
	min, max, ok := ds.Period()
	if !ok {
		t.Fatal("Period() should report a range")
	}
	if min != time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Period() min = %s", min)
	}
	if max != time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Period() max = %s", max)
	}
}
