// Package loader reads banking CSV extracts and normalizes them into an
// immutable dataset snapshot.
//
// The loader is strict about structure and tolerant about rows: a required
// column missing from a source is a SchemaError that aborts the load, while
// an individual row that cannot be normalized is quarantined with a reason
// code and processing continues. Quarantined rows are retained on the
// dataset, never silently dropped.
//
// Branch and customer sources are optional. When one is absent, a synthetic
// placeholder record (name "Unknown") is generated per distinct id referenced
// by the transactions. When a source is present but a referenced id is
// missing from it, the transaction is flagged as orphaned and a placeholder
// is synthesized so downstream joins never fail.
package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"banvic-analytics/internal/models"
	"banvic-analytics/pkg/errors"
	"banvic-analytics/pkg/logger"
)

// Sources names the CSV files for one load. Branches and Customers are
// optional; empty paths mean the source is absent.
type Sources struct {
	TransactionsPath string
	BranchesPath     string
	CustomersPath    string
}

// SourceReaders is the reader-based equivalent of Sources, used by tests and
// by callers that already hold open streams. Nil readers mean the source is
// absent.
type SourceReaders struct {
	Transactions io.Reader
	Branches     io.Reader
	Customers    io.Reader
}

// Loader normalizes CSV sources into dataset snapshots. It holds no state
// between calls beyond its configuration.
type Loader struct {
	config *Config
	logger logger.Logger
}

// New creates a Loader with the given configuration
func New(config *Config) (*Loader, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.validated(); err != nil {
		return nil, err
	}
	return &Loader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("loader"),
	}, nil
}

// Load reads the named CSV files and builds a dataset snapshot. Files are
// closed on all paths.
func (l *Loader) Load(ctx context.Context, sources Sources) (*models.Dataset, error) {
	if strings.TrimSpace(sources.TransactionsPath) == "" {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "transactions source", nil, nil)
	}

	txFile, err := os.Open(sources.TransactionsPath)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, sources.TransactionsPath, err)
	}
	defer txFile.Close()

	readers := SourceReaders{Transactions: txFile}

	if sources.BranchesPath != "" {
		branchFile, err := os.Open(sources.BranchesPath)
		if err != nil {
			return nil, errors.FileError(errors.CodeFileNotFound, sources.BranchesPath, err)
		}
		defer branchFile.Close()
		readers.Branches = branchFile
	}

	if sources.CustomersPath != "" {
		customerFile, err := os.Open(sources.CustomersPath)
		if err != nil {
			return nil, errors.FileError(errors.CodeFileNotFound, sources.CustomersPath, err)
		}
		defer customerFile.Close()
		readers.Customers = customerFile
	}

	return l.LoadReaders(ctx, readers)
}

// LoadReaders builds a dataset snapshot from open CSV streams
func (l *Loader) LoadReaders(ctx context.Context, readers SourceReaders) (*models.Dataset, error) {
	if readers.Transactions == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "transactions source", nil, nil)
	}

	start := time.Now()
	l.logger.WithFields(logger.Fields{
		"has_branches":  readers.Branches != nil,
		"has_customers": readers.Customers != nil,
	}).Info("Starting dataset load")

	dataset := &models.Dataset{
		Branches:  make(map[string]models.Branch),
		Customers: make(map[string]models.Customer),
		Stats: models.LoadStats{
			QuarantineReasons: make(map[models.QuarantineReason]int),
			LoadedAt:          start,
		},
	}

	branchesProvided := readers.Branches != nil
	customersProvided := readers.Customers != nil

	if branchesProvided {
		if err := l.loadBranches(ctx, readers.Branches, dataset); err != nil {
			return nil, err
		}
	}
	if customersProvided {
		if err := l.loadCustomers(ctx, readers.Customers, dataset); err != nil {
			return nil, err
		}
	}
	if err := l.loadTransactions(ctx, readers.Transactions, dataset); err != nil {
		return nil, err
	}

	l.resolveReferences(dataset, branchesProvided, customersProvided)

	l.logger.WithFields(logger.Fields{
		"rows_read":        dataset.Stats.RowsRead,
		"rows_loaded":      dataset.Stats.RowsLoaded,
		"rows_quarantined": dataset.Stats.RowsQuarantined,
		"orphaned":         dataset.Stats.OrphanedTransactions,
		"branches":         len(dataset.Branches),
		"customers":        len(dataset.Customers),
		"duration":         time.Since(start).String(),
	}).Info("Dataset load complete")

	return dataset, nil
}

// columnIndex maps canonical column names to positions in the header row
type columnIndex map[string]int

// resolveHeader matches a header row against canonical names and aliases.
// Matching is case-insensitive on trimmed headers; unrecognized columns are
// ignored. Required columns that resolve to no position produce a
// SchemaError.
func resolveHeader(header []string, aliases map[string]string, required []string, source string) (columnIndex, error) {
	index := make(columnIndex)
	for pos, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		if canonical, ok := aliases[name]; ok {
			name = canonical
		}
		if _, taken := index[name]; !taken {
			index[name] = pos
		}
	}

	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, errors.SchemaError(errors.CodeMissingColumn, source, col, nil)
		}
	}
	return index, nil
}

// field returns the trimmed value of a canonical column in a record, or ""
// when the column resolved to a position the record does not have.
func (ci columnIndex) field(record []string, col string) string {
	pos, ok := ci[col]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func (l *Loader) newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.Comma = l.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	return reader
}

func (l *Loader) loadTransactions(ctx context.Context, r io.Reader, dataset *models.Dataset) error {
	reader := l.newReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return errors.SchemaError(errors.CodeEmptySource, "transactions", "", nil)
	}
	if err != nil {
		return errors.SchemaError(errors.CodeInvalidHeader, "transactions", "", err)
	}

	required := []string{ColTransactionID, ColTimestamp, ColBranchID, ColCustomerID, ColAmount}
	index, err := resolveHeader(header, l.config.TransactionAliases, required, "transactions")
	if err != nil {
		return err
	}

	electedFormat := ""
	line := 1

	for {
		if err := ctx.Err(); err != nil {
			return errors.InternalError("transaction load", err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			dataset.Stats.RowsRead++
			l.quarantine(dataset, line, record, models.ReasonMissingField, fmt.Sprintf("unreadable row: %v", err))
			continue
		}
		if isEmptyRow(record) {
			continue
		}
		dataset.Stats.RowsRead++

		tx, reason, detail, elected := l.parseTransaction(record, index, electedFormat)
		if elected != "" && electedFormat == "" {
			electedFormat = elected
			dataset.Stats.ElectedDateFormat = elected
			l.logger.WithField("format", elected).Debug("Elected timestamp format for transaction column")
		}
		if reason != "" {
			l.quarantine(dataset, line, record, reason, detail)
			continue
		}

		dataset.Transactions = append(dataset.Transactions, *tx)
		dataset.Stats.RowsLoaded++
	}

	return nil
}

// parseTransaction normalizes one raw record. It returns either a valid
// transaction or a quarantine reason with detail. The elected return carries
// a newly elected timestamp format when this row performed the election.
func (l *Loader) parseTransaction(record []string, index columnIndex, electedFormat string) (*models.Transaction, models.QuarantineReason, string, string) {
	id := index.field(record, ColTransactionID)
	rawTime := index.field(record, ColTimestamp)
	branchID := index.field(record, ColBranchID)
	customerID := index.field(record, ColCustomerID)
	rawAmount := index.field(record, ColAmount)

	requiredFields := []struct {
		name  string
		value string
	}{
		{ColTransactionID, id},
		{ColTimestamp, rawTime},
		{ColBranchID, branchID},
		{ColCustomerID, customerID},
		{ColAmount, rawAmount},
	}
	for _, f := range requiredFields {
		if f.value == "" {
			return nil, models.ReasonMissingField, fmt.Sprintf("field %q is empty", f.name), ""
		}
	}

	elected := ""
	if electedFormat == "" {
		for _, format := range l.config.DateFormats {
			if _, err := time.Parse(format, rawTime); err == nil {
				electedFormat = format
				elected = format
				break
			}
		}
		if electedFormat == "" {
			return nil, models.ReasonBadTimestamp, fmt.Sprintf("no accepted format parses %q", rawTime), ""
		}
	}

	timestamp, err := time.Parse(electedFormat, rawTime)
	if err != nil {
		return nil, models.ReasonBadTimestamp, fmt.Sprintf("%q does not match elected format %q", rawTime, electedFormat), elected
	}
	if timestamp.Before(l.config.QuarantineDateMin) || timestamp.After(l.config.QuarantineDateMax) {
		return nil, models.ReasonTimestampOutOfRange,
			fmt.Sprintf("timestamp %s outside [%s, %s]",
				timestamp.Format("2006-01-02"),
				l.config.QuarantineDateMin.Format("2006-01-02"),
				l.config.QuarantineDateMax.Format("2006-01-02")), elected
	}

	amount, err := models.ParseDecimalFromString(rawAmount)
	if err != nil {
		return nil, models.ReasonBadAmount, err.Error(), elected
	}

	tx := &models.Transaction{
		ID:         id,
		Timestamp:  timestamp,
		BranchID:   branchID,
		CustomerID: customerID,
		Amount:     amount,
		Type:       models.ParseTransactionType(index.field(record, ColType)),
	}
	return tx, "", "", elected
}

func (l *Loader) loadBranches(ctx context.Context, r io.Reader, dataset *models.Dataset) error {
	reader := l.newReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return errors.SchemaError(errors.CodeEmptySource, "branches", "", nil)
	}
	if err != nil {
		return errors.SchemaError(errors.CodeInvalidHeader, "branches", "", err)
	}

	index, err := resolveHeader(header, l.config.BranchAliases, []string{ColBranchID, ColBranchName}, "branches")
	if err != nil {
		return err
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return errors.InternalError("branch load", err)
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil || isEmptyRow(record) {
			continue
		}

		branch := models.Branch{
			BranchID: index.field(record, ColBranchID),
			Name:     index.field(record, ColBranchName),
			Region:   index.field(record, ColRegion),
		}
		if branch.Validate() != nil {
			l.quarantine(dataset, line, record, models.ReasonMissingField, "branch row missing id or name")
			continue
		}
		if _, exists := dataset.Branches[branch.BranchID]; exists {
			dataset.Stats.DuplicateMasterRows++
		}
		// last one wins on duplicate ids
		dataset.Branches[branch.BranchID] = branch
	}
	return nil
}

func (l *Loader) loadCustomers(ctx context.Context, r io.Reader, dataset *models.Dataset) error {
	reader := l.newReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return errors.SchemaError(errors.CodeEmptySource, "customers", "", nil)
	}
	if err != nil {
		return errors.SchemaError(errors.CodeInvalidHeader, "customers", "", err)
	}

	index, err := resolveHeader(header, l.config.CustomerAliases, []string{ColCustomerID, "name"}, "customers")
	if err != nil {
		return err
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return errors.InternalError("customer load", err)
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil || isEmptyRow(record) {
			continue
		}

		customer := models.Customer{
			CustomerID:  index.field(record, ColCustomerID),
			Name:        index.field(record, "name"),
			SegmentHint: index.field(record, ColSegmentHint),
		}
		if customer.Validate() != nil {
			l.quarantine(dataset, line, record, models.ReasonMissingField, "customer row missing id or name")
			continue
		}
		if _, exists := dataset.Customers[customer.CustomerID]; exists {
			dataset.Stats.DuplicateMasterRows++
		}
		dataset.Customers[customer.CustomerID] = customer
	}
	return nil
}

// resolveReferences enforces the referential invariant: every branch and
// customer id referenced by a transaction exists in the loaded maps. Ids
// without a master row get a synthetic placeholder; when the master source
// was actually provided the transaction is additionally flagged as orphaned.
func (l *Loader) resolveReferences(dataset *models.Dataset, branchesProvided, customersProvided bool) {
	for i := range dataset.Transactions {
		tx := &dataset.Transactions[i]

		if _, ok := dataset.Branches[tx.BranchID]; !ok {
			dataset.Branches[tx.BranchID] = models.PlaceholderBranch(tx.BranchID)
			dataset.Stats.SyntheticBranches++
			if branchesProvided {
				tx.Orphaned = true
			}
		}
		if _, ok := dataset.Customers[tx.CustomerID]; !ok {
			dataset.Customers[tx.CustomerID] = models.PlaceholderCustomer(tx.CustomerID)
			dataset.Stats.SyntheticCustomers++
			if customersProvided {
				tx.Orphaned = true
			}
		}
		if tx.Orphaned {
			dataset.Stats.OrphanedTransactions++
		}
	}

	if dataset.Stats.OrphanedTransactions > 0 {
		l.logger.WithField("count", dataset.Stats.OrphanedTransactions).
			Warn("Transactions reference ids missing from supplied master sources")
	}
}

func (l *Loader) quarantine(dataset *models.Dataset, line int, record []string, reason models.QuarantineReason, detail string) {
	raw := make([]string, len(record))
	copy(raw, record)
	dataset.Quarantined = append(dataset.Quarantined, models.QuarantinedRow{
		Line:   line,
		Raw:    raw,
		Reason: reason,
		Detail: detail,
	})
	dataset.Stats.RowsQuarantined++
	dataset.Stats.QuarantineReasons[reason]++

	l.logger.WithFields(logger.Fields{
		"line":   line,
		"reason": string(reason),
		"detail": detail,
	}).Debug("Quarantined row")
}

func isEmptyRow(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
