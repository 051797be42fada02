// Package errors defines the error taxonomy used across the analytics
// pipeline.
//
// Errors carry a category, a specific code, an optional suggestion for the
// operator and a captured stack trace. Categories map to CLI exit codes so
// callers can distinguish structural failures (missing columns), bad
// configuration and export failures without string matching.
//
// Row-level data problems are deliberately not part of this taxonomy: a bad
// row is quarantined by the loader with a reason code and never aborts a run.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategorySchema        ErrorCategory = "schema"
	CategoryValidation    ErrorCategory = "validation"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStatistics    ErrorCategory = "statistics"
	CategoryComposition   ErrorCategory = "composition"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeWriteFailed    ErrorCode = "write_failed"

	// Schema errors
	CodeMissingColumn ErrorCode = "missing_column"
	CodeEmptySource   ErrorCode = "empty_source"
	CodeInvalidHeader ErrorCode = "invalid_header"

	// Validation errors
	CodeInvalidAmount ErrorCode = "invalid_amount"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeMissingField  ErrorCode = "missing_field"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Statistics errors
	CodeInsufficientData ErrorCode = "insufficient_data"

	// Composition errors
	CodeMissingArtifact ErrorCode = "missing_artifact"
	CodeChartMismatch   ErrorCode = "chart_mismatch"
	CodeRenderFailed    ErrorCode = "render_failed"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// AnalyticsError is the base error type for all application errors
type AnalyticsError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *AnalyticsError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *AnalyticsError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *AnalyticsError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategorySchema, CategoryValidation:
		return 3
	case CategoryConfiguration:
		return 4
	case CategoryStatistics, CategoryComposition, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *AnalyticsError) WithContext(key string, value interface{}) *AnalyticsError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *AnalyticsError) WithSuggestion(suggestion string) *AnalyticsError {
	e.Suggestion = suggestion
	return e
}

// New creates a new AnalyticsError with a captured stack trace
func New(category ErrorCategory, code ErrorCode, message string) *AnalyticsError {
	err := &AnalyticsError{
		Category: category,
		Code:     code,
		Message:  message,
	}
	if tracer, ok := errors.New("").(stackTracer); ok {
		err.StackTrace = tracer.StackTrace()
	}
	return err
}

// Wrap wraps an existing error into an AnalyticsError
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *AnalyticsError {
	wrapped := &AnalyticsError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    err,
	}
	if tracer, ok := errors.WithStack(err).(stackTracer); ok {
		wrapped.StackTrace = tracer.StackTrace()
	}
	return wrapped
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// SchemaError reports a structural problem with an input source: a required
// column is absent or the header row is unusable. It is fatal to the load and
// cannot be recovered by quarantining rows.
func SchemaError(code ErrorCode, source, column string, err error) *AnalyticsError {
	var message, suggestion string

	switch code {
	case CodeMissingColumn:
		message = fmt.Sprintf("required column %q is missing from %s", column, source)
		suggestion = "Check the CSV header row or configure a column alias"
	case CodeEmptySource:
		message = fmt.Sprintf("source %s contains no header row", source)
		suggestion = "Verify the file is a CSV export with a header line"
	case CodeInvalidHeader:
		message = fmt.Sprintf("could not read header of %s", source)
		suggestion = "Verify the file encoding and delimiter"
	default:
		message = fmt.Sprintf("schema error in %s", source)
	}

	result := Wrap(err, CategorySchema, code, message)
	if err == nil {
		result = New(CategorySchema, code, message)
	}
	result.WithContext("source", source)
	if column != "" {
		result.WithContext("column", column)
	}
	return result.WithSuggestion(suggestion)
}

// InsufficientDataError reports that a statistical test cannot proceed
// meaningfully. Callers degrade the result to "inconclusive" instead of
// aborting the analysis.
func InsufficientDataError(test string, groupSize, minimum int) *AnalyticsError {
	message := fmt.Sprintf("%s requires at least %d samples per group, smallest group has %d", test, minimum, groupSize)
	return New(CategoryStatistics, CodeInsufficientData, message).
		WithContext("test", test).
		WithContext("group_size", groupSize).
		WithContext("min_group_size", minimum).
		WithSuggestion("Widen the analyzed period or lower the minimum group size")
}

// CompositionError reports that the report cannot be assembled: a required
// artifact is missing or the rendered chart set does not match the declared
// chart list. Fatal to the export only.
func CompositionError(code ErrorCode, detail string, err error) *AnalyticsError {
	var message, suggestion string

	switch code {
	case CodeMissingArtifact:
		message = fmt.Sprintf("required report artifact missing: %s", detail)
		suggestion = "Run the full analysis before exporting"
	case CodeChartMismatch:
		message = fmt.Sprintf("rendered charts do not match the declared chart list: %s", detail)
		suggestion = "Ensure the renderer produced one image per declared chart"
	case CodeRenderFailed:
		message = fmt.Sprintf("failed to render report: %s", detail)
		suggestion = "Check the log output for the underlying renderer error"
	default:
		message = fmt.Sprintf("report composition failed: %s", detail)
	}

	result := Wrap(err, CategoryComposition, code, message)
	if err == nil {
		result = New(CategoryComposition, code, message)
	}
	return result.WithSuggestion(suggestion)
}

// FileError creates a file-related error with helpful context
func FileError(code ErrorCode, path string, err error) *AnalyticsError {
	var message, suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "Check that the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "Check file permissions"
	case CodeWriteFailed:
		message = fmt.Sprintf("failed to write file: %s", path)
		suggestion = "Check that the target directory exists and is writable"
	default:
		message = fmt.Sprintf("file error with: %s", path)
	}

	result := Wrap(err, CategoryFile, code, message)
	if err == nil {
		result = New(CategoryFile, code, message)
	}
	return result.WithContext("file_path", path).WithSuggestion(suggestion)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *AnalyticsError {
	var message, suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for %s: %v", setting, value)
		suggestion = "Check the configuration value format and constraints"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "Provide the required setting via flag, environment or config file"
	default:
		message = fmt.Sprintf("configuration error with %s", setting)
	}

	result := Wrap(err, CategoryConfiguration, code, message)
	if err == nil {
		result = New(CategoryConfiguration, code, message)
	}
	return result.WithContext("setting", setting).WithSuggestion(suggestion)
}

// InternalError creates an internal system error
func InternalError(operation string, err error) *AnalyticsError {
	message := fmt.Sprintf("internal error during %s", operation)
	result := Wrap(err, CategoryInternal, CodeUnexpectedError, message)
	if err == nil {
		result = New(CategoryInternal, CodeUnexpectedError, message)
	}
	return result.WithContext("operation", operation).
		WithSuggestion("This appears to be a bug; report it with the full log output")
}

// IsAnalyticsError checks if an error is an AnalyticsError
func IsAnalyticsError(err error) bool {
	_, ok := AsAnalyticsError(err)
	return ok
}

// AsAnalyticsError extracts an AnalyticsError from an error chain
func AsAnalyticsError(err error) (*AnalyticsError, bool) {
	var analyticsErr *AnalyticsError
	if errors.As(err, &analyticsErr) {
		return analyticsErr, true
	}
	return nil, false
}

// IsCategory reports whether err belongs to the given category
func IsCategory(err error, category ErrorCategory) bool {
	if ae, ok := AsAnalyticsError(err); ok {
		return ae.Category == category
	}
	return false
}

// WrapIfNeeded wraps a plain error into an AnalyticsError, passing through
// errors that already carry the taxonomy.
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *AnalyticsError {
	if err == nil {
		return nil
	}
	if ae, ok := AsAnalyticsError(err); ok {
		return ae
	}
	return Wrap(err, category, code, message)
}

// ErrorSummary aggregates multiple errors for batch operations
type ErrorSummary struct {
	Errors     []*AnalyticsError     `json:"errors"`
	Categories map[ErrorCategory]int `json:"categories"`
}

// NewErrorSummary builds a summary over the given errors
func NewErrorSummary(errs []*AnalyticsError) *ErrorSummary {
	summary := &ErrorSummary{
		Errors:     errs,
		Categories: make(map[ErrorCategory]int),
	}
	for _, e := range errs {
		summary.Categories[e.Category]++
	}
	return summary
}

// Error implements the error interface
func (es *ErrorSummary) Error() string {
	if len(es.Errors) == 0 {
		return "no errors"
	}
	if len(es.Errors) == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.Categories {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}
	return fmt.Sprintf("%d errors (%s)", len(es.Errors), strings.Join(categories, ", "))
}

// HasCategory reports whether the summary contains errors of a category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.Categories[category] > 0
}

// GetExitCode returns the exit code of the most severe error category
func (es *ErrorSummary) GetExitCode() int {
	code := 0
	for _, e := range es.Errors {
		if c := e.GetExitCode(); c > code {
			code = c
		}
	}
	if code == 0 && len(es.Errors) > 0 {
		code = 1
	}
	return code
}
