package csvimport

import (
	"errors"
	"fmt"
	"strings"
)

// Import error codes
const (
	ErrCodeImportValidation      = "ERR_IMPORT_VALIDATION"
	ErrCodeImportRequiredField   = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType     = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidLength   = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportInvalidRange    = "ERR_IMPORT_INVALID_RANGE"
	ErrCodeImportPatternMismatch = "ERR_IMPORT_PATTERN_MISMATCH"
	ErrCodeImportDuplicateInFile = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeImportDuplicateInDB   = "ERR_IMPORT_DUPLICATE_IN_DB"
)

// Common import errors
var (
	// ErrEmptyFile is returned when the CSV file is empty
	ErrEmptyFile = errors.New("CSV file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("CSV file missing header row")

	// ErrNoDataRows is returned when the CSV file has no data rows
	ErrNoDataRows = errors.New("CSV file contains no data rows")

	// ErrFileTooLarge is returned when the file exceeds maximum size
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// RowError represents an error in a specific row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// NewRowError creates a new RowError
func NewRowError(row int, column, code, message string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
	}
}

// NewRowErrorWithValue creates a new RowError with the invalid value
func NewRowErrorWithValue(row int, column, code, message, value string) RowError {
	return RowError{
		Row:     row,
		Column:  column,
		Code:    code,
		Message: message,
		Value:   value,
	}
}

// ErrorCollection accumulates row errors up to a cap so a pathological file
// cannot blow up the response payload. The total count keeps counting past
// the cap.
type ErrorCollection struct {
	errors    []RowError
	maxErrors int
	total     int
}

// NewErrorCollection creates a collection bounded at maxErrors entries
func NewErrorCollection(maxErrors int) *ErrorCollection {
	if maxErrors <= 0 {
		maxErrors = 100
	}
	return &ErrorCollection{
		errors:    make([]RowError, 0),
		maxErrors: maxErrors,
	}
}

// Add appends an error, dropping it if the cap is reached
func (ec *ErrorCollection) Add(err RowError) {
	ec.total++
	if len(ec.errors) < ec.maxErrors {
		ec.errors = append(ec.errors, err)
	}
}

// AddValidationError adds a generic validation error
func (ec *ErrorCollection) AddValidationError(row int, column, code, message string) {
	ec.Add(NewRowError(row, column, code, message))
}

// AddRequiredError adds a required-field error
func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeImportRequiredField,
		fmt.Sprintf("field '%s' is required", column)))
}

// AddTypeError adds an invalid-type error
func (ec *ErrorCollection) AddTypeError(row int, column, expectedType, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportInvalidType,
		fmt.Sprintf("expected %s value", expectedType), value))
}

// AddLengthError adds a length-constraint error
func (ec *ErrorCollection) AddLengthError(row int, column string, minLen, maxLen int) {
	ec.Add(NewRowError(row, column, ErrCodeImportInvalidLength,
		fmt.Sprintf("length must be between %d and %d characters", minLen, maxLen)))
}

// AddRangeError adds a numeric-range error
func (ec *ErrorCollection) AddRangeError(row int, column string, min, max float64) {
	ec.Add(NewRowError(row, column, ErrCodeImportInvalidRange,
		fmt.Sprintf("value must be between %v and %v", min, max)))
}

// AddPatternError adds a pattern-mismatch error
func (ec *ErrorCollection) AddPatternError(row int, column, pattern, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportPatternMismatch,
		fmt.Sprintf("value does not match expected format: %s", pattern), value))
}

// Errors returns the collected errors (bounded by the cap)
func (ec *ErrorCollection) Errors() []RowError {
	return ec.errors
}

// Count returns the number of retained errors
func (ec *ErrorCollection) Count() int {
	return len(ec.errors)
}

// TotalCount returns the number of errors seen, including dropped ones
func (ec *ErrorCollection) TotalCount() int {
	return ec.total
}

// HasErrors returns true when any error was recorded
func (ec *ErrorCollection) HasErrors() bool {
	return ec.total > 0
}

// IsTruncated returns true when errors were dropped at the cap
func (ec *ErrorCollection) IsTruncated() bool {
	return ec.total > len(ec.errors)
}

// Clear resets the collection
func (ec *ErrorCollection) Clear() {
	ec.errors = ec.errors[:0]
	ec.total = 0
}

// String renders a compact summary for logging
func (ec *ErrorCollection) String() string {
	if ec.total == 0 {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s)", ec.total)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", len(ec.errors))
	}
	for _, e := range ec.errors {
		sb.WriteString("; ")
		sb.WriteString(e.Error())
	}
	return sb.String()
}
