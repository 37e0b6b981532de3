package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeInsufficientStock is used when stock cannot cover a deduction
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeConfiguration is used when tenant data is misconfigured
	// (e.g. a product without an active recipe)
	ErrCodeConfiguration = "ERR_CONFIGURATION"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// State conflicts -> 409 Conflict. Insufficient stock is a conflict
	// with the current ledger state, not a request defect.
	ErrCodeInvalidState:      http.StatusConflict,
	ErrCodeInsufficientStock: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeBusinessRule:  http.StatusUnprocessableEntity,
	ErrCodeConfiguration: http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to standardized codes.
// Codes not listed here are classified by shape in NormalizeErrorCode.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"INVALID_TRANSITION":   ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
	"CONFIGURATION_ERROR":  ErrCodeConfiguration,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"VALIDATION_ERRORS":    ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,

	// Operations rejected by the current lifecycle state
	"NOT_ACTIVE":             ErrCodeInvalidState,
	"NOT_ARCHIVED":           ErrCodeInvalidState,
	"RECIPE_ARCHIVED":        ErrCodeInvalidState,
	"MATERIAL_ARCHIVED":      ErrCodeInvalidState,
	"MATERIAL_IN_USE":        ErrCodeInvalidState,
	"ALERT_TERMINAL":         ErrCodeInvalidState,
	"CANNOT_CONFIRM_DELETED": ErrCodeInvalidState,

	// Business rules
	"LAST_COMPONENT":            ErrCodeBusinessRule,
	"EMPTY_RECIPE":              ErrCodeBusinessRule,
	"ATTACHMENT_LIMIT_EXCEEDED": ErrCodeBusinessRule,

	// File validation
	"FILE_TOO_LARGE":          ErrCodeValidation,
	"DISALLOWED_CONTENT_TYPE": ErrCodeValidation,

	// Storage backend failures
	"STORAGE_CHECK_FAILED": ErrCodeInternal,
	"UPLOAD_URL_FAILED":    ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format.
// Codes already in the ERR_ format pass through unchanged. Codes without an
// exact mapping are classified by shape: *_NOT_FOUND lookups, DUPLICATE_*
// uniqueness conflicts, ALREADY_* state replays, INVALID_* field checks and
// IMPORT_* file validation. Unknown codes pass through as-is.
func NormalizeErrorCode(code string) string {
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return ErrCodeNotFound
	case strings.HasPrefix(code, "DUPLICATE_"):
		return ErrCodeAlreadyExists
	case strings.HasPrefix(code, "ALREADY_"):
		return ErrCodeInvalidState
	case strings.HasPrefix(code, "INVALID_"):
		return ErrCodeValidation
	case strings.HasPrefix(code, "IMPORT_"):
		return ErrCodeValidation
	}
	return code
}
