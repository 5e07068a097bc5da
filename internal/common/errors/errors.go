// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidQueryFormat ErrorCode = "INVALID_QUERY_FORMAT"
	ErrCodeVocabularyError    ErrorCode = "VOCABULARY_ERROR"

	ErrCodeAdapterUnavailable  ErrorCode = "ADAPTER_UNAVAILABLE"
	ErrCodeAdapterTimeout      ErrorCode = "ADAPTER_TIMEOUT"
	ErrCodeAdapterBadResponse  ErrorCode = "ADAPTER_BAD_RESPONSE"
	ErrCodeUnsupportedParams   ErrorCode = "UNSUPPORTED_PARAMS"
	ErrCodeUnknownCategory     ErrorCode = "UNKNOWN_CATEGORY"
	ErrCodePlanExhausted       ErrorCode = "PLAN_EXHAUSTED"
	ErrCodeGatewayUnauthorized ErrorCode = "GATEWAY_UNAUTHORIZED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"

	ErrCodeCacheUnavailable ErrorCode = "CACHE_UNAVAILABLE"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidQueryFormatError creates a non-retryable query parse error.
func NewInvalidQueryFormatError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidQueryFormat,
		Message:   "Query payload could not be parsed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewVocabularyError creates a non-retryable vocabulary configuration error.
func NewVocabularyError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeVocabularyError,
		Message:   "Vocabulary table is missing or inconsistent",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdapterUnavailableError creates a retryable adapter transport error.
func NewAdapterUnavailableError(category string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdapterUnavailable,
		Message:   "Resource search adapter unavailable",
		Details:   fmt.Sprintf("category: %s, error: %s", category, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdapterTimeoutError creates a retryable adapter timeout error.
func NewAdapterTimeoutError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdapterTimeout,
		Message:   "Resource search adapter timed out",
		Details:   fmt.Sprintf("category: %s", category),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAdapterBadResponseError creates a non-retryable malformed response error.
func NewAdapterBadResponseError(category string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdapterBadResponse,
		Message:   "Resource search adapter returned a malformed payload",
		Details:   fmt.Sprintf("category: %s, error: %s", category, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnsupportedParamsError creates a non-retryable parameter validation error.
func NewUnsupportedParamsError(category, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedParams,
		Message:   "Resolved parameters rejected by adapter capability schema",
		Details:   fmt.Sprintf("category: %s, %s", category, details),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUnknownCategoryError creates a non-retryable category routing error.
func NewUnknownCategoryError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnknownCategory,
		Message:   "No adapter registered for resource category",
		Details:   fmt.Sprintf("category: %s", category),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPlanExhaustedError records that every planned category failed or came back empty.
// It is carried in the trace, not thrown past the executor.
func NewPlanExhaustedError(categories []string) *StandardError {
	return &StandardError{
		Code:      ErrCodePlanExhausted,
		Message:   "All planned resource categories failed or returned no items",
		Details:   fmt.Sprintf("categories: %s", strings.Join(categories, ",")),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGatewayUnauthorizedError creates a non-retryable gateway auth error.
func NewGatewayUnauthorizedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGatewayUnauthorized,
		Message:   "Directory gateway rejected the API key",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("index: %s, error: %s", index, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Elasticsearch query timeout",
		Details:   fmt.Sprintf("index: %s", index),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexNotFoundError creates a non-retryable index not found error.
func NewIndexNotFoundError(indexName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexNotFound,
		Message:   "Elasticsearch index not found",
		Details:   fmt.Sprintf("indexName: %s", indexName),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error. The refinement pass
// degrades to the loader path when the cache is down, so callers usually log and continue.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Organization address cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewAuthenticationError(details string) *StandardError {
	return &StandardError{
		Code:      "AUTHENTICATION_ERROR",
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (identical by convention).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidQueryFormat:            "INVALID_QUERY_FORMAT",
	ErrCodeVocabularyError:               "VOCABULARY_ERROR",
	ErrCodeAdapterUnavailable:            "ADAPTER_UNAVAILABLE",
	ErrCodeAdapterTimeout:                "ADAPTER_TIMEOUT",
	ErrCodeAdapterBadResponse:            "ADAPTER_BAD_RESPONSE",
	ErrCodeUnsupportedParams:             "UNSUPPORTED_PARAMS",
	ErrCodeUnknownCategory:               "UNKNOWN_CATEGORY",
	ErrCodePlanExhausted:                 "PLAN_EXHAUSTED",
	ErrCodeGatewayUnauthorized:           "GATEWAY_UNAUTHORIZED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeCacheUnavailable:              "CACHE_UNAVAILABLE",
}

// GetRetryCount returns the recommended retry count per error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAdapterUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeCacheUnavailable:
		return 3 // Retryable technical errors

	case ErrCodeAdapterTimeout,
		ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ADAPTER") || strings.Contains(codeStr, "GATEWAY") || strings.Contains(codeStr, "PLAN"):
		return "ADAPTER"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VOCABULARY") || strings.Contains(codeStr, "UNSUPPORTED"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
