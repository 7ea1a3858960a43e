// Package errors defines the codes scoring workers report and how they map
// onto BPMN errors and job retries.
package errors

import (
	stderrors "errors"
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
	// Input errors end the job with a BPMN error.
	ErrCodeInvalidApplicantProfile ErrorCode = "INVALID_APPLICANT_PROFILE"
	ErrCodeParseError              ErrorCode = "PARSE_ERROR"

	// Scoring errors are recovered inside the engine and only surface in logs
	// and metrics.
	ErrCodeHistoryFetchFailed   ErrorCode = "HISTORY_FETCH_FAILED"
	ErrCodeScoringDegraded      ErrorCode = "SCORING_DEGRADED"
	ErrCodeScoringPersistFailed ErrorCode = "SCORING_PERSIST_FAILED"

	ErrCodeDatabaseConnectionFailed      ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeJobCompletionFailed           ErrorCode = "JOB_COMPLETION_FAILED"
	ErrCodeBrokerUnavailable             ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerRejected                ErrorCode = "BROKER_REJECTED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
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

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewInvalidApplicantProfileError creates a non-retryable validation error.
func NewInvalidApplicantProfileError(err error) *StandardError {
	return newError(ErrCodeInvalidApplicantProfile, "Applicant profile failed validation", err.Error(), false, err)
}

// NewParseError creates a non-retryable error for undecodable job variables.
func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Job variables could not be parsed", err.Error(), false, err)
}

// NewHistoryFetchFailedError describes a history load that fell back to an
// empty sample.
func NewHistoryFetchFailedError(err error) *StandardError {
	return newError(ErrCodeHistoryFetchFailed, "Historical loan data unavailable", err.Error(), true, err)
}

// NewScoringDegradedError describes a score produced by the basic fallback.
func NewScoringDegradedError(reason string) *StandardError {
	return newError(ErrCodeScoringDegraded, "Credit score computed in degraded mode", reason, false, nil)
}

// NewScoringPersistFailedError describes a scoring run that was not stored.
func NewScoringPersistFailedError(err error) *StandardError {
	return newError(ErrCodeScoringPersistFailed, "Scoring run could not be persisted", err.Error(), true, err)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true, err)
}

// NewJobCompletionFailedError creates a retryable error for a rejected complete command.
func NewJobCompletionFailedError(err error) *StandardError {
	return newError(ErrCodeJobCompletionFailed, "Job completion was rejected by the broker", err.Error(), true, err)
}

// NewBrokerUnavailableError creates a retryable error for an unreachable gateway.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, fmt.Sprintf("Zeebe operation '%s' could not reach the broker", operation), err.Error(), true, err)
}

// NewBrokerRejectedError creates a non-retryable error for a refused command.
func NewBrokerRejectedError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerRejected, fmt.Sprintf("Zeebe operation '%s' was rejected", operation), err.Error(), false, err)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes caught by
// boundary events in the loan intake process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidApplicantProfile:       "INVALID_APPLICANT_PROFILE",
	ErrCodeParseError:                    "PARSE_ERROR",
	ErrCodeHistoryFetchFailed:            "HISTORY_FETCH_FAILED",
	ErrCodeScoringDegraded:               "SCORING_DEGRADED",
	ErrCodeScoringPersistFailed:          "SCORING_PERSIST_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeJobCompletionFailed:           "JOB_COMPLETION_FAILED",
	ErrCodeBrokerUnavailable:             "BROKER_UNAVAILABLE",
	ErrCodeBrokerRejected:                "BROKER_REJECTED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeJobCompletionFailed,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeHistoryFetchFailed,
		ErrCodeScoringPersistFailed:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError finds a StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// LogFields flattens the error into structured log fields.
func (e *StandardError) LogFields() map[string]interface{} {
	return map[string]interface{}{
		"errorCode":     string(e.Code),
		"errorCategory": GetErrorCategory(e.Code),
		"retryable":     IsRetryableErrorCode(e.Code),
		"details":       e.Details,
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.HasPrefix(codeStr, "SCORING") || strings.HasPrefix(codeStr, "HISTORY"):
		return "SCORING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "ELASTICSEARCH"):
		return "STORAGE"
	case strings.HasPrefix(codeStr, "JOB") || strings.HasPrefix(codeStr, "BROKER"):
		return "WORKFLOW"
	default:
		return "OTHER"
	}
}
