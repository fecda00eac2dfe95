// Package errors provides standardized error handling for the dashboard workers.
package errors

import (
	"errors"
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
	ErrCodeCityInvalid ErrorCode = "CITY_INVALID"

	ErrCodeFormValidationFailed  ErrorCode = "FORM_VALIDATION_FAILED"
	ErrCodeBackendMutationFailed ErrorCode = "BACKEND_MUTATION_FAILED"
	ErrCodeRecordFetchFailed     ErrorCode = "RECORD_FETCH_FAILED"

	ErrCodeInvalidFilterCriteria ErrorCode = "INVALID_FILTER_CRITERIA"
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeTimeout               ErrorCode = "TIMEOUT"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
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

// FieldErrors returns the field-level messages attached to the error, if any.
func (e *StandardError) FieldErrors() map[string]string {
	if e.Metadata == nil {
		return nil
	}
	fe, _ := e.Metadata["fieldErrors"].(map[string]string)
	return fe
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

// NewCityInvalidError creates a non-retryable validation error for a city/state pair.
func NewCityInvalidError(city, state string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCityInvalid,
		Message:   "City is not valid for the selected state",
		Details:   fmt.Sprintf("city: %s, state: %s", city, state),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewFormValidationFailedError carries one message per offending field.
func NewFormValidationFailedError(fieldErrors map[string]string) *StandardError {
	fields := make([]string, 0, len(fieldErrors))
	for f := range fieldErrors {
		fields = append(fields, f)
	}
	return &StandardError{
		Code:      ErrCodeFormValidationFailed,
		Message:   "Form validation failed",
		Details:   fmt.Sprintf("fields: %s", strings.Join(fields, ",")),
		Retryable: false,
		Metadata:  map[string]interface{}{"fieldErrors": fieldErrors},
		Timestamp: time.Now().UTC(),
	}
}

// NewBackendMutationFailedError wraps a non-2xx answer from the record API.
func NewBackendMutationFailedError(status int, message string, fieldErrors map[string]string) *StandardError {
	if message == "" {
		message = "Backend rejected the request"
	}
	stdErr := &StandardError{
		Code:      ErrCodeBackendMutationFailed,
		Message:   message,
		Details:   fmt.Sprintf("status: %d", status),
		Retryable: status >= 500,
		Metadata:  map[string]interface{}{"status": status},
		Timestamp: time.Now().UTC(),
	}
	if len(fieldErrors) > 0 {
		stdErr.Metadata["fieldErrors"] = fieldErrors
	}
	return stdErr
}

// NewRecordFetchFailedError creates a retryable record list error.
func NewRecordFetchFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordFetchFailed,
		Message:   "Failed to fetch candidate records",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidFilterCriteriaError creates a non-retryable filter error.
func NewInvalidFilterCriteriaError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidFilterCriteria,
		Message:   "Invalid filter criteria",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job input",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("%s timed out", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeRecordFetchFailed, ErrCodeTimeout:
		return 3
	case ErrCodeBackendMutationFailed:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	vars := map[string]interface{}{
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
	if fe := stdErr.FieldErrors(); len(fe) > 0 {
		vars["fieldErrors"] = fe
	}
	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        GetRetryCount(stdErr.Code),
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandardError unwraps err into a StandardError if one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeCityInvalid, ErrCodeFormValidationFailed, ErrCodeInvalidFilterCriteria, ErrCodeInvalidInput:
		return "VALIDATION"
	case ErrCodeBackendMutationFailed, ErrCodeRecordFetchFailed:
		return "BACKEND"
	case ErrCodeTimeout:
		return "TIMEOUT"
	default:
		return "UNKNOWN"
	}
}
