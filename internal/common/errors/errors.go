// Package errors provides the normalized error surface shared by the summons workers
// and its mapping onto BPMN errors for the workflow engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is the classification tag carried by every NormalizedError.
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeRateLimit        ErrorCode = "RATE_LIMIT"
	ErrCodeTimeout          ErrorCode = "TIMEOUT"
	ErrCodeUpstreamError    ErrorCode = "UPSTREAM_ERROR"
	ErrCodeRequestFailed    ErrorCode = "REQUEST_FAILED"
	ErrCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrCodeRetriesExhausted ErrorCode = "RETRIES_EXHAUSTED"
	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeUnhandled        ErrorCode = "UNHANDLED"
)

// NormalizedError is the canonical failure shape crossing any stage boundary.
type NormalizedError struct {
	Code    ErrorCode              `json:"code"`
	Status  int                    `json:"status"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	cause error
}

func (e *NormalizedError) Error() string {
	return fmt.Sprintf("%s(%d): %s", e.Code, e.Status, e.Message)
}

func (e *NormalizedError) Unwrap() error {
	return e.cause
}

// WithDetail returns a copy of e with key set in Details.
func (e *NormalizedError) WithDetail(key string, value interface{}) *NormalizedError {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

// Is matches on code so callers can write errors.Is(err, errors.ErrTimeout).
func (e *NormalizedError) Is(target error) bool {
	t, ok := target.(*NormalizedError)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == ""
}

// Sentinels for errors.Is checks.
var (
	ErrInvalidInput     = &NormalizedError{Code: ErrCodeInvalidInput}
	ErrRateLimit        = &NormalizedError{Code: ErrCodeRateLimit}
	ErrTimeout          = &NormalizedError{Code: ErrCodeTimeout}
	ErrUpstream         = &NormalizedError{Code: ErrCodeUpstreamError}
	ErrRequestFailed    = &NormalizedError{Code: ErrCodeRequestFailed}
	ErrInvalidJSON      = &NormalizedError{Code: ErrCodeInvalidJSON}
	ErrRetriesExhausted = &NormalizedError{Code: ErrCodeRetriesExhausted}
	ErrExtraction       = &NormalizedError{Code: ErrCodeExtractionFailed}
	ErrUnhandled        = &NormalizedError{Code: ErrCodeUnhandled}
)

// ==========================
// Constructors
// ==========================

func NewInvalidInputError(details string) *NormalizedError {
	return &NormalizedError{
		Code:    ErrCodeInvalidInput,
		Status:  http.StatusBadRequest,
		Message: "Invalid input payload",
		Details: map[string]interface{}{"reason": details},
	}
}

func NewRateLimitError(cause error) *NormalizedError {
	return &NormalizedError{
		Code:    ErrCodeRateLimit,
		Status:  http.StatusTooManyRequests,
		Message: "Generative endpoint rate limit or quota exceeded, retry later",
		cause:   cause,
	}
}

func NewTimeoutError(cause error) *NormalizedError {
	return &NormalizedError{
		Code:    ErrCodeTimeout,
		Status:  http.StatusGatewayTimeout,
		Message: "Generative endpoint timed out",
		cause:   cause,
	}
}

func NewUpstreamError(status int, cause error) *NormalizedError {
	return &NormalizedError{
		Code:    ErrCodeUpstreamError,
		Status:  http.StatusBadGateway,
		Message: "Upstream service temporarily unavailable",
		Details: map[string]interface{}{"upstreamStatus": status},
		cause:   cause,
	}
}

// NewRequestFailedError keeps the upstream status when it is a client error, else 500.
func NewRequestFailedError(status int, message string, cause error) *NormalizedError {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	if message == "" {
		message = "Request to upstream service failed"
	}
	return &NormalizedError{
		Code:    ErrCodeRequestFailed,
		Status:  status,
		Message: message,
		cause:   cause,
	}
}

func NewInvalidJSONError(text string, cause error) *NormalizedError {
	return &NormalizedError{
		Code:    ErrCodeInvalidJSON,
		Status:  http.StatusBadGateway,
		Message: fmt.Sprintf("failed to parse model JSON: %s", text),
		cause:   cause,
	}
}

func NewRetriesExhaustedError(attempts int, last error) *NormalizedError {
	return &NormalizedError{
		Code:    ErrCodeRetriesExhausted,
		Status:  http.StatusGatewayTimeout,
		Message: "Generative endpoint call failed: retry budget exhausted",
		Details: map[string]interface{}{"attempts": attempts},
		cause:   last,
	}
}

// NewExtractionFailedError wraps a failure raised during extraction. The original
// classification is kept in Details and the original status is preserved.
func NewExtractionFailedError(err error) *NormalizedError {
	inner := AsNormalized(err)
	details := map[string]interface{}{
		"causeCode":    string(inner.Code),
		"causeMessage": inner.Message,
	}
	for k, v := range inner.Details {
		details[k] = v
	}
	return &NormalizedError{
		Code:    ErrCodeExtractionFailed,
		Status:  inner.Status,
		Message: "Extraction of case fields failed",
		Details: details,
		cause:   inner,
	}
}

func NewUnhandledError(err error) *NormalizedError {
	return &NormalizedError{
		Code:    ErrCodeUnhandled,
		Status:  http.StatusInternalServerError,
		Message: "Unexpected error",
		cause:   err,
	}
}

// AsNormalized returns err as a NormalizedError, wrapping anything unknown as UNHANDLED.
func AsNormalized(err error) *NormalizedError {
	if err == nil {
		return nil
	}
	var ne *NormalizedError
	if stderrors.As(err, &ne) {
		return ne
	}
	return NewUnhandledError(err)
}

// CauseCode reports the classification an EXTRACTION_FAILED error was raised with.
func CauseCode(err error) ErrorCode {
	ne := AsNormalized(err)
	if ne == nil {
		return ""
	}
	if ne.Code == ErrCodeExtractionFailed {
		if inner, ok := ne.cause.(*NormalizedError); ok {
			return inner.Code
		}
	}
	return ne.Code
}

// ==========================
// BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables attached to the thrown error or failed job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// GetRetryCount returns the engine-level retries for a code. Retrying classified
// failures happens inside the LLM client, so only unclassified errors are re-delivered.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUnhandled:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a NormalizedError to a BPMNError for Camunda.
func ConvertToBPMNError(ne *NormalizedError) *BPMNError {
	vars := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(ne.Code),
			"status":  ne.Status,
			"message": ne.Message,
			"details": ne.Details,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return &BPMNError{
		Code:           string(ne.Code),
		Message:        ne.Message,
		Retries:        GetRetryCount(ne.Code),
		ErrorVariables: vars,
	}
}

// GetErrorCategory groups codes for dashboards.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidInput:
		return "VALIDATION"
	case ErrCodeRateLimit, ErrCodeTimeout, ErrCodeUpstreamError, ErrCodeRetriesExhausted:
		return "UPSTREAM"
	case ErrCodeInvalidJSON, ErrCodeExtractionFailed:
		return "MODEL_OUTPUT"
	case ErrCodeRequestFailed:
		return "REQUEST"
	default:
		return "OTHER"
	}
}
