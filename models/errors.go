package models

import "fmt"

// Client-side error codes. All of them surface to the user as the same
// generic failure; the code only helps logs and tests tell them apart.
const (
	ErrCodeCapture   = "CAPTURE_FAILED"
	ErrCodeTransport = "TRANSPORT_FAILED"
	ErrCodeDecode    = "DECODE_FAILED"
)

// Backend error codes used in API responses.
const (
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeExtraction   = "EXTRACTION_FAILED"
	ErrCodeStore        = "STORE_FAILED"
	ErrCodeUpload       = "UPLOAD_FAILED"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"

	ErrCodeLLMFailure     = "LLM_FAILURE"
	ErrCodeLLMAuthFailure = "LLM_AUTH_FAILURE"
	ErrCodeLLMRateLimited = "LLM_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmissionError is the single client-side failure kind. Code records
// which stage failed.
type SubmissionError struct {
	Code    string
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// NewSubmissionError creates a SubmissionError.
func NewSubmissionError(code, message string, err error) *SubmissionError {
	return &SubmissionError{Code: code, Message: message, Err: err}
}

// ProcessError is the backend error type carrying an error code.
type ProcessError struct {
	Code    string
	Message string
	Err     error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// NewProcessError creates a ProcessError.
func NewProcessError(code, message string, err error) *ProcessError {
	return &ProcessError{Code: code, Message: message, Err: err}
}

// ToDetail converts the error to its API-facing form.
func (e *ProcessError) ToDetail() *ErrorDetail {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return &ErrorDetail{Code: e.Code, Message: msg}
}
