// Package derrors provides code-carrying domain errors.
//
// Services return these so transport layers can translate outcomes into
// HTTP responses without string matching. Infrastructure layers return
// pkg/platform/sentinel errors instead; services wrap those here.
package derrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeInvalidTransition  Code = "invalid_transition"
	CodeValidationFailed   Code = "validation_failed"
	CodeStructuralInvalid  Code = "structural_invalid"
	CodeNoApplicableTreaty Code = "no_applicable_treaty"
	CodeNoRiskCeded        Code = "no_risk_ceded"
	CodeNoAllocation       Code = "no_allocation"
	CodeInternal           Code = "internal_error"
)

// benignCodes are legitimate non-fault outcomes. They surface to callers
// as 200 responses with a message envelope, never as HTTP errors.
var benignCodes = map[Code]bool{
	CodeNoApplicableTreaty: true,
	CodeNoRiskCeded:        true,
	CodeNoAllocation:       true,
}

// Error is a domain error with a stable code and human-readable message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a domain error with the given code and message.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is a readability alias for HasCode at handler call sites.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf extracts the code from err, defaulting to CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err without the code prefix.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}

// IsDomainError reports whether err is already a coded domain error.
func IsDomainError(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// IsBenign reports whether err is a legitimate no-op outcome rather than
// a fault (no applicable treaty, no risk ceded, no allocation on file).
func IsBenign(err error) bool {
	var de *Error
	if errors.As(err, &de) {
		return benignCodes[de.Code]
	}
	return false
}

// ToHTTPStatus maps a domain error code to an HTTP status. Benign codes
// map to 200 so UIs can render the message as a normal outcome.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidTransition:
		return http.StatusConflict
	case CodeBadRequest, CodeStructuralInvalid:
		return http.StatusBadRequest
	case CodeValidationFailed:
		return http.StatusUnprocessableEntity
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeNoApplicableTreaty, CodeNoRiskCeded, CodeNoAllocation:
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
