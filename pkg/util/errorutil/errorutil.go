package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the store, the analytics engine and the HTTP layer.
const (
	CodeSchema     = "SCHEMA_ERROR"
	CodeParse      = "PARSE_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeValidation = "VALIDATION_FAILED"
	CodeUpstream   = "UPSTREAM_FAILED"
	CodeDisabled   = "FEATURE_DISABLED"
	CodeInternal   = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching. A DomainError matches the sentinel with the same code.
var (
	ErrSchema     = &DomainError{Code: CodeSchema, Message: "schema error", HTTPStatus: http.StatusUnprocessableEntity}
	ErrParse      = &DomainError{Code: CodeParse, Message: "parse error", HTTPStatus: http.StatusUnprocessableEntity}
	ErrNotFound   = &DomainError{Code: CodeNotFound, Message: "not found", HTTPStatus: http.StatusNotFound}
	ErrValidation = &DomainError{Code: CodeValidation, Message: "validation failed", HTTPStatus: http.StatusBadRequest}
	ErrUpstream   = &DomainError{Code: CodeUpstream, Message: "upstream call failed", HTTPStatus: http.StatusBadGateway}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewSchemaError reports a required column missing from a tabular source.
func NewSchemaError(column string) error {
	return NewDomainError(CodeSchema, fmt.Sprintf("required column %q missing", column), http.StatusUnprocessableEntity, map[string]any{
		"column": column,
	})
}

// NewParseError reports a field that could not be parsed. row is 1-based and counts data rows only.
func NewParseError(row int, field, message string, err error) error {
	return &DomainError{
		Code:       CodeParse,
		Message:    fmt.Sprintf("row %d: %s: %s", row, field, message),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"row": row, "field": field},
		Err:        err,
	}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUpstreamError wraps a failed classifier or summarizer call.
func NewUpstreamError(operation string, err error) error {
	return &DomainError{
		Code:       CodeUpstream,
		Message:    operation + " failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewDisabledError reports a feature whose backing service is not configured.
func NewDisabledError(feature string) error {
	return NewDomainError(CodeDisabled, feature+" not configured", http.StatusServiceUnavailable, map[string]any{
		"feature": feature,
	})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
