package model

import (
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized ErrorCode = 1001
	ErrCodeTokenExpired ErrorCode = 1002
	ErrCodeTokenInvalid ErrorCode = 1003
	ErrCodeLoginFailed  ErrorCode = 1004
	ErrCodeOTPInvalid   ErrorCode = 1005

	// Authorization errors (2xxx)
	ErrCodeForbidden       ErrorCode = 2001
	ErrCodeNotOwner        ErrorCode = 2002
	ErrCodePremiumRequired ErrorCode = 2003
	ErrCodeAccountBlocked  ErrorCode = 2004

	// Resource errors (3xxx)
	ErrCodeNotFound      ErrorCode = 3001
	ErrCodeAlreadyExists ErrorCode = 3002
	ErrCodeConflict      ErrorCode = 3003

	// Validation errors (4xxx)
	ErrCodeValidation    ErrorCode = 4001
	ErrCodeInvalidInput  ErrorCode = 4002
	ErrCodeLimitExceeded ErrorCode = 4003
	ErrCodeInvalidState  ErrorCode = 4004

	// Internal errors (5xxx)
	ErrCodeInternal    ErrorCode = 5001
	ErrCodeDatabase    ErrorCode = 5002
	ErrCodeExternalAPI ErrorCode = 5003
)

const problemTypeBase = "https://api.eventup.vn/errors/"

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs.
// Success and Message mirror the envelope every other response uses.
type ProblemDetails struct {
	Success  bool         `json:"success"`
	Message  string       `json:"message"`
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	// Extension fields
	Code    ErrorCode `json:"code,omitempty"`
	Limit   *int      `json:"limit,omitempty"`
	Current *int      `json:"current,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func newProblem(slug, title string, status int, detail string, code ErrorCode) *ProblemDetails {
	return &ProblemDetails{
		Message: detail,
		Type:    problemTypeBase + slug,
		Title:   title,
		Status:  status,
		Detail:  detail,
		Code:    code,
	}
}

// Common error constructors

func NewUnauthorizedError(detail string) *ProblemDetails {
	return newProblem("unauthorized", "Unauthorized", http.StatusUnauthorized, detail, ErrCodeUnauthorized)
}

func NewTokenError(detail string, code ErrorCode) *ProblemDetails {
	return newProblem("invalid-token", "Unauthorized", http.StatusUnauthorized, detail, code)
}

func NewForbiddenError(detail string) *ProblemDetails {
	return newProblem("forbidden", "Forbidden", http.StatusForbidden, detail, ErrCodeForbidden)
}

func NewForbiddenErrorCode(detail string, code ErrorCode) *ProblemDetails {
	return newProblem("forbidden", "Forbidden", http.StatusForbidden, detail, code)
}

func NewNotFoundError(resource string) *ProblemDetails {
	return newProblem("not-found", "Not Found", http.StatusNotFound, fmt.Sprintf("%s not found", resource), ErrCodeNotFound)
}

func NewValidationError(errors []FieldError) *ProblemDetails {
	// The message joins every field message, the detail only names the first
	detail := "One or more fields failed validation"
	msgs := make([]string, 0, len(errors))
	for _, e := range errors {
		msgs = append(msgs, e.Message)
	}
	if len(errors) > 0 {
		detail = fmt.Sprintf("%s: %s", errors[0].Field, errors[0].Message)
		if len(errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(errors)-1)
		}
	}
	p := newProblem("validation", "Validation Error", http.StatusBadRequest, detail, ErrCodeValidation)
	if len(msgs) > 0 {
		p.Message = strings.Join(msgs, ", ")
	}
	p.Errors = errors
	return p
}

func NewLimitExceededError(resource string, limit, current int) *ProblemDetails {
	p := newProblem("limit-exceeded", "Limit Exceeded", http.StatusForbidden,
		fmt.Sprintf("Maximum of %d %s reached", limit, resource), ErrCodeLimitExceeded)
	p.Limit = &limit
	p.Current = &current
	return p
}

func NewDuplicateError(field string) *ProblemDetails {
	return newProblem("duplicate", "Bad Request", http.StatusBadRequest, fmt.Sprintf("%s already exists", field), ErrCodeAlreadyExists)
}

func NewConflictError(detail string) *ProblemDetails {
	return newProblem("conflict", "Conflict", http.StatusConflict, detail, ErrCodeConflict)
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return newProblem("internal", "Internal Server Error", http.StatusInternalServerError, detail, ErrCodeInternal)
}

func NewBadRequestError(detail string) *ProblemDetails {
	return newProblem("bad-request", "Bad Request", http.StatusBadRequest, detail, ErrCodeInvalidInput)
}

func NewBadRequestErrorCode(detail string, code ErrorCode) *ProblemDetails {
	return newProblem("bad-request", "Bad Request", http.StatusBadRequest, detail, code)
}

func NewExternalError(detail string) *ProblemDetails {
	return newProblem("upstream", "Bad Gateway", http.StatusBadGateway, detail, ErrCodeExternalAPI)
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	return newProblem("rate-limited", "Too Many Requests", http.StatusTooManyRequests,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter), 0)
}

func NewUnavailableError(detail string) *ProblemDetails {
	return newProblem("unavailable", "Service Unavailable", http.StatusServiceUnavailable, detail, ErrCodeExternalAPI)
}

func NewTooManyRequestsError(detail string) *ProblemDetails {
	return newProblem("rate-limited", "Too Many Requests", http.StatusTooManyRequests, detail, 0)
}

func NewMethodNotAllowedError(method string) *ProblemDetails {
	return newProblem("method-not-allowed", "Method Not Allowed", http.StatusMethodNotAllowed,
		fmt.Sprintf("method %s is not allowed on this route", method), ErrCodeInvalidInput)
}
