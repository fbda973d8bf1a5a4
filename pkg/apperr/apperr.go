package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for fallback routing and HTTP mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindAIService  Kind = "ai_service"
	KindParse      Kind = "parse"
)

// AI service error codes
const (
	CodeQuotaExceeded      = "quota_exceeded"
	CodeRateLimited        = "rate_limited"
	CodeServiceUnavailable = "service_unavailable"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUpstream           = "upstream_error"
	CodeFallbackActive     = "fallback_active"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Code != "":
		return e.Code
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

func Validation(message string) *Error {
	return New(KindValidation, "invalid_request", message, nil)
}

func NotFound(resource string) *Error {
	return New(KindNotFound, "not_found", resource+" not found", nil)
}

func AIService(code, message string, err error) *Error {
	if code == "" {
		code = CodeUpstream
	}
	return New(KindAIService, code, message, err)
}

func Parse(message string, err error) *Error {
	return New(KindParse, "invalid_ai_response", message, err)
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the Code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsAIFailure reports whether err should route a pipeline stage to its fallback.
// Parse errors are treated the same as upstream service errors.
func IsAIFailure(err error) bool {
	k := KindOf(err)
	return k == KindAIService || k == KindParse
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAIService:
		return http.StatusServiceUnavailable
	case KindParse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
