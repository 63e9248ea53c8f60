package model

import (
	"errors"
)

// Domain errors
var (
	// Lookup errors
	ErrSymbolNotFound = errors.New("symbol not found")
	ErrNoData         = errors.New("no data available for symbol")

	// Ingestion errors
	ErrValidation    = errors.New("bar failed validation")
	ErrUpstreamFetch = errors.New("upstream fetch failed")

	// Storage errors
	ErrPersistence = errors.New("persistence failure")

	// Request errors
	ErrBadRequest = errors.New("bad request")

	// Metric errors, never surfaced past the calculator
	ErrDivisionUndefined = errors.New("division undefined")
)

// IsNotFound checks if the error is a not-found class error.
// NoData is reported as not-found but stays distinguishable via errors.Is.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSymbolNotFound) || errors.Is(err, ErrNoData)
}

// IsBadRequest checks if the error was caused by caller input.
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation)
}

// ErrorKind classifies an error for whatever surface reports it.
type ErrorKind string

const (
	KindNotFound   ErrorKind = "not_found"
	KindBadRequest ErrorKind = "bad_request"
	KindInternal   ErrorKind = "internal_error"
)

// Classify maps an error onto the read-surface taxonomy.
func Classify(err error) ErrorKind {
	switch {
	case IsNotFound(err):
		return KindNotFound
	case IsBadRequest(err):
		return KindBadRequest
	default:
		return KindInternal
	}
}

// ErrorPayload is the structured error body returned by read operations.
type ErrorPayload struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message"`
}

// NewErrorPayload builds the payload for err.
func NewErrorPayload(err error) ErrorPayload {
	detail := ErrorDetail{Kind: Classify(err), Message: err.Error()}
	switch {
	case errors.Is(err, ErrSymbolNotFound):
		detail.Code = "SYMBOL_NOT_FOUND"
	case errors.Is(err, ErrNoData):
		detail.Code = "NO_DATA"
	case errors.Is(err, ErrBadRequest):
		detail.Code = "INVALID_PARAMETER"
	case errors.Is(err, ErrValidation):
		detail.Code = "VALIDATION_ERROR"
	case errors.Is(err, ErrUpstreamFetch):
		detail.Code = "EXTERNAL_API_ERROR"
	case errors.Is(err, ErrPersistence):
		detail.Code = "DATABASE_ERROR"
	default:
		detail.Code = "INTERNAL_SERVER_ERROR"
	}
	return ErrorPayload{Error: detail}
}
