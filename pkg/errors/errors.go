// Package errors defines the sentinel errors shared by the crawler, indexer
// and searcher, and maps them onto HTTP responses.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidURL       = errors.New("invalid url")
	ErrFetchFailed      = errors.New("fetch failed")
	ErrIndexNotLoaded   = errors.New("index not loaded")
	ErrMissingLength    = errors.New("document length missing")
	ErrInternal         = errors.New("internal error")
	ErrTimeout          = errors.New("operation timed out")
	ErrRateLimited      = errors.New("rate limit exceeded")
)

// AppError attaches a client-facing message and status to a sentinel.
type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{Err: sentinel, Message: message, StatusCode: statusCode}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return New(sentinel, statusCode, fmt.Sprintf(format, args...))
}

// Is and As re-export the standard helpers so callers importing this
// package under the name "errors" keep them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// sentinels pairs every sentinel with its default status and stable code.
var sentinels = []struct {
	err    error
	status int
	code   string
}{
	{ErrDocumentNotFound, http.StatusNotFound, "not_found"},
	{ErrInvalidInput, http.StatusBadRequest, "invalid_input"},
	{ErrInvalidURL, http.StatusBadRequest, "invalid_url"},
	{ErrIndexNotLoaded, http.StatusServiceUnavailable, "index_not_loaded"},
	{ErrTimeout, http.StatusServiceUnavailable, "timeout"},
	{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
	{ErrFetchFailed, http.StatusBadGateway, "fetch_failed"},
	{ErrMissingLength, http.StatusInternalServerError, "missing_length"},
}

func classify(err error) (status int, code string) {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.status, s.code
		}
	}
	return http.StatusInternalServerError, "internal"
}

// HTTPStatusCode returns the status an AppError carries, or the default
// status of the first sentinel err wraps.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	status, _ := classify(err)
	return status
}

// Code returns the machine-readable code of err's sentinel.
func Code(err error) string {
	_, code := classify(err)
	return code
}

// Body is the JSON document every error response carries.
type Body struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ResponseBody builds the client-facing body for err. Only AppError
// messages reach clients; other errors are reduced to the status text.
func ResponseBody(err error) (int, Body) {
	status := HTTPStatusCode(err)
	body := Body{Error: http.StatusText(status), Code: Code(err)}
	var appErr *AppError
	if errors.As(err, &appErr) {
		body.Error = appErr.Message
	}
	return status, body
}

// WriteHTTP writes err as a JSON error response.
func WriteHTTP(w http.ResponseWriter, err error) error {
	status, body := ResponseBody(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
