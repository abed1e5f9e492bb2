package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"not found", fmt.Errorf("document 0/1: %w", ErrDocumentNotFound), http.StatusNotFound, "not_found"},
		{"invalid url", ErrInvalidURL, http.StatusBadRequest, "invalid_url"},
		{"not loaded", ErrIndexNotLoaded, http.StatusServiceUnavailable, "index_not_loaded"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{"fetch", fmt.Errorf("x: %w", ErrFetchFailed), http.StatusBadGateway, "fetch_failed"},
		{"app error", New(ErrTimeout, http.StatusGatewayTimeout, "slow"), http.StatusGatewayTimeout, "timeout"},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode = %d, want %d", got, tt.want)
			}
			if got := Code(tt.err); got != tt.code {
				t.Errorf("Code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestWriteHTTPHidesInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteHTTP(rec, fmt.Errorf("reading /var/data/index.spdx: %w", ErrInternal)); err != nil {
		t.Fatal(err)
	}
	var body Body
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusInternalServerError || body.Error != "Internal Server Error" {
		t.Errorf("status = %d, body = %+v", rec.Code, body)
	}

	rec = httptest.NewRecorder()
	WriteHTTP(rec, Newf(ErrInvalidInput, http.StatusBadRequest, "page %q is not a number", "x"))
	body = Body{}
	json.NewDecoder(rec.Body).Decode(&body)
	if body.Error != `page "x" is not a number` || body.Code != "invalid_input" {
		t.Errorf("body = %+v", body)
	}
}
