// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

type errorCheckTestCase struct {
	name string
	err  error
	want bool
}

func runErrorCheckTest(t *testing.T, tests []errorCheckTestCase, checkFunc func(error) bool) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checkFunc(tt.err); got != tt.want {
				t.Errorf("checkFunc() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRateLimitError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"rate limit error type", &GeocodingError{Type: ErrorTypeRateLimit, Message: "slow down"}, true},
		{"message contains rate limit", errors.New("rate limit exceeded"), true},
		{"message contains too many requests", errors.New("Too Many Requests"), true},
		{"message contains 429", errors.New("opencage returned status 429"), true},
		{"other error type", &GeocodingError{Type: ErrorTypeNotFound, Message: "not found"}, false},
		{"plain error", errors.New("boom"), false},
	}, IsRateLimitError)
}

func TestIsQuotaExceededError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"quota error type", &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "x"}, true},
		{"message contains quota exceeded", errors.New("daily quota exceeded"), true},
		{"message contains payment required", errors.New("402 Payment Required"), true},
		{"other error", errors.New("boom"), false},
	}, IsQuotaExceededError)
}

func TestIsTimeoutError(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"timeout error type", &GeocodingError{Type: ErrorTypeTimeout, Message: "x"}, true},
		{"deadline exceeded", fmt.Errorf("lookup: %w", context.DeadlineExceeded), true},
		{"message contains timeout", errors.New("i/o timeout"), true},
		{"other error", errors.New("connection refused"), false},
	}, IsTimeoutError)
}

func TestIsNotFound(t *testing.T) {
	runErrorCheckTest(t, []errorCheckTestCase{
		{"not found type", &GeocodingError{Type: ErrorTypeNotFound, Message: "x"}, true},
		{"wrapped not found", fmt.Errorf("row 3: %w", &GeocodingError{Type: ErrorTypeNotFound}), true},
		{"404 is an endpoint error", ClassifyHTTPError(http.StatusNotFound, ""), false},
		{"plain error", errors.New("not found"), false},
	}, IsNotFound)
}

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		status  int
		message string
		want    ErrorType
		wantMsg string
	}{
		{http.StatusTooManyRequests, "", ErrorTypeRateLimit, "rate limit reached"},
		{http.StatusPaymentRequired, "quota exceeded", ErrorTypeQuotaExceeded, "quota exceeded: quota exceeded"},
		{http.StatusUnauthorized, "invalid API key", ErrorTypeUnauthorized, "invalid or disabled API key: invalid API key"},
		{http.StatusForbidden, "", ErrorTypeUnauthorized, "invalid or disabled API key"},
		{http.StatusBadRequest, "", ErrorTypeInvalidRequest, "invalid request"},
		{http.StatusNotFound, "", ErrorTypeInvalidRequest, "invalid API endpoint"},
		{http.StatusBadGateway, "", ErrorTypeNetworkError, "service unavailable (status 502)"},
		{http.StatusTeapot, "", ErrorTypeUnknown, "HTTP error 418"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ClassifyHTTPError(tt.status, tt.message)
			if err.Type != tt.want {
				t.Errorf("Type = %v, want %v", err.Type, tt.want)
			}

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestGeocodingErrorUnwrap(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	err := classifyTransportError(inner)

	if err.Type != ErrorTypeNetworkError {
		t.Errorf("Type = %v, want %v", err.Type, ErrorTypeNetworkError)
	}

	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to be reachable with errors.Is")
	}

	timeout := classifyTransportError(context.DeadlineExceeded)
	if timeout.Type != ErrorTypeTimeout {
		t.Errorf("Type = %v, want %v", timeout.Type, ErrorTypeTimeout)
	}
}

func TestErrorTypeString(t *testing.T) {
	if got := ErrorTypeNotFound.String(); got != "not_found" {
		t.Errorf("String() = %q", got)
	}

	if got := ErrorType(99).String(); got != "error_type(99)" {
		t.Errorf("String() = %q", got)
	}
}
