// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// GeocodingError is an error returned by a geocoding provider.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding errors.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit too many requests.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded daily quota exhausted or payment required.
	ErrorTypeQuotaExceeded
	// ErrorTypeUnauthorized missing, invalid or disabled API key.
	ErrorTypeUnauthorized
	// ErrorTypeTimeout the request did not complete in time.
	ErrorTypeTimeout
	// ErrorTypeNotFound the provider answered with no candidate.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest the provider rejected the query.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError connection failure or unavailable service.
	ErrorTypeNetworkError
	// ErrorTypeInvalidResponse the body could not be understood.
	ErrorTypeInvalidResponse
)

var errorTypeNames = map[ErrorType]string{
	ErrorTypeUnknown:         "unknown",
	ErrorTypeRateLimit:       "rate_limit",
	ErrorTypeQuotaExceeded:   "quota_exceeded",
	ErrorTypeUnauthorized:    "unauthorized",
	ErrorTypeTimeout:         "timeout",
	ErrorTypeNotFound:        "not_found",
	ErrorTypeInvalidRequest:  "invalid_request",
	ErrorTypeNetworkError:    "network_error",
	ErrorTypeInvalidResponse: "invalid_response",
}

func (t ErrorType) String() string {
	if name, ok := errorTypeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("error_type(%d)", int(t))
}

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

func isType(err error, t ErrorType) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == t
	}

	return false
}

// IsNotFound reports whether the provider found no candidate for the address.
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsRateLimitError reports whether err is a rate limit error.
func IsRateLimitError(err error) bool {
	if isType(err, ErrorTypeRateLimit) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether err is a quota error.
func IsQuotaExceededError(err error) bool {
	if isType(err, ErrorTypeQuotaExceeded) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "payment required")
}

// IsTimeoutError reports whether err is a timeout.
func IsTimeoutError(err error) bool {
	if isType(err, ErrorTypeTimeout) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError maps a non-200 provider status to a GeocodingError.
func ClassifyHTTPError(statusCode int, message string) *GeocodingError {
	var e *GeocodingError

	switch statusCode {
	case http.StatusTooManyRequests: // 429
		e = &GeocodingError{Type: ErrorTypeRateLimit, Message: "rate limit reached"}
	case http.StatusPaymentRequired: // 402
		e = &GeocodingError{Type: ErrorTypeQuotaExceeded, Message: "quota exceeded"}
	case http.StatusUnauthorized, http.StatusForbidden: // 401, 403
		e = &GeocodingError{Type: ErrorTypeUnauthorized, Message: "invalid or disabled API key"}
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusRequestURITooLong: // 400, 405, 414
		e = &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "invalid request"}
	case http.StatusNotFound: // 404
		e = &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "invalid API endpoint"}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout, http.StatusInternalServerError:
		e = &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		e = &GeocodingError{Type: ErrorTypeUnknown, Message: fmt.Sprintf("HTTP error %d", statusCode)}
	}

	if message != "" {
		e.Message += ": " + message
	}

	return e
}

// classifyTransportError wraps an error returned by the HTTP client.
func classifyTransportError(err error) *GeocodingError {
	if IsTimeoutError(err) {
		return &GeocodingError{Type: ErrorTypeTimeout, Message: "geocoding request timed out", Err: err}
	}

	return &GeocodingError{Type: ErrorTypeNetworkError, Message: "geocoding request failed", Err: err}
}
