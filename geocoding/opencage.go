// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/miramas-sig/adressage/spatial"
	"github.com/miramas-sig/adressage/utils/httputils"
)

const (
	// DefaultOpenCageURL is the OpenCage forward geocoding endpoint.
	DefaultOpenCageURL = "https://api.opencagedata.com/geocode/v1/json"
	// DefaultLanguage is the language hint sent with every query.
	DefaultLanguage = "fr"
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 10 * time.Second

	providerOpenCage = "opencage"
)

// ErrMissingAPIKey is returned when no OpenCage key is configured.
var ErrMissingAPIKey = errors.New("missing OpenCage API key")

// OpenCageOptions configures an OpenCageGeocoder.
type OpenCageOptions struct {
	APIKey   string
	BaseURL  string
	Language string
	Timeout  time.Duration

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Transport is the underlying transport, http.DefaultTransport when nil.
	Transport http.RoundTripper

	// TraceWriter enables light tracing of HTTP requests and responses.
	TraceWriter io.Writer
	// TraceBody adds the response bodies to the trace.
	TraceBody bool
}

// OpenCageGeocoder uses the OpenCage Geocoding API.
type OpenCageGeocoder struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
}

// NewOpenCageGeocoder creates a new OpenCage geocoder.
func NewOpenCageGeocoder(opts OpenCageOptions) (*OpenCageGeocoder, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if opts.BaseURL == "" {
		opts.BaseURL = DefaultOpenCageURL
	}

	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	userAgent := "adressage/unknown"
	if opts.UserAgent != "" {
		userAgent = opts.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
			"Accept":     "application/json",
		},
		Transport: &httputils.LoggingRoundTripper{
			Writer:       opts.TraceWriter,
			DumpBody:     opts.TraceBody,
			RedactParams: []string{"key"},
			Transport:    transport,
		},
	}

	return &OpenCageGeocoder{
		apiKey:   opts.APIKey,
		baseURL:  opts.BaseURL,
		language: opts.Language,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: headerTransport,
		},
	}, nil
}

type openCageResponse struct {
	Results []struct {
		Geometry *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"geometry"`
		Formatted  string `json:"formatted"`
		Confidence int    `json:"confidence"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	TotalResults int `json:"total_results"`
}

// Geocode looks up address and returns the first candidate.
func (g *OpenCageGeocoder) Geocode(ctx context.Context, address string) (*Location, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("key", g.apiKey)
	params.Set("limit", "1")
	params.Set("language", g.language)
	params.Set("no_annotations", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	var ocResp openCageResponse

	decodeErr := json.NewDecoder(resp.Body).Decode(&ocResp)

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, ocResp.Status.Message)
	}

	if decodeErr != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidResponse, Message: "decoding response", Err: decodeErr}
	}

	if len(ocResp.Results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for address: %s", address),
		}
	}

	result := ocResp.Results[0]
	if result.Geometry == nil || result.Geometry.Lat == nil || result.Geometry.Lng == nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidResponse, Message: "first result has no geometry"}
	}

	point, err := spatial.NewPoint(*result.Geometry.Lat, *result.Geometry.Lng)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeInvalidResponse, Message: "first result has invalid geometry", Err: err}
	}

	return &Location{
		Latitude:   point.Lat,
		Longitude:  point.Lng,
		Formatted:  result.Formatted,
		Confidence: result.Confidence,
		Provider:   providerOpenCage,
	}, nil
}
