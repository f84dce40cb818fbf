// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

// Package geocoding resolves free-text addresses to coordinates.
package geocoding

import "context"

// Location is the first candidate returned by a provider.
type Location struct {
	Latitude   float64
	Longitude  float64
	Formatted  string
	Confidence int
	Provider   string
}

// Geocoder interface for different geocoding providers.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Location, error)
}
