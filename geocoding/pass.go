// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"log"
)

// Outcome classifies the lookup of one address.
type Outcome string

const (
	// OutcomeFound the provider returned coordinates.
	OutcomeFound Outcome = "found"
	// OutcomeNotFound the provider returned no candidate.
	OutcomeNotFound Outcome = "not_found"
	// OutcomeFailed the lookup failed (network, auth, quota, bad response...).
	OutcomeFailed Outcome = "failed"
	// OutcomeSkipped the pass was cancelled before the address was tried.
	OutcomeSkipped Outcome = "skipped"
)

// Result is the geocoding result attached to an address. Latitude and
// Longitude are both nil unless Outcome is OutcomeFound.
type Result struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Outcome   Outcome  `json:"outcome"`
}

// Found builds the result of a successful lookup.
func Found(lat, lng float64) Result {
	return Result{Latitude: &lat, Longitude: &lng, Outcome: OutcomeFound}
}

// Located reports whether the result carries coordinates.
func (r Result) Located() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// ProgressFunc is called after each address with the number of addresses done.
type ProgressFunc func(done, total int)

// Run geocodes addresses one at a time, in order. A failed lookup never
// stops the pass: the address gets null coordinates and the next one is
// tried. Run only returns an error when ctx is cancelled; the results of the
// addresses not yet tried are then OutcomeSkipped.
func Run(ctx context.Context, g Geocoder, addresses []string, progress ProgressFunc) ([]Result, error) {
	n := len(addresses)
	results := make([]Result, n)

	var notFound, failed int

	for i, address := range addresses {
		if err := ctx.Err(); err != nil {
			for j := i; j < n; j++ {
				results[j] = Result{Outcome: OutcomeSkipped}
			}

			log.Printf("Geocoding interrupted after %d/%d addresses: %v", i, n, err)

			return results, err
		}

		results[i] = lookup(ctx, g, address)

		switch results[i].Outcome {
		case OutcomeNotFound:
			notFound++

			log.Printf("[%d/%d] No result for %q", i+1, n, address)
		case OutcomeFailed:
			failed++
		}

		if progress != nil {
			progress(i+1, n)
		}
	}

	log.Printf("Geocoding complete - %d found, %d not found, %d failed", n-notFound-failed, notFound, failed)

	return results, nil
}

// lookup converts every error of a single lookup, panics included, into a null result.
func lookup(ctx context.Context, g Geocoder, address string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Geocoding %q panicked: %v", address, r)

			res = Result{Outcome: OutcomeFailed}
		}
	}()

	loc, err := g.Geocode(ctx, address)
	if err != nil {
		if IsNotFound(err) {
			return Result{Outcome: OutcomeNotFound}
		}

		log.Printf("Geocoding %q failed: %v", address, err)

		return Result{Outcome: OutcomeFailed}
	}

	if loc == nil {
		return Result{Outcome: OutcomeNotFound}
	}

	return Found(loc.Latitude, loc.Longitude)
}
