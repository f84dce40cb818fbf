// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"fmt"

	"github.com/miramas-sig/adressage/geocoding"
)

// Geocode runs a pass over the prepared records and stores the resulting
// table. A cancelled pass leaves the stored table untouched. The progress
// callback, when not nil, is called after each address.
func (s *Session) Geocode(ctx context.Context, g geocoding.Geocoder, progress geocoding.ProgressFunc) (*Table, error) {
	pass, err := s.BeginPass()
	if err != nil {
		return nil, err
	}

	results, err := geocoding.Run(ctx, g, pass.Addresses(), func(done, total int) {
		s.Advance(pass, done, total)

		if progress != nil {
			progress(done, total)
		}
	})
	if err != nil {
		s.AbortPass(pass)

		return nil, fmt.Errorf("geocoding pass: %w", err)
	}

	return s.CompletePass(pass, results)
}
