// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/miramas-sig/adressage/session"
)

// propAddress is the single property of a GeoJSON feature.
const propAddress = "adresse"

// EncodeGeoJSON writes a FeatureCollection with one Point per located row.
func EncodeGeoJSON(table *session.Table) ([]byte, error) {
	fc := &geojson.FeatureCollection{Features: []*geojson.Feature{}}

	for _, row := range table.Located() {
		pt, _ := row.Point()

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   pt.Geom(),
			Properties: map[string]any{propAddress: row.Record.FullAddress},
		})
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding GeoJSON: %w", err)
	}

	return data, nil
}
