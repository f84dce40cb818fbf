// Copyright 2025 The Adressage Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
)

const earthRadius = 6371e3 // meters

// SRID of WGS84 longitude/latitude, the only reference system we emit.
const SRID = 4326

// ErrInvalidCoordinates is returned for coordinates outside the WGS84 range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewPoint validates lat/lng and returns the matching Point.
func NewPoint(lat, lng float64) (Point, error) {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("%w: latitude %v", ErrInvalidCoordinates, lat)
	}

	if math.IsNaN(lng) || math.IsInf(lng, 0) || lng < -180 || lng > 180 {
		return Point{}, fmt.Errorf("%w: longitude %v", ErrInvalidCoordinates, lng)
	}

	return Point{Lat: lat, Lng: lng}, nil
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Geom returns the point as a go-geom XY point (x = longitude, y = latitude) tagged with SRID.
func (p Point) Geom() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}).SetSRID(SRID)
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Bounds is the bounding box of a set of points.
type Bounds struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// BoundsOf computes the bounding box of points. It returns false when points is empty.
func BoundsOf(points []Point) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}

	b := Bounds{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min.Lat = math.Min(b.Min.Lat, p.Lat)
		b.Min.Lng = math.Min(b.Min.Lng, p.Lng)
		b.Max.Lat = math.Max(b.Max.Lat, p.Lat)
		b.Max.Lng = math.Max(b.Max.Lng, p.Lng)
	}

	return b, true
}

// Center returns the middle of the bounding box.
func (b Bounds) Center() Point {
	return Point{
		Lat: (b.Min.Lat + b.Max.Lat) / 2,
		Lng: (b.Min.Lng + b.Max.Lng) / 2,
	}
}
