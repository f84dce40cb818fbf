// Copyright 2025 The Adressage Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"sort"

	"github.com/uber/h3-go/v4"
)

// CellGroup aggregates the points that fall in the same H3 cell.
type CellGroup struct {
	Cell   string `json:"cell"`
	Center Point  `json:"center"`
	Count  int    `json:"count"`
	// Radius is the distance in meters from Center to the farthest member.
	Radius float64 `json:"radius"`
	// Members are indices into the slice given to GroupByCell.
	Members []int `json:"members"`
}

// GroupByCell buckets points by H3 cell at the given resolution. Groups are
// returned in the order their first member appears in points.
func GroupByCell(points []Point, resolution int) ([]*CellGroup, error) {
	index := make(map[h3.Cell]*CellGroup)
	order := make([]h3.Cell, 0)

	for i, p := range points {
		cell, err := h3.LatLngToCell(h3.NewLatLng(p.Lat, p.Lng), resolution)
		if err != nil {
			return nil, fmt.Errorf("error converting to h3 cell at res %d: %w", resolution, err)
		}

		group, ok := index[cell]
		if !ok {
			group = &CellGroup{Cell: cell.String()}
			index[cell] = group
			order = append(order, cell)
		}

		group.Members = append(group.Members, i)
		group.Count++
	}

	groups := make([]*CellGroup, 0, len(order))

	for _, cell := range order {
		group := index[cell]

		var lat, lng float64
		for _, m := range group.Members {
			lat += points[m].Lat
			lng += points[m].Lng
		}

		group.Center = Point{Lat: lat / float64(group.Count), Lng: lng / float64(group.Count)}

		for _, m := range group.Members {
			if d := group.Center.HaversineDistance(&points[m]); d > group.Radius {
				group.Radius = d
			}
		}

		groups = append(groups, group)
	}

	return groups, nil
}

// LargestFirst sorts groups by descending count, keeping first-seen order on ties.
func LargestFirst(groups []*CellGroup) {
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
}
