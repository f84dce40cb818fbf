// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

// Package session holds the geocoded results of a working session.
package session

import (
	"fmt"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/geocoding"
	"github.com/miramas-sig/adressage/spatial"
	"github.com/miramas-sig/adressage/utils/textutils"
)

// Row is an address record and its geocoding result.
type Row struct {
	Record *adresse.Record
	Result geocoding.Result
}

// Point returns the coordinates of the row, false when it was not located.
func (r Row) Point() (spatial.Point, bool) {
	if !r.Result.Located() {
		return spatial.Point{}, false
	}

	return spatial.Point{Lat: *r.Result.Latitude, Lng: *r.Result.Longitude}, true
}

// Table is the ordered result of a geocoding pass. A Table is never
// modified once built.
type Table struct {
	rows []Row
}

// Stats summarizes the outcomes of a table.
type Stats struct {
	Total    int `json:"total"`
	Located  int `json:"located"`
	NotFound int `json:"not_found"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// NewTable pairs records with their results, row by row.
func NewTable(records []*adresse.Record, results []geocoding.Result) (*Table, error) {
	if len(records) != len(results) {
		return nil, fmt.Errorf("%d records but %d results", len(records), len(results))
	}

	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = Row{Record: rec, Result: results[i]}
	}

	return &Table{rows: rows}, nil
}

// Rows returns a copy of the rows, in order.
func (t *Table) Rows() []Row {
	if t == nil {
		return nil
	}

	return append([]Row(nil), t.rows...)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	return len(t.rows)
}

// Located returns the rows that carry coordinates.
func (t *Table) Located() []Row {
	if t == nil {
		return nil
	}

	var located []Row

	for _, row := range t.rows {
		if row.Result.Located() {
			located = append(located, row)
		}
	}

	return located
}

// Points returns the coordinates of the located rows together with the
// index of each one in Rows.
func (t *Table) Points() ([]spatial.Point, []int) {
	if t == nil {
		return nil, nil
	}

	var (
		points  []spatial.Point
		indices []int
	)

	for i, row := range t.rows {
		if pt, ok := row.Point(); ok {
			points = append(points, pt)
			indices = append(indices, i)
		}
	}

	return points, indices
}

// Filter returns a new table with the rows whose full address contains
// substr, ignoring case. An empty substr keeps every row.
func (t *Table) Filter(substr string) *Table {
	if t == nil {
		return &Table{}
	}

	if substr == "" {
		return &Table{rows: t.Rows()}
	}

	var rows []Row

	for _, row := range t.rows {
		if textutils.ContainsFold(row.Record.FullAddress, substr) {
			rows = append(rows, row)
		}
	}

	return &Table{rows: rows}
}

// Stats counts the outcomes of the table.
func (t *Table) Stats() Stats {
	var s Stats
	if t == nil {
		return s
	}

	s.Total = len(t.rows)

	for _, row := range t.rows {
		switch row.Result.Outcome {
		case geocoding.OutcomeFound:
			s.Located++
		case geocoding.OutcomeNotFound:
			s.NotFound++
		case geocoding.OutcomeFailed:
			s.Failed++
		case geocoding.OutcomeSkipped:
			s.Skipped++
		}
	}

	return s
}
