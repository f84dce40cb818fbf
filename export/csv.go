// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/geocoding"
	"github.com/miramas-sig/adressage/session"
)

// ErrBadCSV is returned when a CSV file is not a result export.
var ErrBadCSV = errors.New("not an address export")

// EncodeCSV writes every row, null coordinates as empty cells.
func EncodeCSV(table *session.Table) ([]byte, error) {
	var buf bytes.Buffer

	w := csv.NewWriter(&buf)

	if err := w.Write(header()); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i, row := range table.Rows() {
		values := append(row.Record.Values(), formatCoordinate(row.Result.Latitude), formatCoordinate(row.Result.Longitude))
		if err := w.Write(values); err != nil {
			return nil, fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// ReadCSV parses a CSV export back into a table. Rows without coordinates
// come back as not found since the export does not keep the outcome.
func ReadCSV(r io.Reader) (*session.Table, error) {
	cr := csv.NewReader(r)

	got, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	want := header()
	if len(got) > 0 {
		got[0] = strings.TrimPrefix(got[0], "\ufeff")
	}

	if strings.Join(got, ",") != strings.Join(want, ",") {
		return nil, fmt.Errorf("%w: header %q, expected %q", ErrBadCSV, got, want)
	}

	cr.FieldsPerRecord = len(want)

	var (
		records []*adresse.Record
		results []geocoding.Result
	)

	for line := 2; ; line++ {
		values, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading line %d: %w", line, err)
		}

		res, err := parseResult(values[len(values)-2], values[len(values)-1])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadCSV, line, err)
		}

		records = append(records, adresse.FromValues(values[:len(adresse.Columns)]))
		results = append(results, res)
	}

	return session.NewTable(records, results)
}

func parseResult(lat, lng string) (geocoding.Result, error) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" && lng == "" {
		return geocoding.Result{Outcome: geocoding.OutcomeNotFound}, nil
	}

	if lat == "" || lng == "" {
		return geocoding.Result{}, errors.New("only one coordinate is set")
	}

	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geocoding.Result{}, fmt.Errorf("latitude: %w", err)
	}

	ln, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return geocoding.Result{}, fmt.Errorf("longitude: %w", err)
	}

	return geocoding.Found(la, ln), nil
}
