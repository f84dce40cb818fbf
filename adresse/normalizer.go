// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package adresse

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/miramas-sig/adressage/utils/textutils"
)

const (
	// DefaultSheet is the sheet holding the addresses in the municipality workbook.
	DefaultSheet = "Clos de Craponne et Val Auré"
	// DefaultSkipRows is the number of title rows above the header row.
	DefaultSkipRows = 2
	// DefaultMunicipality is appended to every address.
	DefaultMunicipality = "Miramas"
	// DefaultCountry is appended to every address.
	DefaultCountry = "France"
)

// ErrSchemaMismatch is returned when the input does not have the expected column layout.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaError details a schema mismatch. It matches ErrSchemaMismatch with errors.Is.
type SchemaError struct {
	Line   int    // 1-based spreadsheet line
	Column string // expected column name, empty when the problem is the column count
	Header string // header text found, if any
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: line %d, column %q (header %q): %s", ErrSchemaMismatch, e.Line, e.Column, e.Header, e.Reason)
	}

	return fmt.Sprintf("%s: line %d: %s", ErrSchemaMismatch, e.Line, e.Reason)
}

// Is makes errors.Is(err, ErrSchemaMismatch) work.
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaMismatch
}

// Options drives how a workbook is read and normalized.
type Options struct {
	// Sheet to read. Empty means the first sheet.
	Sheet string

	// SkipRows is the number of rows above the header row.
	SkipRows int

	// StrictHeaders checks every header against the known names of its
	// column. When false the columns are trusted by position only.
	StrictHeaders bool

	// Municipality and Country are appended to every address.
	Municipality string
	Country      string
}

// DefaultOptions returns the options matching the municipality workbook.
func DefaultOptions() Options {
	return Options{
		Sheet:         DefaultSheet,
		SkipRows:      DefaultSkipRows,
		StrictHeaders: true,
		Municipality:  DefaultMunicipality,
		Country:       DefaultCountry,
	}
}

func (o Options) withDefaults() Options {
	if o.Municipality == "" {
		o.Municipality = DefaultMunicipality
	}

	if o.Country == "" {
		o.Country = DefaultCountry
	}

	if o.SkipRows < 0 {
		o.SkipRows = 0
	}

	return o
}

// headerKeywords lists, per source column, the words a header may contain.
// Headers are folded and tokenized before matching.
var headerKeywords = [][]string{
	{"parcelle", "parcelles", "cadastre", "cadastrale", "section", "ref", "reference"},
	{"nom", "noms", "prenom", "prenoms", "proprietaire", "proprietaires"},
	{"situation", "lieu", "localisation"},
	{"voie", "rue", "chemin", "ancienne", "ancien", "origine", "actuelle"},
	{"adresse", "adresses", "ancienne", "ancien", "origine", "actuelle"},
	{"numero", "num", "no", "n", "nouveau", "numerotation"},
	{"voie", "rue", "nouvelle", "nouveau", "libelle", "denomination"},
	{"election", "adresse", "domicile", "correspondance", "postale"},
}

func headerMatches(column int, header string) bool {
	for _, token := range textutils.Tokens(header) {
		if slices.Contains(headerKeywords[column], token) {
			return true
		}
	}

	return false
}

// trimTrailing drops the empty cells at the end of a row.
func trimTrailing(row []string) []string {
	n := len(row)
	for n > 0 && strings.TrimSpace(row[n-1]) == "" {
		n--
	}

	return row[:n]
}

func checkHeader(header []string, opts Options) error {
	line := opts.SkipRows + 1

	header = trimTrailing(header)
	if len(header) != len(SourceColumns) {
		return &SchemaError{
			Line:   line,
			Reason: fmt.Sprintf("expected %d columns, found %d", len(SourceColumns), len(header)),
		}
	}

	if !opts.StrictHeaders {
		return nil
	}

	for i, name := range SourceColumns {
		if !headerMatches(i, header[i]) {
			return &SchemaError{
				Line:   line,
				Column: name,
				Header: header[i],
				Reason: "unexpected header",
			}
		}
	}

	return nil
}

// FullAddress builds the free-text address sent to the geocoder.
func FullAddress(number, street, municipality, country string) string {
	return strings.TrimSpace(number) + " " + strings.TrimSpace(street) + ", " + municipality + ", " + country
}

// Normalize validates the layout of rows, drops the rows without a new
// street number or name, and derives the municipality, country and full
// address of the others. rows holds the whole sheet, title rows included.
func Normalize(rows [][]string, opts Options) ([]*Record, error) {
	opts = opts.withDefaults()

	if len(rows) <= opts.SkipRows {
		return nil, &SchemaError{Line: opts.SkipRows + 1, Reason: "header row not found"}
	}

	if err := checkHeader(rows[opts.SkipRows], opts); err != nil {
		return nil, err
	}

	data := rows[opts.SkipRows+1:]
	records := make([]*Record, 0, len(data))
	dropped := 0

	for i, row := range data {
		row = trimTrailing(row)
		if len(row) > len(SourceColumns) {
			return nil, &SchemaError{
				Line:   opts.SkipRows + 2 + i,
				Reason: fmt.Sprintf("expected %d columns, found %d", len(SourceColumns), len(row)),
			}
		}

		cells := make([]string, len(SourceColumns))
		copy(cells, row)

		number := strings.TrimSpace(cells[5])
		street := strings.TrimSpace(cells[6])

		if number == "" || street == "" {
			dropped++

			continue
		}

		records = append(records, &Record{
			Parcel:          cells[0],
			OwnerName:       cells[1],
			Situation:       cells[2],
			PriorStreet:     cells[3],
			PriorAddress:    cells[4],
			NewNumber:       number,
			NewStreet:       street,
			ElectionAddress: cells[7],
			Municipality:    opts.Municipality,
			Country:         opts.Country,
			FullAddress:     FullAddress(number, street, opts.Municipality, opts.Country),
		})
	}

	if dropped > 0 {
		log.Printf("Dropped %d rows without new street number or name", dropped)
	}

	return records, nil
}
