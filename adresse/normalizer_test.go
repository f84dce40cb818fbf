// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package adresse

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeader = []string{
	"Parcelle",
	"Nom Prénom",
	"Situation",
	"Voie d'origine",
	"Adresse d'origine",
	"N° nouvelle numérotation",
	"Nouvelle voie",
	"Adresse d'élection",
}

func sheet(data ...[]string) [][]string {
	rows := [][]string{
		{"Ville de Miramas"},
		{"Nouvelle numérotation"},
		testHeader,
	}

	return append(rows, data...)
}

func TestNormalizeScenario(t *testing.T) {
	rows := sheet(
		[]string{"AB 12", "DUPONT Jean", "Clos de Craponne", "Chemin de Craponne", "Lot 4", "12", "Rue Exemple", "12 Rue Exemple 13140 Miramas"},
	)

	records, err := Normalize(rows, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 1)

	expected := &Record{
		Parcel:          "AB 12",
		OwnerName:       "DUPONT Jean",
		Situation:       "Clos de Craponne",
		PriorStreet:     "Chemin de Craponne",
		PriorAddress:    "Lot 4",
		NewNumber:       "12",
		NewStreet:       "Rue Exemple",
		ElectionAddress: "12 Rue Exemple 13140 Miramas",
		Municipality:    "Miramas",
		Country:         "France",
		FullAddress:     "12 Rue Exemple, Miramas, France",
	}

	if diff := cmp.Diff(expected, records[0]); diff != "" {
		t.Errorf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDropsIncompleteRows(t *testing.T) {
	rows := sheet(
		[]string{"AB 1", "A", "", "", "", "1", "Allée des Pins"},
		[]string{"AB 2", "B", "", "", "", "", "Allée des Pins"},
		[]string{"AB 3", "C", "", "", "", "3"},
		[]string{"AB 4", "D", "", "", "", "   ", "Allée des Pins"},
		[]string{},
		[]string{"AB 5", "E", "", "", "", " 5 bis ", "  Allée des Pins  ", "x"},
	)

	records, err := Normalize(rows, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "AB 1", records[0].Parcel)
	assert.Equal(t, "1 Allée des Pins, Miramas, France", records[0].FullAddress)
	assert.Equal(t, "AB 5", records[1].Parcel)
	assert.Equal(t, "5 bis", records[1].NewNumber)
	assert.Equal(t, "5 bis Allée des Pins, Miramas, France", records[1].FullAddress)
}

func TestNormalizeKeepsInputUntouched(t *testing.T) {
	row := []string{"AB 1", "A", "", "", "", " 1 ", " Rue Exemple ", ""}
	rows := sheet(row)

	_, err := Normalize(rows, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, " 1 ", row[5])
	assert.Equal(t, " Rue Exemple ", row[6])
}

func TestFullAddressIsDeterministic(t *testing.T) {
	a := FullAddress("7", "Rue Exemple", DefaultMunicipality, DefaultCountry)
	b := FullAddress(" 7", "Rue Exemple ", DefaultMunicipality, DefaultCountry)

	assert.Equal(t, a, b)
	assert.Equal(t, "7 Rue Exemple, Miramas, France", a)
}

func TestNormalizeCustomLocality(t *testing.T) {
	opts := DefaultOptions()
	opts.Municipality = "Istres"

	records, err := Normalize(sheet([]string{"", "", "", "", "", "3", "Rue Exemple"}), opts)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "3 Rue Exemple, Istres, France", records[0].FullAddress)
	assert.Equal(t, "Istres", records[0].Municipality)
}

func TestNormalizeSchemaMismatch(t *testing.T) {
	swapped := append([]string{}, testHeader...)
	swapped[0], swapped[1] = swapped[1], swapped[0]

	tests := []struct {
		name   string
		rows   [][]string
		opts   func(*Options)
		column string
	}{
		{
			name: "missing header row",
			rows: [][]string{{"title"}},
		},
		{
			name: "seven columns",
			rows: [][]string{{}, {}, testHeader[:7]},
		},
		{
			name: "nine columns",
			rows: [][]string{{}, {}, append(append([]string{}, testHeader...), "Observations")},
		},
		{
			name:   "swapped headers",
			rows:   [][]string{{}, {}, swapped},
			column: ColParcel,
		},
		{
			name: "extra data cell",
			rows: sheet([]string{"AB", "A", "", "", "", "1", "Rue", "", "oops"}),
		},
		{
			name: "wrong header offset",
			rows: sheet(),
			opts: func(o *Options) { o.SkipRows = 1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}

			_, err := Normalize(tt.rows, opts)
			require.ErrorIs(t, err, ErrSchemaMismatch)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr))
			assert.Equal(t, tt.column, schemaErr.Column)
		})
	}
}

func TestNormalizePositionalTrust(t *testing.T) {
	rows := [][]string{
		{}, {},
		{"a", "b", "c", "d", "e", "f", "g", "h"},
		{"AB 1", "A", "", "", "", "12", "Rue Exemple", ""},
	}

	_, err := Normalize(rows, DefaultOptions())
	require.ErrorIs(t, err, ErrSchemaMismatch)

	opts := DefaultOptions()
	opts.StrictHeaders = false

	records, err := Normalize(rows, opts)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "12 Rue Exemple, Miramas, France", records[0].FullAddress)
}

func TestRecordValuesRoundTrip(t *testing.T) {
	r := &Record{
		Parcel:      "AB 12",
		NewNumber:   "12",
		NewStreet:   "Rue Exemple",
		FullAddress: "12 Rue Exemple, Miramas, France",
	}

	values := r.Values()
	require.Len(t, values, len(Columns))
	assert.Equal(t, r, FromValues(values))
}
