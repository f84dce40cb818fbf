// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

// Package adresse turns the municipality's address workbook into normalized
// address records ready to be geocoded.
package adresse

// Source column names, in the order they appear in the workbook.
const (
	ColParcel          = "parcelle"
	ColOwnerName       = "nom_prenom"
	ColSituation       = "situation"
	ColPriorStreet     = "voie_origine"
	ColPriorAddress    = "adresse_origine"
	ColNewNumber       = "numero_nouvelle"
	ColNewStreet       = "voie_nouvelle"
	ColElectionAddress = "adresse_election"
)

// Derived column names.
const (
	ColMunicipality = "ville"
	ColCountry      = "pays"
	ColFullAddress  = "adresse_complete"
)

// SourceColumns is the positional layout of the workbook.
var SourceColumns = []string{
	ColParcel,
	ColOwnerName,
	ColSituation,
	ColPriorStreet,
	ColPriorAddress,
	ColNewNumber,
	ColNewStreet,
	ColElectionAddress,
}

// Columns lists every column of a Record, source columns first.
var Columns = append(append([]string{}, SourceColumns...), ColMunicipality, ColCountry, ColFullAddress)

// Record is one retained row of the workbook.
type Record struct {
	Parcel          string `json:"parcelle"`
	OwnerName       string `json:"nom_prenom"`
	Situation       string `json:"situation"`
	PriorStreet     string `json:"voie_origine"`
	PriorAddress    string `json:"adresse_origine"`
	NewNumber       string `json:"numero_nouvelle"`
	NewStreet       string `json:"voie_nouvelle"`
	ElectionAddress string `json:"adresse_election"`
	Municipality    string `json:"ville"`
	Country         string `json:"pays"`
	FullAddress     string `json:"adresse_complete"`
}

// Values returns the record fields in Columns order.
func (r *Record) Values() []string {
	return []string{
		r.Parcel,
		r.OwnerName,
		r.Situation,
		r.PriorStreet,
		r.PriorAddress,
		r.NewNumber,
		r.NewStreet,
		r.ElectionAddress,
		r.Municipality,
		r.Country,
		r.FullAddress,
	}
}

// FromValues builds a record from values laid out as Columns. Missing
// trailing values are left empty.
func FromValues(values []string) *Record {
	v := make([]string, len(Columns))
	copy(v, values)

	return &Record{
		Parcel:          v[0],
		OwnerName:       v[1],
		Situation:       v[2],
		PriorStreet:     v[3],
		PriorAddress:    v[4],
		NewNumber:       v[5],
		NewStreet:       v[6],
		ElectionAddress: v[7],
		Municipality:    v[8],
		Country:         v[9],
		FullAddress:     v[10],
	}
}
