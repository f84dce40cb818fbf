// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

// Package export encodes a result table into the downloadable file formats.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/session"
)

// Coordinate column names.
const (
	ColLatitude  = "latitude"
	ColLongitude = "longitude"
)

// ErrUnknownFormat is returned by Lookup for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown export format")

// Encoder turns a table into the bytes of a file.
type Encoder func(*session.Table) ([]byte, error)

// Format describes a downloadable file.
type Format struct {
	Name        string
	FileName    string
	ContentType string
	Encode      Encoder
}

var formats = []Format{
	{Name: "csv", FileName: "adresses.csv", ContentType: "text/csv", Encode: EncodeCSV},
	{Name: "geojson", FileName: "adresses.geojson", ContentType: "application/geo+json", Encode: EncodeGeoJSON},
	{
		Name:        "xlsx",
		FileName:    "adresses.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Encode:      EncodeXLSX,
	},
	{Name: "gpkg", FileName: "adresses.gpkg", ContentType: "application/geopackage+sqlite3", Encode: EncodeGeoPackage},
	{Name: "shp", FileName: "adresses_shapefile.zip", ContentType: "application/zip", Encode: EncodeShapefile},
}

// Formats returns every supported format, in display order.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// Names returns the names of the supported formats.
func Names() []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = f.Name
	}

	return names
}

// Lookup returns the format with the given name.
func Lookup(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range formats {
		if f.Name == name {
			return f, nil
		}
	}

	return Format{}, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownFormat, name, strings.Join(Names(), ", "))
}

// ParseNames resolves a comma separated list of format names. An empty
// list selects every format.
func ParseNames(list string) ([]Format, error) {
	if strings.TrimSpace(list) == "" {
		return Formats(), nil
	}

	var selected []Format

	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}

		f, err := Lookup(name)
		if err != nil {
			return nil, err
		}

		selected = append(selected, f)
	}

	return selected, nil
}

// WriteFile encodes table in format f into dir and returns the file path.
func WriteFile(dir string, f Format, table *session.Table) (string, error) {
	data, err := f.Encode(table)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", f.Name, err)
	}

	path := filepath.Join(dir, f.FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	return path, nil
}

// header is the column order of the tabular formats.
func header() []string {
	return append(append([]string{}, adresse.Columns...), ColLatitude, ColLongitude)
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}

	return strconv.FormatFloat(*v, 'f', -1, 64)
}
