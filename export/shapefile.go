// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/klauspost/compress/zip"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/session"
)

const (
	dbfNameLen   = 10
	dbfStringLen = 254
	dbfFloatLen  = 19
	dbfFloatPrec = 11
)

// shapefileMembers are the extensions written to the archive, in order.
var shapefileMembers = []string{".shp", ".shx", ".dbf", ".prj", ".cpg"}

// archiveTime stamps every archive member so that the same table always
// yields the same archive.
var archiveTime = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// EncodeShapefile writes the located rows to a point shapefile in WGS84 and
// returns its members zipped together.
func EncodeShapefile(table *session.Table) ([]byte, error) {
	dir, err := os.MkdirTemp("", "adressage-shp-")
	if err != nil {
		return nil, fmt.Errorf("creating temporary directory: %w", err)
	}
	defer os.RemoveAll(dir)

	base := filepath.Join(dir, LayerName)

	if err := writeShapefile(base+".shp", table); err != nil {
		return nil, err
	}

	// go-shp names the attribute file "<base>dbf", without the dot.
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return nil, fmt.Errorf("renaming attribute file: %w", err)
	}

	if err := os.WriteFile(base+".prj", []byte(wgs84WKT), 0o644); err != nil {
		return nil, fmt.Errorf("writing projection: %w", err)
	}

	if err := os.WriteFile(base+".cpg", []byte("UTF-8"), 0o644); err != nil {
		return nil, fmt.Errorf("writing code page: %w", err)
	}

	return zipMembers(base)
}

// dbfFieldName truncates a column name to the ten characters a DBF field
// name can hold.
func dbfFieldName(column string) string {
	if len(column) > dbfNameLen {
		return column[:dbfNameLen]
	}

	return column
}

// truncateUTF8 cuts s to at most n bytes without splitting a character.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}

	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}

	return s
}

// dbfString left-aligns v in a character field. go-shp leaves the unwritten
// part of a field as NUL bytes.
func dbfString(v string) string {
	v = truncateUTF8(v, dbfStringLen)

	return v + strings.Repeat(" ", dbfStringLen-len(v))
}

// dbfFloat right-aligns v in a numeric field.
func dbfFloat(v float64) string {
	return fmt.Sprintf("%*.*f", dbfFloatLen, dbfFloatPrec, v)
}

func writeShapefile(path string, table *session.Table) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return fmt.Errorf("creating shapefile: %w", err)
	}

	fields := make([]shp.Field, 0, len(adresse.Columns)+2)
	for _, c := range adresse.Columns {
		fields = append(fields, shp.StringField(dbfFieldName(c), dbfStringLen))
	}

	fields = append(fields,
		shp.FloatField(dbfFieldName(ColLatitude), dbfFloatLen, dbfFloatPrec),
		shp.FloatField(dbfFieldName(ColLongitude), dbfFloatLen, dbfFloatPrec),
	)

	if err := w.SetFields(fields); err != nil {
		w.Close()

		return fmt.Errorf("creating attribute file: %w", err)
	}

	for _, row := range table.Located() {
		lat, lng := *row.Result.Latitude, *row.Result.Longitude

		n := int(w.Write(&shp.Point{X: lng, Y: lat}))

		values := row.Record.Values()
		for i, v := range values {
			if err := w.WriteAttribute(n, i, dbfString(v)); err != nil {
				w.Close()

				return fmt.Errorf("writing %s of %q: %w", adresse.Columns[i], row.Record.FullAddress, err)
			}
		}

		if err := w.WriteAttribute(n, len(values), dbfFloat(lat)); err != nil {
			w.Close()

			return fmt.Errorf("writing latitude: %w", err)
		}

		if err := w.WriteAttribute(n, len(values)+1, dbfFloat(lng)); err != nil {
			w.Close()

			return fmt.Errorf("writing longitude: %w", err)
		}
	}

	w.Close()

	return nil
}

func zipMembers(base string) ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, ext := range shapefileMembers {
		data, err := os.ReadFile(base + ext)
		if err != nil {
			return nil, fmt.Errorf("reading %s member: %w", ext, err)
		}

		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     LayerName + ext,
			Method:   zip.Deflate,
			Modified: archiveTime,
		})
		if err != nil {
			return nil, fmt.Errorf("adding %s member: %w", ext, err)
		}

		if _, err := fw.Write(data); err != nil {
			return nil, fmt.Errorf("compressing %s member: %w", ext, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}

	return buf.Bytes(), nil
}
