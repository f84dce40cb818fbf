// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	// GeoPackage files are SQLite databases.
	_ "github.com/mattn/go-sqlite3"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/session"
	"github.com/miramas-sig/adressage/spatial"
)

const (
	// LayerName is the feature table of the GeoPackage and the base name
	// of the shapefile members.
	LayerName = "adresses"

	gpkgApplicationID = 0x47504B47 // "GPKG"
	gpkgUserVersion   = 10300
	gpkgGeometryCol   = "geom"
)

// wgs84WKT is the OGC definition of EPSG:4326.
const wgs84WKT = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,` +
	`AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],` +
	`UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]]`

var gpkgSchema = []string{
	fmt.Sprintf("PRAGMA application_id = %d", gpkgApplicationID),
	fmt.Sprintf("PRAGMA user_version = %d", gpkgUserVersion),
	`CREATE TABLE gpkg_spatial_ref_sys (
		srs_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL PRIMARY KEY,
		organization TEXT NOT NULL,
		organization_coordsys_id INTEGER NOT NULL,
		definition TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE gpkg_contents (
		table_name TEXT NOT NULL PRIMARY KEY,
		data_type TEXT NOT NULL,
		identifier TEXT UNIQUE,
		description TEXT DEFAULT '',
		last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		min_x DOUBLE, min_y DOUBLE, max_x DOUBLE, max_y DOUBLE,
		srs_id INTEGER,
		CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
	)`,
	`CREATE TABLE gpkg_geometry_columns (
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		geometry_type_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL,
		z TINYINT NOT NULL,
		m TINYINT NOT NULL,
		CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
		CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
		CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys (srs_id)
	)`,
}

// EncodeGeoPackage writes the located rows to the point layer "adresses"
// of a new GeoPackage, in EPSG:4326.
func EncodeGeoPackage(table *session.Table) (data []byte, err error) {
	dir, err := os.MkdirTemp("", "adressage-gpkg-")
	if err != nil {
		return nil, fmt.Errorf("creating temporary directory: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, LayerName+".gpkg")

	if err := writeGeoPackage(path, table); err != nil {
		return nil, err
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GeoPackage: %w", err)
	}

	return data, nil
}

func writeGeoPackage(path string, table *session.Table) (err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening GeoPackage: %w", err)
	}

	defer func() {
		err = errors.Join(err, db.Close())
	}()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	if err := fillGeoPackage(tx, table); err != nil {
		return errors.Join(err, tx.Rollback())
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing GeoPackage: %w", err)
	}

	return nil
}

func fillGeoPackage(tx *sql.Tx, table *session.Table) error {
	for _, stmt := range gpkgSchema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("creating GeoPackage schema: %w", err)
		}
	}

	srs := []struct {
		name, org, definition string
		id                    int
	}{
		{"Undefined cartesian SRS", "NONE", "undefined", -1},
		{"Undefined geographic SRS", "NONE", "undefined", 0},
		{"WGS 84 geodetic", "EPSG", wgs84WKT, spatial.SRID},
	}
	for _, s := range srs {
		if _, err := tx.Exec(
			`INSERT INTO gpkg_spatial_ref_sys (srs_name, srs_id, organization, organization_coordsys_id, definition)
			 VALUES (?, ?, ?, ?, ?)`,
			s.name, s.id, s.org, s.id, s.definition); err != nil {
			return fmt.Errorf("registering SRS %d: %w", s.id, err)
		}
	}

	columns := make([]string, 0, len(adresse.Columns)+2)
	for _, c := range adresse.Columns {
		columns = append(columns, c+" TEXT")
	}

	columns = append(columns, ColLatitude+" DOUBLE", ColLongitude+" DOUBLE")

	if _, err := tx.Exec(fmt.Sprintf(`CREATE TABLE %s (fid INTEGER PRIMARY KEY AUTOINCREMENT, %s POINT, %s)`,
		LayerName, gpkgGeometryCol, strings.Join(columns, ", "))); err != nil {
		return fmt.Errorf("creating layer: %w", err)
	}

	located := table.Located()

	points := make([]spatial.Point, len(located))
	for i, row := range located {
		points[i], _ = row.Point()
	}

	var minX, minY, maxX, maxY any

	if b, ok := spatial.BoundsOf(points); ok {
		minX, minY, maxX, maxY = b.Min.Lng, b.Min.Lat, b.Max.Lng, b.Max.Lat
	}

	if _, err := tx.Exec(
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, min_x, min_y, max_x, max_y, srs_id)
		 VALUES (?, 'features', ?, ?, ?, ?, ?, ?)`,
		LayerName, LayerName, minX, minY, maxX, maxY, spatial.SRID); err != nil {
		return fmt.Errorf("registering layer: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m)
		 VALUES (?, ?, 'POINT', ?, 0, 0)`,
		LayerName, gpkgGeometryCol, spatial.SRID); err != nil {
		return fmt.Errorf("registering geometry column: %w", err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(adresse.Columns)+3), ", ")
	insert := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s) VALUES (%s)`,
		LayerName, gpkgGeometryCol, strings.Join(adresse.Columns, ", "), ColLatitude, ColLongitude, placeholders)

	stmt, err := tx.Prepare(insert)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range located {
		blob, err := geoPackageBinary(points[i])
		if err != nil {
			return err
		}

		args := []any{blob}
		for _, v := range row.Record.Values() {
			args = append(args, v)
		}

		args = append(args, points[i].Lat, points[i].Lng)

		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("inserting %q: %w", row.Record.FullAddress, err)
		}
	}

	return nil
}

// geoPackageBinary encodes pt as a GeoPackage geometry blob: the "GP"
// header without envelope followed by the little endian WKB.
func geoPackageBinary(pt spatial.Point) ([]byte, error) {
	body, err := wkb.Marshal(pt.Geom(), wkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", pt, err)
	}

	var buf bytes.Buffer

	buf.Write([]byte{'G', 'P', 0, 0x01})

	if err := binary.Write(&buf, binary.LittleEndian, int32(spatial.SRID)); err != nil {
		return nil, err
	}

	buf.Write(body)

	return buf.Bytes(), nil
}
