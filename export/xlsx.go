// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/miramas-sig/adressage/session"
)

// SheetName is the name of the only sheet of the XLSX export.
const SheetName = "Adresses"

// EncodeXLSX writes every row to a single sheet, null coordinates as empty cells.
func EncodeXLSX(table *session.Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	if err := setRow(f, 1, toAny(header())); err != nil {
		return nil, err
	}

	for i, row := range table.Rows() {
		values := toAny(row.Record.Values())
		values = append(values, coordinateCell(row.Result.Latitude), coordinateCell(row.Result.Longitude))

		if err := setRow(f, i+2, values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}

	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}

	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}

func coordinateCell(v *float64) any {
	if v == nil {
		return nil
	}

	return *v
}
