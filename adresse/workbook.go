// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package adresse

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrSheetNotFound is returned when the configured sheet is not in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Load reads an .xlsx workbook and normalizes the configured sheet.
func Load(r io.Reader, opts Options) ([]*Record, error) {
	rows, err := ReadRows(r, opts.Sheet)
	if err != nil {
		return nil, err
	}

	return Normalize(rows, opts)
}

// LoadFile is Load for a workbook on disk.
func LoadFile(path string, opts Options) ([]*Record, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	return Load(f, opts)
}

// ReadRows returns every row of sheet as displayed text. An empty sheet name
// selects the first sheet.
func ReadRows(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSheetNotFound)
	}

	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, sheet, strings.Join(sheets, ", "))
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading rows of %q: %w", sheet, err)
	}

	return rows, nil
}
