// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miramas-sig/adressage/export"
	"github.com/miramas-sig/adressage/session"
)

type exportOptions struct {
	OutDir  string
	Formats string
}

func (o *exportOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.OutDir, "out", "o", ".", "output directory")
	cmd.Flags().StringVarP(&o.Formats, "format", "f", "",
		"comma separated formats among "+strings.Join(export.Names(), ", ")+" (default all)")
}

// writeExports writes table in every selected format.
func writeExports(table *session.Table, o *exportOptions) error {
	formats, err := export.ParseNames(o.Formats)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(o.OutDir, 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, f := range formats {
		path, err := export.WriteFile(o.OutDir, f, table)
		if err != nil {
			return err
		}

		log.Printf("Wrote %s", path)
	}

	return nil
}
