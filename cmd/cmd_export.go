// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/miramas-sig/adressage/export"
)

var exportExport = &exportOptions{}

var exportCmd = &cobra.Command{
	Use:   "export <adresses.csv>",
	Short: "Convertit un export CSV vers les autres formats",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening results: %w", err)
		}
		defer f.Close()

		table, err := export.ReadCSV(f)
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		log.Printf("%d rows read from %s, %d located", table.Len(), args[0], len(table.Located()))

		return writeExports(table, exportExport)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportExport.addFlags(exportCmd)
}
