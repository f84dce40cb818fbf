// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/geocoding"
	"github.com/miramas-sig/adressage/session"
	"github.com/miramas-sig/adressage/utils/textutils"
)

var geocodeExport = &exportOptions{}

var geocodeCmd = &cobra.Command{
	Use:   "geocode <classeur.xlsx>",
	Short: "Géocode un classeur et écrit les exports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := cfg.newGeocoder(os.Stderr)
		if err != nil {
			return err
		}

		records, err := adresse.LoadFile(args[0], cfg.normalizeOptions())
		if err != nil {
			return err
		}

		sess := session.New("cli")
		sess.SetPrepared(filepath.Base(args[0]), records)

		table, err := sess.Geocode(cmd.Context(), g, progressReporter(len(records)))
		if err != nil {
			return err
		}

		stats := table.Stats()
		log.Printf("%s/%s addresses located, %s not found, %s failed",
			textutils.FormatInt(int64(stats.Located)),
			textutils.FormatInt(int64(stats.Total)),
			textutils.FormatInt(int64(stats.NotFound)),
			textutils.FormatInt(int64(stats.Failed)),
		)

		return writeExports(table, geocodeExport)
	},
}

// progressReporter draws a progress bar on a terminal and logs a line per
// address otherwise.
func progressReporter(n int) geocoding.ProgressFunc {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return func(done, total int) {
			log.Printf("[%d/%d] geocoded", done, total)
		}
	}

	bar := progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Géocodage"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	return func(done, _ int) {
		if err := bar.Set(done); err != nil {
			log.Printf("updating progress bar: %v", err)
		}
	}
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
	geocodeExport.addFlags(geocodeCmd)
}
