// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/utils/textutils"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare <classeur.xlsx>",
	Short: "Affiche les adresses normalisées sans les géocoder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := adresse.LoadFile(args[0], cfg.normalizeOptions())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range records {
			if _, err := fmt.Fprintf(out, "%s\t%s\n", r.Parcel, r.FullAddress); err != nil {
				return err
			}
		}

		log.Printf("%s addresses ready to geocode", textutils.FormatInt(int64(len(records))))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(prepareCmd)
}
