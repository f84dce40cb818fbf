// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/miramas-sig/adressage/session"
	"github.com/miramas-sig/adressage/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Lance l'interface web (carte, géocodage et exports)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		g, err := cfg.newGeocoder(os.Stderr)
		if err != nil {
			return err
		}

		store := session.NewStore(cfg.SessionTTL)
		log.Printf("Sessions expire after %s of inactivity", cfg.SessionTTL)

		return web.NewServer(store, g, cfg.normalizeOptions()).Run(cmd.Context(), cfg.Addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", web.DefaultAddr, "listen address")
	serveCmd.Flags().Duration("session-ttl", session.DefaultTTL, "idle time after which a session is dropped")
}
