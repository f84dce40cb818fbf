// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/geocoding"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var (
	cfg        = &Config{}
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "adressage",
	Short: "géocodage des adresses de Miramas",
	Long: `
adressage lit le classeur des nouvelles adresses de la ville de Miramas, les
géocode une à une avec OpenCage et exporte le résultat en CSV, GeoJSON, XLSX,
GeoPackage et Shapefile.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := loadConfig(newViper(), configFile, cmd.Flags())
		if err != nil {
			return err
		}

		*cfg = *c

		return nil
	},
}

var Version = "dev"

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (default ./adressage.yaml)")
	addConfigFlags(rootCmd.PersistentFlags())
}

// addConfigFlags declares the flags that map to Config keys.
func addConfigFlags(flags *pflag.FlagSet) {
	flags.String("api-key", "", "OpenCage API key (or ADRESSAGE_API_KEY, OPENCAGE_API_KEY)")
	flags.String("sheet", adresse.DefaultSheet, "sheet to read, empty for the first sheet")
	flags.Int("skip-rows", adresse.DefaultSkipRows, "rows above the header row")
	flags.Bool("positional", false, "trust the column order and skip the header check")
	flags.String("municipality", adresse.DefaultMunicipality, "municipality appended to every address")
	flags.String("country", adresse.DefaultCountry, "country appended to every address")
	flags.Bool("trace-http", false, "trace geocoding requests on stderr")
	flags.Bool("trace-http-body", false, "trace geocoding requests and response bodies on stderr")
	flags.Duration("timeout", geocoding.DefaultTimeout, "timeout of a single geocoding request")
}

func Execute(version string) {
	Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}
