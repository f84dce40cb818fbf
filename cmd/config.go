// Copyright 2025 The Adressage Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/miramas-sig/adressage/adresse"
	"github.com/miramas-sig/adressage/geocoding"
)

const envPrefix = "ADRESSAGE"

// Config is the merged configuration: flags over environment over config
// file over defaults.
type Config struct {
	APIKey        string        `mapstructure:"api-key"`
	Sheet         string        `mapstructure:"sheet"`
	SkipRows      int           `mapstructure:"skip-rows"`
	Positional    bool          `mapstructure:"positional"`
	Municipality  string        `mapstructure:"municipality"`
	Country       string        `mapstructure:"country"`
	TraceHTTP     bool          `mapstructure:"trace-http"`
	TraceHTTPBody bool          `mapstructure:"trace-http-body"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Addr          string        `mapstructure:"addr"`
	SessionTTL    time.Duration `mapstructure:"session-ttl"`
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// loadConfig merges flags, environment and the config file. An explicit
// configFile must exist; otherwise adressage.yaml is looked up in the
// working directory and the user config directory.
func loadConfig(v *viper.Viper, configFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := v.BindEnv("api-key", envPrefix+"_API_KEY", "OPENCAGE_API_KEY"); err != nil {
		return nil, fmt.Errorf("binding environment: %w", err)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("binding flags: %w", err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("adressage")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "adressage"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return cfg, nil
}

// normalizeOptions returns the workbook options of the configuration.
func (c *Config) normalizeOptions() adresse.Options {
	opts := adresse.DefaultOptions()
	opts.Sheet = c.Sheet
	opts.SkipRows = c.SkipRows
	opts.StrictHeaders = !c.Positional

	if c.Municipality != "" {
		opts.Municipality = c.Municipality
	}

	if c.Country != "" {
		opts.Country = c.Country
	}

	return opts
}

// newGeocoder builds the OpenCage client of the configuration.
func (c *Config) newGeocoder(trace io.Writer) (*geocoding.OpenCageGeocoder, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: use --api-key, %s_API_KEY or OPENCAGE_API_KEY", geocoding.ErrMissingAPIKey, envPrefix)
	}

	opts := geocoding.OpenCageOptions{
		APIKey:    c.APIKey,
		Timeout:   c.Timeout,
		UserAgent: fmt.Sprintf("adressage/%s", Version),
	}

	if c.TraceHTTP || c.TraceHTTPBody {
		opts.TraceWriter = trace
		opts.TraceBody = c.TraceHTTPBody
	}

	return geocoding.NewOpenCageGeocoder(opts)
}
