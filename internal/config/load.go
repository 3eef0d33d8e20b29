package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.yaml.in/yaml/v3"
)

// DefaultEnvFile is the credentials file read when Options.EnvFile is empty.
const DefaultEnvFile = "cred.env"

// legacyPrefix is accepted for source settings alongside DB_.
const legacyPrefix = "MYSQL_"

// Options selects the files Load reads.
type Options struct {
	// File is an optional YAML file.
	File string
	// EnvFile is a dotenv credentials file. When empty, DefaultEnvFile is
	// read if it exists.
	EnvFile string
}

// Load builds the configuration: defaults, then the credentials file, then
// the YAML file, then environment variables. The result is validated.
func Load(opts Options) (*Config, error) {
	cfg := Default()

	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	if opts.File != "" {
		if err := loadYAML(opts.File, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(&cfg.Source, env.Options{Prefix: legacyPrefix}); err != nil {
		return nil, fmt.Errorf("parse %s environment: %w", legacyPrefix, err)
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadEnvFile exports the variables of a dotenv file without overriding
// variables already set.
func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func loadYAML(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
