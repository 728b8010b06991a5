/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/itemstore/errors"
)

// Environment variables read by Load.
const (
	EnvRegion          = "ITEMSTORE_REGION"
	EnvEndpoint        = "ITEMSTORE_ENDPOINT"
	EnvAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvProfile         = "AWS_PROFILE"
)

// Config is the connection configuration handed to the item store. The
// library itself never reads the environment; Load does that for callers
// that want it.
type Config struct {
	Region          string                   `yaml:"region" validate:"required"`
	Endpoint        string                   `yaml:"endpoint" validate:"omitempty,url"`
	Profile         string                   `yaml:"profile"`
	AccessKeyID     string                   `yaml:"access_key_id"`
	SecretAccessKey string                   `yaml:"secret_access_key"`
	Tables          map[string]TableOverride `yaml:"tables" validate:"dive"`
	Logging         Logging                  `yaml:"logging"`
}

// TableOverride replaces the region or endpoint for one table.
type TableOverride struct {
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
}

// Logging selects the logger built by NewLogger.
type Logging struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format  string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// Load builds a Config from an optional YAML file and the environment.
// envFiles are loaded with godotenv first; missing files are skipped and
// variables already set in the process win. An empty path skips the YAML
// step.
func Load(path string, envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if cfg, err = Parse(data); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg, os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML without validating. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(dst *string, name string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Region, EnvRegion)
	set(&cfg.Endpoint, EnvEndpoint)
	set(&cfg.AccessKeyID, EnvAccessKeyID)
	set(&cfg.SecretAccessKey, EnvSecretAccessKey)
	set(&cfg.Profile, EnvProfile)
}

// Validate runs the structural tag checks and then the semantic rules.
func (c *Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.NewValidationError("access_key_id", "access key id and secret access key must be set together")
	}
	for name, o := range c.Tables {
		if o.Region == "" && o.Endpoint == "" {
			return errors.NewValidationError("tables."+name, "override sets neither region nor endpoint")
		}
	}
	return nil
}

// ForTable returns the configuration used for one table: the global values
// with the table's override applied. The result carries no Tables.
func (c *Config) ForTable(name string) Config {
	out := *c
	out.Tables = nil
	if o, ok := c.Tables[name]; ok {
		if o.Region != "" {
			out.Region = o.Region
		}
		if o.Endpoint != "" {
			out.Endpoint = o.Endpoint
		}
	}
	return out
}

var validate = validator.New()

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	list := make([]error, 0, len(verrs))
	for _, e := range verrs {
		list = append(list, errors.NewValidationError(e.Namespace(), fmt.Sprintf("failed rule %q", e.Tag())))
	}
	return stderrors.Join(list...)
}
