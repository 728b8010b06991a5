/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/registry"
)

// Billing modes accepted in a tables file.
const (
	BillingPayPerRequest = "PAY_PER_REQUEST"
	BillingProvisioned   = "PROVISIONED"
)

// TablesFile lists the tables the CLI provisions.
//
//	tables:
//	  - table: orders
//	    hash_key: {name: order_id, type: S}
//	    range_key: {name: created_at, type: S}
//	    billing: {mode: PAY_PER_REQUEST}
//	    indexes:
//	      - name: by_customer
//	        hash_key: {name: customer_id, type: S}
//	        projection: KEYS_ONLY
type TablesFile struct {
	Tables []TableSpec `yaml:"tables" validate:"required,min=1,dive"`
}

// TableSpec is a table definition plus its provisioning settings.
type TableSpec struct {
	registry.Definition `yaml:",inline"`

	Billing Billing           `yaml:"billing"`
	Tags    map[string]string `yaml:"tags"`
}

// Billing holds the capacity settings of a table. Capacities are only
// meaningful for PROVISIONED.
type Billing struct {
	Mode          string `yaml:"mode" validate:"omitempty,oneof=PAY_PER_REQUEST PROVISIONED"`
	ReadCapacity  int64  `yaml:"read_capacity" validate:"gte=0"`
	WriteCapacity int64  `yaml:"write_capacity" validate:"gte=0"`
}

// LoadTables reads and validates a tables file.
func LoadTables(path string) (*TablesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tables file: %w", err)
	}
	return ParseTables(data)
}

// ParseTables decodes and validates a tables file.
func ParseTables(data []byte) (*TablesFile, error) {
	tf := &TablesFile{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(tf); err != nil {
		return nil, fmt.Errorf("parse tables file: %w", err)
	}
	if err := tf.Validate(); err != nil {
		return nil, err
	}
	return tf, nil
}

// Validate checks the structure of the file, rejects duplicate table names
// and incomplete provisioned capacity.
func (tf *TablesFile) Validate() error {
	if err := validateStruct(tf); err != nil {
		return err
	}
	seen := make(map[string]bool, len(tf.Tables))
	for _, t := range tf.Tables {
		if seen[t.Table] {
			return errors.NewValidationError("tables", fmt.Sprintf("table %q declared twice", t.Table))
		}
		seen[t.Table] = true

		if t.Billing.Mode == BillingProvisioned && (t.Billing.ReadCapacity == 0 || t.Billing.WriteCapacity == 0) {
			return errors.NewValidationError("tables."+t.Table+".billing", "provisioned billing needs read and write capacity")
		}
	}
	return nil
}

// Schemas builds a TableSchema for every table in the file.
func (tf *TablesFile) Schemas() ([]*registry.TableSchema, error) {
	out := make([]*registry.TableSchema, 0, len(tf.Tables))
	for _, t := range tf.Tables {
		s, err := registry.SchemaFromDefinition(t.Definition)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
