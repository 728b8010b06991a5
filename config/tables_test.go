/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/errors"
)

const sampleTables = `
tables:
  - table: orders
    hash_key: {name: order_id, type: S}
    range_key: {name: created_at, type: S}
    billing:
      mode: PROVISIONED
      read_capacity: 5
      write_capacity: 2
    tags:
      team: payments
    indexes:
      - name: by_customer
        hash_key: {name: customer_id, type: S}
        range_key: {name: total, type: N}
        projection: KEYS_ONLY
  - table: users
    hash_key: {name: user_id, type: S}
`

func TestParseTables(t *testing.T) {
	tf, err := ParseTables([]byte(sampleTables))
	require.NoError(t, err)
	require.Len(t, tf.Tables, 2)

	orders := tf.Tables[0]
	assert.Equal(t, "orders", orders.Table)
	assert.Equal(t, "order_id", orders.HashKey.Name)
	require.NotNil(t, orders.RangeKey)
	assert.Equal(t, "created_at", orders.RangeKey.Name)
	assert.Equal(t, BillingProvisioned, orders.Billing.Mode)
	assert.Equal(t, int64(5), orders.Billing.ReadCapacity)
	assert.Equal(t, "payments", orders.Tags["team"])

	schemas, err := tf.Schemas()
	require.NoError(t, err)
	require.Len(t, schemas, 2)
	assert.Equal(t, codec.KindNumber, schemas[0].KeyKinds["total"])
	assert.Equal(t, "by_customer", schemas[0].Indexes[0].Name)
	assert.False(t, schemas[1].HasRangeKey())
}

func TestParseTablesRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no tables", "tables: []\n"},
		{"bad key type", "tables:\n  - table: t1x\n    hash_key: {name: id, type: BOOL}\n"},
		{"missing key name", "tables:\n  - table: t1x\n    hash_key: {type: S}\n"},
		{"bad billing", "tables:\n  - table: t1x\n    hash_key: {name: id, type: S}\n    billing: {mode: FREE}\n"},
		{"provisioned without capacity", "tables:\n  - table: t1x\n    hash_key: {name: id, type: S}\n    billing: {mode: PROVISIONED}\n"},
		{"duplicate table", "tables:\n  - table: t1x\n    hash_key: {name: id, type: S}\n  - table: t1x\n    hash_key: {name: id, type: S}\n"},
		{"bad projection", "tables:\n  - table: t1x\n    hash_key: {name: id, type: S}\n    indexes:\n      - name: i\n        hash_key: {name: g, type: S}\n        projection: SOME\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTables([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err), "got %v", err)
		})
	}
}

func TestParseTablesUnknownField(t *testing.T) {
	_, err := ParseTables([]byte("tables:\n  - table: t1x\n    hash_key: {name: id, type: S}\n    ttl: expires\n"))
	assert.Error(t, err)
}

func TestSchemasReportsDefinitionErrors(t *testing.T) {
	tf := &TablesFile{Tables: []TableSpec{{}}}
	tf.Tables[0].Table = "ab"
	tf.Tables[0].HashKey.Name = "id"
	tf.Tables[0].HashKey.Type = "S"

	_, err := tf.Schemas()
	require.Error(t, err)
	assert.True(t, errors.IsSchemaError(err))
}
