/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/errors"
)

type user struct {
	UserID string `dynamodbav:"user_id"`
	Name   string `dynamodbav:"name"`
	Email  string `dynamodbav:"email,omitempty"`
}

type order struct {
	OrderID    string        `dynamodbav:"order_id"`
	CreatedAt  strfmt.Date   `dynamodbav:"created_at"`
	CustomerID string        `dynamodbav:"customer_id"`
	Total      codec.Decimal `dynamodbav:"total"`
	Paid       bool          `dynamodbav:"paid"`
	Lines      []string      `dynamodbav:"lines"`
	Note       codec.Nullable[string]
}

func day(d int) strfmt.Date {
	return strfmt.Date(time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC))
}

func registerOrders(t *testing.T, r *Registry) *TableSchema {
	t.Helper()
	s, err := Register[order](r, "orders", "OrderID",
		WithRangeKey("created_at"),
		WithIndex(IndexDescriptor{Name: "by-customer", HashKey: "CustomerID", RangeKey: "CreatedAt", Projection: ProjectKeysOnly()}),
		WithIndex(IndexDescriptor{Name: "by-total", RangeKey: "total", Local: true}),
	)
	require.NoError(t, err)
	return s
}

func TestRegisterResolvesAttributeNames(t *testing.T) {
	r := New()
	s := registerOrders(t, r)

	assert.Equal(t, "orders", s.TableName)
	assert.Equal(t, "order_id", s.HashKey)
	assert.Equal(t, "created_at", s.RangeKey)
	require.Len(t, s.Indexes, 2)
	assert.Equal(t, IndexDescriptor{Name: "by-customer", HashKey: "customer_id", RangeKey: "created_at", Projection: ProjectKeysOnly()}, s.Indexes[0])
	assert.Equal(t, "order_id", s.Indexes[1].HashKey, "local index inherits the table hash key")
	assert.Equal(t, map[string]codec.Kind{
		"order_id":    codec.KindString,
		"created_at":  codec.KindString,
		"customer_id": codec.KindString,
		"total":       codec.KindNumber,
	}, s.KeyKinds)

	got, err := Lookup[order](r)
	require.NoError(t, err)
	assert.Same(t, s, got)

	got, err = r.LookupType(reflectTypeOf(&order{}))
	require.NoError(t, err)
	assert.Same(t, s, got)

	byName, ok := r.Table("orders")
	require.True(t, ok)
	assert.Same(t, s, byName)
}

func TestLookupUnregistered(t *testing.T) {
	_, err := Lookup[user](New())
	require.Error(t, err)
	assert.True(t, errors.IsNotRegistered(err))

	var cfgErr *errors.ConfigError
	require.True(t, stderrors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Type, "user")
}

func TestRegisterTwiceFails(t *testing.T) {
	r := New()
	_, err := Register[user](r, "users", "UserID")
	require.NoError(t, err)

	_, err = Register[user](r, "users_v2", "UserID")
	assert.True(t, errors.IsSchemaError(err), "same type")

	_, err = Register[order](r, "users", "OrderID", WithRangeKey("CreatedAt"))
	assert.True(t, errors.IsSchemaError(err), "same table name")

	s, err := Lookup[user](r)
	require.NoError(t, err)
	assert.Equal(t, "users", s.TableName, "first registration is kept")
	assert.Len(t, r.Tables(), 1)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		reg  func(r *Registry) error
	}{
		{"missing hash key", func(r *Registry) error {
			_, err := Register[user](r, "users", "")
			return err
		}},
		{"unknown hash key", func(r *Registry) error {
			_, err := Register[user](r, "users", "Nope")
			return err
		}},
		{"bool hash key", func(r *Registry) error {
			_, err := Register[order](r, "orders", "Paid")
			return err
		}},
		{"list range key", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID", WithRangeKey("Lines"))
			return err
		}},
		{"nullable range key", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID", WithRangeKey("Note"))
			return err
		}},
		{"range equals hash", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID", WithRangeKey("order_id"))
			return err
		}},
		{"duplicate index name", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID",
				WithIndex(IndexDescriptor{Name: "gsi", HashKey: "CustomerID"}),
				WithIndex(IndexDescriptor{Name: "gsi", HashKey: "Total"}))
			return err
		}},
		{"index without hash key", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID", WithIndex(IndexDescriptor{Name: "gsi"}))
			return err
		}},
		{"local index without range", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID", WithIndex(IndexDescriptor{Name: "lsi", Local: true}))
			return err
		}},
		{"local index with other hash", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID", WithIndex(IndexDescriptor{Name: "lsi", HashKey: "CustomerID", RangeKey: "Total", Local: true}))
			return err
		}},
		{"include without attributes", func(r *Registry) error {
			_, err := Register[order](r, "orders", "OrderID", WithIndex(IndexDescriptor{Name: "gsi", HashKey: "CustomerID", Projection: ProjectInclude()}))
			return err
		}},
		{"short table name", func(r *Registry) error {
			_, err := Register[user](r, "u", "UserID")
			return err
		}},
		{"bad table name", func(r *Registry) error {
			_, err := Register[user](r, "user table", "UserID")
			return err
		}},
		{"not a struct", func(r *Registry) error {
			_, err := Register[string](r, "strings", "x")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New()
			err := tt.reg(r)
			require.Error(t, err)
			assert.True(t, errors.IsSchemaError(err), "got %v", err)
			assert.Empty(t, r.Tables())
		})
	}
}

func TestMustRegisterPanics(t *testing.T) {
	r := New()
	MustRegister[user](r, "users", "UserID")
	assert.Panics(t, func() { MustRegister[user](r, "users", "UserID") })
}

func TestConcurrentRegister(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := Register[user](r, "users", "UserID")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)
}

func TestKeyAttributes(t *testing.T) {
	s := registerOrders(t, New())

	assert.Equal(t, []string{"order_id", "created_at"}, s.KeyAttributes(""))
	assert.Equal(t, []string{"order_id", "created_at", "customer_id"}, s.KeyAttributes("by-customer"))
	assert.Equal(t, []string{"order_id", "created_at", "total"}, s.KeyAttributes("by-total"))

	hash, rng, ok := s.KeysFor("by-customer")
	require.True(t, ok)
	assert.Equal(t, "customer_id", hash)
	assert.Equal(t, "created_at", rng)

	_, _, ok = s.KeysFor("missing")
	assert.False(t, ok)

	idx, ok := s.Index("by-customer")
	require.True(t, ok)
	assert.False(t, idx.Complete())
}

func TestSchemaFromDefinition(t *testing.T) {
	s, err := SchemaFromDefinition(Definition{
		Table:    "events",
		HashKey:  AttributeDefinition{Name: "pk", Type: "S"},
		RangeKey: &AttributeDefinition{Name: "seq", Type: "N"},
		Indexes: []IndexDefinition{
			{Name: "by-kind", HashKey: &AttributeDefinition{Name: "kind", Type: "S"}, Projection: "INCLUDE", NonKeyAttributes: []string{"payload"}},
			{Name: "by-blob", Local: true, RangeKey: &AttributeDefinition{Name: "digest", Type: "B"}},
		},
	})
	require.NoError(t, err)

	assert.Nil(t, s.Plan)
	assert.Equal(t, "pk", s.HashKey)
	assert.Equal(t, "seq", s.RangeKey)
	assert.Equal(t, codec.KindBinary, s.KeyKinds["digest"])
	assert.Equal(t, "pk", s.Indexes[1].HashKey)
	assert.Equal(t, types.ProjectionTypeInclude, s.Indexes[0].Projection.Type)

	key, err := BuildKey(s, "e1", 42)
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "42"}, key["seq"])

	_, err = BuildKey(s, "e1", "42")
	assert.True(t, errors.IsKeyError(err))

	r := New()
	require.NoError(t, r.Add(s))
	assert.True(t, errors.IsSchemaError(r.Add(s)))

	_, err = SchemaFromDefinition(Definition{Table: "events", HashKey: AttributeDefinition{Name: "pk", Type: "BOOL"}})
	assert.True(t, errors.IsSchemaError(err))

	_, err = SchemaFromDefinition(Definition{
		Table:   "events",
		HashKey: AttributeDefinition{Name: "pk", Type: "S"},
		Indexes: []IndexDefinition{{Name: "gsi", HashKey: &AttributeDefinition{Name: "pk", Type: "N"}}},
	})
	assert.True(t, errors.IsSchemaError(err), "conflicting kinds for one attribute")
}
