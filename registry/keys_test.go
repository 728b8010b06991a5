/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/errors"
)

func reflectTypeOf(v any) reflect.Type { return reflect.TypeOf(v) }

func TestBuildKey(t *testing.T) {
	r := New()
	users, err := Register[user](r, "users", "UserID")
	require.NoError(t, err)
	orders := registerOrders(t, r)

	key, err := BuildKey(users, "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: "u1"},
	}, key)

	key, err = BuildKey(orders, "o1", day(2))
	require.NoError(t, err)
	assert.Equal(t, map[string]types.AttributeValue{
		"order_id":   &types.AttributeValueMemberS{Value: "o1"},
		"created_at": &types.AttributeValueMemberS{Value: "2026-01-02"},
	}, key)
}

func TestBuildKeyErrors(t *testing.T) {
	r := New()
	users, err := Register[user](r, "users", "UserID")
	require.NoError(t, err)
	orders := registerOrders(t, r)

	tests := []struct {
		name   string
		schema *TableSchema
		hash   any
		rng    any
	}{
		{"range key missing", orders, "o1", nil},
		{"range key empty", orders, "o1", ""},
		{"range key on hash-only table", users, "u1", "extra"},
		{"hash key missing", users, nil, nil},
		{"hash key empty", users, "", nil},
		{"hash key wrong type", users, 42, nil},
		{"range key wrong type", orders, "o1", "2026-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildKey(tt.schema, tt.hash, tt.rng)
			require.Error(t, err)
			assert.True(t, errors.IsKeyError(err), "got %v", err)
		})
	}
}

func TestKeyFromItem(t *testing.T) {
	orders := registerOrders(t, New())

	item, err := orders.Plan.Encode(order{OrderID: "o1", CreatedAt: day(1), CustomerID: "c1", Total: codec.MustDecimal("9.99"), Lines: []string{}})
	require.NoError(t, err)

	key, err := KeyFromItem(orders, item)
	require.NoError(t, err)
	assert.Len(t, key, 2)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "o1"}, key["order_id"])

	item["order_id"] = &types.AttributeValueMemberS{Value: ""}
	_, err = KeyFromItem(orders, item)
	assert.True(t, errors.IsKeyError(err))

	delete(item, "order_id")
	_, err = KeyFromItem(orders, item)
	assert.True(t, errors.IsKeyError(err))
}

func TestCheckStartKey(t *testing.T) {
	orders := registerOrders(t, New())
	key := map[string]types.AttributeValue{
		"order_id":    &types.AttributeValueMemberS{Value: "o1"},
		"created_at":  &types.AttributeValueMemberS{Value: "2026-01-01"},
		"customer_id": &types.AttributeValueMemberS{Value: "c1"},
	}

	assert.NoError(t, CheckStartKey(orders, "by-customer", key))
	assert.True(t, errors.IsKeyError(CheckStartKey(orders, "", key)), "extra attribute for table scan")

	key["customer_id"] = &types.AttributeValueMemberN{Value: "1"}
	assert.True(t, errors.IsKeyError(CheckStartKey(orders, "by-customer", key)))

	item := map[string]types.AttributeValue{
		"order_id":   &types.AttributeValueMemberS{Value: "o1"},
		"created_at": &types.AttributeValueMemberS{Value: "2026-01-01"},
		"total":      &types.AttributeValueMemberN{Value: "5"},
		"paid":       &types.AttributeValueMemberBOOL{Value: true},
	}
	assert.Equal(t, map[string]types.AttributeValue{
		"order_id":   item["order_id"],
		"created_at": item["created_at"],
		"total":      item["total"],
	}, ProjectKey(orders, "by-total", item))
}

func TestDescribeKey(t *testing.T) {
	assert.Equal(t, "a=1, b=x, c=0102", DescribeKey(map[string]types.AttributeValue{
		"b": &types.AttributeValueMemberS{Value: "x"},
		"a": &types.AttributeValueMemberN{Value: "1"},
		"c": &types.AttributeValueMemberB{Value: []byte{1, 2}},
	}))
}
