/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/provision"
	"github.com/suparena/itemstore/registry"
	"github.com/suparena/itemstore/storagemodels"
)

// Key addresses one item. Range must be nil for tables without a range
// key.
type Key struct {
	Hash  any
	Range any
}

// Table is the typed view of the table registered for T.
type Table[T any] struct {
	client *Client
	schema *registry.TableSchema
}

// Open returns the table of T. It fails with a ConfigError when T was never
// registered.
func Open[T any](c *Client) (*Table[T], error) {
	s, err := registry.Lookup[T](c.registry)
	if err != nil {
		return nil, err
	}
	return &Table[T]{client: c, schema: s}, nil
}

// MustOpen is like Open but panics on error.
func MustOpen[T any](c *Client) *Table[T] {
	t, err := Open[T](c)
	if err != nil {
		panic(err)
	}
	return t
}

// Name is the table name.
func (t *Table[T]) Name() string { return t.schema.TableName }

// Schema returns the registered schema.
func (t *Table[T]) Schema() *registry.TableSchema { return t.schema }

type getOptions struct {
	consistent bool
}

// GetOption configures Get and Require.
type GetOption func(*getOptions)

// ConsistentRead requests a strongly consistent read.
func ConsistentRead() GetOption {
	return func(o *getOptions) { o.consistent = true }
}

type writeOptions struct {
	ifNotExists bool
	ifExists    bool
	conds       []expression.ConditionBuilder
}

// WriteOption configures Put and Delete.
type WriteOption func(*writeOptions)

// IfNotExists makes the write conditional on no item existing at the key.
// A failed check reports AlreadyExistsError.
func IfNotExists() WriteOption {
	return func(o *writeOptions) { o.ifNotExists = true }
}

// IfExists makes the write conditional on an item existing at the key. A
// failed check reports NotFoundError.
func IfExists() WriteOption {
	return func(o *writeOptions) { o.ifExists = true }
}

// When adds a condition on the existing item. Several conditions are
// combined with AND. A failed check reports ConditionFailedError.
func When(cond expression.ConditionBuilder) WriteOption {
	return func(o *writeOptions) { o.conds = append(o.conds, cond) }
}

// Get reads one item. An absent item yields (nil, nil).
func (t *Table[T]) Get(ctx context.Context, key Key, opts ...GetOption) (*T, error) {
	o := &getOptions{}
	for _, opt := range opts {
		opt(o)
	}
	k, err := registry.BuildKey(t.schema, key.Hash, key.Range)
	if err != nil {
		return nil, err
	}

	store, release, err := t.client.router.Acquire(ctx, t.schema.TableName)
	if err != nil {
		return nil, err
	}
	defer release()

	item, err := store.GetItem(ctx, t.schema.TableName, k, o.consistent)
	if err != nil {
		return nil, t.client.remote(ctx, "get", t.schema.TableName, "", err)
	}
	if item == nil {
		return nil, nil
	}
	var out T
	if err := t.schema.Plan.Decode(item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Require is Get that reports an absent item as NotFoundError.
func (t *Table[T]) Require(ctx context.Context, key Key, opts ...GetOption) (*T, error) {
	out, err := t.Get(ctx, key, opts...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		k, _ := registry.BuildKey(t.schema, key.Hash, key.Range)
		return nil, errors.NewNotFoundError(t.schema.TableName, registry.DescribeKey(k))
	}
	return out, nil
}

// Put writes record, replacing any item at its key as a whole.
func (t *Table[T]) Put(ctx context.Context, record T, opts ...WriteOption) error {
	o := &writeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	item, err := t.schema.Plan.Encode(record)
	if err != nil {
		return err
	}
	key, err := registry.KeyFromItem(t.schema, item)
	if err != nil {
		return err
	}
	cond, err := t.condition(o)
	if err != nil {
		return err
	}

	store, release, err := t.client.router.Acquire(ctx, t.schema.TableName)
	if err != nil {
		return err
	}
	defer release()

	if err := store.PutItem(ctx, t.schema.TableName, item, cond); err != nil {
		return t.writeError(ctx, "put", key, o, err)
	}
	LogItemWritten(t.client.logger, t.schema.TableName, registry.DescribeKey(key))
	return nil
}

// Delete removes the item at key. Deleting an absent item succeeds unless
// IfExists is given.
func (t *Table[T]) Delete(ctx context.Context, key Key, opts ...WriteOption) error {
	o := &writeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	k, err := registry.BuildKey(t.schema, key.Hash, key.Range)
	if err != nil {
		return err
	}
	cond, err := t.condition(o)
	if err != nil {
		return err
	}

	store, release, err := t.client.router.Acquire(ctx, t.schema.TableName)
	if err != nil {
		return err
	}
	defer release()

	if err := store.DeleteItem(ctx, t.schema.TableName, k, cond); err != nil {
		return t.writeError(ctx, "delete", k, o, err)
	}
	LogItemDeleted(t.client.logger, t.schema.TableName, registry.DescribeKey(k))
	return nil
}

// CreateTable derives the create-table request of the schema and issues
// it.
func (t *Table[T]) CreateTable(ctx context.Context, billing provision.Billing, opts ...provision.Option) error {
	req, err := provision.Derive(t.schema, billing, opts...)
	if err != nil {
		return err
	}

	store, release, err := t.client.router.Acquire(ctx, t.schema.TableName)
	if err != nil {
		return err
	}
	defer release()

	if err := store.CreateTable(ctx, req.Input()); err != nil {
		return t.client.remote(ctx, "create table", t.schema.TableName, "", err)
	}
	LogTableCreated(t.client.logger, req.TableName, len(req.GlobalIndexes), len(req.LocalIndexes))
	return nil
}

func (t *Table[T]) condition(o *writeOptions) (*storagemodels.WriteCondition, error) {
	if o.ifExists && o.ifNotExists {
		return nil, errors.NewValidationError("condition", "IfExists and IfNotExists exclude each other")
	}
	conds := make([]expression.ConditionBuilder, 0, len(o.conds)+1)
	switch {
	case o.ifNotExists:
		conds = append(conds, expression.AttributeNotExists(expression.Name(t.schema.HashKey)))
	case o.ifExists:
		conds = append(conds, expression.AttributeExists(expression.Name(t.schema.HashKey)))
	}
	conds = append(conds, o.conds...)
	if len(conds) == 0 {
		return nil, nil
	}

	cond := conds[0]
	if len(conds) > 1 {
		cond = expression.And(conds[0], conds[1], conds[2:]...)
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, errors.NewValidationError("condition", err.Error())
	}
	return &storagemodels.WriteCondition{
		Expression: *expr.Condition(),
		Names:      expr.Names(),
		Values:     expr.Values(),
	}, nil
}

// writeError maps a failed existence check to AlreadyExistsError or
// NotFoundError when it was the only condition.
func (t *Table[T]) writeError(ctx context.Context, op string, key map[string]types.AttributeValue, o *writeOptions, err error) error {
	if errors.IsConditionFailed(err) {
		switch {
		case o.ifNotExists && len(o.conds) == 0:
			return errors.NewAlreadyExistsError(t.schema.TableName, registry.DescribeKey(key))
		case o.ifExists && len(o.conds) == 0:
			return errors.NewNotFoundError(t.schema.TableName, registry.DescribeKey(key))
		}
		return err
	}
	return t.client.remote(ctx, op, t.schema.TableName, "", err)
}

// remote wraps an item store failure. Context errors and failed conditions
// are returned as they are.
func (c *Client) remote(ctx context.Context, op, table string, cursor storagemodels.Cursor, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.IsConditionFailed(err) || errors.IsTransactionCancelled(err) {
		return err
	}
	LogRemoteFailure(c.logger, op, table, err)
	return &errors.RemoteError{Operation: op, Table: table, Cursor: cursor.String(), Cause: err}
}

// encodedValue hands an attribute already encoded by the codec to the
// expression builder.
type encodedValue struct {
	av types.AttributeValue
}

func (e encodedValue) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return e.av, nil
}

func value(av types.AttributeValue) expression.ValueBuilder {
	return expression.Value(encodedValue{av: av})
}
