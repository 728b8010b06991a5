/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/registry"
	"github.com/suparena/itemstore/storagemodels"
)

type rangeOp int

const (
	opEq rangeOp = iota + 1
	opLt
	opLe
	opGt
	opGe
	opBetween
	opBeginsWith
)

// RangeCond is a predicate on the range key of the table or index being
// queried. Values are encoded the way the range key field is encoded.
type RangeCond struct {
	op     rangeOp
	values []any
	prefix string
	// times marks values built by the time helpers; they are converted to
	// the field's representation when the query is built.
	times bool
}

// Eq matches range keys equal to v.
func Eq(v any) RangeCond { return RangeCond{op: opEq, values: []any{v}} }

// Lt matches range keys below v.
func Lt(v any) RangeCond { return RangeCond{op: opLt, values: []any{v}} }

// Le matches range keys up to and including v.
func Le(v any) RangeCond { return RangeCond{op: opLe, values: []any{v}} }

// Gt matches range keys above v.
func Gt(v any) RangeCond { return RangeCond{op: opGt, values: []any{v}} }

// Ge matches range keys from v on.
func Ge(v any) RangeCond { return RangeCond{op: opGe, values: []any{v}} }

// Between matches range keys in [lo, hi].
func Between(lo, hi any) RangeCond { return RangeCond{op: opBetween, values: []any{lo, hi}} }

// BeginsWith matches string range keys starting with prefix. The prefix is
// used verbatim.
func BeginsWith(prefix string) RangeCond { return RangeCond{op: opBeginsWith, prefix: prefix} }

// Query is a lazily executed query or scan over the table of T. Builder
// methods modify and return the receiver.
type Query[T any] struct {
	table      *Table[T]
	scan       bool
	hash       any
	index      string
	rng        *RangeCond
	where      *expression.KeyConditionBuilder
	filter     *expression.ConditionBuilder
	limit      *int32
	reverse    bool
	consistent bool
	start      storagemodels.Cursor
}

// Query starts a query for the items whose hash key, of the table or of
// the index chosen with Index, equals hash.
func (t *Table[T]) Query(hash any) *Query[T] {
	return &Query[T]{table: t, hash: hash}
}

// Scan starts a scan of the table or of the index chosen with Index.
func (t *Table[T]) Scan() *Query[T] {
	return &Query[T]{table: t, scan: true}
}

// Index reads the named secondary index.
func (q *Query[T]) Index(name string) *Query[T] {
	q.index = name
	return q
}

// Range restricts the range key.
func (q *Query[T]) Range(c RangeCond) *Query[T] {
	q.rng = &c
	return q
}

// Where restricts the range key with a condition built by the caller. It
// is ANDed with the hash key condition.
func (q *Query[T]) Where(c expression.KeyConditionBuilder) *Query[T] {
	q.where = &c
	return q
}

// Filter adds a filter applied by the store after the key condition.
// Several filters are combined with AND.
func (q *Query[T]) Filter(c expression.ConditionBuilder) *Query[T] {
	if q.filter == nil {
		q.filter = &c
	} else {
		combined := q.filter.And(c)
		q.filter = &combined
	}
	return q
}

// Limit caps the items the store evaluates per page.
func (q *Query[T]) Limit(n int32) *Query[T] {
	q.limit = aws.Int32(n)
	return q
}

// Reverse reads the range key in descending order.
func (q *Query[T]) Reverse() *Query[T] {
	q.reverse = true
	return q
}

// Consistent requests strongly consistent reads.
func (q *Query[T]) Consistent() *Query[T] {
	q.consistent = true
	return q
}

// StartFrom resumes after the position recorded by c. The zero Cursor
// starts from the beginning.
func (q *Query[T]) StartFrom(c storagemodels.Cursor) *Query[T] {
	q.start = c
	return q
}

// Params validates the query and builds the request of its first page.
// Nothing is sent to the store.
func (q *Query[T]) Params() (*storagemodels.QueryParams, error) {
	s := q.table.schema
	hashAttr, rangeAttr, ok := s.KeysFor(q.index)
	if !ok {
		return nil, errors.NewSchemaError(s.TableName, "", fmt.Sprintf("unknown index %q", q.index))
	}
	if q.limit != nil && *q.limit <= 0 {
		return nil, errors.NewValidationError("limit", "limit must be positive")
	}

	params := &storagemodels.QueryParams{TableName: s.TableName, Limit: q.limit}
	if q.index != "" {
		params.IndexName = aws.String(q.index)
	}
	if q.consistent {
		params.ConsistentRead = aws.Bool(true)
	}

	builder := expression.NewBuilder()
	if q.scan {
		if q.rng != nil || q.where != nil || q.reverse {
			return nil, errors.NewValidationError("scan", "scans take no key condition or order")
		}
	} else {
		keyCond, err := q.keyCondition(hashAttr, rangeAttr)
		if err != nil {
			return nil, err
		}
		builder = builder.WithKeyCondition(keyCond)
		if q.reverse {
			params.ScanIndexForward = aws.Bool(false)
		}
	}
	if q.filter != nil {
		builder = builder.WithFilter(*q.filter)
	}
	if !q.scan || q.filter != nil {
		expr, err := builder.Build()
		if err != nil {
			return nil, errors.NewValidationError("expression", err.Error())
		}
		params.KeyConditionExpression = expr.KeyCondition()
		params.FilterExpression = expr.Filter()
		params.ExpressionAttributeNames = expr.Names()
		params.ExpressionAttributeValues = expr.Values()
	}

	start, err := q.start.Key()
	if err != nil {
		return nil, errors.NewValidationError("cursor", err.Error())
	}
	if start != nil {
		if err := registry.CheckStartKey(s, q.index, start); err != nil {
			return nil, err
		}
		params.ExclusiveStartKey = start
	}
	return params, nil
}

func (q *Query[T]) keyCondition(hashAttr, rangeAttr string) (expression.KeyConditionBuilder, error) {
	s := q.table.schema
	hv, err := registry.EncodeKeyValue(s, hashAttr, q.hash)
	if err != nil {
		return expression.KeyConditionBuilder{}, err
	}
	cond := expression.Key(hashAttr).Equal(value(hv))

	if q.rng == nil && q.where == nil {
		return cond, nil
	}
	if q.rng != nil && q.where != nil {
		return expression.KeyConditionBuilder{}, errors.NewValidationError("range", "Range and Where exclude each other")
	}
	if rangeAttr == "" {
		return expression.KeyConditionBuilder{}, errors.NewKeyError(s.TableName, "", "no range key to restrict")
	}
	if q.where != nil {
		return cond.And(*q.where), nil
	}
	rc, err := q.rangeCondition(rangeAttr)
	if err != nil {
		return expression.KeyConditionBuilder{}, err
	}
	return cond.And(rc), nil
}

func (q *Query[T]) rangeCondition(attr string) (expression.KeyConditionBuilder, error) {
	s := q.table.schema
	c := q.rng
	key := expression.Key(attr)
	if c.op == opBeginsWith {
		if s.KeyKinds[attr] != codec.KindString {
			return expression.KeyConditionBuilder{}, errors.NewKeyError(s.TableName, attr, "begins_with needs a string range key")
		}
		if c.prefix == "" {
			return expression.KeyConditionBuilder{}, errors.NewKeyError(s.TableName, attr, "prefix is empty")
		}
		return key.BeginsWith(c.prefix), nil
	}

	vals := make([]expression.ValueBuilder, len(c.values))
	for i, v := range c.values {
		if c.times {
			v = timeValue(s, attr, v)
		}
		av, err := registry.EncodeKeyValue(s, attr, v)
		if err != nil {
			return expression.KeyConditionBuilder{}, err
		}
		vals[i] = value(av)
	}
	switch c.op {
	case opEq:
		return key.Equal(vals[0]), nil
	case opLt:
		return key.LessThan(vals[0]), nil
	case opLe:
		return key.LessThanEqual(vals[0]), nil
	case opGt:
		return key.GreaterThan(vals[0]), nil
	case opGe:
		return key.GreaterThanEqual(vals[0]), nil
	case opBetween:
		return key.Between(vals[0], vals[1]), nil
	}
	return expression.KeyConditionBuilder{}, errors.NewValidationError("range", "empty range condition")
}

// decoder reconstructs items read through the query's table or index.
// Items of indexes that do not project every attribute are decoded
// partially.
func (q *Query[T]) decoder() func(map[string]types.AttributeValue) (T, error) {
	plan := q.table.schema.Plan
	partial := false
	if idx, ok := q.table.schema.Index(q.index); ok && !idx.Complete() {
		partial = true
	}
	return func(item map[string]types.AttributeValue) (T, error) {
		var out T
		var err error
		if partial {
			err = plan.DecodePartial(item, &out)
		} else {
			err = plan.Decode(item, &out)
		}
		return out, err
	}
}

// Pages returns a page-level iterator.
func (q *Query[T]) Pages(ctx context.Context) *Pager[T] {
	return newPager(ctx, q)
}

// Iter returns an item-level iterator.
func (q *Query[T]) Iter(ctx context.Context) *Iterator[T] {
	return newIterator(ctx, q)
}

// All runs the query to completion.
func (q *Query[T]) All(ctx context.Context) ([]T, error) {
	return Collect(q.Iter(ctx))
}

// First returns the first matching item, or nil when none matches.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	it := q.Iter(ctx)
	defer it.Close()
	if it.Next() {
		item := it.Item()
		return &item, nil
	}
	return nil, it.Err()
}
