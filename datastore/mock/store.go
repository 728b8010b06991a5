/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
)

// Operation names passed to hooks.
const (
	OpPut         = "put"
	OpGet         = "get"
	OpDelete      = "delete"
	OpQuery       = "query"
	OpScan        = "scan"
	OpCreateTable = "create_table"
)

// Call describes one store call seen by a Hook. N counts calls of the same
// operation, starting at 1.
type Call struct {
	Op     string
	Table  string
	N      int
	Params *storagemodels.QueryParams
}

// Hook runs before every call. A non-nil error is returned in place of the
// call's result.
type Hook func(Call) error

// Store is an in-memory datastore.ItemStore. Tables must be created first.
// Query and Scan follow DynamoDB paging: Limit counts evaluated items before
// the filter, and a page that stops on the limit carries a LastEvaluatedKey
// even when nothing follows it.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
	calls  map[string]int
	hooks  []Hook
}

var _ datastore.ItemStore = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		tables: make(map[string]*table),
		calls:  make(map[string]int),
	}
}

// WithHook registers h to run before every call.
func (m *Store) WithHook(h Hook) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
	return m
}

// FailNth makes the n-th call of op return err.
func (m *Store) FailNth(op string, n int, err error) *Store {
	return m.WithHook(func(c Call) error {
		if c.Op == op && c.N == n {
			return err
		}
		return nil
	})
}

// Calls returns how many times op was called.
func (m *Store) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Items returns a snapshot of a table's items in primary key order.
func (m *Store) Items(tableName string) []Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[tableName]
	if !ok {
		return nil
	}
	items := t.sorted(t.scanOrder(nil))
	for i, it := range items {
		items[i] = maps.Clone(it)
	}
	return items
}

func (m *Store) enter(ctx context.Context, op, tableName string, params *storagemodels.QueryParams) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.calls[op]++
	call := Call{Op: op, Table: tableName, N: m.calls[op], Params: params}
	hooks := slices.Clone(m.hooks)
	m.mu.Unlock()

	for _, h := range hooks {
		if err := h(call); err != nil {
			return err
		}
	}
	return nil
}

func (m *Store) table(name string) (*table, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, &errors.TableNotFoundError{Table: name}
	}
	return t, nil
}

// CreateTable registers the key schema and indexes of input.
func (m *Store) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	name := aws.ToString(input.TableName)
	if err := m.enter(ctx, OpCreateTable, name, nil); err != nil {
		return err
	}
	t, err := newTable(input)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tables[name]; exists {
		return &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	m.tables[name] = t
	return nil
}

// PutItem stores a copy of item.
func (m *Store) PutItem(ctx context.Context, tableName string, item map[string]types.AttributeValue, cond *storagemodels.WriteCondition) error {
	if err := m.enter(ctx, OpPut, tableName, nil); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(tableName)
	if err != nil {
		return err
	}
	id, err := t.itemID(item, false)
	if err != nil {
		return err
	}
	if err := checkCondition(OpPut, cond, t.items[id]); err != nil {
		return err
	}
	t.items[id] = maps.Clone(item)
	return nil
}

// GetItem returns a copy of the item, or nil when absent.
func (m *Store) GetItem(ctx context.Context, tableName string, key map[string]types.AttributeValue, _ bool) (map[string]types.AttributeValue, error) {
	if err := m.enter(ctx, OpGet, tableName, nil); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table(tableName)
	if err != nil {
		return nil, err
	}
	id, err := t.itemID(key, true)
	if err != nil {
		return nil, err
	}
	item, ok := t.items[id]
	if !ok {
		return nil, nil
	}
	return maps.Clone(item), nil
}

// DeleteItem removes the item with key if cond holds.
func (m *Store) DeleteItem(ctx context.Context, tableName string, key map[string]types.AttributeValue, cond *storagemodels.WriteCondition) error {
	if err := m.enter(ctx, OpDelete, tableName, nil); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.table(tableName)
	if err != nil {
		return err
	}
	id, err := t.itemID(key, true)
	if err != nil {
		return err
	}
	if err := checkCondition(OpDelete, cond, t.items[id]); err != nil {
		return err
	}
	delete(t.items, id)
	return nil
}

func checkCondition(op string, cond *storagemodels.WriteCondition, existing Item) error {
	if cond == nil {
		return nil
	}
	c, err := parseCondition(cond.Expression, cond.Names, cond.Values)
	if err != nil {
		return errors.NewValidationError("ConditionExpression", err.Error())
	}
	if existing == nil {
		existing = Item{}
	}
	if !c.eval(existing) {
		return errors.NewConditionFailedError(op, cond.Expression, nil)
	}
	return nil
}

// Query returns one page of items matching the key condition.
func (m *Store) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.PageOutput, error) {
	if err := m.enter(ctx, OpQuery, params.TableName, params); err != nil {
		return nil, err
	}
	if params.KeyConditionExpression == nil {
		return nil, errors.NewValidationError("KeyConditionExpression", "query needs a key condition")
	}
	return m.read(params, false)
}

// Scan returns one page of all items of the table or index.
func (m *Store) Scan(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.PageOutput, error) {
	if err := m.enter(ctx, OpScan, params.TableName, params); err != nil {
		return nil, err
	}
	return m.read(params, true)
}

func (m *Store) read(params *storagemodels.QueryParams, scan bool) (*storagemodels.PageOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, err := m.table(params.TableName)
	if err != nil {
		return nil, err
	}
	src, err := t.source(aws.ToString(params.IndexName))
	if err != nil {
		return nil, err
	}
	if src.global && aws.ToBool(params.ConsistentRead) {
		return nil, errors.NewValidationError("ConsistentRead", "consistent reads are not supported on global secondary indexes")
	}
	if params.Limit != nil && *params.Limit <= 0 {
		return nil, errors.NewValidationError("Limit", "limit must be positive")
	}

	var keyCond, filter condition
	if !scan {
		if keyCond, err = parseCondition(*params.KeyConditionExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
			return nil, errors.NewValidationError("KeyConditionExpression", err.Error())
		}
	}
	if params.FilterExpression != nil {
		if filter, err = parseCondition(*params.FilterExpression, params.ExpressionAttributeNames, params.ExpressionAttributeValues); err != nil {
			return nil, errors.NewValidationError("FilterExpression", err.Error())
		}
	}
	var projection []string
	if params.ProjectionExpression != nil {
		if projection, err = parseProjection(*params.ProjectionExpression, params.ExpressionAttributeNames); err != nil {
			return nil, errors.NewValidationError("ProjectionExpression", err.Error())
		}
	}

	order := t.scanOrder(src)
	if !scan {
		order = t.queryOrder(src)
	}
	reverse := !scan && params.ScanIndexForward != nil && !*params.ScanIndexForward

	var candidates []Item
	for _, it := range t.sorted(order) {
		if !src.holds(it) {
			continue
		}
		if keyCond != nil && !keyCond.eval(it) {
			continue
		}
		candidates = append(candidates, it)
	}
	if reverse {
		slices.Reverse(candidates)
	}

	if start := params.ExclusiveStartKey; len(start) > 0 {
		if err := t.checkStartKey(src, start); err != nil {
			return nil, err
		}
		kept := candidates[:0:0]
		for _, it := range candidates {
			c := compareBy(order, it, start)
			if (!reverse && c > 0) || (reverse && c < 0) {
				kept = append(kept, it)
			}
		}
		candidates = kept
	}

	out := &storagemodels.PageOutput{}
	var last Item
	for _, it := range candidates {
		if params.Limit != nil && out.ScannedCount == *params.Limit {
			break
		}
		out.ScannedCount++
		last = it
		if filter != nil && !filter.eval(it) {
			continue
		}
		out.Items = append(out.Items, t.project(src, it, projection))
	}
	out.Count = int32(len(out.Items))
	if params.Limit != nil && out.ScannedCount == *params.Limit && last != nil {
		out.LastEvaluatedKey = t.positionKey(src, last)
	}
	return out, nil
}

// table is the state of one created table.
type table struct {
	name      string
	hash      string
	rng       string
	attrTypes map[string]types.ScalarAttributeType
	indexes   map[string]*source
	items     map[string]Item
}

// source is the table itself (name "") or one of its indexes.
type source struct {
	name       string
	hash       string
	rng        string
	global     bool
	projection types.Projection
}

func newTable(input *dynamodb.CreateTableInput) (*table, error) {
	t := &table{
		name:      aws.ToString(input.TableName),
		attrTypes: make(map[string]types.ScalarAttributeType),
		indexes:   make(map[string]*source),
		items:     make(map[string]Item),
	}
	if t.name == "" {
		return nil, errors.NewValidationError("TableName", "table name is required")
	}
	for _, d := range input.AttributeDefinitions {
		t.attrTypes[aws.ToString(d.AttributeName)] = d.AttributeType
	}

	var err error
	if t.hash, t.rng, err = t.keySchema(input.KeySchema); err != nil {
		return nil, err
	}
	for _, g := range input.GlobalSecondaryIndexes {
		src := &source{name: aws.ToString(g.IndexName), global: true}
		if g.Projection != nil {
			src.projection = *g.Projection
		}
		if src.hash, src.rng, err = t.keySchema(g.KeySchema); err != nil {
			return nil, err
		}
		t.indexes[src.name] = src
	}
	for _, l := range input.LocalSecondaryIndexes {
		src := &source{name: aws.ToString(l.IndexName)}
		if l.Projection != nil {
			src.projection = *l.Projection
		}
		if src.hash, src.rng, err = t.keySchema(l.KeySchema); err != nil {
			return nil, err
		}
		if src.hash != t.hash || src.rng == "" {
			return nil, errors.NewValidationError("LocalSecondaryIndexes", fmt.Sprintf("index %s must use the table hash key and a range key", src.name))
		}
		t.indexes[src.name] = src
	}
	return t, nil
}

func (t *table) keySchema(elems []types.KeySchemaElement) (hash, rng string, err error) {
	for _, e := range elems {
		name := aws.ToString(e.AttributeName)
		if _, ok := t.attrTypes[name]; !ok {
			return "", "", errors.NewValidationError("AttributeDefinitions", fmt.Sprintf("key attribute %s has no definition", name))
		}
		switch e.KeyType {
		case types.KeyTypeHash:
			hash = name
		case types.KeyTypeRange:
			rng = name
		}
	}
	if hash == "" {
		return "", "", errors.NewValidationError("KeySchema", "hash key is required")
	}
	return hash, rng, nil
}

func (t *table) source(index string) (*source, error) {
	if index == "" {
		return &source{hash: t.hash, rng: t.rng}, nil
	}
	src, ok := t.indexes[index]
	if !ok {
		return nil, errors.NewValidationError("IndexName", fmt.Sprintf("table %s has no index %s", t.name, index))
	}
	return src, nil
}

// holds reports whether item appears in src; indexes are sparse.
func (s *source) holds(item Item) bool {
	if s.name == "" {
		return true
	}
	if _, ok := item[s.hash]; !ok {
		return false
	}
	if s.rng != "" {
		if _, ok := item[s.rng]; !ok {
			return false
		}
	}
	return true
}

func (t *table) primaryAttrs() []string {
	if t.rng == "" {
		return []string{t.hash}
	}
	return []string{t.hash, t.rng}
}

// itemID validates the primary key attributes of item and returns the map
// key used for storage. exact rejects extra attributes.
func (t *table) itemID(item Item, exact bool) (string, error) {
	attrs := t.primaryAttrs()
	if exact && len(item) != len(attrs) {
		return "", errors.NewValidationError("Key", fmt.Sprintf("key must hold exactly %v", attrs))
	}
	key := make(Item, len(attrs))
	for _, a := range attrs {
		av, ok := item[a]
		if !ok {
			return "", errors.NewValidationError(a, "missing key attribute")
		}
		if err := t.checkKeyValue(a, av); err != nil {
			return "", err
		}
		// numerically equal N keys address the same item
		if n, ok := av.(*types.AttributeValueMemberN); ok {
			av = &types.AttributeValueMemberN{Value: codec.CanonicalNumber(n.Value)}
		}
		key[a] = av
	}
	data, err := codec.MarshalItemJSON(key)
	if err != nil {
		return "", errors.NewValidationError("Key", err.Error())
	}
	return string(data), nil
}

func (t *table) checkKeyValue(attr string, av types.AttributeValue) error {
	want := string(t.attrTypes[attr])
	if got := codec.Variant(av); got != want {
		return errors.NewValidationError(attr, fmt.Sprintf("key attribute type %s does not match schema type %s", got, want))
	}
	if text, raw, _ := codec.ScalarText(av); text == "" && len(raw) == 0 {
		return errors.NewValidationError(attr, "key attribute value is empty")
	}
	return nil
}

// positionAttrs are the attributes that identify an item's position in src.
func (t *table) positionAttrs(src *source) []string {
	attrs := t.primaryAttrs()
	for _, a := range []string{src.hash, src.rng} {
		if a != "" && !slices.Contains(attrs, a) {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func (t *table) positionKey(src *source, item Item) Item {
	attrs := t.positionAttrs(src)
	key := make(Item, len(attrs))
	for _, a := range attrs {
		key[a] = item[a]
	}
	return key
}

func (t *table) checkStartKey(src *source, start Item) error {
	attrs := t.positionAttrs(src)
	if len(start) != len(attrs) {
		return errors.NewValidationError("ExclusiveStartKey", fmt.Sprintf("start key must hold exactly %v", attrs))
	}
	for _, a := range attrs {
		av, ok := start[a]
		if !ok {
			return errors.NewValidationError("ExclusiveStartKey", "missing "+a)
		}
		if err := t.checkKeyValue(a, av); err != nil {
			return err
		}
	}
	return nil
}

// queryOrder sorts by the source range key with the primary key breaking
// ties.
func (t *table) queryOrder(src *source) []string {
	return dedupe([]string{src.rng, t.hash, t.rng})
}

func (t *table) scanOrder(src *source) []string {
	if src == nil {
		return dedupe([]string{t.hash, t.rng})
	}
	return dedupe([]string{src.hash, src.rng, t.hash, t.rng})
}

func dedupe(attrs []string) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if a != "" && !slices.Contains(out, a) {
			out = append(out, a)
		}
	}
	return out
}

func (t *table) sorted(order []string) []Item {
	items := make([]Item, 0, len(t.items))
	for _, it := range t.items {
		items = append(items, it)
	}
	slices.SortFunc(items, func(a, b Item) int { return compareBy(order, a, b) })
	return items
}

// compareBy orders two items attribute by attribute; a missing attribute
// sorts first.
func compareBy(order []string, a, b Item) int {
	for _, attr := range order {
		x, y := a[attr], b[attr]
		switch {
		case x == nil && y == nil:
			continue
		case x == nil:
			return -1
		case y == nil:
			return 1
		}
		if n, ok := compare(x, y); ok && n != 0 {
			return n
		}
	}
	return 0
}

// project applies the index projection and then the projection expression.
func (t *table) project(src *source, item Item, attrs []string) Item {
	out := item
	switch src.projection.ProjectionType {
	case types.ProjectionTypeKeysOnly, types.ProjectionTypeInclude:
		out = t.positionKey(src, item)
		if src.projection.ProjectionType == types.ProjectionTypeInclude {
			for _, a := range src.projection.NonKeyAttributes {
				if av, ok := item[a]; ok {
					out[a] = av
				}
			}
		}
	}
	if len(attrs) > 0 {
		picked := make(Item, len(attrs))
		for _, a := range attrs {
			if av, ok := out[a]; ok {
				picked[a] = av
			}
		}
		return picked
	}
	return maps.Clone(out)
}
