/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/errors"
)

// Registry holds one TableSchema per record type and per table name.
// Schemas are never replaced once registered.
type Registry struct {
	mu      sync.RWMutex
	byType  map[reflect.Type]*TableSchema
	byTable map[string]*TableSchema
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byType:  make(map[reflect.Type]*TableSchema),
		byTable: make(map[string]*TableSchema),
	}
}

type registerOptions struct {
	rangeKey  string
	indexes   []IndexDescriptor
	codecOpts []codec.Option
}

// Option configures Register.
type Option func(*registerOptions)

// WithRangeKey names the range key field.
func WithRangeKey(field string) Option {
	return func(o *registerOptions) { o.rangeKey = field }
}

// WithIndex declares a secondary index. Index key fields may be given as Go
// field names or attribute names.
func WithIndex(idx IndexDescriptor) Option {
	return func(o *registerOptions) { o.indexes = append(o.indexes, idx) }
}

// WithSerializer binds a serializer to one field.
func WithSerializer(field string, s codec.Serializer) Option {
	return func(o *registerOptions) {
		o.codecOpts = append(o.codecOpts, codec.WithFieldSerializer(field, s))
	}
}

// WithTypeSerializer adds serializers for every field of their type.
func WithTypeSerializer(s ...codec.Serializer) Option {
	return func(o *registerOptions) {
		o.codecOpts = append(o.codecOpts, codec.WithSerializers(s...))
	}
}

// WithNaming sets how untagged fields are named on the wire.
func WithNaming(n codec.Naming) Option {
	return func(o *registerOptions) {
		o.codecOpts = append(o.codecOpts, codec.WithNaming(n))
	}
}

// Register compiles T and records its schema under table.
func Register[T any](r *Registry, table, hashKey string, opts ...Option) (*TableSchema, error) {
	return r.RegisterType(reflect.TypeOf((*T)(nil)).Elem(), table, hashKey, opts...)
}

// MustRegister is Register that panics, for package initialisation.
func MustRegister[T any](r *Registry, table, hashKey string, opts ...Option) *TableSchema {
	s, err := Register[T](r, table, hashKey, opts...)
	if err != nil {
		panic(fmt.Sprintf("registry: %v", err))
	}
	return s
}

// Lookup returns the schema registered for T.
func Lookup[T any](r *Registry) (*TableSchema, error) {
	return r.LookupType(reflect.TypeOf((*T)(nil)).Elem())
}

// RegisterType is Register for a reflect.Type.
func (r *Registry) RegisterType(t reflect.Type, table, hashKey string, opts ...Option) (*TableSchema, error) {
	o := &registerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if err := validTableName(table); err != nil {
		return nil, err
	}
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	plan, err := codec.Compile(t, o.codecOpts...)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", table, err)
	}

	s := &TableSchema{TableName: table, KeyKinds: map[string]codec.Kind{}, Type: plan.Type(), Plan: plan}
	resolve := func(field, role string) (string, error) {
		f, ok := plan.Field(field)
		if !ok {
			return "", errors.NewSchemaError(table, field, role+" is not a field of "+plan.Type().String())
		}
		if f.Nullable {
			return "", errors.NewSchemaError(table, field, role+" cannot be Nullable")
		}
		if err := s.addKeyKind(f.Name, f.Kind, role); err != nil {
			return "", err
		}
		return f.Name, nil
	}

	if hashKey == "" {
		return nil, errors.NewSchemaError(table, "", "hash key is required")
	}
	if s.HashKey, err = resolve(hashKey, "hash key"); err != nil {
		return nil, err
	}
	if o.rangeKey != "" {
		if s.RangeKey, err = resolve(o.rangeKey, "range key"); err != nil {
			return nil, err
		}
	}
	for _, idx := range o.indexes {
		if idx.HashKey == "" && idx.Local {
			idx.HashKey = s.HashKey
		}
		if idx.HashKey == "" {
			return nil, errors.NewSchemaError(table, "", fmt.Sprintf("index %q needs a hash key", idx.Name))
		}
		if idx.HashKey, err = resolve(idx.HashKey, "index "+idx.Name+" hash key"); err != nil {
			return nil, err
		}
		if idx.RangeKey != "" {
			if idx.RangeKey, err = resolve(idx.RangeKey, "index "+idx.Name+" range key"); err != nil {
				return nil, err
			}
		}
		s.Indexes = append(s.Indexes, idx)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	if err := r.add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Add registers a schema built elsewhere, e.g. by SchemaFromDefinition.
func (r *Registry) Add(s *TableSchema) error {
	if err := s.validate(); err != nil {
		return err
	}
	return r.add(s)
}

func (r *Registry) add(s *TableSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byTable[s.TableName]; exists {
		return errors.NewSchemaError(s.TableName, "", "table already registered")
	}
	if s.Type != nil {
		if prev, exists := r.byType[s.Type]; exists {
			return errors.NewSchemaError(s.TableName, "", fmt.Sprintf("type %s already registered for table %s", s.Type, prev.TableName))
		}
		r.byType[s.Type] = s
	}
	r.byTable[s.TableName] = s
	return nil
}

// LookupType returns the schema registered for t.
func (r *Registry) LookupType(t reflect.Type) (*TableSchema, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byType[t]
	if !ok {
		return nil, &errors.ConfigError{Type: fmt.Sprint(t)}
	}
	return s, nil
}

// Table returns the schema registered under a table name.
func (r *Registry) Table(name string) (*TableSchema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byTable[name]
	return s, ok
}

// Tables returns all schemas ordered by table name.
func (r *Registry) Tables() []*TableSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*TableSchema, 0, len(r.byTable))
	for _, s := range r.byTable {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TableName < out[j].TableName })
	return out
}

func (s *TableSchema) addKeyKind(attr string, kind codec.Kind, role string) error {
	if !kind.Keyable() {
		return errors.NewSchemaError(s.TableName, attr, fmt.Sprintf("%s must encode as S, N or B, not %s", role, kind))
	}
	if prev, ok := s.KeyKinds[attr]; ok && prev != kind {
		return errors.NewSchemaError(s.TableName, attr, fmt.Sprintf("%s is used as both %s and %s", attr, prev, kind))
	}
	s.KeyKinds[attr] = kind
	return nil
}

// validate checks the structural rules shared by typed and definition
// schemas.
func (s *TableSchema) validate() error {
	if err := validTableName(s.TableName); err != nil {
		return err
	}
	if s.HashKey == "" {
		return errors.NewSchemaError(s.TableName, "", "hash key is required")
	}
	if s.RangeKey == s.HashKey {
		return errors.NewSchemaError(s.TableName, s.RangeKey, "range key must differ from hash key")
	}
	for _, attr := range []string{s.HashKey, s.RangeKey} {
		if attr == "" {
			continue
		}
		if !s.KeyKinds[attr].Keyable() {
			return errors.NewSchemaError(s.TableName, attr, "key attribute has no S, N or B kind")
		}
	}

	seen := map[string]bool{}
	for _, idx := range s.Indexes {
		if idx.Name == "" {
			return errors.NewSchemaError(s.TableName, "", "index name is required")
		}
		if seen[idx.Name] {
			return errors.NewSchemaError(s.TableName, "", fmt.Sprintf("duplicate index name %q", idx.Name))
		}
		seen[idx.Name] = true

		if idx.Local {
			if idx.HashKey != s.HashKey {
				return errors.NewSchemaError(s.TableName, idx.HashKey, fmt.Sprintf("local index %q must use the table hash key", idx.Name))
			}
			if idx.RangeKey == "" {
				return errors.NewSchemaError(s.TableName, "", fmt.Sprintf("local index %q needs a range key", idx.Name))
			}
		}
		if idx.RangeKey != "" && idx.RangeKey == idx.HashKey {
			return errors.NewSchemaError(s.TableName, idx.RangeKey, fmt.Sprintf("index %q range key must differ from its hash key", idx.Name))
		}
		for _, attr := range []string{idx.HashKey, idx.RangeKey} {
			if attr != "" && !s.KeyKinds[attr].Keyable() {
				return errors.NewSchemaError(s.TableName, attr, fmt.Sprintf("index %q key attribute has no S, N or B kind", idx.Name))
			}
		}
		switch idx.Projection.Type {
		case "", types.ProjectionTypeAll, types.ProjectionTypeKeysOnly:
			if len(idx.Projection.NonKeyAttributes) > 0 {
				return errors.NewSchemaError(s.TableName, "", fmt.Sprintf("index %q lists attributes without an INCLUDE projection", idx.Name))
			}
		case types.ProjectionTypeInclude:
			if len(idx.Projection.NonKeyAttributes) == 0 {
				return errors.NewSchemaError(s.TableName, "", fmt.Sprintf("index %q INCLUDE projection lists no attributes", idx.Name))
			}
		default:
			return errors.NewSchemaError(s.TableName, "", fmt.Sprintf("index %q has unknown projection %q", idx.Name, idx.Projection.Type))
		}
	}
	return nil
}

// validTableName applies the store's naming rule: 3 to 255 characters of
// letters, digits, underscore, hyphen and dot.
func validTableName(name string) error {
	if len(name) < 3 || len(name) > 255 {
		return errors.NewSchemaError(name, "", "table name must be 3 to 255 characters")
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-', c == '.':
		default:
			return errors.NewSchemaError(name, "", fmt.Sprintf("table name has invalid character %q", c))
		}
	}
	return nil
}
