/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
)

// Projection describes which attributes a secondary index carries.
type Projection struct {
	Type             types.ProjectionType
	NonKeyAttributes []string
}

// ProjectAll projects every attribute. It is the default.
func ProjectAll() Projection {
	return Projection{Type: types.ProjectionTypeAll}
}

// ProjectKeysOnly projects the table and index keys.
func ProjectKeysOnly() Projection {
	return Projection{Type: types.ProjectionTypeKeysOnly}
}

// ProjectInclude projects the keys plus attrs.
func ProjectInclude(attrs ...string) Projection {
	return Projection{Type: types.ProjectionTypeInclude, NonKeyAttributes: attrs}
}

// IndexDescriptor declares a secondary index. Local indexes share the
// table's hash key and must declare a range key.
type IndexDescriptor struct {
	Name       string
	HashKey    string
	RangeKey   string
	Projection Projection
	Local      bool
}

// Complete reports whether items read through the index carry every
// attribute of the record.
func (d IndexDescriptor) Complete() bool {
	return d.Projection.Type == "" || d.Projection.Type == types.ProjectionTypeAll
}

// TableSchema is the immutable description of a registered table. Key and
// index fields are stored as attribute names.
type TableSchema struct {
	TableName string
	HashKey   string
	RangeKey  string
	Indexes   []IndexDescriptor
	// KeyKinds maps every table and index key attribute to its wire kind.
	KeyKinds map[string]codec.Kind

	// Type and Plan are nil for schemas built from a Definition.
	Type reflect.Type
	Plan *codec.Plan
}

// HasRangeKey reports whether the table declares a range key.
func (s *TableSchema) HasRangeKey() bool {
	return s.RangeKey != ""
}

// Index returns the named index.
func (s *TableSchema) Index(name string) (IndexDescriptor, bool) {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexDescriptor{}, false
}

// KeysFor returns the hash and range attribute of the table, or of the
// named index when index is not empty.
func (s *TableSchema) KeysFor(index string) (hash, rangeKey string, ok bool) {
	if index == "" {
		return s.HashKey, s.RangeKey, true
	}
	idx, found := s.Index(index)
	if !found {
		return "", "", false
	}
	return idx.HashKey, idx.RangeKey, true
}

// KeyAttributes lists the attributes that identify an item's position in
// the table or index: the table keys followed by the index keys.
func (s *TableSchema) KeyAttributes(index string) []string {
	attrs := []string{s.HashKey}
	if s.RangeKey != "" {
		attrs = append(attrs, s.RangeKey)
	}
	if index == "" {
		return attrs
	}
	idx, ok := s.Index(index)
	if !ok {
		return attrs
	}
	for _, a := range []string{idx.HashKey, idx.RangeKey} {
		if a != "" && !contains(attrs, a) {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
