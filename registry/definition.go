/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/codec"
	"github.com/suparena/itemstore/errors"
)

// AttributeDefinition names a key attribute and its wire type.
type AttributeDefinition struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required,oneof=S N B"`
}

// IndexDefinition is the declarative form of an IndexDescriptor. Local
// indexes may omit the hash key.
type IndexDefinition struct {
	Name             string               `yaml:"name" validate:"required"`
	HashKey          *AttributeDefinition `yaml:"hash_key"`
	RangeKey         *AttributeDefinition `yaml:"range_key"`
	Local            bool                 `yaml:"local"`
	Projection       string               `yaml:"projection" validate:"omitempty,oneof=ALL KEYS_ONLY INCLUDE"`
	NonKeyAttributes []string             `yaml:"non_key_attributes"`
}

// Definition declares a table without a Go record type.
type Definition struct {
	Table    string               `yaml:"table" validate:"required"`
	HashKey  AttributeDefinition  `yaml:"hash_key"`
	RangeKey *AttributeDefinition `yaml:"range_key"`
	Indexes  []IndexDefinition    `yaml:"indexes" validate:"dive"`
}

// SchemaFromDefinition builds a TableSchema from a Definition.
func SchemaFromDefinition(def Definition) (*TableSchema, error) {
	s := &TableSchema{TableName: def.Table, KeyKinds: map[string]codec.Kind{}}

	add := func(a *AttributeDefinition, role string) (string, error) {
		kind, ok := parseKind(a.Type)
		if !ok {
			return "", errors.NewSchemaError(def.Table, a.Name, fmt.Sprintf("%s type %q is not S, N or B", role, a.Type))
		}
		if a.Name == "" {
			return "", errors.NewSchemaError(def.Table, "", role+" needs a name")
		}
		if err := s.addKeyKind(a.Name, kind, role); err != nil {
			return "", err
		}
		return a.Name, nil
	}

	var err error
	if s.HashKey, err = add(&def.HashKey, "hash key"); err != nil {
		return nil, err
	}
	if def.RangeKey != nil {
		if s.RangeKey, err = add(def.RangeKey, "range key"); err != nil {
			return nil, err
		}
	}
	for _, id := range def.Indexes {
		idx := IndexDescriptor{
			Name:  id.Name,
			Local: id.Local,
			Projection: Projection{
				Type:             types.ProjectionType(id.Projection),
				NonKeyAttributes: id.NonKeyAttributes,
			},
		}
		switch {
		case id.HashKey != nil:
			if idx.HashKey, err = add(id.HashKey, "index "+id.Name+" hash key"); err != nil {
				return nil, err
			}
		case id.Local:
			idx.HashKey = s.HashKey
		default:
			return nil, errors.NewSchemaError(def.Table, "", fmt.Sprintf("index %q needs a hash key", id.Name))
		}
		if id.RangeKey != nil {
			if idx.RangeKey, err = add(id.RangeKey, "index "+id.Name+" range key"); err != nil {
				return nil, err
			}
		}
		s.Indexes = append(s.Indexes, idx)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseKind(t string) (codec.Kind, bool) {
	switch t {
	case "S":
		return codec.KindString, true
	case "N":
		return codec.KindNumber, true
	case "B":
		return codec.KindBinary, true
	}
	return codec.KindInvalid, false
}
