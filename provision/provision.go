/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package provision

import (
	"fmt"
	"slices"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/registry"
)

// Billing is the capacity mode of a new table. Read and Write apply to
// provisioned tables and their global indexes.
type Billing struct {
	Mode  types.BillingMode
	Read  int64
	Write int64
}

// PayPerRequest is on-demand billing.
func PayPerRequest() Billing {
	return Billing{Mode: types.BillingModePayPerRequest}
}

// Provisioned is fixed capacity billing.
func Provisioned(read, write int64) Billing {
	return Billing{Mode: types.BillingModeProvisioned, Read: read, Write: write}
}

func (b Billing) throughput() *types.ProvisionedThroughput {
	if b.Mode != types.BillingModeProvisioned {
		return nil
	}
	return &types.ProvisionedThroughput{
		ReadCapacityUnits:  aws.Int64(b.Read),
		WriteCapacityUnits: aws.Int64(b.Write),
	}
}

// Request is a derived create-table request.
type Request struct {
	TableName            string
	AttributeDefinitions []types.AttributeDefinition
	KeySchema            []types.KeySchemaElement
	GlobalIndexes        []types.GlobalSecondaryIndex
	LocalIndexes         []types.LocalSecondaryIndex
	Billing              Billing
	Tags                 []types.Tag
}

type options struct {
	indexes []string
	only    bool
	tags    map[string]string
}

// Option adjusts a derived request.
type Option func(*options)

// WithIndexes limits the created indexes to the named schema indexes. With
// no names, no index is created.
func WithIndexes(names ...string) Option {
	return func(o *options) {
		o.indexes = names
		o.only = true
	}
}

// WithTags tags the table.
func WithTags(tags map[string]string) Option {
	return func(o *options) {
		o.tags = tags
	}
}

// Derive builds the create-table request of schema. Every key attribute
// must have an S, N or B kind; the key schema lists the hash key first.
func Derive(schema *registry.TableSchema, billing Billing, opts ...Option) (*Request, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if err := checkBilling(schema.TableName, billing); err != nil {
		return nil, err
	}

	req := &Request{TableName: schema.TableName, Billing: billing}
	defined := map[string]bool{}
	define := func(attr string) error {
		if defined[attr] {
			return nil
		}
		at, ok := schema.KeyKinds[attr].ScalarAttributeType()
		if !ok {
			return errors.NewSchemaError(schema.TableName, attr, fmt.Sprintf("key attribute of kind %s has no S, N or B type", schema.KeyKinds[attr]))
		}
		req.AttributeDefinitions = append(req.AttributeDefinitions, types.AttributeDefinition{
			AttributeName: aws.String(attr),
			AttributeType: at,
		})
		defined[attr] = true
		return nil
	}

	keys, err := keySchema(schema.HashKey, schema.RangeKey, define)
	if err != nil {
		return nil, err
	}
	req.KeySchema = keys

	indexes, err := selectIndexes(schema, o)
	if err != nil {
		return nil, err
	}
	for _, idx := range indexes {
		keys, err := keySchema(idx.HashKey, idx.RangeKey, define)
		if err != nil {
			return nil, err
		}
		proj := projection(idx.Projection)
		if idx.Local {
			req.LocalIndexes = append(req.LocalIndexes, types.LocalSecondaryIndex{
				IndexName:  aws.String(idx.Name),
				KeySchema:  keys,
				Projection: proj,
			})
			continue
		}
		req.GlobalIndexes = append(req.GlobalIndexes, types.GlobalSecondaryIndex{
			IndexName:             aws.String(idx.Name),
			KeySchema:             keys,
			Projection:            proj,
			ProvisionedThroughput: billing.throughput(),
		})
	}

	for k, v := range o.tags {
		req.Tags = append(req.Tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	sort.Slice(req.Tags, func(i, j int) bool { return *req.Tags[i].Key < *req.Tags[j].Key })
	return req, nil
}

func checkBilling(table string, b Billing) error {
	switch b.Mode {
	case types.BillingModePayPerRequest:
		return nil
	case types.BillingModeProvisioned:
		if b.Read <= 0 || b.Write <= 0 {
			return errors.NewSchemaError(table, "", "provisioned billing needs positive read and write capacity")
		}
		return nil
	}
	return errors.NewSchemaError(table, "", fmt.Sprintf("unknown billing mode %q", b.Mode))
}

func keySchema(hash, rangeKey string, define func(string) error) ([]types.KeySchemaElement, error) {
	if err := define(hash); err != nil {
		return nil, err
	}
	keys := []types.KeySchemaElement{{AttributeName: aws.String(hash), KeyType: types.KeyTypeHash}}
	if rangeKey != "" {
		if err := define(rangeKey); err != nil {
			return nil, err
		}
		keys = append(keys, types.KeySchemaElement{AttributeName: aws.String(rangeKey), KeyType: types.KeyTypeRange})
	}
	return keys, nil
}

func selectIndexes(schema *registry.TableSchema, o options) ([]registry.IndexDescriptor, error) {
	if !o.only {
		return schema.Indexes, nil
	}
	out := make([]registry.IndexDescriptor, 0, len(o.indexes))
	for _, name := range o.indexes {
		idx, ok := schema.Index(name)
		if !ok {
			return nil, errors.NewSchemaError(schema.TableName, "", fmt.Sprintf("schema has no index %q", name))
		}
		if slices.ContainsFunc(out, func(d registry.IndexDescriptor) bool { return d.Name == name }) {
			continue
		}
		out = append(out, idx)
	}
	return out, nil
}

func projection(p registry.Projection) *types.Projection {
	pt := p.Type
	if pt == "" {
		pt = types.ProjectionTypeAll
	}
	out := &types.Projection{ProjectionType: pt}
	if len(p.NonKeyAttributes) > 0 {
		out.NonKeyAttributes = slices.Clone(p.NonKeyAttributes)
	}
	return out
}

// Input renders the request for the SDK.
func (r *Request) Input() *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName:              aws.String(r.TableName),
		AttributeDefinitions:   r.AttributeDefinitions,
		KeySchema:              r.KeySchema,
		GlobalSecondaryIndexes: r.GlobalIndexes,
		LocalSecondaryIndexes:  r.LocalIndexes,
		BillingMode:            r.Billing.Mode,
		ProvisionedThroughput:  r.Billing.throughput(),
		Tags:                   r.Tags,
	}
}
