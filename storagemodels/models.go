/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"maps"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// QueryParams describes one page request of a Query or Scan.
// KeyConditionExpression is nil for scans.
type QueryParams struct {
	// TableName is the DynamoDB table name.
	TableName string
	// IndexName is set when reading a secondary index.
	IndexName *string
	// KeyConditionExpression is the mandatory condition of a query.
	KeyConditionExpression *string
	// FilterExpression is applied by the store after the key condition.
	FilterExpression *string
	// ProjectionExpression limits the attributes returned.
	ProjectionExpression      *string
	ExpressionAttributeNames  map[string]string
	ExpressionAttributeValues map[string]types.AttributeValue
	// Limit caps the items evaluated per page.
	Limit *int32
	// ExclusiveStartKey resumes after the given key.
	ExclusiveStartKey map[string]types.AttributeValue
	// ScanIndexForward false reads the range key in descending order.
	ScanIndexForward *bool
	// ConsistentRead requests strongly consistent reads.
	ConsistentRead *bool
}

// IsScan reports whether the request has no key condition.
func (p *QueryParams) IsScan() bool {
	return p.KeyConditionExpression == nil
}

// WithStartKey returns a copy of p that resumes after key. The receiver is
// not modified.
func (p *QueryParams) WithStartKey(key map[string]types.AttributeValue) *QueryParams {
	cp := *p
	cp.ExclusiveStartKey = maps.Clone(key)
	return &cp
}

// PageOutput is one raw page returned by an item store.
type PageOutput struct {
	Items []map[string]types.AttributeValue
	// LastEvaluatedKey is nil when no further page exists.
	LastEvaluatedKey map[string]types.AttributeValue
	Count            int32
	ScannedCount     int32
}

// Page is a decoded page. An empty Cursor means the sequence is exhausted.
type Page[T any] struct {
	Items  []T
	Cursor Cursor
	// Number is the 1-based position of the page in its iteration.
	Number int
}

// Done reports whether no page follows this one.
func (p *Page[T]) Done() bool {
	return p.Cursor.IsZero()
}

// WriteCondition is a compiled condition expression for Put and Delete.
type WriteCondition struct {
	Expression string
	Names      map[string]string
	Values     map[string]types.AttributeValue
}
