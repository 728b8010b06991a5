/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/storagemodels"
)

// ItemStore is the raw item capability the typed layer runs on. Keys and
// items are wire attribute maps; nothing above this interface talks to the
// network directly.
//
// Implementations report a rejected condition as *errors.ConditionFailedError,
// a missing table as *errors.TableNotFoundError and a cancelled transaction
// as *errors.TransactionCancelledError. Any other failure is returned as is.
type ItemStore interface {
	// PutItem replaces the whole item stored under the item's key.
	PutItem(ctx context.Context, table string, item map[string]types.AttributeValue, cond *storagemodels.WriteCondition) error

	// GetItem returns a nil map, and no error, when the key is absent.
	GetItem(ctx context.Context, table string, key map[string]types.AttributeValue, consistent bool) (map[string]types.AttributeValue, error)

	DeleteItem(ctx context.Context, table string, key map[string]types.AttributeValue, cond *storagemodels.WriteCondition) error

	// Query fetches one page. params.KeyConditionExpression must be set.
	Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.PageOutput, error)

	// Scan fetches one page of a full table or index read.
	Scan(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.PageOutput, error)

	CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error
}
