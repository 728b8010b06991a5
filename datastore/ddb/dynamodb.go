/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
)

// Store implements datastore.ItemStore over a DynamoDB client.
type Store struct {
	client Client
}

var _ datastore.ItemStore = (*Store)(nil)

// NewStore wraps client.
func NewStore(client Client) *Store {
	return &Store{client: client}
}

// PutItem writes item, replacing any existing item with the same key.
func (s *Store) PutItem(ctx context.Context, table string, item map[string]types.AttributeValue, cond *storagemodels.WriteCondition) error {
	input := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	}
	if cond != nil {
		input.ConditionExpression = aws.String(cond.Expression)
		input.ExpressionAttributeNames = cond.Names
		input.ExpressionAttributeValues = cond.Values
	}
	if _, err := s.client.PutItem(ctx, input); err != nil {
		return translate("put", table, cond, err)
	}
	return nil
}

// GetItem returns nil, nil when no item has the key.
func (s *Store) GetItem(ctx context.Context, table string, key map[string]types.AttributeValue, consistent bool) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(table),
		Key:            key,
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, translate("get", table, nil, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// DeleteItem removes the item with key. Deleting an absent key succeeds
// unless cond requires the item to exist.
func (s *Store) DeleteItem(ctx context.Context, table string, key map[string]types.AttributeValue, cond *storagemodels.WriteCondition) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	}
	if cond != nil {
		input.ConditionExpression = aws.String(cond.Expression)
		input.ExpressionAttributeNames = cond.Names
		input.ExpressionAttributeValues = cond.Values
	}
	if _, err := s.client.DeleteItem(ctx, input); err != nil {
		return translate("delete", table, cond, err)
	}
	return nil
}

// Query fetches one page of a key condition query.
func (s *Store) Query(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.PageOutput, error) {
	if params.KeyConditionExpression == nil {
		return nil, errors.NewValidationError("KeyConditionExpression", "query needs a key condition")
	}
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(params.TableName),
		IndexName:                 params.IndexName,
		KeyConditionExpression:    params.KeyConditionExpression,
		FilterExpression:          params.FilterExpression,
		ProjectionExpression:      params.ProjectionExpression,
		ExpressionAttributeNames:  params.ExpressionAttributeNames,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
		Limit:                     params.Limit,
		ExclusiveStartKey:         params.ExclusiveStartKey,
		ScanIndexForward:          params.ScanIndexForward,
		ConsistentRead:            params.ConsistentRead,
	})
	if err != nil {
		return nil, translate("query", params.TableName, nil, err)
	}
	return &storagemodels.PageOutput{
		Items:            out.Items,
		LastEvaluatedKey: out.LastEvaluatedKey,
		Count:            out.Count,
		ScannedCount:     out.ScannedCount,
	}, nil
}

// Scan fetches one page of a table or index scan. ScanIndexForward and the
// key condition of params are ignored.
func (s *Store) Scan(ctx context.Context, params *storagemodels.QueryParams) (*storagemodels.PageOutput, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:                 aws.String(params.TableName),
		IndexName:                 params.IndexName,
		FilterExpression:          params.FilterExpression,
		ProjectionExpression:      params.ProjectionExpression,
		ExpressionAttributeNames:  params.ExpressionAttributeNames,
		ExpressionAttributeValues: params.ExpressionAttributeValues,
		Limit:                     params.Limit,
		ExclusiveStartKey:         params.ExclusiveStartKey,
		ConsistentRead:            params.ConsistentRead,
	})
	if err != nil {
		return nil, translate("scan", params.TableName, nil, err)
	}
	return &storagemodels.PageOutput{
		Items:            out.Items,
		LastEvaluatedKey: out.LastEvaluatedKey,
		Count:            out.Count,
		ScannedCount:     out.ScannedCount,
	}, nil
}

// CreateTable issues input as is. It returns once the request is accepted;
// use WaitUntilActive to wait for the table.
func (s *Store) CreateTable(ctx context.Context, input *dynamodb.CreateTableInput) error {
	if _, err := s.client.CreateTable(ctx, input); err != nil {
		return fmt.Errorf("create table %s: %w", aws.ToString(input.TableName), err)
	}
	return nil
}

// WaitUntilActive blocks until table reports ACTIVE or maxWait elapses.
func (s *Store) WaitUntilActive(ctx context.Context, table string, maxWait time.Duration) error {
	waiter := dynamodb.NewTableExistsWaiter(s.client)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)}, maxWait); err != nil {
		return fmt.Errorf("wait for table %s: %w", table, err)
	}
	return nil
}

// translate maps the SDK exceptions callers branch on to the library's
// error types. Everything else is returned unchanged.
func translate(op, table string, cond *storagemodels.WriteCondition, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if stderrors.As(err, &ccf) {
		expr := ""
		if cond != nil {
			expr = cond.Expression
		}
		return errors.NewConditionFailedError(op, expr, err)
	}

	var tce *types.TransactionCanceledException
	if stderrors.As(err, &tce) {
		reasons := make([]string, 0, len(tce.CancellationReasons))
		for _, r := range tce.CancellationReasons {
			reasons = append(reasons, aws.ToString(r.Code))
		}
		return &errors.TransactionCancelledError{Reasons: reasons, Cause: err}
	}

	var rnf *types.ResourceNotFoundException
	if stderrors.As(err, &rnf) {
		return &errors.TableNotFoundError{Table: table, Cause: err}
	}
	return err
}
