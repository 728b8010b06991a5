/*
Package datastore defines the item store capability the typed layer consumes.

	type ItemStore interface {
	    PutItem(ctx, table, item, cond) error
	    GetItem(ctx, table, key, consistent) (item, error)
	    DeleteItem(ctx, table, key, cond) error
	    Query(ctx, params) (*storagemodels.PageOutput, error)
	    Scan(ctx, params) (*storagemodels.PageOutput, error)
	    CreateTable(ctx, input) error
	}

Every call is single shot: one request, one page. Paging, decoding and key
validation live above this interface, retries and timeouts below it.

Implementations:
  - ddb: DynamoDB through aws-sdk-go-v2
  - mock: in-memory store with DynamoDB paging and expression semantics, for tests
*/
package datastore
