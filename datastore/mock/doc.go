/*
Package mock provides an in-memory datastore.ItemStore for tests.

	store := mock.New()
	_ = store.CreateTable(ctx, createTableInput)

	// fail the second page fetch
	store.FailNth(mock.OpQuery, 2, errors.New("throttled"))

The store evaluates the condition, key condition, filter and projection
expressions produced by the aws-sdk-go-v2 expression builder, keeps global
indexes sparse, honors index projections and pages like DynamoDB: Limit
bounds the items evaluated before the filter runs, so a page may come back
empty while still carrying a LastEvaluatedKey.
*/
package mock
