/*
Package ddb implements datastore.ItemStore on Amazon DynamoDB.

	client, err := ddb.NewClient(ctx, cfg.ForTable("orders"))
	if err != nil {
	    return err
	}
	store := ddb.NewStore(client)

Each call is one SDK request. Retries, backoff and timeouts are those of the
SDK client. Three exceptions are translated so callers can branch on them:

	ConditionalCheckFailedException -> *errors.ConditionFailedError
	TransactionCanceledException    -> *errors.TransactionCancelledError
	ResourceNotFoundException       -> *errors.TableNotFoundError

NewClient points the client at DynamoDB Local when an endpoint override is
configured, with placeholder credentials unless keys are given.
*/
package ddb
