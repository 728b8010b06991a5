/*
Package storagemodels defines the request and result types shared by the
item stores and the typed query layer.

QueryParams:
One page request of a Query or Scan, in the shape of the DynamoDB API:

	params := &QueryParams{
	    TableName:              "orders",
	    KeyConditionExpression: aws.String("#0 = :0"),
	    ExpressionAttributeNames: map[string]string{"#0": "order_id"},
	    ExpressionAttributeValues: map[string]types.AttributeValue{
	        ":0": &types.AttributeValueMemberS{Value: "o1"},
	    },
	    Limit: aws.Int32(25),
	}

Cursor:
An opaque, URL-safe continuation token wrapping an exclusive start key.
The zero Cursor returned with a page means the sequence is exhausted.

	next, err := storagemodels.ParseCursor(token)

StreamResult and StreamOptions:
Items delivered over a channel with their page metadata:

	opts := []StreamOption{
	    WithBufferSize(50),
	    WithProgressHandler(progressFunc),
	}
*/
package storagemodels
