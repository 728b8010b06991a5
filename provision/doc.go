/*
Package provision derives create-table requests from table schemas.

	schema := registry.MustRegister[Order](reg, "orders", "order_id",
	    registry.WithRangeKey("created_at"))

	req, err := provision.Derive(schema, provision.PayPerRequest(),
	    provision.WithTags(map[string]string{"team": "payments"}))
	if err != nil {
	    return err
	}
	err = store.CreateTable(ctx, req.Input())

Attribute definitions cover the table keys followed by the index keys, each
once. Index descriptors are passed through as declared; global indexes of a
provisioned table inherit its capacity.
*/
package provision
