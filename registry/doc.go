/*
Package registry holds the table schemas of record types and builds keys.

A schema is declared once per record type with Register and never changes
afterwards; registering the same type or the same table name again fails
with a SchemaError:

	reg := registry.New()
	orders, err := registry.Register[Order](reg, "orders", "OrderID",
	    registry.WithRangeKey("CreatedAt"),
	    registry.WithIndex(registry.IndexDescriptor{
	        Name:       "by-customer",
	        HashKey:    "CustomerID",
	        RangeKey:   "CreatedAt",
	        Projection: registry.ProjectKeysOnly(),
	    }),
	)

Key fields must encode as S, N or B. Fields may be named by Go name or
attribute name; the schema stores attribute names.

Keys:

	key, err := registry.BuildKey(orders, "o1", strfmt.Date(day))

BuildKey fails with a KeyError when the range key is missing for a table
that declares one, when one is given for a table that does not, or when a
value has the wrong type. Empty strings count as missing.

Tables can also be declared without a Go type through a Definition, which is
how table definition files are loaded.
*/
package registry
