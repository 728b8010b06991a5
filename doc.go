/*
Package itemstore maps typed Go records onto DynamoDB items and runs key
based reads, writes, queries and scans against any datastore.ItemStore.

A record type is registered once with its table name, keys and indexes.
The registry compiles an encoding plan for the type; every read and write
goes through that plan, so values that cannot be represented on the wire
fail before a request is sent.

Basic Usage:

	reg := registry.New()
	registry.MustRegister[Order](reg, "orders", "OrderID",
	    registry.WithRangeKey("CreatedAt"),
	    registry.WithIndex(registry.IndexDescriptor{Name: "by-customer", HashKey: "Customer", RangeKey: "CreatedAt"}),
	)

	client, err := itemstore.NewFromConfig(ctx, cfg, reg)
	orders := itemstore.MustOpen[Order](client)

	err = orders.Put(ctx, order, itemstore.IfNotExists())
	got, err := orders.Get(ctx, itemstore.Key{Hash: "o1", Range: "2026-01-01"})

	it := orders.Query("c1").Index("by-customer").Range(itemstore.InLast(24 * time.Hour)).Iter(ctx)
	defer it.Close()
	for it.Next() {
	    fmt.Println(it.Item())
	}
	if err := it.Err(); err != nil {
	    // it.Cursor() resumes after the last item returned
	}

Queries are lazy and forward-only: a page is fetched only when the
previous one is consumed. Pager exposes whole pages, Iterator single items
and Stream a channel fed by a goroutine. Each holds a lease on its item
store from the first fetch until the last page, a failure, cancellation of
its context, or Close; Router.InFlight reports open leases.

Get returns nil for an absent item; Require reports it as
errors.NotFoundError. Item store failures surface as errors.RemoteError
carrying the cursor of the page that was being fetched.
*/
package itemstore
