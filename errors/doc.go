/*
Package errors provides semantic error types for the itemstore library.

Every failure the library surfaces is one of the typed errors below, and each
typed error matches a sentinel through errors.Is, so callers can branch
either on the concrete type (errors.As) or on the sentinel.

Sentinels:

	var (
	    ErrNotFound             // Require on an absent item
	    ErrAlreadyExists        // create-only Put on an existing item
	    ErrInvalidInput         // caller input rejected before reaching the store
	    ErrConditionFailed      // conditional write rejected by the store
	    ErrTransactionCancelled // transaction cancelled by the store
	    ErrSchema               // bad registration or provisioning input
	    ErrNotRegistered        // record type used before registration
	    ErrKey                  // missing, extra or mistyped key fields
	    ErrEncode               // value not representable on the wire
	    ErrDecode               // wire value not reconstructable
	    ErrRemote               // item store failure, carries the cursor in flight
	    ErrTableNotFound        // addressed table does not exist
	    ErrClosed               // lease requested from a closed client
	)

Usage:

	it := table.Query("user#1").Iter(ctx)
	for it.Next() {
	    // ...
	}
	if err := it.Err(); err != nil {
	    var remote *errors.RemoteError
	    if stderrors.As(err, &remote) {
	        // resume later from remote.Cursor
	    }
	    return err
	}

Absent items are not errors for Get; only Require reports NotFoundError.
*/
package errors
