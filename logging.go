/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"github.com/rs/zerolog"

	"github.com/suparena/itemstore/storagemodels"
)

// Log event names
const (
	// Iteration events
	EventPageFetched        = "page_fetched"
	EventIterationDone      = "iteration_done"
	EventIterationCancelled = "iteration_cancelled"

	// Item events
	EventItemWritten = "item_written"
	EventItemDeleted = "item_deleted"

	// Table events
	EventTableCreated = "table_created"

	EventRemoteFailure = "remote_failure"
)

// LogPageFetched logs a page returned by the item store
func LogPageFetched(logger zerolog.Logger, table, index string, page int, out *storagemodels.PageOutput) {
	logger.Debug().
		Str("event", EventPageFetched).
		Str("table", table).
		Str("index", index).
		Int("page", page).
		Int32("count", out.Count).
		Int32("scanned_count", out.ScannedCount).
		Bool("last_page", len(out.LastEvaluatedKey) == 0).
		Msg("Page fetched")
}

// LogIterationDone logs an iteration that reached its last page
func LogIterationDone(logger zerolog.Logger, table string, pages int, items int64) {
	logger.Debug().
		Str("event", EventIterationDone).
		Str("table", table).
		Int("pages", pages).
		Int64("items", items).
		Msg("Iteration done")
}

// LogIterationCancelled logs an iteration stopped before its last page
func LogIterationCancelled(logger zerolog.Logger, table string, cursor storagemodels.Cursor, err error) {
	logger.Debug().
		Str("event", EventIterationCancelled).
		Str("table", table).
		Str("cursor", cursor.String()).
		AnErr("reason", err).
		Msg("Iteration cancelled")
}

// LogItemWritten logs a successful put
func LogItemWritten(logger zerolog.Logger, table, key string) {
	logger.Debug().
		Str("event", EventItemWritten).
		Str("table", table).
		Str("key", key).
		Msg("Item written")
}

// LogItemDeleted logs a successful delete
func LogItemDeleted(logger zerolog.Logger, table, key string) {
	logger.Debug().
		Str("event", EventItemDeleted).
		Str("table", table).
		Str("key", key).
		Msg("Item deleted")
}

// LogTableCreated logs an issued create-table request
func LogTableCreated(logger zerolog.Logger, table string, gsi, lsi int) {
	logger.Info().
		Str("event", EventTableCreated).
		Str("table", table).
		Int("global_indexes", gsi).
		Int("local_indexes", lsi).
		Msg("Table created")
}

// LogRemoteFailure logs an item store failure
func LogRemoteFailure(logger zerolog.Logger, op, table string, err error) {
	logger.Error().
		Str("event", EventRemoteFailure).
		Str("operation", op).
		Str("table", table).
		Err(err).
		Msg("Item store call failed")
}
