/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/registry"
	"github.com/suparena/itemstore/storagemodels"
)

// Stream runs the query in a goroutine and sends every item on the
// returned channel. The channel is closed when the query is exhausted,
// fails, or ctx is cancelled; a failure is sent as a final result with
// Error set. The store lease is released before the channel closes.
func (q *Query[T]) Stream(ctx context.Context, opts ...storagemodels.StreamOption) <-chan storagemodels.StreamResult[T] {
	options := storagemodels.DefaultStreamOptions()
	for _, opt := range opts {
		opt(&options)
	}

	resultCh := make(chan storagemodels.StreamResult[T], options.BufferSize)
	go streamWorker(ctx, newExecution(q), options, resultCh)
	return resultCh
}

func streamWorker[T any](
	ctx context.Context,
	exec *execution[T],
	options storagemodels.StreamOptions,
	resultCh chan<- storagemodels.StreamResult[T],
) {
	defer close(resultCh)
	defer exec.close()

	var itemIndex int64
	startTime := time.Now()

	reportProgress := func(lastKey map[string]types.AttributeValue) {
		if options.ProgressHandler == nil {
			return
		}
		progress := storagemodels.StreamProgress{
			ItemsProcessed: itemIndex,
			PagesProcessed: exec.pages,
			LastKey:        lastKey,
			StartTime:      startTime,
		}
		if elapsed := time.Since(startTime).Seconds(); elapsed > 0 {
			progress.CurrentRate = float64(itemIndex) / elapsed
		}
		options.ProgressHandler(progress)
	}

	for {
		page, err := exec.fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
			case resultCh <- storagemodels.StreamResult[T]{
				Error: err,
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: exec.pages,
					Timestamp:  time.Now(),
					Cursor:     exec.cursor(),
				},
			}:
			}
			return
		}
		if page == nil {
			return
		}

		timestamp := time.Now()
		for i, item := range page.items {
			var key map[string]types.AttributeValue
			if i == len(page.items)-1 {
				key = page.last
			} else {
				key = registry.ProjectKey(exec.schema, exec.index, page.raw[i])
			}
			cursor, _ := storagemodels.NewCursor(key)

			result := storagemodels.StreamResult[T]{
				Item: item,
				Raw:  page.raw[i],
				Meta: storagemodels.StreamMeta{
					Index:      itemIndex,
					PageNumber: page.number,
					Timestamp:  timestamp,
					Cursor:     cursor,
				},
			}
			select {
			case <-ctx.Done():
				exec.fail(ctx, ctx.Err())
				return
			case resultCh <- result:
			}
			itemIndex++
		}

		reportProgress(page.last)
	}
}
