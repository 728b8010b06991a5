/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/itemstore"
	"github.com/suparena/itemstore/datastore/mock"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/storagemodels"
)

func TestStream(t *testing.T) {
	c, _ := newClient(t)
	orders := itemstore.MustOpen[order](c)
	want := seedOrders(t, orders, 5)

	var progress []storagemodels.StreamProgress
	ch := orders.Query("o1").Limit(2).Stream(context.Background(),
		storagemodels.WithBufferSize(1),
		storagemodels.WithProgressHandler(func(p storagemodels.StreamProgress) {
			progress = append(progress, p)
		}),
	)

	var (
		got   []order
		pages []int
		last  storagemodels.StreamResult[order]
	)
	for res := range ch {
		require.NoError(t, res.Error)
		assert.Equal(t, int64(len(got)), res.Meta.Index)
		assert.NotEmpty(t, res.Raw)
		got = append(got, res.Item)
		pages = append(pages, res.Meta.PageNumber)
		last = res
	}

	assert.Equal(t, want, got)
	assert.Equal(t, []int{1, 1, 2, 2, 3}, pages)
	assert.True(t, last.Meta.Cursor.IsZero(), "the last item has nothing after it")
	require.Len(t, progress, 3)
	assert.Equal(t, int64(5), progress[2].ItemsProcessed)
	assert.Equal(t, 3, progress[2].PagesProcessed)
	assert.Nil(t, progress[2].LastKey)
	assert.Zero(t, c.Router().InFlight())
}

func TestStreamFailure(t *testing.T) {
	c, m := newClient(t)
	orders := itemstore.MustOpen[order](c)
	seedOrders(t, orders, 5)
	m.FailNth(mock.OpQuery, 2, stderrors.New("boom"))

	var results []storagemodels.StreamResult[order]
	for res := range orders.Query("o1").Limit(2).Stream(context.Background()) {
		results = append(results, res)
	}

	require.Len(t, results, 3)
	final := results[2]
	require.Error(t, final.Error)
	assert.True(t, errors.IsRemote(final.Error))
	assert.Equal(t, results[1].Meta.Cursor, final.Meta.Cursor, "the failed page starts after the last item sent")
	assert.Zero(t, c.Router().InFlight())
}

func TestStreamCancel(t *testing.T) {
	c, m := newClient(t)
	orders := itemstore.MustOpen[order](c)
	seedOrders(t, orders, 6)

	ctx, cancel := context.WithCancel(context.Background())
	ch := orders.Query("o1").Limit(2).Stream(ctx, storagemodels.WithBufferSize(0))

	first, ok := <-ch
	require.True(t, ok)
	require.NoError(t, first.Error)
	cancel()

	for res := range ch {
		assert.NoError(t, res.Error, "cancellation is not reported as a result")
	}
	assert.Zero(t, c.Router().InFlight())
	assert.LessOrEqual(t, m.Calls(mock.OpQuery), 2)
}
