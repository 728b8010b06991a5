/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/registry"
	"github.com/suparena/itemstore/storagemodels"
)

// execution is one forward-only traversal of a query. It holds the store
// lease from its first fetch until the last page, a failure, or close.
type execution[T any] struct {
	client *Client
	schema *registry.TableSchema
	index  string
	params *storagemodels.QueryParams
	decode func(map[string]types.AttributeValue) (T, error)

	store   datastore.ItemStore
	release func()
	start   map[string]types.AttributeValue
	pages   int
	items   int64
	done    bool
	err     error
}

// fetched is one decoded page.
type fetched[T any] struct {
	items  []T
	raw    []map[string]types.AttributeValue
	last   map[string]types.AttributeValue
	number int
}

func newExecution[T any](q *Query[T]) *execution[T] {
	e := &execution[T]{
		client: q.table.client,
		schema: q.table.schema,
		index:  q.index,
		decode: q.decoder(),
	}
	e.params, e.err = q.Params()
	if e.params != nil {
		e.start = e.params.ExclusiveStartKey
	}
	return e
}

func (e *execution[T]) op() string {
	if e.params != nil && e.params.IsScan() {
		return "scan"
	}
	return "query"
}

// cursor is the position the next fetch starts from.
func (e *execution[T]) cursor() storagemodels.Cursor {
	c, _ := storagemodels.NewCursor(e.start)
	return c
}

// fetch returns the next page, or nil once the traversal is done. Errors
// are sticky.
func (e *execution[T]) fetch(ctx context.Context) (*fetched[T], error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.done {
		return nil, nil
	}
	if e.store == nil {
		store, release, err := e.client.router.Acquire(ctx, e.schema.TableName)
		if err != nil {
			return nil, e.fail(ctx, err)
		}
		e.store, e.release = store, release
	}
	if err := ctx.Err(); err != nil {
		return nil, e.fail(ctx, err)
	}

	params := e.params.WithStartKey(e.start)
	var (
		out *storagemodels.PageOutput
		err error
	)
	if params.IsScan() {
		out, err = e.store.Scan(ctx, params)
	} else {
		out, err = e.store.Query(ctx, params)
	}
	if err != nil {
		return nil, e.fail(ctx, e.client.remote(ctx, e.op(), e.schema.TableName, e.cursor(), err))
	}

	page := &fetched[T]{
		items:  make([]T, 0, len(out.Items)),
		raw:    out.Items,
		last:   out.LastEvaluatedKey,
		number: e.pages + 1,
	}
	for _, raw := range out.Items {
		item, err := e.decode(raw)
		if err != nil {
			return nil, e.fail(ctx, err)
		}
		page.items = append(page.items, item)
	}

	e.pages++
	e.items += int64(len(page.items))
	e.start = out.LastEvaluatedKey
	LogPageFetched(e.client.logger, e.schema.TableName, e.index, page.number, out)
	if len(out.LastEvaluatedKey) == 0 {
		e.start = nil
		e.done = true
		e.finish()
		LogIterationDone(e.client.logger, e.schema.TableName, e.pages, e.items)
	}
	return page, nil
}

// fail records err, releases the lease and returns err.
func (e *execution[T]) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		LogIterationCancelled(e.client.logger, e.schema.TableName, e.cursor(), err)
	}
	e.err = err
	e.finish()
	return err
}

// close ends the traversal early.
func (e *execution[T]) close() {
	if !e.done && e.err == nil && e.store != nil {
		LogIterationCancelled(e.client.logger, e.schema.TableName, e.cursor(), nil)
	}
	e.done = true
	e.finish()
}

func (e *execution[T]) finish() {
	if e.release != nil {
		e.release()
		e.release = nil
	}
}

// Pager walks a query page by page. It is not safe for concurrent use.
type Pager[T any] struct {
	ctx      context.Context
	exec     *execution[T]
	reported bool
}

func newPager[T any](ctx context.Context, q *Query[T]) *Pager[T] {
	return &Pager[T]{ctx: ctx, exec: newExecution(q)}
}

// More reports whether Next may return another page.
func (p *Pager[T]) More() bool {
	return !p.exec.done && !p.reported
}

// Next fetches the next page. Past the last page it returns an empty page
// with a zero Cursor. A failure is returned again by every later call.
func (p *Pager[T]) Next() (*storagemodels.Page[T], error) {
	f, err := p.exec.fetch(p.ctx)
	if err != nil {
		p.reported = true
		return nil, err
	}
	if f == nil {
		return &storagemodels.Page[T]{}, nil
	}
	cursor, err := storagemodels.NewCursor(f.last)
	if err != nil {
		return nil, p.exec.fail(p.ctx, err)
	}
	return &storagemodels.Page[T]{Items: f.items, Cursor: cursor, Number: f.number}, nil
}

// Cursor is the position the next page starts from. It is zero once the
// last page was returned.
func (p *Pager[T]) Cursor() storagemodels.Cursor {
	return p.exec.cursor()
}

// Close releases the store lease. Further calls to Next return empty
// pages.
func (p *Pager[T]) Close() error {
	p.exec.close()
	return nil
}

// Iterator walks a query item by item, fetching a page only when the
// previous one is consumed. It is not safe for concurrent use.
//
//	it := orders.Query("o1").Iter(ctx)
//	defer it.Close()
//	for it.Next() {
//	    use(it.Item())
//	}
//	if err := it.Err(); err != nil {
//	    // it.Cursor() resumes after the last item returned
//	}
type Iterator[T any] struct {
	ctx  context.Context
	exec *execution[T]

	items []T
	raw   []map[string]types.AttributeValue
	last  map[string]types.AttributeValue
	pos   int

	item   T
	err    error
	closed bool
}

func newIterator[T any](ctx context.Context, q *Query[T]) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, exec: newExecution(q)}
}

// Next advances to the next item. It returns false when the sequence is
// exhausted, failed, cancelled or closed.
func (it *Iterator[T]) Next() bool {
	if it.err != nil || it.closed {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.err = it.exec.fail(it.ctx, err)
		return false
	}
	for it.pos >= len(it.items) {
		f, err := it.exec.fetch(it.ctx)
		if err != nil {
			it.err = err
			return false
		}
		if f == nil {
			it.items, it.raw, it.last, it.pos = nil, nil, nil, 0
			return false
		}
		it.items, it.raw, it.last, it.pos = f.items, f.raw, f.last, 0
	}
	it.item = it.items[it.pos]
	it.pos++
	return true
}

// Item returns the current item.
func (it *Iterator[T]) Item() T {
	return it.item
}

// Raw returns the wire form of the current item.
func (it *Iterator[T]) Raw() map[string]types.AttributeValue {
	if it.pos == 0 {
		return nil
	}
	return it.raw[it.pos-1]
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Cursor resumes a new query right after the last item returned by Next.
// Within a page it is the key of that item; after a page's last item it is
// the page's continuation key, zero when no page follows.
func (it *Iterator[T]) Cursor() storagemodels.Cursor {
	if it.pos == 0 {
		return it.exec.cursor()
	}
	var key map[string]types.AttributeValue
	if it.pos < len(it.items) {
		key = registry.ProjectKey(it.exec.schema, it.exec.index, it.raw[it.pos-1])
	} else {
		key = it.last
	}
	c, _ := storagemodels.NewCursor(key)
	return c
}

// Close stops the iteration and releases the store lease. It is safe to
// call more than once.
func (it *Iterator[T]) Close() error {
	it.closed = true
	it.exec.close()
	return nil
}

// Collect drains it and closes it.
func Collect[T any](it *Iterator[T]) ([]T, error) {
	defer it.Close()
	var out []T
	for it.Next() {
		out = append(out, it.Item())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
