/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/errors"
)

// Router hands out item stores per table: a default store plus per-table
// overrides. Every operation holds a lease for its duration.
type Router struct {
	mu       sync.RWMutex
	fallback datastore.ItemStore
	tables   map[string]datastore.ItemStore

	inFlight atomic.Int64
	closed   atomic.Bool
}

// NewRouter creates a Router. fallback serves every table without an
// override.
func NewRouter(fallback datastore.ItemStore) *Router {
	return &Router{
		fallback: fallback,
		tables:   make(map[string]datastore.ItemStore),
	}
}

// Route serves table from store instead of the default store.
func (r *Router) Route(table string, store datastore.ItemStore) error {
	if store == nil {
		return errors.NewValidationError("store", fmt.Sprintf("route %q: nil item store", table))
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tables[table]; exists {
		return errors.NewValidationError("table", fmt.Sprintf("route for table %q already registered", table))
	}
	r.tables[table] = store
	return nil
}

// Store returns the item store serving table.
func (r *Router) Store(table string) datastore.ItemStore {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.tables[table]; ok {
		return s
	}
	return r.fallback
}

// Routes lists the tables with an override, sorted.
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Acquire leases the store serving table. release must be called exactly
// once; further calls are no-ops. A closed router reports errors.ErrClosed.
func (r *Router) Acquire(ctx context.Context, table string) (datastore.ItemStore, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if r.closed.Load() {
		return nil, nil, errors.ErrClosed
	}
	store := r.Store(table)
	if store == nil {
		return nil, nil, errors.NewValidationError("table", fmt.Sprintf("no item store serves table %q", table))
	}
	r.inFlight.Add(1)
	var once sync.Once
	release := func() {
		once.Do(func() { r.inFlight.Add(-1) })
	}
	return store, release, nil
}

// InFlight is the number of leases not yet released.
func (r *Router) InFlight() int64 {
	return r.inFlight.Load()
}

// Close refuses new leases. Leases already handed out stay valid.
func (r *Router) Close() {
	r.closed.Store(true)
}
