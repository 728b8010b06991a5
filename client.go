/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/suparena/itemstore/config"
	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/datastore/ddb"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/registry"
)

// Client binds a schema registry to the item stores that serve its
// tables. It holds no per-call state and is safe for concurrent use.
type Client struct {
	registry *registry.Registry
	router   *Router
	logger   zerolog.Logger
}

// StoreFactory builds the item store for one effective configuration.
type StoreFactory func(ctx context.Context, cfg config.Config) (datastore.ItemStore, error)

type clientOptions struct {
	logger    *zerolog.Logger
	overrides map[string]datastore.ItemStore
	factory   StoreFactory
}

// Option configures a Client.
type Option func(*clientOptions)

// WithLogger sets the logger. The default discards everything, or follows
// the logging section for NewFromConfig.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *clientOptions) { o.logger = &logger }
}

// WithTableStore serves one table from store instead of the default.
func WithTableStore(table string, store datastore.ItemStore) Option {
	return func(o *clientOptions) {
		if o.overrides == nil {
			o.overrides = make(map[string]datastore.ItemStore)
		}
		o.overrides[table] = store
	}
}

// WithStoreFactory replaces the DynamoDB store factory used by
// NewFromConfig.
func WithStoreFactory(f StoreFactory) Option {
	return func(o *clientOptions) { o.factory = f }
}

// New creates a Client serving every table from store, unless a
// WithTableStore option routes it elsewhere.
func New(store datastore.ItemStore, reg *registry.Registry, opts ...Option) (*Client, error) {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return newClient(store, reg, o)
}

func newClient(store datastore.ItemStore, reg *registry.Registry, o *clientOptions) (*Client, error) {
	if store == nil {
		return nil, errors.NewValidationError("store", "item store is required")
	}
	if reg == nil {
		return nil, errors.NewValidationError("registry", "registry is required")
	}
	c := &Client{
		registry: reg,
		router:   NewRouter(store),
		logger:   zerolog.Nop(),
	}
	if o.logger != nil {
		c.logger = *o.logger
	}
	names := make([]string, 0, len(o.overrides))
	for name := range o.overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.router.Route(name, o.overrides[name]); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// NewFromConfig validates cfg and creates a Client over DynamoDB. Tables
// with an override get their own store; overrides resolving to the same
// region and endpoint share one.
func NewFromConfig(ctx context.Context, cfg config.Config, reg *registry.Registry, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &clientOptions{factory: dynamoStore}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		logger := config.NewLogger(cfg.Logging)
		o.logger = &logger
	}

	global := cfg.ForTable("")
	fallback, err := o.factory(ctx, global)
	if err != nil {
		return nil, fmt.Errorf("itemstore: default store: %w", err)
	}

	shared := map[string]datastore.ItemStore{storeKey(global): fallback}
	names := make([]string, 0, len(cfg.Tables))
	for name := range cfg.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, set := o.overrides[name]; set {
			continue
		}
		tc := cfg.ForTable(name)
		k := storeKey(tc)
		store, ok := shared[k]
		if !ok {
			if store, err = o.factory(ctx, tc); err != nil {
				return nil, fmt.Errorf("itemstore: store for table %s: %w", name, err)
			}
			shared[k] = store
		}
		if store == fallback {
			continue
		}
		WithTableStore(name, store)(o)
	}
	return newClient(fallback, reg, o)
}

func storeKey(cfg config.Config) string {
	return cfg.Region + "|" + cfg.Endpoint
}

func dynamoStore(ctx context.Context, cfg config.Config) (datastore.ItemStore, error) {
	client, err := ddb.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return ddb.NewStore(client), nil
}

// Registry returns the schema registry.
func (c *Client) Registry() *registry.Registry { return c.registry }

// Router returns the router that leases item stores per table.
func (c *Client) Router() *Router { return c.router }

// Logger returns the client logger.
func (c *Client) Logger() zerolog.Logger { return c.logger }

// Close stops handing out leases. Iterations in progress finish normally.
func (c *Client) Close() error {
	c.router.Close()
	return nil
}
