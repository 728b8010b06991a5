/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/itemstore"
	"github.com/suparena/itemstore/config"
	"github.com/suparena/itemstore/datastore"
	"github.com/suparena/itemstore/datastore/mock"
	"github.com/suparena/itemstore/errors"
	"github.com/suparena/itemstore/provision"
)

func TestRouterLeases(t *testing.T) {
	fallback, users := mock.New(), mock.New()
	r := itemstore.NewRouter(fallback)
	require.NoError(t, r.Route("users", users))
	assert.True(t, errors.IsValidationError(r.Route("users", users)), "a table is routed once")
	assert.True(t, errors.IsValidationError(r.Route("orders", nil)))

	ctx := context.Background()
	store, release, err := r.Acquire(ctx, "users")
	require.NoError(t, err)
	assert.Same(t, users, store)
	assert.Equal(t, int64(1), r.InFlight())

	other, releaseOther, err := r.Acquire(ctx, "orders")
	require.NoError(t, err)
	assert.Same(t, fallback, other)
	assert.Equal(t, int64(2), r.InFlight())

	release()
	release()
	assert.Equal(t, int64(1), r.InFlight(), "release is idempotent")
	releaseOther()
	assert.Zero(t, r.InFlight())
	assert.Equal(t, []string{"users"}, r.Routes())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = r.Acquire(cancelled, "users")
	assert.ErrorIs(t, err, context.Canceled)

	r.Close()
	_, _, err = r.Acquire(ctx, "users")
	assert.ErrorIs(t, err, errors.ErrClosed)
	assert.True(t, errors.IsClosed(err))
	assert.False(t, errors.IsRemote(err))
	assert.Zero(t, r.InFlight())
}

func TestConcurrentOperations(t *testing.T) {
	c, _ := newClient(t)
	users := itemstore.MustOpen[user](c)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			assert.NoError(t, users.Put(ctx, user{UserID: id, Name: id}))
			got, err := users.Get(ctx, itemstore.Key{Hash: id})
			assert.NoError(t, err)
			if assert.NotNil(t, got) {
				assert.Equal(t, id, got.Name)
			}
		}(i)
	}
	wg.Wait()
	assert.Zero(t, c.Router().InFlight())
}

func TestWithTableStore(t *testing.T) {
	fallback, dedicated := mock.New(), mock.New()
	c, err := itemstore.New(fallback, newRegistry(), itemstore.WithTableStore("users", dedicated))
	require.NoError(t, err)

	ctx := context.Background()
	users := itemstore.MustOpen[user](c)
	require.NoError(t, users.CreateTable(ctx, provision.PayPerRequest()))
	require.NoError(t, users.Put(ctx, user{UserID: "u1", Name: "Alice"}))

	assert.Equal(t, 1, dedicated.Calls(mock.OpPut))
	assert.Zero(t, fallback.Calls(mock.OpPut))
	assert.Zero(t, fallback.Calls(mock.OpCreateTable))
}

func TestNewRequiresStoreAndRegistry(t *testing.T) {
	_, err := itemstore.New(nil, newRegistry())
	assert.True(t, errors.IsValidationError(err))
	_, err = itemstore.New(mock.New(), nil)
	assert.True(t, errors.IsValidationError(err))
}

func TestNewFromConfig(t *testing.T) {
	var built []config.Config
	factory := func(_ context.Context, cfg config.Config) (datastore.ItemStore, error) {
		built = append(built, cfg)
		return mock.New(), nil
	}

	cfg := config.Config{
		Region: "eu-west-1",
		Tables: map[string]config.TableOverride{
			"users":  {Region: "us-east-1"},
			"orders": {Region: "us-east-1"},
			"audit":  {Endpoint: "http://localhost:8000"},
			"same":   {Region: "eu-west-1"},
		},
	}
	c, err := itemstore.NewFromConfig(context.Background(), cfg, newRegistry(), itemstore.WithStoreFactory(factory))
	require.NoError(t, err)

	require.Len(t, built, 3, "one store per distinct region and endpoint")
	assert.Equal(t, "eu-west-1", built[0].Region)
	assert.Nil(t, built[0].Tables)

	r := c.Router()
	assert.Equal(t, []string{"audit", "orders", "users"}, r.Routes())
	assert.Same(t, r.Store("users"), r.Store("orders"))
	assert.NotSame(t, r.Store("users"), r.Store("audit"))
	assert.Same(t, r.Store("same"), r.Store("anything-else"))
}

func TestNewFromConfigValidates(t *testing.T) {
	called := false
	factory := func(context.Context, config.Config) (datastore.ItemStore, error) {
		called = true
		return mock.New(), nil
	}

	_, err := itemstore.NewFromConfig(context.Background(), config.Config{}, newRegistry(), itemstore.WithStoreFactory(factory))
	require.Error(t, err)
	assert.True(t, errors.IsValidationError(err))
	assert.False(t, called)
}
