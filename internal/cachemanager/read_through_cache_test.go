package cachemanager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type wrappedInput struct {
	Id int
}

// fakeCacheManager is a hand-written stand-in for CacheManager, used instead
// of a generated mock since ReadThroughCache only ever calls Get, GetWithRefresh,
// and Set against it.
type fakeCacheManager[K comparable, V any] struct {
	values map[K]V
	setFn  func(key K, value V, ttl time.Duration)
}

func newFakeCacheManager[K comparable, V any]() *fakeCacheManager[K, V] {
	return &fakeCacheManager[K, V]{values: map[K]V{}}
}

func (f *fakeCacheManager[K, V]) Get(_ context.Context, key K) (V, bool) {
	v, ok := f.values[key]
	return v, ok
}

func (f *fakeCacheManager[K, V]) GetMultiple(_ context.Context, keys []K) (map[K]V, bool) {
	out := make(map[K]V, len(keys))
	for _, k := range keys {
		if v, ok := f.values[k]; ok {
			out[k] = v
		}
	}
	return out, len(out) > 0
}

func (f *fakeCacheManager[K, V]) GetWithRefresh(ctx context.Context, key K, _ time.Duration) (V, bool) {
	return f.Get(ctx, key)
}

func (f *fakeCacheManager[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	f.values[key] = value
	if f.setFn != nil {
		f.setFn(key, value, ttl)
	}
}

func (f *fakeCacheManager[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCacheManager[K, V]) Flush(_ context.Context) error {
	f.values = map[K]V{}
	return nil
}

func TestReadThroughCache_Get_WithCacheDisabled(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, input wrappedInput) ([]*ExampleStruct, error) {
			return []*ExampleStruct{{ID: input.Id}}, nil
		},
		true,
	)

	examples, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*ExampleStruct{{ID: 1}}, examples)
	require.Empty(t, manager.values, "disabled cache must never be populated")
}

func TestReadThroughCache_GetWithRefresh_WithCacheDisabled(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, input wrappedInput) ([]*ExampleStruct, error) {
			return []*ExampleStruct{{ID: input.Id}}, nil
		},
		true,
	)

	examples, err := readThroughCache.GetWithRefresh(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*ExampleStruct{{ID: 1}}, examples)
}

func TestReadThroughCache_Get_WithValueInCache(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()
	manager.values["key"] = []*ExampleStruct{{ID: 1, Name: "Example"}}

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, input wrappedInput) ([]*ExampleStruct, error) {
			return []*ExampleStruct{{ID: input.Id}}, nil
		},
		false,
	)

	examples, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*ExampleStruct{{ID: 1, Name: "Example"}}, examples)
}

func TestReadThroughCache_Get_EmptyCache(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, input wrappedInput) ([]*ExampleStruct, error) {
			return []*ExampleStruct{{ID: input.Id}}, nil
		},
		false,
	)

	examples, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*ExampleStruct{{ID: 1}}, examples)
	require.Equal(t, []*ExampleStruct{{ID: 1}}, manager.values["key"], "Get must populate the cache on miss")
}

func TestReadThroughCache_Get_DatabaseError(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, _ wrappedInput) ([]*ExampleStruct, error) {
			return nil, errors.New("failed to get data")
		},
		false,
	)

	_, err := readThroughCache.Get(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.Error(t, err)
}

func TestReadThroughCache_GetWithRefresh_WithValueInCache(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()
	manager.values["key"] = []*ExampleStruct{{ID: 1, Name: "Example"}}

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, input wrappedInput) ([]*ExampleStruct, error) {
			return []*ExampleStruct{{ID: input.Id}}, nil
		},
		false,
	)

	examples, err := readThroughCache.GetWithRefresh(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*ExampleStruct{{ID: 1, Name: "Example"}}, examples)
}

func TestReadThroughCache_GetWithRefresh_EmptyCache(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, input wrappedInput) ([]*ExampleStruct, error) {
			return []*ExampleStruct{{ID: input.Id}}, nil
		},
		false,
	)

	examples, err := readThroughCache.GetWithRefresh(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.NoError(t, err)
	require.Equal(t, []*ExampleStruct{{ID: 1}}, examples)
}

func TestReadThroughCache_GetWithRefresh_DatabaseError(t *testing.T) {
	manager := newFakeCacheManager[string, []*ExampleStruct]()

	readThroughCache := NewReadThroughCache[string, []*ExampleStruct, wrappedInput](
		manager,
		func(_ context.Context, _ wrappedInput) ([]*ExampleStruct, error) {
			return nil, errors.New("failed to get data")
		},
		false,
	)

	_, err := readThroughCache.GetWithRefresh(context.Background(), "key", wrappedInput{Id: 1}, time.Minute)
	require.Error(t, err)
}
