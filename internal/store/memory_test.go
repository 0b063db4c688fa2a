package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryInsertAndGet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	e, err := s.Insert(ctx, Entity{Partition: PartitionProduct, Key: "p1", Body: []byte(`{"name":"laptop"}`)})
	require.NoError(t, err)
	assert.NotEmpty(t, e.ETag)

	got, err := s.Get(ctx, PartitionProduct, "p1")
	require.NoError(t, err)
	assert.Equal(t, e.ETag, got.ETag)
	assert.JSONEq(t, `{"name":"laptop"}`, string(got.Body))

	_, err = s.Get(ctx, PartitionProduct, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryInsertDuplicateKey(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Insert(ctx, Entity{Partition: PartitionOrder, Key: "o1", Body: []byte(`{}`)})
	require.NoError(t, err)

	_, err = s.Insert(ctx, Entity{Partition: PartitionOrder, Key: "o1", Body: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestMemoryUpdateStaleETag(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	e, err := s.Insert(ctx, Entity{Partition: PartitionProduct, Key: "p1", Body: []byte(`{"stock":10}`)})
	require.NoError(t, err)

	first, err := s.Update(ctx, Entity{Partition: PartitionProduct, Key: "p1", ETag: e.ETag, Body: []byte(`{"stock":9}`)})
	require.NoError(t, err)
	assert.NotEqual(t, e.ETag, first.ETag)

	// second writer still holds the original token
	_, err = s.Update(ctx, Entity{Partition: PartitionProduct, Key: "p1", ETag: e.ETag, Body: []byte(`{"stock":8}`)})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Update(ctx, Entity{Partition: PartitionProduct, Key: "ghost", ETag: e.ETag, Body: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryDelete(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Insert(ctx, Entity{Partition: PartitionOrder, Key: "o1", Body: []byte(`{}`)})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, PartitionOrder, "o1"))
	assert.ErrorIs(t, s.Delete(ctx, PartitionOrder, "o1"), ErrNotFound)
}

func TestMemoryListIsolatesPartitions(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, err := s.Insert(ctx, Entity{Partition: PartitionProduct, Key: "b", Body: []byte(`{}`)})
	require.NoError(t, err)
	_, err = s.Insert(ctx, Entity{Partition: PartitionProduct, Key: "a", Body: []byte(`{}`)})
	require.NoError(t, err)
	_, err = s.Insert(ctx, Entity{Partition: PartitionCustomer, Key: "c", Body: []byte(`{}`)})
	require.NoError(t, err)

	products, err := s.List(ctx, PartitionProduct)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "a", products[0].Key)
	assert.Equal(t, "b", products[1].Key)
}
