package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBTreeCacheGetSet(t *testing.T) {
	base := MemStore()

	k, v := []byte("french"), []byte("fry")

	// nothing there yet
	got, err := base.Get(k)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, base.Set(k, v))
	got, err = base.Get(k)
	require.NoError(t, err)
	assert.Equal(t, v, got)

	has, err := base.Has(k)
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, base.Delete(k))
	has, err = base.Has(k)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestBTreeCacheWrapWriteDiscard(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))

	// writes in a discarded wrap never reach the parent
	wrap := base.CacheWrap()
	require.NoError(t, wrap.Set([]byte("b"), []byte("2")))
	require.NoError(t, wrap.Delete([]byte("a")))
	wrap.Discard()

	got, err := base.Get([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)
	has, err := base.Has([]byte("b"))
	require.NoError(t, err)
	assert.False(t, has)

	// written wraps propagate both sets and deletes
	wrap = base.CacheWrap()
	require.NoError(t, wrap.Set([]byte("b"), []byte("2")))
	require.NoError(t, wrap.Delete([]byte("a")))
	require.NoError(t, wrap.Write())

	has, err = base.Has([]byte("a"))
	require.NoError(t, err)
	assert.False(t, has)
	got, err = base.Get([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), got)
}

func TestBTreeCacheWrapNested(t *testing.T) {
	base := MemStore()
	outer := base.CacheWrap()
	inner := outer.CacheWrap()

	require.NoError(t, inner.Set([]byte("deep"), []byte("x")))
	require.NoError(t, inner.Write())
	require.NoError(t, outer.Write())

	got, err := base.Get([]byte("deep"))
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), got)
}

func TestIteratorCombinesCacheAndParent(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("a"), []byte("1")))
	require.NoError(t, base.Set([]byte("c"), []byte("3")))

	wrap := base.CacheWrap()
	require.NoError(t, wrap.Set([]byte("b"), []byte("2")))
	require.NoError(t, wrap.Delete([]byte("c")))

	iter, err := wrap.Iterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for ; iter.Valid(); require.NoError(t, iter.Next()) {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestReverseIterator(t *testing.T) {
	base := MemStore()
	for _, k := range []string{"a", "b", "c"} {
		require.NoError(t, base.Set([]byte(k), []byte(k)))
	}

	iter, err := base.ReverseIterator(nil, nil)
	require.NoError(t, err)
	defer iter.Close()

	var keys []string
	for ; iter.Valid(); require.NoError(t, iter.Next()) {
		keys = append(keys, string(iter.Key()))
	}
	assert.Equal(t, []string{"c", "b", "a"}, keys)
}
