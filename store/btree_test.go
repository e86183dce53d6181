package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBase() (CacheableKVStore, func()) {
	commit := BTreeCacheable{EmptyKVStore{}}
	return commit.CacheWrap(), func() {}
}

func TestBTreeCacheGetSet(t *testing.T) {
	NewTestSuite(makeBase).GetSet(t)
}

func TestBTreeCacheConflicts(t *testing.T) {
	NewTestSuite(makeBase).CacheConflicts(t)
}

func TestBTreeIteratorRanges(t *testing.T) {
	NewTestSuite(makeBase).IteratorRanges(t)
}

func TestLogableStore(t *testing.T) {
	kv, ops := LogableStore()
	require.NoError(t, kv.Set([]byte("a"), []byte("1")))
	require.NoError(t, kv.Delete([]byte("b")))
	assert.Equal(t, []Op{SetOp([]byte("a"), []byte("1")), DelOp([]byte("b"))}, ops.ShowOps())
}

func TestNestedCacheWrapDiscard(t *testing.T) {
	base := MemStore()
	require.NoError(t, base.Set([]byte("k"), []byte("base")))

	outer := base.CacheWrap()
	require.NoError(t, outer.Set([]byte("k"), []byte("outer")))

	inner := outer.CacheWrap()
	require.NoError(t, inner.Set([]byte("k"), []byte("inner")))
	inner.Discard()

	got, err := outer.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("outer"), got)

	require.NoError(t, outer.Write())
	got, err = base.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("outer"), got)
}
