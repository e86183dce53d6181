package store

import (
	"bytes"
	"sort"
	"testing"

	"github.com/iov-one/weave-identity/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSuite provides many methods that can be called in package-specific
// test code. We just customize the store being tested (pass in
// constructor), the rest of the logic is generic to the KVStore interface.
//
// It is shared between btree_test.go and iavl/adapter_test.go.
type TestSuite struct {
	makeBase TestStoreConstructor
}

type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet does basic sanity checks on our cache
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	// make sure the store is empty at start but returns results
	// that are written to it
	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	require.NoError(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	s.AssertGetHas(t, cache, k2, nil, false)
	require.NoError(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	require.NoError(t, c2.Set(k3, v3))
	s.AssertGetHas(t, c2, k3, v3, true)
	c2.Discard()
	s.AssertGetHas(t, base, k3, nil, false)

	// and commit another
	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	s.AssertGetHas(t, c3, k, nil, false)
	s.AssertGetHas(t, base, k, v, true)
	require.NoError(t, c3.Write())
	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
}

// CacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func (s *TestSuite) CacheConflicts(t *testing.T) {
	ks := [][]byte{[]byte("k0"), []byte("k1"), []byte("k2"), []byte("k3")}
	vs := [][]byte{[]byte("v0"), []byte("v1"), []byte("v2"), []byte("v3"), []byte("v11")}

	parent, cleanup := s.makeBase()
	defer cleanup()

	for _, op := range []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])} {
		require.NoError(t, op.Apply(parent))
	}

	child := parent.CacheWrap()
	for _, op := range []Op{SetOp(ks[1], vs[4]), SetOp(ks[3], vs[3]), DelOp(ks[2])} {
		require.NoError(t, op.Apply(child))
	}

	// the parent is unaffected
	s.AssertGetHas(t, parent, ks[1], vs[1], true)
	s.AssertGetHas(t, parent, ks[2], vs[2], true)
	s.AssertGetHas(t, parent, ks[3], nil, false)

	childWant := []Model{Pair(ks[1], vs[4]), Pair(ks[3], vs[3])}
	s.AssertGetHas(t, child, ks[2], nil, false)
	for _, m := range childWant {
		s.AssertGetHas(t, child, m.Key, m.Value, true)
	}
	s.AssertIterator(t, child, nil, nil, false, childWant)
	s.AssertIterator(t, child, nil, nil, true, []Model{childWant[1], childWant[0]})

	// write child to parent and make sure it also shows proper data
	require.NoError(t, child.Write())
	s.AssertGetHas(t, parent, ks[2], nil, false)
	for _, m := range childWant {
		s.AssertGetHas(t, parent, m.Key, m.Value, true)
	}
	s.AssertIterator(t, parent, nil, nil, false, childWant)
}

// IteratorRanges checks range boundaries of the combined iterator. Start
// is inclusive and end exclusive in both directions.
func (s *TestSuite) IteratorRanges(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	var all []Model
	for _, k := range []string{"a", "c", "e", "g"} {
		m := Pair([]byte(k), []byte("parent-"+k))
		require.NoError(t, base.Set(m.Key, m.Value))
		all = append(all, m)
	}
	child := base.CacheWrap()
	for _, k := range []string{"b", "d", "f"} {
		m := Pair([]byte(k), []byte("child-"+k))
		require.NoError(t, child.Set(m.Key, m.Value))
		all = append(all, m)
	}
	require.NoError(t, child.Delete([]byte("e")))
	var want []Model
	for _, m := range sortModels(all) {
		if string(m.Key) != "e" {
			want = append(want, m)
		}
	}
	// want: a b c d f g

	s.AssertIterator(t, child, nil, nil, false, want)
	s.AssertIterator(t, child, []byte("b"), []byte("f"), false, want[1:4])
	s.AssertIterator(t, child, []byte("c"), nil, false, want[2:])
	s.AssertIterator(t, child, nil, []byte("c"), false, want[:2])
	s.AssertIterator(t, child, nil, nil, true, reverse(want))
	s.AssertIterator(t, child, []byte("b"), []byte("f"), true, reverse(want[1:4]))
}

// AssertGetHas makes sure that this key returns
// the given value or nil, and has is true iff
// the value is non-nil
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	require.NoError(t, err)
	assert.Equal(t, has, exists)
}

// AssertIterator consumes an iterator over given range and compares the
// result with the expected models.
func (s *TestSuite) AssertIterator(t testing.TB, kv ReadOnlyKVStore, start, end []byte, desc bool, want []Model) {
	t.Helper()
	var (
		iter Iterator
		err  error
	)
	if desc {
		iter, err = kv.ReverseIterator(start, end)
	} else {
		iter, err = kv.Iterator(start, end)
	}
	require.NoError(t, err)
	defer iter.Release()

	var got []Model
	for {
		key, value, err := iter.Next()
		if errors.ErrIteratorDone.Is(err) {
			break
		}
		require.NoError(t, err)
		got = append(got, Pair(key, value))
	}
	require.Equal(t, len(want), len(got), "unexpected number of items")
	for i := range want {
		assert.Equal(t, want[i].Key, got[i].Key, "key %d", i)
		assert.Equal(t, want[i].Value, got[i].Value, "value %d", i)
	}
}

func sortModels(ms []Model) []Model {
	res := make([]Model, len(ms))
	copy(res, ms)
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Key, res[j].Key) < 0
	})
	return res
}

func reverse(ms []Model) []Model {
	res := make([]Model, len(ms))
	for i, m := range ms {
		res[len(ms)-1-i] = m
	}
	return res
}
