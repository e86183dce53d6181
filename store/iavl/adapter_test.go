package iavl

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/weave-identity/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeBase returns the base layer
func makeBase() (store.CacheableKVStore, func()) {
	commit := MockCommitStore()
	return commit.Adapter(), func() {}
}

func TestIavlCacheGetSet(t *testing.T) {
	store.NewTestSuite(makeBase).GetSet(t)
}

func TestIavlCacheConflicts(t *testing.T) {
	store.NewTestSuite(makeBase).CacheConflicts(t)
}

func TestIavlIteratorRanges(t *testing.T) {
	store.NewTestSuite(makeBase).IteratorRanges(t)
}

func TestCommitStoreOnDisk(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "iavl-adapter-")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	commit, err := NewCommitStore(tmpDir, "base")
	require.NoError(t, err)
	require.NoError(t, commit.LoadLatestVersion())

	cache := commit.CacheWrap()
	require.NoError(t, cache.Set([]byte("identity"), []byte("value")))

	// Nothing is visible before the cache is written and committed.
	got, err := commit.Get([]byte("identity"))
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, cache.Write())
	id, err := commit.Commit()
	require.NoError(t, err)
	assert.Equal(t, int64(1), id.Version)
	assert.NotEmpty(t, id.Hash)

	got, err = commit.Get([]byte("identity"))
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)

	latest, err := commit.LatestVersion()
	require.NoError(t, err)
	assert.Equal(t, id, latest)
}
