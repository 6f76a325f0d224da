package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iamfittz/aptos-core/leveldb"
)

func newTestStateDB(t *testing.T) *StateDB {
	t.Helper()
	db, err := leveldb.New(t.TempDir(), 16, 16, false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sdb, err := NewStateDB(db)
	require.NoError(t, err)
	return sdb
}

func TestStateDBVersionedGet(t *testing.T) {
	sdb := newTestStateDB(t)
	key := []byte("some-key")

	_, err := sdb.Get(key, LatestVersion)
	assert.ErrorIs(t, err, ErrAbsent)

	require.NoError(t, sdb.Commit(5, []KeyValue{{Key: key, Value: []byte("v5")}}))
	require.NoError(t, sdb.Commit(9, []KeyValue{{Key: key, Value: []byte("v9")}}))
	assert.Equal(t, Version(9), sdb.LatestVersion())

	// reads at a fixed version see the last value at or before it
	_, err = sdb.Get(key, 4)
	assert.ErrorIs(t, err, ErrAbsent)

	got, err := sdb.Get(key, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("v5"), got)

	got, err = sdb.Get(key, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("v5"), got)

	got, err = sdb.Get(key, LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, []byte("v9"), got)

	// a later commit must not change what version 5 reads
	require.NoError(t, sdb.Commit(12, []KeyValue{{Key: key, Value: []byte("v12")}}))
	got, err = sdb.Get(key, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("v5"), got)
}

func TestStateDBCommitMonotonic(t *testing.T) {
	sdb := newTestStateDB(t)
	require.NoError(t, sdb.Commit(3, nil))

	assert.ErrorIs(t, sdb.Commit(3, nil), ErrNonMonotonicVersion)
	assert.ErrorIs(t, sdb.Commit(2, nil), ErrNonMonotonicVersion)
	assert.ErrorIs(t, sdb.Commit(LatestVersion, nil), ErrNonMonotonicVersion)
	require.NoError(t, sdb.Commit(4, nil))
}

func TestStateDBKeysDoNotAlias(t *testing.T) {
	sdb := newTestStateDB(t)
	// one key being a prefix of another must not alias records
	require.NoError(t, sdb.Commit(1, []KeyValue{
		{Key: []byte("ab"), Value: []byte("short")},
		{Key: []byte("abc"), Value: []byte("long")},
	}))

	got, err := sdb.Get([]byte("ab"), LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, []byte("short"), got)

	got, err = sdb.Get([]byte("abc"), LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, []byte("long"), got)
}

func TestStateDBReopenKeepsLatest(t *testing.T) {
	dir := t.TempDir()
	db, err := leveldb.New(dir, 16, 16, false)
	require.NoError(t, err)
	sdb, err := NewStateDB(db)
	require.NoError(t, err)
	require.NoError(t, sdb.Commit(7, []KeyValue{{Key: []byte("k"), Value: []byte("v")}}))
	require.NoError(t, db.Close())

	db, err = leveldb.New(dir, 16, 16, false)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	sdb, err = NewStateDB(db)
	require.NoError(t, err)
	assert.Equal(t, Version(7), sdb.LatestVersion())
	assert.ErrorIs(t, sdb.Commit(6, nil), ErrNonMonotonicVersion)
}

func TestParseTableHandle(t *testing.T) {
	handle, err := ParseTableHandle("1")
	require.NoError(t, err)
	assert.Equal(t, "1", handle.String())

	handle, err = ParseTableHandle("340282366920938463463374607431768211455")
	require.NoError(t, err)
	assert.Equal(t, "340282366920938463463374607431768211455", handle.String())

	for _, input := range []string{"", "0x1", "-1", "abc", "340282366920938463463374607431768211456"} {
		_, err := ParseTableHandle(input)
		require.Errorf(t, err, "input %q", input)
		var handleErr *HandleError
		assert.ErrorAsf(t, err, &handleErr, "input %q", input)
	}
}
