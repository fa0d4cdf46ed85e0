package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testDBAdapter(t *testing.T, db DB) {
	t.Helper()

	u, err := db.CreateUser("alice", "hash-1")
	require.NoError(t, err)
	require.NotZero(t, u.ID)

	_, err = db.CreateUser("alice", "hash-2")
	assert.ErrorIs(t, err, ErrConflict)

	got, err := db.GetUserByUsername("alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hash-1", got.PasswordHash)

	missing, err := db.GetUserByUsername("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = db.AppendProvenance("alice", "digest-1")
	require.NoError(t, err)
	_, err = db.AppendProvenance("alice", "digest-2")
	require.NoError(t, err)
	_, err = db.AppendProvenance("bob", "digest-3")
	require.NoError(t, err)

	records, err := db.ListProvenanceByOwner("alice")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "digest-1", records[0].ContentID)
	assert.Equal(t, "digest-2", records[1].ContentID)

	empty, err := db.ListProvenanceByOwner("nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryDB(t *testing.T) {
	testDBAdapter(t, NewMemoryDB())
}

func TestSQLiteDB(t *testing.T) {
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.close() })

	testDBAdapter(t, db)
}
