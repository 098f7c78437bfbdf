package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/loomhq/loom/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)

	value, err := store.Get([]byte("missing"))
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, store.Put([]byte("k1"), []byte("v1")))
	value, err = store.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), value)

	require.NoError(t, store.Delete([]byte("k1")))
	value, err = store.Get([]byte("k1"))
	require.NoError(t, err)
	require.Nil(t, value)
}

func TestStoreListByPrefix(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put([]byte("thread:a"), []byte("1")))
	require.NoError(t, store.Put([]byte("thread:b"), []byte("2")))
	require.NoError(t, store.Put([]byte("session"), []byte("3")))

	result, err := store.List([]byte("thread:"))
	require.NoError(t, err)
	require.Len(t, result, 2)
	require.Equal(t, []byte("1"), result["thread:a"])
	require.Equal(t, []byte("2"), result["thread:b"])
}

func TestSessionRoundTrip(t *testing.T) {
	store := openTestStore(t)

	loaded, err := store.LoadSession()
	require.NoError(t, err)
	require.Nil(t, loaded)

	session := &models.Session{
		Token: "tok-1",
		User:  &models.UserProfile{ID: 1, Email: "a@b.c", IsActive: true},
	}
	require.NoError(t, store.SaveSession(session))

	loaded, err = store.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, "tok-1", loaded.Token)
	require.NotNil(t, loaded.User)
	require.Equal(t, 1, loaded.User.ID)

	require.NoError(t, store.ClearSession())
	loaded, err = store.LoadSession()
	require.NoError(t, err)
	require.Nil(t, loaded)
}

func TestSaveSessionRequiresToken(t *testing.T) {
	store := openTestStore(t)

	require.Error(t, store.SaveSession(nil))
	require.Error(t, store.SaveSession(&models.Session{}))
}

func TestActiveThreadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	threadID, err := store.LoadActiveThread()
	require.NoError(t, err)
	require.Empty(t, threadID)

	require.NoError(t, store.SaveActiveThread("t1"))
	threadID, err = store.LoadActiveThread()
	require.NoError(t, err)
	require.Equal(t, "t1", threadID)

	// Saving the empty id removes the key.
	require.NoError(t, store.SaveActiveThread(""))
	threadID, err = store.LoadActiveThread()
	require.NoError(t, err)
	require.Empty(t, threadID)
}

func TestCloseIsIdempotent(t *testing.T) {
	store, err := Open(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}
