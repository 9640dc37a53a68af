package credentials

import (
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/teslaowner/internal/api/tesla"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "credentials.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"keyring": NewKeyringStore(keyring.NewArrayKeyring(nil)),
		"sqlite":  newSQLiteStore(t),
	}
}

func TestStoreGetSet(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(KeyEmail)
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(KeyEmail, []byte("me@example.com")))
			data, err := store.Get(KeyEmail)
			require.NoError(t, err)
			assert.Equal(t, "me@example.com", string(data))

			require.NoError(t, store.Set(KeyEmail, []byte("other@example.com")))
			data, err = store.Get(KeyEmail)
			require.NoError(t, err)
			assert.Equal(t, "other@example.com", string(data))
		})
	}
}

func TestSessionRoundTrip(t *testing.T) {
	token := &tesla.Token{
		AccessToken:  "qts-abc",
		TokenType:    "bearer",
		ExpiresIn:    3888000,
		RefreshToken: "rft-def",
		CreatedAt:    1610900000,
	}

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := LoadSession(store)
			require.NoError(t, err)
			assert.Nil(t, empty.Token)
			assert.Empty(t, empty.Email)

			require.NoError(t, SaveSession(store, Session{Token: token, Email: "me@example.com", Password: "hunter2"}))

			session, err := LoadSession(store)
			require.NoError(t, err)
			assert.Equal(t, token, session.Token)
			assert.Equal(t, "me@example.com", session.Email)
			assert.Equal(t, "hunter2", session.Password)

			require.NoError(t, SaveToken(store, nil))
			session, err = LoadSession(store)
			require.NoError(t, err)
			assert.Nil(t, session.Token)
			assert.Equal(t, "me@example.com", session.Email)
		})
	}
}

func TestLoadSessionCorruptToken(t *testing.T) {
	store := NewKeyringStore(keyring.NewArrayKeyring([]keyring.Item{
		{Key: KeyToken, Data: []byte("not json")},
	}))

	_, err := LoadSession(store)
	assert.Error(t, err)
}
