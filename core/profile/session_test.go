package profile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRehydrates(t *testing.T) {
	storage := newMemStorage()
	require.NoError(t, storage.Write("profile."+RoleGuardian, []byte(`{"firstName":"Amina","_id":"acct1"}`)))
	require.NoError(t, storage.Write("session.token", []byte("tok1")))
	require.NoError(t, storage.Write("session.phone", []byte("+2348123456789")))

	store := NewStore(storage, nopLogger{}, RoleGuardian)
	session := NewSession(storage, nopLogger{}, store)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.AwaitHydration(ctx))

	assert.True(t, session.HasHydrated())
	assert.Equal(t, "tok1", session.Token())
	assert.Equal(t, "+2348123456789", session.Phone())
	assert.Equal(t, "Amina", store.Get()["firstName"])
}

func TestSessionEmptyStorageKeepsDefaults(t *testing.T) {
	storage := newMemStorage()
	store := NewStore(storage, nopLogger{}, RoleTutor)
	session := NewSession(storage, nopLogger{}, store)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.AwaitHydration(ctx))

	assert.Empty(t, session.Token())
	assert.Equal(t, Defaults(RoleTutor), store.Get())
}

func TestSessionSetTokenPersists(t *testing.T) {
	storage := newMemStorage()
	store := NewStore(storage, nopLogger{}, RoleGuardian)
	session := NewSession(storage, nopLogger{}, store)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.AwaitHydration(ctx))

	session.SetToken("tok2")

	data, err := storage.Read("session.token")
	require.NoError(t, err)
	assert.Equal(t, "tok2", string(data))
}

func TestSessionLogout(t *testing.T) {
	storage := newMemStorage()
	store := NewStore(storage, nopLogger{}, RoleGuardian)
	session := NewSession(storage, nopLogger{}, store)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, session.AwaitHydration(ctx))

	session.SetToken("tok3")
	store.Set(Record{"firstName": "Amina"})

	session.Logout()

	assert.Empty(t, session.Token())
	assert.Equal(t, Defaults(RoleGuardian), store.Get())
}
