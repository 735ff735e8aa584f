package continuity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetUnknownChat(t *testing.T) {
	store := NewMemoryStore[string]()

	token, ok, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

func TestMemoryStoreSetThenGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string]()

	require.NoError(t, store.Set(ctx, 42, "resp_abc"))

	token, ok, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "resp_abc", token)

	// other chats are unaffected
	_, ok, err = store.Get(ctx, 43)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreSetReplacesToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string]()

	require.NoError(t, store.Set(ctx, 1, "resp_first"))
	require.NoError(t, store.Set(ctx, 1, "resp_second"))

	token, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "resp_second", token)
}

func TestMemoryStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[string]()

	require.NoError(t, store.Set(ctx, 7, "thread_xyz"))

	ok, err := store.Clear(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	_, present, err := store.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestMemoryStoreClearAbsentChatSucceeds(t *testing.T) {
	store := NewMemoryStore[string]()

	ok, err := store.Clear(context.Background(), 123)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStoreSliceTokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[[]string]()

	require.NoError(t, store.Set(ctx, 1, []string{"system", "user"}))

	token, ok, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{"system", "user"}, token)
}
