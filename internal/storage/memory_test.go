package storage

import (
	"context"
	"testing"

	"chatsync/internal/models"

	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	store := NewMemory[models.User]()

	require.NoError(t, store.Save(ctx, models.User{ID: "b", DisplayName: "Bob"}))
	require.NoError(t, store.Save(ctx, models.User{ID: "a", DisplayName: "Alice"}))
	require.ErrorIs(t, store.Save(ctx, models.User{ID: "a"}), ErrAlreadyExists)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "Alice", got.DisplayName)

	require.NoError(t, store.Update(ctx, models.User{ID: "a", DisplayName: "Alicia"}))
	got, err = store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "Alicia", got.DisplayName)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "a", all[0].ID)
	require.Equal(t, "b", all[1].ID)

	require.NoError(t, store.Delete(ctx, "a"))
	require.ErrorIs(t, store.Delete(ctx, "a"), ErrNotFound)
	_, err = store.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.RemoveAll(ctx))
	all, err = store.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}
