package usecase

import (
	"context"
	"testing"
	"time"

	"chatsync/internal/models"
	"chatsync/internal/remote"
	"chatsync/internal/repository"

	"github.com/stretchr/testify/require"
)

func TestDialogs_List(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for i := range 15 {
		e.dialogRemote.put(dialog(string(rune('a'+i)), t0.Add(time.Duration(i)*time.Minute)))
	}

	items, page, err := e.dialogs.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 10)
	require.Equal(t, "j", items[0].ID, "most recently updated first")
	require.True(t, page.HasMore())

	items, page, err = e.dialogs.List(ctx, page.Next().Page())
	require.NoError(t, err)
	require.Len(t, items, 15)
	require.Equal(t, "o", items[0].ID)
	require.Equal(t, "a", items[14].ID)
	require.False(t, page.HasMore())

	cached, err := e.dialogLocal.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 15)
}

func TestDialogs_ListMovesUpdatedDialog(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.dialogRemote.put(dialog("d1", t0))
	e.dialogRemote.put(dialog("d2", t0.Add(time.Minute)))

	items, _, err := e.dialogs.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"d2", "d1"}, ids(items))

	e.dialogRemote.put(dialog("d1", t0.Add(time.Hour)))
	items, _, err = e.dialogs.List(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"d1", "d2"}, ids(items))
	require.Equal(t, t0.Add(time.Hour), items[0].UpdatedAt)
}

func TestDialogs_Leave(t *testing.T) {
	ctx := context.Background()

	t.Run("forgets dialog", func(t *testing.T) {
		e := newEnv(t)
		e.dialogRemote.put(dialog("d1", t0, "me"))
		e.messageRemote.put(message("m1", "d1", "me", t0))
		_, err := e.dialogs.Get(ctx, "d1")
		require.NoError(t, err)
		_, _, err = e.messages.List(ctx, "d1", 1)
		require.NoError(t, err)

		require.NoError(t, e.dialogs.Leave(ctx, "d1"))
		require.Equal(t, []string{"d1"}, e.leaver.left)
		require.Empty(t, e.dialogs.Items())
		require.Empty(t, e.messages.Timeline("d1"))
		_, err = e.dialogLocal.Get(ctx, "d1")
		require.Error(t, err)
	})

	t.Run("remote failure keeps dialog", func(t *testing.T) {
		e := newEnv(t)
		e.dialogRemote.put(dialog("d1", t0, "me"))
		_, err := e.dialogs.Get(ctx, "d1")
		require.NoError(t, err)
		e.leaver.err = remote.ErrRestrictedAccess

		err = e.dialogs.Leave(ctx, "d1")
		require.ErrorIs(t, err, repository.ErrRestrictedAccess)
		require.Equal(t, []string{"d1"}, ids(e.dialogs.Items()))
	})
}

func TestClearCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.dialogRemote.put(dialog("d1", t0))
	e.userRemote.put(models.User{ID: "u1"})
	_, err := e.dialogs.Get(ctx, "d1")
	require.NoError(t, err)
	_, err = e.users.Get(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, ClearCache(ctx, e.dialogs, e.dialogRepo, e.userRepo, e.messageRepo, e.fileRepo))
	require.Empty(t, e.dialogs.Items())

	dialogs, err := e.dialogLocal.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, dialogs)
	users, err := e.userLocal.GetAll(ctx)
	require.NoError(t, err)
	require.Empty(t, users)
}
