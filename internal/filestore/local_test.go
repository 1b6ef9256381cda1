package filestore

import (
	"bytes"
	"io"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalFileStore(t *testing.T) {
	store, err := NewLocalFileStore(t.TempDir())
	require.NoError(t, err)

	t.Run("SaveAndGet", func(t *testing.T) {
		require.NoError(t, store.Save(bytes.NewReader([]byte("payload")), "file-1"))

		r, err := store.Get("file-1")
		require.NoError(t, err)
		defer func() { _ = r.Close() }()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, "payload", string(data))
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(bytes.NewReader([]byte("v1")), "file-2"))
		require.NoError(t, store.Save(bytes.NewReader([]byte("v2")), "file-2"))

		r, err := store.Get("file-2")
		require.NoError(t, err)
		defer func() { _ = r.Close() }()
		data, _ := io.ReadAll(r)
		require.Equal(t, "v2", string(data))
	})

	t.Run("ShortKey", func(t *testing.T) {
		require.NoError(t, store.Save(bytes.NewReader([]byte("x")), "k"))
		require.NoError(t, store.Delete("k"))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := store.Get("nope")
		require.ErrorIs(t, err, fs.ErrNotExist)
		require.ErrorIs(t, store.Delete("nope"), fs.ErrNotExist)
	})

	t.Run("PathTraversal", func(t *testing.T) {
		require.NoError(t, store.Save(bytes.NewReader([]byte("x")), "../../escape"))
		r, err := store.Get("../../escape")
		require.NoError(t, err)
		_ = r.Close()
	})

	t.Run("DistinctKeysDoNotCollide", func(t *testing.T) {
		keys := []string{"a/b", "a_b", "a\\b", "..", "__", ".", "a"}
		for _, key := range keys {
			require.NoError(t, store.Save(bytes.NewReader([]byte("v:"+key)), key))
		}
		for _, key := range keys {
			r, err := store.Get(key)
			require.NoError(t, err)
			data, err := io.ReadAll(r)
			_ = r.Close()
			require.NoError(t, err)
			require.Equal(t, "v:"+key, string(data))
		}
	})

	t.Run("EmptyKey", func(t *testing.T) {
		require.ErrorIs(t, store.Save(bytes.NewReader([]byte("x")), ""), ErrEmptyKey)
		_, err := store.Get("")
		require.ErrorIs(t, err, ErrEmptyKey)
		require.ErrorIs(t, store.Delete(""), ErrEmptyKey)
	})
}
