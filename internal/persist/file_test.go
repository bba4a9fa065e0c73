package persist

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := OpenFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	t.Run("missing collection loads empty", func(t *testing.T) {
		docs, err := s.LoadAll(ctx, ColUsers)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("save one, load one", func(t *testing.T) {
		doc, err := MarshalDoc(map[string]any{"username": "alice", "level": 3})
		require.NoError(t, err)
		require.NoError(t, s.SaveOne(ctx, ColUsers, "alice", doc))

		got, err := s.LoadOne(ctx, ColUsers, "alice")
		require.NoError(t, err)
		assert.JSONEq(t, string(doc), string(got))

		_, err = s.LoadOne(ctx, ColUsers, "bob")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save all merges over existing keys", func(t *testing.T) {
		batch := map[string]json.RawMessage{
			"alice": json.RawMessage(`{"level":4}`),
			"bob":   json.RawMessage(`{"level":1}`),
		}
		require.NoError(t, s.SaveAll(ctx, ColUsers, batch))

		docs, err := s.LoadAll(ctx, ColUsers)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.JSONEq(t, `{"level":4}`, string(docs["alice"]))
	})

	t.Run("replace all drops absent keys", func(t *testing.T) {
		require.NoError(t, s.ReplaceAll(ctx, ColUsers, map[string]json.RawMessage{
			"carol": json.RawMessage(`{"level":9}`),
		}))

		docs, err := s.LoadAll(ctx, ColUsers)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Contains(t, docs, "carol")

		require.NoError(t, s.ReplaceAll(ctx, ColUsers, nil))
		docs, err = s.LoadAll(ctx, ColUsers)
		require.NoError(t, err)
		assert.Empty(t, docs)

		// Restock for the later subtests.
		require.NoError(t, s.SaveAll(ctx, ColUsers, map[string]json.RawMessage{
			"alice": json.RawMessage(`{"level":4}`),
			"bob":   json.RawMessage(`{"level":1}`),
		}))
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		require.NoError(t, s.Delete(ctx, ColUsers, "bob"))
		require.NoError(t, s.Delete(ctx, ColUsers, "bob"))

		_, err := s.LoadOne(ctx, ColUsers, "bob")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("collections are independent", func(t *testing.T) {
		require.NoError(t, s.SaveOne(ctx, ColNpcs, "npc-1", json.RawMessage(`{"health":5}`)))
		docs, err := s.LoadAll(ctx, ColUsers)
		require.NoError(t, err)
		assert.NotContains(t, docs, "npc-1")
	})
}

func TestFileStoreDirLock(t *testing.T) {
	dir := t.TempDir()
	s1, err := OpenFileStore(dir, zap.NewNop())
	require.NoError(t, err)

	_, err = OpenFileStore(dir, zap.NewNop())
	assert.Error(t, err)

	require.NoError(t, s1.Close())
	s2, err := OpenFileStore(dir, zap.NewNop())
	require.NoError(t, err)
	s2.Close()
}

func TestSentinel(t *testing.T) {
	dir := t.TempDir()
	assert.Empty(t, ReadSentinel(dir))

	require.NoError(t, WriteSentinel(dir, "sqlite"))
	assert.Equal(t, "sqlite", ReadSentinel(dir))

	require.NoError(t, WriteSentinel(dir, "file"))
	assert.Equal(t, "file", ReadSentinel(dir))
}
