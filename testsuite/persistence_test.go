package testsuite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lexcodex/espxls/store"
	"github.com/lexcodex/espxls/store/sqlitekv"
)

func openTestEngine(t *testing.T) *sqlitekv.Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.sqlite3")
	e, err := sqlitekv.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// TestPersistenceRoundTrip checks that blocks inserted via upsert come back exactly for a select filtered by URI.
func TestPersistenceRoundTrip(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	blocksA := store.ChunkBlocks("file:///a.rs", "line one\nline two\n", "")
	blocksB := store.ChunkBlocks("file:///b.rs", "other file\n", "")

	require.NoError(t, e.UpsertBlocks(ctx, blocksA))
	require.NoError(t, e.UpsertBlocks(ctx, blocksB))

	got, err := e.SelectByURI(ctx, "file:///a.rs")
	require.NoError(t, err)
	require.Len(t, got, len(blocksA))
	for _, b := range got {
		require.Equal(t, "file:///a.rs", b.URI)
	}
}

// TestRAGRetrievalFindsWatermelon checks that after saving blocks containing "watermelon", a query for "melon" surfaces that
// block first once its cosine similarity clears the 0.5 threshold.
func TestRAGRetrievalFindsWatermelon(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	melonBlocks := store.ChunkBlocks("file:///fruit.rs", "the watermelon is ripe\n", "")
	bananaBlocks := store.ChunkBlocks("file:///other.rs", "a banana and bread\n", "")
	require.NoError(t, e.UpsertBlocks(ctx, melonBlocks))
	require.NoError(t, e.UpsertBlocks(ctx, bananaBlocks))

	embedder := &vocabEmbedder{vocab: []string{"watermelon", "melon", "banana"}}
	query, err := embedder.EmbedBatch(ctx, []string{"melon"})
	require.NoError(t, err)

	results, err := e.GetRelevant(ctx, embedder, query[0], 0.5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	require.Contains(t, results[0].Content, "watermelon")
}
