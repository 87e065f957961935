package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkBlocksSplitsEveryTwentyFiveLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 60; i++ {
		b.WriteString("line\n")
	}
	blocks := ChunkBlocks("file:///foo.rs", b.String(), "")
	require.Len(t, blocks, 3)
	require.Equal(t, 0, blocks[0].ChunkIndex)
	require.Equal(t, 1, blocks[1].ChunkIndex)
	require.Equal(t, 2, blocks[2].ChunkIndex)
	require.Equal(t, strings.Repeat("line\n", 25), blocks[0].Content)
	require.Equal(t, strings.Repeat("line\n", 10), blocks[2].Content)
}

func TestChunkBlocksEmptyTextYieldsNoBlocks(t *testing.T) {
	require.Empty(t, ChunkBlocks("file:///foo.rs", "", ""))
}

func TestBlockIDIsDeterministic(t *testing.T) {
	blocks := ChunkBlocks("file:///foo.rs", "one\ntwo\n", "")
	require.Len(t, blocks, 1)
	again := ChunkBlocks("file:///foo.rs", "one\ntwo\n", "")
	require.Equal(t, blocks[0].ID(), again[0].ID())
}

func TestHotCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewHotCache(2)
	c.Put("a", []Block{{Content: "a"}})
	c.Put("b", []Block{{Content: "b"}})
	_, _ = c.Get("a")
	c.Put("c", []Block{{Content: "c"}})

	_, ok := c.Get("b")
	require.False(t, ok, "b should have been evicted as least recently used")

	_, ok = c.Get("a")
	require.True(t, ok)
	_, ok = c.Get("c")
	require.True(t, ok)
}

func TestDocumentStoreLifecycle(t *testing.T) {
	ds := NewDocumentStore()
	_, ok := ds.Get("file:///foo.rs")
	require.False(t, ok)

	ds.Set("file:///foo.rs", nil)
	_, ok = ds.Get("file:///foo.rs")
	require.True(t, ok)

	ds.Delete("file:///foo.rs")
	_, ok = ds.Get("file:///foo.rs")
	require.False(t, ok)
}
