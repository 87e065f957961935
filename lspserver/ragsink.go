package lspserver

import (
	"context"

	"github.com/lexcodex/espxls/agent"
	"github.com/lexcodex/espxls/store"
)

// ragSink implements reconcile.BlockSink: a RagPush-tagged block is
// chunked and upserted into the persistence layer's blocks table,
// tagged with the originating agent.
type ragSink struct {
	ctx context.Context
	db  blockUpserter
}

// blockUpserter is the slice of *sqlitekv.Engine this sink needs,
// named so ragSink doesn't import sqlitekv directly and can be swapped
// for a fake in tests.
type blockUpserter interface {
	UpsertBlocks(ctx context.Context, blocks []store.Block) error
}

func newRagSink(ctx context.Context, db blockUpserter) *ragSink {
	return &ragSink{ctx: ctx, db: db}
}

// PushBlock chunks content the same way save-time materialization does
// (store.ChunkBlocks) but stamps every chunk with id's encoded key,
// recording the originating agent on each stored block. GetRelevant
// does not filter on this tag.
func (s *ragSink) PushBlock(id agent.ID, uri, content string) error {
	if s.db == nil {
		return nil
	}
	blocks := store.ChunkBlocks(uri, content, id.EncodeKey())
	return s.db.UpsertBlocks(s.ctx, blocks)
}
