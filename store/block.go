// Package store implements the persistence layer: document block
// chunking, a query-builder DSL over a document database with vector
// search, and a URI-keyed document store. The backing engine lives in
// store/sqlitekv.
package store

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// Block is a 25-line chunk of one document's non-comment content.
// Embedding is nil until a retrieval query materializes it.
type Block struct {
	ChunkIndex int
	EncodedURI string
	URI        string
	Content    string
	Embedding  []float32
	Pending    bool

	// AgentTag is the originating agent's encoded ID for blocks pushed
	// via the RagPush command; empty for blocks materialized from a
	// document's ordinary content at save time.
	AgentTag string
}

// ID renders the deterministic block id: (chunk_index,
// base64url(uri)).
func (b Block) ID() string {
	return b.EncodedURI + ":" + strconv.Itoa(b.ChunkIndex)
}

const chunkLines = 25

// ChunkBlocks splits a document's concatenated block text into
// contiguous 25-line chunks. agentTag is stamped onto every resulting
// chunk; pass "" for the ordinary save-time materialization.
func ChunkBlocks(uri, text, agentTag string) []Block {
	encoded := base64.URLEncoding.EncodeToString([]byte(uri))
	lines := splitLinesKeepEnds(text)

	var out []Block
	for start := 0; start < len(lines); start += chunkLines {
		end := start + chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		content := strings.Join(lines[start:end], "")
		if content == "" {
			continue
		}
		out = append(out, Block{
			ChunkIndex: start / chunkLines,
			EncodedURI: encoded,
			URI:        uri,
			Content:    content,
			AgentTag:   agentTag,
		})
	}
	return out
}

// splitLinesKeepEnds splits text into lines, each retaining its
// trailing newline (except possibly the last), so rejoining chunk
// boundaries reproduces the source exactly.
func splitLinesKeepEnds(text string) []string {
	if text == "" {
		return nil
	}
	var out []string
	start := 0
	for i, r := range text {
		if r == '\n' {
			out = append(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
