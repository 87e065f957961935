// Package sqlitekv is the concrete backing engine for store's query
// builder DSL: a sqlite3 database acting as a vector KV store, with
// cosine-similarity retrieval done engine-side over blob-encoded
// embedding columns.
package sqlitekv

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lexcodex/espxls/espxerr"
	"github.com/lexcodex/espxls/provider"
	"github.com/lexcodex/espxls/store"
)

var tableColumns = map[string][]string{
	"blocks":   {"uri", "content", "embedding", "pending", "agent_tag"},
	"memories": {"messages"},
}

// Engine opens the sqlite-backed vector KV store and executes query
// builder statements against it, one transaction per Execute call.
type Engine struct {
	db *sql.DB
}

// Open creates or opens the database file at path and ensures the
// blocks/memories schema exists.
func Open(path string) (*Engine, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	e := &Engine{db: db}
	if err := e.initSchema(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blocks (
		id TEXT PRIMARY KEY,
		uri TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		embedding BLOB,
		pending INTEGER NOT NULL DEFAULT 0,
		agent_tag TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		messages TEXT NOT NULL DEFAULT '[]'
	);
	`
	if _, err := e.db.Exec(schema); err != nil {
		return fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (e *Engine) Close() error {
	if e == nil || e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Execute runs every statement in b inside one BEGIN/COMMIT
// transaction and returns the accumulated rows from any Select
// statements in submission order.
func (e *Engine) Execute(ctx context.Context, b *store.Builder) ([]store.Row, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}

	var rows []store.Row
	for _, stmt := range b.Statements() {
		var err error
		switch s := stmt.(type) {
		case store.UpsertStmt:
			err = execUpsert(tx, s.Record)
		case store.UpdateStmt:
			err = execUpdate(tx, s.Match, s.Record)
		case store.DeleteStmt:
			err = execDelete(tx, s.Table, s.Match)
		case store.SelectStmt:
			var r []store.Row
			r, err = execSelect(tx, s)
			rows = append(rows, r...)
		}
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	return rows, nil
}

func execUpsert(tx *sql.Tx, r store.Record) error {
	cols, ok := tableColumns[r.Table]
	if !ok {
		return fmt.Errorf("%w: unknown table %q", espxerr.ErrDatabase, r.Table)
	}
	names := []string{"id"}
	placeholders := []string{"?"}
	args := []any{r.ID}
	var updates []string
	for _, c := range cols {
		v, present := r.Fields[c]
		if !present {
			continue
		}
		names = append(names, c)
		placeholders = append(placeholders, "?")
		args = append(args, v)
		updates = append(updates, fmt.Sprintf("%s=excluded.%s", c, c))
	}

	conflict := "ON CONFLICT(id) DO NOTHING"
	if len(updates) > 0 {
		conflict = "ON CONFLICT(id) DO UPDATE SET " + strings.Join(updates, ",")
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) %s",
		r.Table, strings.Join(names, ","), strings.Join(placeholders, ","), conflict)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	return nil
}

func execUpdate(tx *sql.Tx, m store.FieldMatch, r store.Record) error {
	cols, ok := tableColumns[r.Table]
	if !ok {
		return fmt.Errorf("%w: unknown table %q", espxerr.ErrDatabase, r.Table)
	}
	var sets []string
	var args []any
	for _, c := range cols {
		v, present := r.Fields[c]
		if !present {
			continue
		}
		sets = append(sets, c+"=?")
		args = append(args, v)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, m.Value)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s=?", r.Table, strings.Join(sets, ","), m.Field)
	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	return nil
}

func execDelete(tx *sql.Tx, table string, m store.FieldMatch) error {
	if _, ok := tableColumns[table]; !ok {
		return fmt.Errorf("%w: unknown table %q", espxerr.ErrDatabase, table)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s=?", table, m.Field)
	if _, err := tx.Exec(query, m.Value); err != nil {
		return fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	return nil
}

func execSelect(tx *sql.Tx, s store.SelectStmt) ([]store.Row, error) {
	cols, ok := tableColumns[s.Table]
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q", espxerr.ErrDatabase, s.Table)
	}
	projection := s.Projection
	if len(projection) == 0 {
		projection = append([]string{"id"}, cols...)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(projection, ","), s.Table)
	var args []any
	if s.Match != nil {
		query += fmt.Sprintf(" WHERE %s=?", s.Match.Field)
		args = append(args, s.Match.Value)
	}

	rows, err := tx.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
	}
	defer rows.Close()

	var out []store.Row
	for rows.Next() {
		dest := make([]any, len(projection))
		ptrs := make([]any, len(projection))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("%w: %v", espxerr.ErrDatabase, err)
		}
		row := make(store.Row, len(projection))
		for i, col := range projection {
			row[col] = dest[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// encodeEmbedding/decodeEmbedding store a []float32 as a little-endian
// BLOB, since database/sql has no native float-vector column type.
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float32 {
	vec := make([]float32, len(buf)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return vec
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// UpsertBlocks stores a batch of blocks in one transaction.
func (e *Engine) UpsertBlocks(ctx context.Context, blocks []store.Block) error {
	b := store.NewBuilder()
	for _, blk := range blocks {
		fields := map[string]any{
			"uri":       blk.URI,
			"content":   blk.Content,
			"pending":   boolToInt(blk.Pending),
			"agent_tag": blk.AgentTag,
		}
		if blk.Embedding != nil {
			fields["embedding"] = encodeEmbedding(blk.Embedding)
		}
		b.Upsert(store.Record{Table: "blocks", ID: blk.ID(), Fields: fields})
	}
	_, err := e.Execute(ctx, b)
	return err
}

// SelectByURI returns every block belonging to uri.
func (e *Engine) SelectByURI(ctx context.Context, uri string) ([]store.Block, error) {
	b := store.NewBuilder().Select("blocks", &store.FieldMatch{Field: "uri", Value: uri}, nil)
	rows, err := e.Execute(ctx, b)
	if err != nil {
		return nil, err
	}
	return rowsToBlocks(rows), nil
}

func rowsToBlocks(rows []store.Row) []store.Block {
	out := make([]store.Block, 0, len(rows))
	for _, row := range rows {
		encodedURI, chunkIndex := splitID(asString(row["id"]))
		blk := store.Block{
			ChunkIndex: chunkIndex,
			EncodedURI: encodedURI,
			URI:        asString(row["uri"]),
			Content:    asString(row["content"]),
			Pending:    asInt(row["pending"]) != 0,
			AgentTag:   asString(row["agent_tag"]),
		}
		if raw, ok := row["embedding"].([]byte); ok && len(raw) > 0 {
			blk.Embedding = decodeEmbedding(raw)
		}
		out = append(out, blk)
	}
	return out
}

// splitID reverses Block.ID's "encodedURI:chunkIndex" format.
func splitID(id string) (encodedURI string, chunkIndex int) {
	i := strings.LastIndex(id, ":")
	if i < 0 {
		return id, 0
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return id, 0
	}
	return id[:i], n
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return ""
	}
}

func asInt(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	default:
		return 0
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// GetRelevant performs lazy embedding fill-in followed by retrieval:
// any block with no embedding is batch-embedded and written back in
// one transaction, blocks the embedder fails on are marked pending
// and excluded, then every remaining block whose cosine similarity to
// queryEmbedding exceeds threshold is returned, highest first.
func (e *Engine) GetRelevant(ctx context.Context, embedder provider.Embedder, queryEmbedding []float32, threshold float64) ([]store.Block, error) {
	rows, err := e.Execute(ctx, store.NewBuilder().Select("blocks", nil, nil))
	if err != nil {
		return nil, err
	}
	all := rowsToBlocks(rows)

	var pendingEmbed []store.Block
	for _, blk := range all {
		if blk.Embedding == nil && !blk.Pending {
			pendingEmbed = append(pendingEmbed, blk)
		}
	}

	if len(pendingEmbed) > 0 {
		texts := make([]string, len(pendingEmbed))
		for i, blk := range pendingEmbed {
			texts[i] = blk.Content
		}
		vecs, err := embedder.EmbedBatch(ctx, texts)
		if err != nil {
			for i := range pendingEmbed {
				pendingEmbed[i].Pending = true
			}
			if uerr := e.UpsertBlocks(ctx, pendingEmbed); uerr != nil {
				return nil, uerr
			}
		} else {
			for i := range pendingEmbed {
				if i < len(vecs) {
					pendingEmbed[i].Embedding = vecs[i]
				}
			}
			if uerr := e.UpsertBlocks(ctx, pendingEmbed); uerr != nil {
				return nil, uerr
			}
			for _, blk := range pendingEmbed {
				all = replaceBlock(all, blk.ID(), blk)
			}
		}
	}

	type scored struct {
		block store.Block
		score float64
	}
	var candidates []scored
	for _, blk := range all {
		if blk.Embedding == nil || blk.Pending {
			continue
		}
		score := cosineSimilarity(queryEmbedding, blk.Embedding)
		if score > threshold {
			candidates = append(candidates, scored{block: blk, score: score})
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	out := make([]store.Block, len(candidates))
	for i, c := range candidates {
		out[i] = c.block
	}
	return out, nil
}

func replaceBlock(blocks []store.Block, id string, replacement store.Block) []store.Block {
	for i, b := range blocks {
		if b.ID() == id {
			blocks[i] = replacement
			return blocks
		}
	}
	return blocks
}
